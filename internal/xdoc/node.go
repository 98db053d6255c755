// Package xdoc builds and renders the hierarchical XML documents a form
// server accepts. Nodes keep their children in insertion order; there is
// no schema, callers shape the tree. The encoder pretty-prints with
// four-space indentation and no XML declaration.
package xdoc

// Attr is one element attribute.
type Attr struct {
	Name  string
	Value string
}

// Node is one document element.
type Node struct {
	Name     string
	Text     string
	Attrs    []Attr
	Children []*Node
}

// New returns a childless element.
func New(name string) *Node {
	return &Node{Name: name}
}

// SetAttr sets an attribute, replacing an existing one of the same name.
func (n *Node) SetAttr(name, value string) {
	for i := range n.Attrs {
		if n.Attrs[i].Name == name {
			n.Attrs[i].Value = value
			return
		}
	}

	n.Attrs = append(n.Attrs, Attr{Name: name, Value: value})
}

// Child returns the first direct child with the given name, nil if none.
func (n *Node) Child(name string) *Node {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}

	return nil
}

// EnsureChild returns the first direct child with the given name,
// appending a new one when missing.
func (n *Node) EnsureChild(name string) *Node {
	if c := n.Child(name); c != nil {
		return c
	}

	return n.AddChild(name)
}

// AddChild appends a new child element and returns it. Unlike
// EnsureChild it always appends, so repeated names yield siblings.
func (n *Node) AddChild(name string) *Node {
	c := New(name)
	n.Children = append(n.Children, c)

	return c
}

// EnsurePath walks segments from n, reusing existing children and
// creating missing ones, and returns the final node.
func (n *Node) EnsurePath(segments []string) *Node {
	current := n
	for _, seg := range segments {
		current = current.EnsureChild(seg)
	}

	return current
}
