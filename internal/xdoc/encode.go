package xdoc

import (
	"encoding/xml"
	"strings"
)

const indentStep = "    "

// Marshal renders the tree as indented XML without a declaration.
// Childless elements with empty text self-close; a lone text value sits
// inline in its element; text alongside children gets its own line.
func Marshal(root *Node) string {
	var b strings.Builder
	encode(&b, root, 0)

	return strings.TrimSuffix(b.String(), "\n")
}

func encode(b *strings.Builder, n *Node, depth int) {
	indent := strings.Repeat(indentStep, depth)

	b.WriteString(indent)
	b.WriteString("<")
	b.WriteString(n.Name)

	for _, a := range n.Attrs {
		b.WriteString(" ")
		b.WriteString(a.Name)
		b.WriteString(`="`)
		b.WriteString(escape(a.Value))
		b.WriteString(`"`)
	}

	switch {
	case len(n.Children) == 0 && n.Text == "":
		b.WriteString("/>\n")
	case len(n.Children) == 0:
		b.WriteString(">")
		b.WriteString(escape(n.Text))
		b.WriteString("</")
		b.WriteString(n.Name)
		b.WriteString(">\n")
	default:
		b.WriteString(">\n")

		if n.Text != "" {
			b.WriteString(indent)
			b.WriteString(indentStep)
			b.WriteString(escape(n.Text))
			b.WriteString("\n")
		}

		for _, c := range n.Children {
			encode(b, c, depth+1)
		}

		b.WriteString(indent)
		b.WriteString("</")
		b.WriteString(n.Name)
		b.WriteString(">\n")
	}
}

func escape(s string) string {
	var b strings.Builder
	if err := xml.EscapeText(&b, []byte(s)); err != nil {
		return s
	}

	return b.String()
}

// Sanitize drops blank lines and XML declaration lines from a rendered
// document.
func Sanitize(s string) string {
	lines := strings.Split(s, "\n")

	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "<?xml") {
			continue
		}

		kept = append(kept, line)
	}

	return strings.Join(kept, "\n")
}
