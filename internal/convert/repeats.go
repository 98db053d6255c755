package convert

import (
	"strconv"
	"strings"

	"tablecast/internal/mapping"
	"tablecast/internal/tableset"
	"tablecast/internal/xdoc"
)

// attachRepeats appends repeat-group instances for every secondary
// table carrying the identifier column. Tables without it are reference
// data, not repeat groups.
func (a *Assembler) attachRepeats(root *xdoc.Node, id string) error {
	for _, name := range a.tables.Names() {
		if name == a.tables.MainName() {
			continue
		}

		t, _ := a.tables.Table(name)
		if !t.HasColumn(tableset.IDColumn) {
			continue
		}

		parent := a.repeatParent(root, name)

		if err := a.addRepeatGroup(parent, t, id); err != nil {
			return err
		}
	}

	return nil
}

// repeatParent resolves where instances of the named group nest: the
// group path's ancestor chain, reusing nodes main population already
// created. Unmapped and top-level groups sit directly under the root.
func (a *Assembler) repeatParent(root *xdoc.Node, name string) *xdoc.Node {
	path, ok := a.spec.Path(name)
	if !ok {
		return root
	}

	parentPath := mapping.ParentPath(path)
	if parentPath == "" {
		return root
	}

	return root.EnsurePath(mapping.SplitPath(parentPath))
}

// addRepeatGroup appends one instance element per matching row, in
// table order. When the schema carries a position column, instances
// whose row leaves it blank get a synthesized 1-based position as their
// first child.
func (a *Assembler) addRepeatGroup(parent *xdoc.Node, t *tableset.Table, id string) error {
	rows := t.MatchRows(tableset.IDColumn, id)
	if len(rows) == 0 {
		return nil
	}

	repeatPath := a.spec.PathOr(t.Name(), t.Name())
	hasPosition := t.HasPositionColumn()
	positionColumn := repeatPath + "/position"

	for i, row := range rows {
		inst := parent.AddChild(t.Name())

		if hasPosition && row.Value(positionColumn).IsAbsent() {
			inst.AddChild("position").Text = strconv.Itoa(i + 1)
		}

		if err := a.populateRepeat(inst, row, repeatPath); err != nil {
			return err
		}
	}

	return nil
}

// populateRepeat writes the fields whose paths live under the group
// path into one instance, with the group prefix stripped.
func (a *Assembler) populateRepeat(inst *xdoc.Node, row tableset.Row, repeatPath string) error {
	prefix := repeatPath + "/"

	for _, f := range a.spec.Fields {
		if !row.Has(f.Name) || tableset.IsMetadataColumn(f.Name) {
			continue
		}

		if a.spec.IsGroupOnly(f.Name) {
			continue
		}

		if !strings.HasPrefix(f.Path, prefix) {
			continue
		}

		rel := f.Path[len(prefix):]

		if err := a.setField(inst, rel, f.Name, row.Value(f.Name)); err != nil {
			return err
		}
	}

	return nil
}
