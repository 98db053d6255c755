package convert

import (
	"tablecast/internal/mapping"
	"tablecast/internal/tableset"
	"tablecast/internal/xdoc"
)

// populateMain writes the main row's fields under root, in mapping
// declaration order. Metadata columns, the lineage column, and
// group-only markers never populate nodes.
func (a *Assembler) populateMain(root *xdoc.Node, row tableset.Row) error {
	for _, f := range a.spec.Fields {
		if !row.Has(f.Name) {
			continue
		}

		if tableset.IsMetadataColumn(f.Name) || f.Name == tableset.LineageColumn {
			continue
		}

		if a.spec.IsGroupOnly(f.Name) {
			continue
		}

		if err := a.setField(root, f.Path, f.Name, row.Value(f.Name)); err != nil {
			return err
		}
	}

	return nil
}

// setField ensures the path's node chain exists under parent and writes
// the resolved cell text into the leaf. An absent cell still creates
// the leaf; it stays empty.
func (a *Assembler) setField(parent *xdoc.Node, path, field string, v tableset.Value) error {
	leaf := parent.EnsurePath(mapping.SplitPath(path))

	text, err := a.resolver.Resolve(field, v)
	if err != nil {
		return err
	}

	leaf.Text = text

	return nil
}
