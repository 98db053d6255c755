package convert

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tablecast/internal/mapping"
	"tablecast/internal/tableset"
)

func positionSpec(t *testing.T, withMappedPosition bool) *mapping.Spec {
	t.Helper()

	fields := []mapping.Field{
		{Name: "FIGURES", Path: "RESPONSES/FIGURES"},
		{Name: "figure_name", Path: "RESPONSES/FIGURES/figure_name"},
	}

	if withMappedPosition {
		fields = append(fields, mapping.Field{
			Name: "RESPONSES/FIGURES/position",
			Path: "RESPONSES/FIGURES/position",
		})
	}

	spec, err := mapping.NewSpec(fields, nil)
	require.NoError(t, err)

	return spec
}

func TestRepeatPositionSynthesis(t *testing.T) {
	set := tableset.NewSet("")
	addTable(t, set, "data", []string{tableset.IDColumn}, []string{"u1"})
	addTable(t, set, "FIGURES",
		[]string{tableset.IDColumn, "figure_name", "position"},
		[]string{"u1", "first", ""},
		[]string{"u1", "second", ""},
	)

	asm, err := NewAssembler(positionSpec(t, false), set, Config{FormID: "f", FormVersion: "v"}, zerolog.Nop())
	require.NoError(t, err)

	doc, err := asm.Convert("u1")
	require.NoError(t, err)

	want := `<f id="f" version="v">
    <RESPONSES>
        <FIGURES>
            <position>1</position>
            <figure_name>first</figure_name>
        </FIGURES>
        <FIGURES>
            <position>2</position>
            <figure_name>second</figure_name>
        </FIGURES>
    </RESPONSES>
    <__version__/>
    <meta>
        <instanceID>uuid:u1</instanceID>
    </meta>
</f>`

	assert.Equal(t, want, doc)
}

func TestRepeatPositionFromData(t *testing.T) {
	set := tableset.NewSet("")
	addTable(t, set, "data", []string{tableset.IDColumn}, []string{"u1"})
	addTable(t, set, "FIGURES",
		[]string{tableset.IDColumn, "figure_name", "RESPONSES/FIGURES/position"},
		[]string{"u1", "first", "5"},
	)

	asm, err := NewAssembler(positionSpec(t, true), set, Config{FormID: "f", FormVersion: "v"}, zerolog.Nop())
	require.NoError(t, err)

	doc, err := asm.Convert("u1")
	require.NoError(t, err)

	// The data's own position wins; none is synthesized.
	assert.Contains(t, doc, "<position>5</position>")
	assert.NotContains(t, doc, "<position>1</position>")
}

func TestRepeatBlankMappedPositionStaysEmpty(t *testing.T) {
	set := tableset.NewSet("")
	addTable(t, set, "data", []string{tableset.IDColumn}, []string{"u1"})
	addTable(t, set, "FIGURES",
		[]string{tableset.IDColumn, "figure_name", "RESPONSES/FIGURES/position"},
		[]string{"u1", "first", ""},
	)

	asm, err := NewAssembler(positionSpec(t, true), set, Config{FormID: "f", FormVersion: "v"}, zerolog.Nop())
	require.NoError(t, err)

	doc, err := asm.Convert("u1")
	require.NoError(t, err)

	// The synthesized marker is re-resolved against the blank mapped
	// cell, so it ends up empty rather than numbered.
	assert.Contains(t, doc, "<position/>")
	assert.NotContains(t, doc, "<position>1</position>")
}

func TestRepeatAncestorChainWithoutRows(t *testing.T) {
	set := tableset.NewSet("")
	addTable(t, set, "data", []string{tableset.IDColumn}, []string{"u1"}, []string{"u2"})
	addTable(t, set, "FIGURES",
		[]string{tableset.IDColumn, "figure_name"},
		[]string{"u1", "only for u1"},
	)

	asm, err := NewAssembler(positionSpec(t, false), set, Config{FormID: "f", FormVersion: "v"}, zerolog.Nop())
	require.NoError(t, err)

	doc, err := asm.Convert("u2")
	require.NoError(t, err)

	// The group's ancestor chain is ensured even with no instances.
	assert.Contains(t, doc, "<RESPONSES/>")
	assert.NotContains(t, doc, "<FIGURES>")
}

func TestRepeatUnmappedTableAttachesUnderRoot(t *testing.T) {
	set := tableset.NewSet("")
	addTable(t, set, "data", []string{tableset.IDColumn}, []string{"u1"})
	addTable(t, set, "extras",
		[]string{tableset.IDColumn, "extra_note"},
		[]string{"u1", "spare tarpaulins"},
	)

	asm, err := NewAssembler(positionSpec(t, false), set, Config{FormID: "f", FormVersion: "v"}, zerolog.Nop())
	require.NoError(t, err)

	doc, err := asm.Convert("u1")
	require.NoError(t, err)

	// No mapping entry for the table: instances sit under the root and
	// stay empty since no field path lives under the table name.
	assert.Contains(t, doc, "\n    <extras/>")
	assert.NotContains(t, doc, "spare tarpaulins")
}
