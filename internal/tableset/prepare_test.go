package tableset

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMintIDs(t *testing.T) {
	tbl, err := NewTable("data", []string{"name", "age"})
	require.NoError(t, err)
	require.NoError(t, tbl.AppendRow([]Value{Text("ana"), Int(30)}))
	require.NoError(t, tbl.AppendRow([]Value{Text("bob"), Int(41)}))

	out, err := MintIDs(tbl, false)
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "age", LineageColumn, IDColumn}, out.Columns())
	require.Equal(t, 2, out.Len())

	seen := map[string]bool{}
	for i := 0; i < out.Len(); i++ {
		row := out.Row(i)
		id := row.Value(IDColumn).Render()
		_, parseErr := uuid.Parse(id)
		assert.NoError(t, parseErr, "row %d id %q", i, id)
		assert.False(t, seen[id], "ids must be unique")
		seen[id] = true

		assert.True(t, row.Value(LineageColumn).IsAbsent())
	}

	// Original cells survive untouched.
	assert.Equal(t, "ana", out.Row(0).Value("name").Render())
	assert.Equal(t, "41", out.Row(1).Value("age").Render())
}

func TestMintIDsExistingColumn(t *testing.T) {
	tbl, err := NewTable("data", []string{"name", IDColumn})
	require.NoError(t, err)
	require.NoError(t, tbl.AppendRow([]Value{Text("ana"), Text("old-id")}))

	_, err = MintIDs(tbl, false)
	assert.ErrorIs(t, err, ErrIDColumnPresent)

	out, err := MintIDs(tbl, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"name", IDColumn, LineageColumn}, out.Columns())

	id := out.Row(0).Value(IDColumn).Render()
	assert.NotEqual(t, "old-id", id)
	_, parseErr := uuid.Parse(id)
	assert.NoError(t, parseErr)
}

func TestMintIDsKeepsLineage(t *testing.T) {
	tbl, err := NewTable("data", []string{"name", LineageColumn})
	require.NoError(t, err)
	require.NoError(t, tbl.AppendRow([]Value{Text("ana"), Text("uuid:prev")}))

	out, err := MintIDs(tbl, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"name", LineageColumn, IDColumn}, out.Columns())
	assert.Equal(t, "uuid:prev", out.Row(0).Value(LineageColumn).Render())
}
