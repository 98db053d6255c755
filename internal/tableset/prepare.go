package tableset

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrIDColumnPresent reports an existing identifier column when minting
// without force.
var ErrIDColumnPresent = errors.New("identifier column already present")

// MintIDs returns a copy of t carrying a fresh version-4 identifier per
// row, for building edit batches. Without force an existing identifier
// column is an error. The edit-lineage column is created empty when
// missing so callers can fill in the identifiers being superseded.
func MintIDs(t *Table, force bool) (*Table, error) {
	if t.HasColumn(IDColumn) && !force {
		return nil, fmt.Errorf("table %s: %w", t.Name(), ErrIDColumnPresent)
	}

	columns := append([]string(nil), t.Columns()...)
	if !t.HasColumn(LineageColumn) {
		columns = append(columns, LineageColumn)
	}

	if !t.HasColumn(IDColumn) {
		columns = append(columns, IDColumn)
	}

	out, err := NewTable(t.Name(), columns)
	if err != nil {
		return nil, err
	}

	idIdx := out.index[IDColumn]

	for _, row := range t.Rows() {
		cells := make([]Value, len(columns))
		for i := range cells {
			cells[i] = Absent()
		}

		copy(cells, row.cells)
		cells[idIdx] = Text(uuid.NewString())

		if err := out.AppendRow(cells); err != nil {
			return nil, err
		}
	}

	return out, nil
}
