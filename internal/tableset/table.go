package tableset

import (
	"errors"
	"fmt"
	"strings"
)

// Column conventions of the survey-export format.
const (
	// IDColumn joins repeat-table rows to their logical record.
	IDColumn = "_submission__uuid"
	// LineageColumn carries the identifier a resubmission supersedes.
	LineageColumn = "deprecatedID"
	// MetaPrefix marks export metadata columns that never map to nodes.
	MetaPrefix = "_"
	// DefaultMainTable is the conventional name of the main table.
	DefaultMainTable = "data"
)

// IsMetadataColumn reports whether the column is export metadata.
func IsMetadataColumn(name string) bool {
	return strings.HasPrefix(name, MetaPrefix)
}

// Table is one named sheet of input: a header and typed rows.
type Table struct {
	name    string
	columns []string
	index   map[string]int
	rows    [][]Value
}

// NewTable creates an empty table with the given header.
func NewTable(name string, columns []string) (*Table, error) {
	if name == "" {
		return nil, errors.New("empty table name")
	}

	index := make(map[string]int, len(columns))
	for i, c := range columns {
		if _, dup := index[c]; dup {
			return nil, fmt.Errorf("table %s: duplicate column %q", name, c)
		}

		index[c] = i
	}

	return &Table{name: name, columns: columns, index: index}, nil
}

// Name returns the table name.
func (t *Table) Name() string {
	return t.name
}

// Columns returns the header in file order.
func (t *Table) Columns() []string {
	return t.columns
}

// HasColumn reports whether the header contains name.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// AppendRow adds one row; its arity must match the header.
func (t *Table) AppendRow(cells []Value) error {
	if len(cells) != len(t.columns) {
		return fmt.Errorf("table %s: row has %d cells, header has %d columns",
			t.name, len(cells), len(t.columns))
	}

	t.rows = append(t.rows, cells)

	return nil
}

// Row returns the i-th row.
func (t *Table) Row(i int) Row {
	return Row{t: t, cells: t.rows[i]}
}

// Rows returns all rows in table order.
func (t *Table) Rows() []Row {
	rows := make([]Row, len(t.rows))
	for i := range t.rows {
		rows[i] = Row{t: t, cells: t.rows[i]}
	}

	return rows
}

// MatchRows returns the rows whose col cell renders equal to want, in
// table order. Absent cells never match.
func (t *Table) MatchRows(col, want string) []Row {
	i, ok := t.index[col]
	if !ok {
		return nil
	}

	var out []Row
	for _, cells := range t.rows {
		v := cells[i]
		if v.IsAbsent() {
			continue
		}

		if v.Render() == want {
			out = append(out, Row{t: t, cells: cells})
		}
	}

	return out
}

// HasPositionColumn reports whether any non-metadata column name
// contains "position", meaning the schema expects an ordering indicator.
func (t *Table) HasPositionColumn() bool {
	for _, c := range t.columns {
		if IsMetadataColumn(c) {
			continue
		}

		if strings.Contains(c, "position") {
			return true
		}
	}

	return false
}

// Row is one record of a table.
type Row struct {
	t     *Table
	cells []Value
}

// Has reports whether the row's table carries the column.
func (r Row) Has(col string) bool {
	return r.t.HasColumn(col)
}

// Value returns the cell for col, Absent when the column is missing.
func (r Row) Value(col string) Value {
	i, ok := r.t.index[col]
	if !ok {
		return Absent()
	}

	return r.cells[i]
}

// Set is the loaded collection of tables; exactly one is the main table.
type Set struct {
	mainName string
	names    []string
	tables   map[string]*Table
}

// NewSet creates an empty set whose main table is mainName (the
// conventional name when empty).
func NewSet(mainName string) *Set {
	if mainName == "" {
		mainName = DefaultMainTable
	}

	return &Set{mainName: mainName, tables: make(map[string]*Table)}
}

// Add registers a table, keeping insertion order.
func (s *Set) Add(t *Table) error {
	if _, dup := s.tables[t.Name()]; dup {
		return fmt.Errorf("duplicate table %q", t.Name())
	}

	s.names = append(s.names, t.Name())
	s.tables[t.Name()] = t

	return nil
}

// MainName returns the configured main table name.
func (s *Set) MainName() string {
	return s.mainName
}

// Main returns the main table.
func (s *Set) Main() (*Table, bool) {
	t, ok := s.tables[s.mainName]
	return t, ok
}

// Table returns a table by name.
func (s *Set) Table(name string) (*Table, bool) {
	t, ok := s.tables[name]
	return t, ok
}

// Names returns the table names in insertion order.
func (s *Set) Names() []string {
	return s.names
}
