package tableset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrMainTableMissing reports a table directory without the main table.
var ErrMainTableMissing = errors.New("main table not found")

// LoadDir loads every *.csv file in dir as one table named after the
// file (extension stripped). Files load in case-insensitive name order
// with the main table first. The first row of each file is the header;
// there is no layout detection.
func LoadDir(dir, mainName string) (*Set, error) {
	if mainName == "" {
		mainName = DefaultMainTable
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read table directory %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}

		files = append(files, e.Name())
	}

	sort.Slice(files, func(i, j int) bool {
		return strings.ToLower(files[i]) < strings.ToLower(files[j])
	})
	sort.SliceStable(files, func(i, j int) bool {
		return tableName(files[i]) == mainName && tableName(files[j]) != mainName
	})

	set := NewSet(mainName)

	for _, name := range files {
		t, err := ReadTable(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}

		if err := set.Add(t); err != nil {
			return nil, err
		}
	}

	if _, ok := set.Main(); !ok {
		return nil, fmt.Errorf("%w: no table named %q in %s", ErrMainTableMissing, mainName, dir)
	}

	return set, nil
}

// ReadTable reads one CSV file into a table named after the file.
func ReadTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open table file %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("table file %s is empty", path)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read header of %s: %w", path, err)
	}

	// Spreadsheet exports often carry a UTF-8 BOM.
	header[0] = strings.TrimPrefix(header[0], "\uFEFF")

	t, err := NewTable(tableName(filepath.Base(path)), header)
	if err != nil {
		return nil, err
	}

	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}

		cells := make([]Value, len(rec))
		for i, c := range rec {
			cells[i] = ParseCell(c)
		}

		if err := t.AppendRow(cells); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}

	return t, nil
}

// WriteTable writes the table as CSV to path, raw cell lexemes preserved.
func WriteTable(t *Table, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create table file %s: %w", path, err)
	}

	w := csv.NewWriter(f)

	write := func() error {
		if err := w.Write(t.Columns()); err != nil {
			return err
		}

		record := make([]string, len(t.Columns()))
		for _, row := range t.Rows() {
			for i := range record {
				record[i] = row.cells[i].Raw()
			}

			if err := w.Write(record); err != nil {
				return err
			}
		}

		w.Flush()

		return w.Error()
	}

	if err := write(); err != nil {
		f.Close()
		return fmt.Errorf("failed to write table file %s: %w", path, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write table file %s: %w", path, err)
	}

	return nil
}

func tableName(filename string) string {
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}
