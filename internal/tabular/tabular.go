// Package tabular provides the rectangular table abstraction uploads
// are parsed into: ordered, unique column names and rows of named
// cells. File-format decoding stops here; everything downstream works
// on a Table.
package tabular

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// Row holds one record's cells keyed by source column name.
type Row map[string]string

// Table is a rectangular named-column table.
type Table struct {
	Columns []string
	Rows    []Row
}

// Cell returns the value at the given row index and column, or the
// empty string when the column is absent.
func (t *Table) Cell(row int, column string) string {
	if row < 0 || row >= len(t.Rows) {
		return ""
	}
	return t.Rows[row][column]
}

// ReadCSV parses CSV data into a Table. The first record is the
// header; header names must be unique and non-empty. Ragged rows are
// rejected by the CSV reader's field-count check.
func ReadCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty file: no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	seen := make(map[string]struct{}, len(header))
	for i, name := range header {
		if name == "" {
			return nil, fmt.Errorf("column %d has an empty name", i+1)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("duplicate column name %q", name)
		}
		seen[name] = struct{}{}
	}

	table := &Table{Columns: header}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row %d: %w", len(table.Rows)+1, err)
		}
		row := make(Row, len(header))
		for i, name := range header {
			row[name] = record[i]
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

// ReadCSVFile parses a CSV file into a Table.
func ReadCSVFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return ReadCSV(f)
}
