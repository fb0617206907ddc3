// Package spreadsheet reads and writes tabular datasets with named
// columns, backed by CSV files.
package spreadsheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var ErrEmptyDataset = errors.New("dataset has no header row")

// OutputSuffix marks the derived sibling file a run writes its result to.
const OutputSuffix = "_atualizado"

// Table is an in-memory dataset: a header of column names plus rows
// addressable by index and column name. Rows are mutable in place;
// columns are never added after load.
type Table struct {
	columns []string
	index   map[string]int
	rows    [][]string
}

// Load reads the whole CSV file into memory. Short rows are padded to
// the header width so every column stays addressable.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse dataset %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, ErrEmptyDataset
	}

	columns := records[0]
	index := make(map[string]int, len(columns))
	for i, name := range columns {
		index[strings.TrimSpace(name)] = i
	}

	rows := records[1:]
	for i, row := range rows {
		if len(row) < len(columns) {
			padded := make([]string, len(columns))
			copy(padded, row)
			rows[i] = padded
		}
	}

	return &Table{columns: columns, index: index, rows: rows}, nil
}

// ReadColumns returns just the header of the file, for listing the
// selectable column names without loading every row.
func ReadColumns(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset header %s: %w", path, err)
	}

	columns := make([]string, len(header))
	for i, name := range header {
		columns[i] = strings.TrimSpace(name)
	}
	return columns, nil
}

func (t *Table) Columns() []string {
	return t.columns
}

func (t *Table) Len() int {
	return len(t.rows)
}

func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Value returns the cell at (row, column). The second result is false
// when the column does not exist.
func (t *Table) Value(row int, column string) (string, bool) {
	pos, ok := t.index[column]
	if !ok || row < 0 || row >= len(t.rows) {
		return "", false
	}
	return t.rows[row][pos], true
}

// SetValue writes the cell at (row, column) and reports whether the
// column exists. Unknown columns are never created.
func (t *Table) SetValue(row int, column string, value string) bool {
	pos, ok := t.index[column]
	if !ok || row < 0 || row >= len(t.rows) {
		return false
	}
	t.rows[row][pos] = value
	return true
}

// WriteTo serializes the table to path, header first, preserving the
// original column order.
func (t *Table) WriteTo(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %s: %w", path, err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	if err := writer.Write(t.columns); err != nil {
		return fmt.Errorf("failed to write header to %s: %w", path, err)
	}
	for _, row := range t.rows {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row to %s: %w", path, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// OutputPath derives the sibling path a run writes to: the input name
// with OutputSuffix inserted before the extension.
func OutputPath(inputPath string) string {
	ext := filepath.Ext(inputPath)
	return strings.TrimSuffix(inputPath, ext) + OutputSuffix + ext
}
