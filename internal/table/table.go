// Package table is the tabular input layer shared by the threat, rule-table,
// requirement-matrix, and catalog loaders: CSV and XLSX readers producing
// typed header/row records, with case-insensitive column resolution and the
// schema error taxonomy.
package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// SchemaError reports a required column absent from an input. It is fatal:
// the run aborts before any output row is produced.
type SchemaError struct {
	Input  string
	Column string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: missing required column %q", e.Input, e.Column)
}

// InputMissingError reports a required input source that was not supplied.
type InputMissingError struct {
	Input string
}

func (e *InputMissingError) Error() string {
	return fmt.Sprintf("required input not supplied: %s", e.Input)
}

// Row maps a header name to its cell text. Cells for short records default to
// empty strings.
type Row map[string]string

// Table is one loaded tabular input: the header row (in file order) and the
// data rows keyed by header.
type Table struct {
	Name    string
	Headers []string
	Rows    []Row
}

// Open reads the file at path as XLSX when the extension says so, CSV
// otherwise. name labels the input in error messages.
func Open(path, name string) (*Table, error) {
	if path == "" {
		return nil, &InputMissingError{Input: name}
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm", ".xls":
		return ReadXLSX(path, name)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	defer f.Close()
	return ReadCSV(f, name)
}

// ReadCSV parses CSV input with a mandatory header row. Records shorter than
// the header are padded with empty cells; longer records keep only the
// headed cells.
func ReadCSV(r io.Reader, name string) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: empty input, header row required", name)
	}
	return fromRecords(records, name), nil
}

// ReadXLSX parses the first sheet of an Excel workbook.
func ReadXLSX(path, name string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%s: workbook has no sheets", name)
	}
	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: empty sheet, header row required", name)
	}
	return fromRecords(records, name), nil
}

func fromRecords(records [][]string, name string) *Table {
	headers := make([]string, 0, len(records[0]))
	for _, h := range records[0] {
		headers = append(headers, strings.TrimSpace(h))
	}

	t := &Table{Name: name, Headers: headers}
	for _, rec := range records[1:] {
		row := make(Row, len(headers))
		for i, h := range headers {
			if h == "" {
				continue
			}
			if i < len(rec) {
				row[h] = strings.TrimSpace(rec[i])
			} else {
				row[h] = ""
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// HasColumn reports whether col is present under its exact name.
func (t *Table) HasColumn(col string) bool {
	for _, h := range t.Headers {
		if h == col {
			return true
		}
	}
	return false
}

// EnsureColumn resolves col case-insensitively, renaming a differently-cased
// header to the requested spelling. A column absent entirely yields a
// SchemaError when required, or is created empty otherwise.
func (t *Table) EnsureColumn(col string, required bool) error {
	if t.HasColumn(col) {
		return nil
	}
	for i, h := range t.Headers {
		if strings.EqualFold(h, col) {
			t.Headers[i] = col
			for _, row := range t.Rows {
				row[col] = row[h]
				delete(row, h)
			}
			return nil
		}
	}
	if required {
		return &SchemaError{Input: t.Name, Column: col}
	}
	t.Headers = append(t.Headers, col)
	for _, row := range t.Rows {
		row[col] = ""
	}
	return nil
}

// FindColumn returns the first header satisfying match, or "".
func (t *Table) FindColumn(match func(string) bool) string {
	for _, h := range t.Headers {
		if match(h) {
			return h
		}
	}
	return ""
}
