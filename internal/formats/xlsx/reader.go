// Package xlsx reads subjects from, and writes descriptions into, .xlsx workbooks.
//
// Rows are addressed by their 1-based position in the sheet. Row 1 is always
// the header and is never treated as data.
package xlsx

import (
	"fmt"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Row is a single subject read from a sheet, or built from a supplied list.
type Row struct {
	ID      int    `json:"row" yaml:"row"`
	Subject string `json:"subject" yaml:"subject"`
}

// ReadSubjects opens the workbook at path and returns one Row for every
// non-empty cell below the header in the named column, in ascending row order.
func ReadSubjects(path, sheet, column string) ([]Row, error) {
	f, err := open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if err := requireSheet(f, sheet); err != nil {
		return nil, err
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("could not read sheet %q: %w", sheet, err)
	}

	col := 0
	if len(rows) > 0 {
		col = headerIndex(rows[0], column)
	}
	if col == 0 {
		return nil, fmt.Errorf("%w: %q in sheet %q", ErrColumnNotFound, column, sheet)
	}

	var out []Row
	for r := 2; r <= len(rows); r++ {
		cell, err := excelize.CoordinatesToCellName(col, r)
		if err != nil {
			return nil, fmt.Errorf("invalid cell coordinates: %w", err)
		}
		value, err := f.GetCellValue(sheet, cell)
		if err != nil {
			return nil, fmt.Errorf("could not read cell %s: %w", cell, err)
		}
		if subject := strings.TrimSpace(value); subject != "" {
			out = append(out, Row{ID: r, Subject: subject})
		}
	}

	return out, nil
}

// RowsFromList numbers subjects as they will appear in a freshly created
// sheet: the first subject lands on row 2, directly below the header.
func RowsFromList(subjects []string) []Row {
	out := make([]Row, len(subjects))
	for i, s := range subjects {
		out[i] = Row{ID: i + 2, Subject: s}
	}
	return out
}

// SplitList splits a delimited subject list, trimming whitespace and
// dropping empty entries.
func SplitList(list, sep string) []string {
	var out []string
	for _, part := range strings.Split(list, sep) {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func open(path string) (*excelize.File, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s — check that the path is correct", ErrInputNotFound, path)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not open %s — is this a valid .xlsx file? %w", path, err)
	}
	return f, nil
}

func requireSheet(f *excelize.File, name string) error {
	idx, err := f.GetSheetIndex(name)
	if err == nil && idx >= 0 {
		return nil
	}
	return fmt.Errorf("%w: %q — available sheets: %v", ErrSheetNotFound, name, f.GetSheetList())
}

// headerIndex returns the 1-based column whose header equals name exactly,
// or 0. When several headers match, the rightmost one wins.
func headerIndex(header []string, name string) int {
	col := 0
	for i, cell := range header {
		if cell == name {
			col = i + 1
		}
	}
	return col
}

// columnCount is the widest row in the sheet.
func columnCount(rows [][]string) int {
	n := 0
	for _, row := range rows {
		if len(row) > n {
			n = len(row)
		}
	}
	return n
}
