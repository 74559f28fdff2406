package xlsx

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

// Layout of a workbook built by Create.
const (
	CreatedSheet      = "Boat Types"
	SubjectHeader     = "Boat Type"
	DescriptionHeader = "Information"
)

// Entry is a description to be written into the row it was read from.
type Entry struct {
	Row         int
	Subject     string
	Description string
}

// Update writes each entry's description into the target column of the named
// sheet and saves the workbook in place. The target column is appended after
// the last used column when no header matches it. The sheet itself is never
// created.
func Update(path, sheet, target string, entries []Entry) error {
	f, err := open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := requireSheet(f, sheet); err != nil {
		return err
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("could not read sheet %q: %w", sheet, err)
	}

	col := 0
	if len(rows) > 0 {
		col = headerIndex(rows[0], target)
	}
	if col == 0 {
		col = columnCount(rows) + 1
		if err := setCell(f, sheet, col, 1, target); err != nil {
			return err
		}
	}

	for _, e := range entries {
		if e.Row < 2 {
			return fmt.Errorf("row %d for %q would overwrite the header", e.Row, e.Subject)
		}
		if err := setCell(f, sheet, col, e.Row, e.Description); err != nil {
			return err
		}
	}

	return save(f, path)
}

// Create builds a new workbook with a single "Boat Types" sheet: a header row
// followed by one row per subject with the description left empty.
func Create(path string, subjects []string) error {
	f := excelize.NewFile()
	defer f.Close()

	// Rename default sheet
	if err := f.SetSheetName(f.GetSheetName(0), CreatedSheet); err != nil {
		return fmt.Errorf("could not rename sheet: %w", err)
	}

	if err := f.SetSheetRow(CreatedSheet, "A1", &[]interface{}{SubjectHeader, DescriptionHeader}); err != nil {
		return fmt.Errorf("could not write header: %w", err)
	}
	if err := f.SetColWidth(CreatedSheet, "A", "A", 20); err != nil {
		return fmt.Errorf("could not size column A: %w", err)
	}
	if err := f.SetColWidth(CreatedSheet, "B", "B", 80); err != nil {
		return fmt.Errorf("could not size column B: %w", err)
	}

	for _, row := range RowsFromList(subjects) {
		if err := setCell(f, CreatedSheet, 1, row.ID, row.Subject); err != nil {
			return err
		}
	}

	return save(f, path)
}

func setCell(f *excelize.File, sheet string, col, row int, value string) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("invalid cell coordinates: %w", err)
	}
	if err := f.SetCellStr(sheet, cell, value); err != nil {
		return fmt.Errorf("could not set cell %s: %w", cell, err)
	}
	return nil
}

// save writes the workbook next to path and renames it into place, so an
// interrupted run never leaves a half-written file behind.
func save(f *excelize.File, path string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".boatkit-*.xlsx")
	if err != nil {
		return &WriteError{Path: path, Err: err}
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := f.WriteTo(tmp); err != nil {
		tmp.Close()
		return &WriteError{Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &WriteError{Path: path, Err: err}
	}

	mode := os.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		return &WriteError{Path: path, Err: err}
	}

	if err := os.Rename(tmpName, path); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	return nil
}
