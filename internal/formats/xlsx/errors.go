package xlsx

import (
	"errors"
	"fmt"
)

var (
	// ErrInputNotFound indicates the workbook path does not exist.
	ErrInputNotFound = errors.New("file not found")

	// ErrSheetNotFound indicates the named sheet is not in the workbook.
	ErrSheetNotFound = errors.New("sheet not found")

	// ErrColumnNotFound indicates no header cell matches the column name.
	ErrColumnNotFound = errors.New("column not found")
)

// WriteError reports a failure to persist a workbook.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("could not save %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}
