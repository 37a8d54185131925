package engine

import (
	"errors"
	"fmt"
)

// SheetError reports API misuse: a genuine caller/programmer mistake (a nil
// dependency, a malformed constructor call), never an in-band cell value.
// Mirrors the teacher's AppError/NewApplicationError split (sheet.go)
// between spreadsheet-level errors and SpreadsheetError cell values —
// this module keeps the same two-tier split: SheetError for API misuse,
// formula.ErrorCode for cell contents, never conflated.
type SheetError struct {
	Op  string
	Err error
}

func (e *SheetError) Error() string { return fmt.Sprintf("sheetcore: %s: %v", e.Op, e.Err) }
func (e *SheetError) Unwrap() error { return e.Err }

func newSheetError(op string, err error) *SheetError {
	return &SheetError{Op: op, Err: err}
}

var errNilComponent = errors.New("nil component")
