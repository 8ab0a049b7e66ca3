package bootloader

import (
	"errors"
	"fmt"
)

// ErrProgramSkipped is recorded for a row whose erase command failed. The
// row is not programmed, since programming a row that is not erased is
// undefined on NOR flash.
var ErrProgramSkipped = errors.New("program skipped: erase failed")

// ErrEmptyImage is the cause of an update that had no rows to flash.
var ErrEmptyImage = errors.New("image is empty, nothing flashed")

// UpdateError summarizes a failed update.
type UpdateError struct {
	Slot       string
	Rows       int
	FailedRows []int

	// Err is the first row failure
	Err error
}

func (e *UpdateError) Error() string {
	return fmt.Sprintf("update from slot %s failed: %d of %d rows failed, first: %v",
		e.Slot, len(e.FailedRows), e.Rows, e.Err)
}

func (e *UpdateError) Unwrap() error {
	return e.Err
}

// RowError collects the failures of one row.
type RowError struct {
	RowNum int
	Err    error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.RowNum, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}
