package bootloader

import (
	"errors"
	"time"
)

// RowResult is the outcome of one row of an update.
type RowResult struct {
	Row int

	// ShortRead is set when the image ran out before the row was full. It
	// is informational: the row is padded with the erase value and still
	// programmed.
	ShortRead error

	// ReadErr is set when the image could not be read at all
	ReadErr error

	EraseErr   error
	ProgramErr error
	VerifyErr  error
}

// OK reports whether the row was read, erased, programmed and verified.
func (r RowResult) OK() bool {
	return r.ReadErr == nil && r.EraseErr == nil && r.ProgramErr == nil && r.VerifyErr == nil
}

// Err returns the row's failures joined, or nil.
func (r RowResult) Err() error {
	if r.OK() {
		return nil
	}
	return &RowError{
		RowNum: r.Row,
		Err:    errors.Join(r.ReadErr, r.EraseErr, r.ProgramErr, r.VerifyErr),
	}
}

// Result is the outcome of one update attempt. It only lives for the boot
// that produced it.
type Result struct {
	// Slot is the slot that was installed
	Slot string

	// ImageSize is the size of the image file in bytes
	ImageSize int64

	// TotalRows is the number of rows the update set out to process
	TotalRows int

	// Rows holds one entry per attempted row, in order
	Rows []RowResult

	// Aborted is set when the update stopped early because of StopOnFailure
	Aborted bool

	Elapsed time.Duration
}

// OK reports whether every planned row succeeded. An update with no rows
// is not OK.
func (r *Result) OK() bool {
	if r.TotalRows == 0 || r.Aborted || len(r.Rows) != r.TotalRows {
		return false
	}
	for _, row := range r.Rows {
		if !row.OK() {
			return false
		}
	}
	return true
}

// FailedRows returns the numbers of the rows that failed.
func (r *Result) FailedRows() []int {
	var failed []int
	for _, row := range r.Rows {
		if !row.OK() {
			failed = append(failed, row.Row)
		}
	}
	return failed
}

// ShortReads returns the number of rows that were padded.
func (r *Result) ShortReads() int {
	n := 0
	for _, row := range r.Rows {
		if row.ShortRead != nil {
			n++
		}
	}
	return n
}

// Err collapses the result into nil or an *UpdateError.
func (r *Result) Err() error {
	if r.OK() {
		return nil
	}

	var first error
	for _, row := range r.Rows {
		if err := row.Err(); err != nil {
			first = err
			break
		}
	}
	switch {
	case first != nil:
	case r.TotalRows == 0:
		first = ErrEmptyImage
	default:
		first = errors.New("update incomplete")
	}
	return &UpdateError{
		Slot:       r.Slot,
		Rows:       r.TotalRows,
		FailedRows: r.FailedRows(),
		Err:        first,
	}
}
