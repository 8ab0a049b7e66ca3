package nvm

import (
	"fmt"
)

// RowOutOfRangeError indicates that a row lies outside the application region.
type RowOutOfRangeError struct {
	RowNum  int
	MaxRows int
}

func (e *RowOutOfRangeError) Error() string {
	return fmt.Sprintf("row %d is out of range: valid range is 0-%d",
		e.RowNum, e.MaxRows-1)
}

// RowSizeError indicates that row data does not have the layout's row size.
type RowSizeError struct {
	RowNum   int
	Expected int
	Actual   int
}

func (e *RowSizeError) Error() string {
	return fmt.Sprintf("row %d: expected %d bytes, got %d", e.RowNum, e.Expected, e.Actual)
}

// NotErasedError indicates that a row did not read back as erased after a
// successful or failed erase command.
type NotErasedError struct {
	RowNum int
	Addr   uint32
	Value  byte
}

func (e *NotErasedError) Error() string {
	return fmt.Sprintf("row %d not erased: byte at 0x%08X reads 0x%02X", e.RowNum, e.Addr, e.Value)
}

// EraseError wraps a failed erase command.
type EraseError struct {
	RowNum int
	Addr   uint32
	Err    error
}

func (e *EraseError) Error() string {
	return fmt.Sprintf("erase row %d at 0x%08X: %v", e.RowNum, e.Addr, e.Err)
}

func (e *EraseError) Unwrap() error {
	return e.Err
}

// PageWriteError indicates that one sub-page write of a row failed.
// The remaining pages of that row were not written.
type PageWriteError struct {
	RowNum int
	Page   int
	Addr   uint32
	Err    error
}

func (e *PageWriteError) Error() string {
	return fmt.Sprintf("write row %d page %d at 0x%08X: %v", e.RowNum, e.Page, e.Addr, e.Err)
}

func (e *PageWriteError) Unwrap() error {
	return e.Err
}

// ShortReadError indicates that an image source delivered fewer bytes than a
// full row. The row was padded with EraseValue.
type ShortReadError struct {
	RowNum int
	Want   int
	Got    int
}

func (e *ShortReadError) Error() string {
	return fmt.Sprintf("short read for row %d: got %d of %d bytes", e.RowNum, e.Got, e.Want)
}
