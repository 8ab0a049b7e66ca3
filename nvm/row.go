package nvm

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

// Row is one fixed-size transfer unit of an image.
type Row struct {
	// Number is the row index relative to the layout base
	Number int

	// Data is exactly one row of bytes
	Data []byte
}

// NewRow returns an erased row of the given size.
func NewRow(number, size int) *Row {
	return &Row{
		Number: number,
		Data:   bytes.Repeat([]byte{EraseValue}, size),
	}
}

// ReadRow reads the next row from r.
//
// A short read is not fatal: the missing tail is filled with EraseValue and a
// *ShortReadError is returned together with the row, so callers can report it
// and still program the row. Any other read error returns a nil row.
//
// Example:
//
//	row, err := nvm.ReadRow(f, 7, nvm.RowSize)
//	var short *nvm.ShortReadError
//	if err != nil && !errors.As(err, &short) {
//	    return err
//	}
func ReadRow(r io.Reader, number, size int) (*Row, error) {
	row := NewRow(number, size)
	n, err := io.ReadFull(r, row.Data)
	switch {
	case err == nil:
		return row, nil
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		// ReadFull may have overwritten part of the tail before hitting EOF
		for i := n; i < size; i++ {
			row.Data[i] = EraseValue
		}
		return row, &ShortReadError{RowNum: number, Want: size, Got: n}
	default:
		return nil, fmt.Errorf("read row %d: %w", number, err)
	}
}

// Pages splits the row into PagesPerRow equal sub-page slices.
// The slices share memory with Data.
func (r *Row) Pages() [][]byte {
	pageSize := len(r.Data) / PagesPerRow
	pages := make([][]byte, 0, PagesPerRow)
	for i := 0; i < PagesPerRow; i++ {
		pages = append(pages, r.Data[i*pageSize:(i+1)*pageSize])
	}
	return pages
}

// Erased reports whether every byte of the row equals EraseValue.
func (r *Row) Erased() bool {
	return firstNotErased(r.Data) < 0
}

// SplitRows converts a contiguous byte range into rows of the given size.
// The last row is padded with EraseValue.
func SplitRows(data []byte, size int) []*Row {
	rows := make([]*Row, 0, (len(data)+size-1)/size)
	for off, n := 0, 0; off < len(data); off, n = off+size, n+1 {
		row := NewRow(n, size)
		copy(row.Data, data[off:])
		rows = append(rows, row)
	}
	return rows
}

// JoinRows concatenates rows back into a contiguous byte range, in the
// order given.
func JoinRows(rows []*Row) []byte {
	var buf bytes.Buffer
	for _, row := range rows {
		buf.Write(row.Data)
	}
	return buf.Bytes()
}

// firstNotErased returns the index of the first byte that is not
// EraseValue, or -1.
func firstNotErased(data []byte) int {
	for i, b := range data {
		if b != EraseValue {
			return i
		}
	}
	return -1
}
