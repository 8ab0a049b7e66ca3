package nvm

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Flash is the hardware boundary of the driver. Addresses are absolute.
type Flash interface {
	// EraseRow erases the row starting at addr
	EraseRow(addr uint32) error

	// WritePage programs one sub-page starting at addr
	WritePage(addr uint32, data []byte) error

	// Read copies len(p) bytes starting at addr into p
	Read(addr uint32, p []byte) error
}

// Driver erases, programs and reads rows of the application region.
// It never touches an address outside [Layout.Base, Layout.End()).
type Driver struct {
	flash  Flash
	layout Layout
}

// NewDriver creates a driver for the given flash and layout.
//
// Example:
//
//	drv := nvm.NewDriver(flash, nvm.DefaultLayout)
func NewDriver(flash Flash, layout Layout) *Driver {
	if flash == nil {
		panic("flash cannot be nil")
	}
	if err := layout.Validate(); err != nil {
		panic(fmt.Sprintf("invalid layout: %v", err))
	}

	return &Driver{
		flash:  flash,
		layout: layout,
	}
}

// Layout returns the driver's memory layout.
func (d *Driver) Layout() Layout {
	return d.layout
}

// Erase erases one row and checks that every byte reads back as EraseValue.
//
// Erasing an erased row succeeds. When the erase command fails the row is
// still read back; the command error (*EraseError) and a failed
// postcondition (*NotErasedError) are joined so both get reported.
func (d *Driver) Erase(row int) error {
	if err := d.checkRange(row); err != nil {
		return err
	}

	addr := d.layout.Addr(row)
	var errs []error
	if err := d.flash.EraseRow(addr); err != nil {
		errs = append(errs, &EraseError{RowNum: row, Addr: addr, Err: err})
	}

	data, err := d.Read(row)
	if err != nil {
		errs = append(errs, fmt.Errorf("read back row %d: %w", row, err))
	} else if i := firstNotErased(data); i >= 0 {
		errs = append(errs, &NotErasedError{
			RowNum: row,
			Addr:   addr + uint32(i),
			Value:  data[i],
		})
	}

	return errors.Join(errs...)
}

// Program writes one row as PagesPerRow sub-page writes. The first failing
// page aborts the row and is returned as a *PageWriteError.
//
// The row must have been erased by Erase beforehand.
func (d *Driver) Program(row int, data []byte) error {
	if err := d.checkRange(row); err != nil {
		return err
	}
	if len(data) != d.layout.RowSize {
		return &RowSizeError{RowNum: row, Expected: d.layout.RowSize, Actual: len(data)}
	}

	r := Row{Number: row, Data: data}
	addr := d.layout.Addr(row)
	pageSize := d.layout.PageSize()
	for i, page := range r.Pages() {
		pageAddr := addr + uint32(i*pageSize)
		if err := d.flash.WritePage(pageAddr, page); err != nil {
			return &PageWriteError{RowNum: row, Page: i, Addr: pageAddr, Err: err}
		}
	}

	return nil
}

// Read returns a copy of the live contents of one row.
func (d *Driver) Read(row int) ([]byte, error) {
	if err := d.checkRange(row); err != nil {
		return nil, err
	}

	data := make([]byte, d.layout.RowSize)
	if err := d.flash.Read(d.layout.Addr(row), data); err != nil {
		return nil, fmt.Errorf("read row %d: %w", row, err)
	}
	return data, nil
}

// ReadWord reads the little-endian 32-bit word at byte offset off from the
// layout base.
func (d *Driver) ReadWord(off uint32) (uint32, error) {
	if int(off)+4 > d.layout.Size() {
		return 0, fmt.Errorf("word offset 0x%X outside application region", off)
	}

	var b [4]byte
	if err := d.flash.Read(d.layout.Base+off, b[:]); err != nil {
		return 0, fmt.Errorf("read word at 0x%08X: %w", d.layout.Base+off, err)
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func (d *Driver) checkRange(row int) error {
	if !d.layout.Contains(row) {
		return &RowOutOfRangeError{RowNum: row, MaxRows: d.layout.MaxRows}
	}
	return nil
}
