// Package nvm erases, programs and reads rows of a microcontroller's
// non-volatile program memory.
//
// # Rows
//
// A row is the unit of erase, program and verify. Row n lives at
//
//	Layout.Base + n*Layout.RowSize
//
// and is programmed as PagesPerRow equal sub-page writes. A row is always
// erased before it is programmed; the Driver never programs a row that it has
// not just erased through Erase, callers must keep that order.
//
// # Hardware Independence
//
// This package does NOT touch hardware itself. Users provide a Flash
// implementation for their target:
//
//	type Flash interface {
//	    EraseRow(addr uint32) error
//	    WritePage(addr uint32, data []byte) error
//	    Read(addr uint32, p []byte) error
//	}
//
// The sim package provides a RAM-backed implementation for tests and host
// tools, hw/samd21 drives the SAM D21 NVM controller under TinyGo.
//
// # Basic Usage
//
//	drv := nvm.NewDriver(flash, nvm.DefaultLayout)
//
//	if err := drv.Erase(3); err != nil {
//	    log.Fatal(err)
//	}
//	if err := drv.Program(3, data); err != nil {
//	    log.Fatal(err)
//	}
//	got, err := drv.Read(3)
//
// # Error Handling
//
// The package provides structured error types:
//   - RowOutOfRangeError: row outside [0, MaxRows)
//   - RowSizeError: data length differs from the row size
//   - NotErasedError: a byte did not read back as EraseValue after erase
//   - PageWriteError: one sub-page write failed, remaining pages skipped
//   - ShortReadError: an image source delivered fewer bytes than a row
package nvm
