package nvm

import "fmt"

// Memory layout constants shared with the application build.
const (
	// AppBase is the application base address. Everything below it belongs
	// to the bootloader.
	AppBase = 0x12000

	// ResetVectorOffset is the offset of the application's reset vector from
	// its base address. The word at offset 0 is the initial stack pointer.
	ResetVectorOffset = 0x04

	// RowSize is the number of bytes in one NVM row
	RowSize = 256

	// PagesPerRow is the number of sub-page writes that make up a row
	PagesPerRow = 4

	// PageSize is the number of bytes written by one sub-page write
	PageSize = RowSize / PagesPerRow

	// MaxRows is the number of rows processed for one image
	MaxRows = 360

	// EraseValue is the value every byte of an erased row reads as
	EraseValue = 0xFF
)

// Layout describes the application region of program memory.
type Layout struct {
	// Base is the address of row 0
	Base uint32

	// RowSize is the size of one row in bytes. Must be a multiple of PagesPerRow.
	RowSize int

	// MaxRows is the number of rows in the application region
	MaxRows int
}

// DefaultLayout is the layout of the reference hardware.
var DefaultLayout = Layout{
	Base:    AppBase,
	RowSize: RowSize,
	MaxRows: MaxRows,
}

// PageSize returns the size of one sub-page write.
func (l Layout) PageSize() int {
	return l.RowSize / PagesPerRow
}

// Size returns the size of the application region in bytes.
func (l Layout) Size() int {
	return l.RowSize * l.MaxRows
}

// End returns the first address past the application region.
func (l Layout) End() uint32 {
	return l.Base + uint32(l.Size())
}

// Addr returns the address of the given row.
func (l Layout) Addr(row int) uint32 {
	return l.Base + uint32(row*l.RowSize)
}

// Contains reports whether row lies inside the application region.
func (l Layout) Contains(row int) bool {
	return row >= 0 && row < l.MaxRows
}

// Validate checks that the layout can be driven row by row.
func (l Layout) Validate() error {
	if l.RowSize <= 0 || l.RowSize%PagesPerRow != 0 {
		return fmt.Errorf("row size %d is not a positive multiple of %d", l.RowSize, PagesPerRow)
	}
	if l.MaxRows <= 0 {
		return fmt.Errorf("max rows must be positive, got %d", l.MaxRows)
	}
	if l.Base == 0 {
		return fmt.Errorf("application base cannot be 0: the bootloader lives there")
	}
	if uint64(l.Base)+uint64(l.RowSize)*uint64(l.MaxRows) >= 1<<32 {
		return fmt.Errorf("application region %s runs past the end of the address space", l)
	}
	return nil
}

func (l Layout) String() string {
	return fmt.Sprintf("base=0x%05X row=%d rows=%d", l.Base, l.RowSize, l.MaxRows)
}
