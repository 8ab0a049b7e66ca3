package firmware

import (
	"fmt"

	"github.com/moffa90/go-sdboot/nvm"
	"github.com/moffa90/go-sdboot/storage"
)

// OpenError indicates that a slot's image could not be opened although its
// marker was present.
type OpenError struct {
	Slot Slot
	Name string
	Err  error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("open image %s for slot %s: %v", e.Name, e.Slot, e.Err)
}

func (e *OpenError) Unwrap() error {
	return e.Err
}

// Image is an open image file read sequentially, one row at a time.
type Image struct {
	Slot SlotConfig

	file    storage.File
	rowSize int
	next    int
}

// Open opens the image of a slot.
func Open(fsys storage.FS, slot SlotConfig, rowSize int) (*Image, error) {
	if rowSize <= 0 {
		return nil, fmt.Errorf("row size must be positive, got %d", rowSize)
	}

	f, err := fsys.Open(slot.Image)
	if err != nil {
		return nil, &OpenError{Slot: slot.Slot, Name: slot.Image, Err: err}
	}
	return &Image{
		Slot:    slot,
		file:    f,
		rowSize: rowSize,
	}, nil
}

// Size returns the image size in bytes.
func (img *Image) Size() int64 {
	return img.file.Size()
}

// Rows returns the number of rows needed to hold the whole image.
func (img *Image) Rows() int {
	return int((img.Size() + int64(img.rowSize) - 1) / int64(img.rowSize))
}

// NextRow reads the row at the cursor and advances it. Row numbers start at
// 0 and increase by one per call. Short reads return the padded row together
// with a *nvm.ShortReadError.
func (img *Image) NextRow() (*nvm.Row, error) {
	n := img.next
	img.next++
	return nvm.ReadRow(img.file, n, img.rowSize)
}

// Cursor returns the number of the row the next NextRow call reads.
func (img *Image) Cursor() int {
	return img.next
}

// Close closes the image file.
func (img *Image) Close() error {
	return img.file.Close()
}
