// Package firmware decides which candidate image to install and reads it row
// by row.
//
// # Slots and Markers
//
// There are two image slots, A and B. Each has a marker file and an image
// file on the storage volume:
//
//	Slot A: Application_New.txt  Application_New.bin
//	Slot B: FlagB.txt            TestB.bin
//
// A marker's presence alone requests an update; its contents are ignored.
// Select checks the slots in priority order, deletes the marker of the first
// slot found and returns it. The marker is deleted before anything is
// flashed, so a reset during flashing does not retry the update.
//
// # Image Format
//
// An image is a raw flat binary matching the application's memory layout.
// There is no header, length field or embedded checksum.
//
//	img, err := firmware.Open(fsys, slot, nvm.RowSize)
//	if err != nil {
//	    return err
//	}
//	defer img.Close()
//
//	for i := 0; i < nvm.MaxRows; i++ {
//	    row, err := img.NextRow()
//	    ...
//	}
package firmware
