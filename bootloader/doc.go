// Package bootloader runs the boot sequence of a microcontroller that takes
// application updates from a removable storage volume.
//
// # Overview
//
// One call to Run walks the boot state machine:
//
//	INIT -> MOUNT_STORAGE -> SELECT_IMAGE -> [APPLY_UPDATE] -> HANDOFF
//	                  \-> RESET
//
//   - The storage volume is mounted. If that fails the device resets after
//     a delay.
//   - The markers are checked in slot priority order. The first marker found
//     is deleted and its slot selected.
//   - The selected image is installed row by row: read, erase, program,
//     verify. A failing row is recorded and the next row attempted.
//   - Storage and peripherals are shut down and control jumps to the
//     application, whether or not the update succeeded.
//
// # Basic Usage
//
//	drv := nvm.NewDriver(flash, nvm.DefaultLayout)
//	v := integrity.NewVerifier(engine, integrity.NewFence(reg), drv)
//
//	bl := bootloader.New(card, drv, v, cpu)
//	bl.Run() // never returns on hardware
//
// On simulated targets Run returns a Report describing the boot.
//
// # Progress Tracking
//
// Track the boot with a callback. It is called on every state change and
// after every row of an update:
//
//	bl := bootloader.New(card, drv, v, cpu,
//	    bootloader.WithProgressCallback(func(p bootloader.Progress) {
//	        fmt.Printf("[%s] %.1f%% - Row %d/%d\n",
//	            p.State, p.Percentage, p.CurrentRow, p.TotalRows)
//	    }),
//	)
//
// # Configuration Options
//
//	bl := bootloader.New(card, drv, v, cpu,
//	    bootloader.WithLogger(myLogger),
//	    bootloader.WithMaxRows(360),
//	    bootloader.WithStopOnFailure(false),
//	    bootloader.WithResetDelay(5*time.Second),
//	    bootloader.WithPeripherals(console),
//	)
//
// By default every update processes exactly MaxRows rows no matter how large
// the image is. WithRowsFromImageSize limits the update to the rows the image
// occupies.
//
// # Updating Without Booting
//
// Updater runs only the APPLY_UPDATE step, which is useful for host tools:
//
//	u := bootloader.NewUpdater(drv, v, bootloader.WithMaxRows(16))
//	res := u.Apply(img)
//	if err := res.Err(); err != nil {
//	    var upd *bootloader.UpdateError
//	    errors.As(err, &upd)
//	    fmt.Println("failed rows:", upd.FailedRows)
//	}
//
// # Error Handling
//
// The package provides structured error types:
//   - UpdateError: summary of a failed update with the failed row numbers
//   - RowError: all failures of one row, joined
//   - ErrProgramSkipped: a row was not programmed because its erase failed
//   - firmware.OpenError: the selected image could not be opened
//   - storage.MountError: the volume could not be brought up
//
// Row errors unwrap to the nvm and integrity error types, so errors.As finds
// an *nvm.PageWriteError or an *integrity.ChecksumMismatchError through them.
//
// # Hardware Independence
//
// This package does NOT touch hardware. Flash, the CRC unit, the storage
// volume and the CPU are all behind interfaces; the sim package provides a
// complete simulated device and hw/samd21 the real one.
package bootloader
