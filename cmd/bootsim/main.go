// Command bootsim runs the SD card bootloader against a simulated device.
//
// A device is a CBOR snapshot of the simulated flash, fence register and CPU.
// A card is a host directory standing in for the SD card volume.
//
//	bootsim init --app resident.bin
//	bootsim stage --slot a new.bin
//	bootsim boot --tui
//	bootsim dump --row 0 --count 2
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
