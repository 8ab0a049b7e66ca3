//go:build tinygo

// Package samd21 implements the bootloader's hardware boundaries for the
// Microchip SAM D21 under TinyGo: the NVM controller, the DSU CRC32 unit, the
// erratum fence register and the Cortex-M0+ handoff.
//
// Nothing here runs on a host. Host tools and tests use the sim package.
//
//	t := samd21.NewTarget()
//	bl := bootloader.New(card, t.Driver, t.Verifier, t.CPU, opts...)
//	bl.Run()
package samd21
