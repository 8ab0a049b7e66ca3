// Package handoff transfers control from the bootloader to the resident
// application.
//
// The application's vector table sits at its base address: the first word is
// the initial stack pointer, the second the reset handler. Jump rebases the
// vector table to the application, loads the stack pointer and branches to
// the reset handler. On hardware it never returns.
//
// All peripherals the bootloader enabled must be shut down before Jump; the
// application initializes them again and inherits whatever state is left.
package handoff

import (
	"fmt"

	"github.com/moffa90/go-sdboot/nvm"
)

// VTORMask keeps the bits of an address that VTOR.TBLOFF can hold.
const VTORMask = 0xFFFFFF80

// CPU is the processor boundary. It is the only unsafe part of the
// bootloader.
type CPU interface {
	// SetVTOR points the vector table at base
	SetVTOR(base uint32)

	// Enter loads sp into the main stack pointer and branches to entry.
	// Both happen in one step, nothing may touch the stack in between.
	Enter(sp, entry uint32)

	// SystemReset resets the device
	SystemReset()
}

// WordReader reads 32-bit words at offsets from the application base.
// *nvm.Driver implements it.
type WordReader interface {
	ReadWord(off uint32) (uint32, error)
}

// Vectors is the head of the application's vector table.
type Vectors struct {
	StackPointer uint32
	ResetHandler uint32
}

// Erased reports whether the vector words look like erased memory, which
// means no application is installed.
func (v Vectors) Erased() bool {
	return v.StackPointer == 0xFFFFFFFF && v.ResetHandler == 0xFFFFFFFF
}

func (v Vectors) String() string {
	return fmt.Sprintf("sp=0x%08X reset=0x%08X", v.StackPointer, v.ResetHandler)
}

// ReadVectors reads the stack pointer and reset vector of the application.
func ReadVectors(mem WordReader) (Vectors, error) {
	sp, err := mem.ReadWord(0)
	if err != nil {
		return Vectors{}, fmt.Errorf("read stack pointer: %w", err)
	}
	entry, err := mem.ReadWord(nvm.ResetVectorOffset)
	if err != nil {
		return Vectors{}, fmt.Errorf("read reset vector: %w", err)
	}
	return Vectors{StackPointer: sp, ResetHandler: entry}, nil
}

// Jump hands control to the application at base using the given vectors.
func Jump(cpu CPU, base uint32, v Vectors) {
	cpu.SetVTOR(base & VTORMask)
	cpu.Enter(v.StackPointer, v.ResetHandler)
}
