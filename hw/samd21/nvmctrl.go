//go:build tinygo

package samd21

import (
	"errors"
	"runtime/volatile"
	"unsafe"

	"github.com/moffa90/go-sdboot/nvm"
)

// NVMCTRL registers.
const (
	nvmctrlBase = 0x41004000

	nvmCtrlA   = nvmctrlBase + 0x00
	nvmCtrlB   = nvmctrlBase + 0x04
	nvmIntFlag = nvmctrlBase + 0x14
	nvmStatus  = nvmctrlBase + 0x18
	nvmAddr    = nvmctrlBase + 0x1C

	cmdEraseRow        = 0x02
	cmdWritePage       = 0x04
	cmdPageBufferClear = 0x44
	cmdKey             = 0xA5 << 8

	intFlagReady = 1 << 0
	intFlagError = 1 << 1

	ctrlBManualWrite = 1 << 7

	// STATUS bits that flag a failed command
	statusErrors = 1<<2 | 1<<3 | 1<<4 // PROGE, LOCKE, NVME
)

var (
	errLocked  = errors.New("nvm: region locked")
	errProgram = errors.New("nvm: programming error")
	errNVM     = errors.New("nvm: controller error")
)

// Flash drives the NVM controller. It implements nvm.Flash.
type Flash struct{}

func reg16(addr uintptr) *volatile.Register16 {
	return (*volatile.Register16)(unsafe.Pointer(addr))
}

func reg32(addr uintptr) *volatile.Register32 {
	return (*volatile.Register32)(unsafe.Pointer(addr))
}

func reg8(addr uintptr) *volatile.Register8 {
	return (*volatile.Register8)(unsafe.Pointer(addr))
}

// NewFlash puts the controller in manual write mode.
func NewFlash() *Flash {
	reg32(nvmCtrlB).SetBits(ctrlBManualWrite)
	return &Flash{}
}

func (f *Flash) EraseRow(addr uint32) error {
	f.wait()
	// ADDR takes 16-bit word addresses
	reg32(nvmAddr).Set(addr / 2)
	return f.command(cmdEraseRow)
}

func (f *Flash) WritePage(addr uint32, data []byte) error {
	if len(data)%4 != 0 || addr%4 != 0 {
		return errors.New("nvm: page write must be word aligned")
	}

	f.wait()
	if err := f.command(cmdPageBufferClear); err != nil {
		return err
	}

	// the page buffer is filled by writing to the flash address space
	for i := 0; i < len(data); i += 4 {
		w := uint32(data[i]) | uint32(data[i+1])<<8 | uint32(data[i+2])<<16 | uint32(data[i+3])<<24
		reg32(uintptr(addr) + uintptr(i)).Set(w)
	}

	reg32(nvmAddr).Set(addr / 2)
	return f.command(cmdWritePage)
}

func (f *Flash) Read(addr uint32, p []byte) error {
	f.wait()
	for i := range p {
		p[i] = reg8(uintptr(addr) + uintptr(i)).Get()
	}
	return nil
}

func (f *Flash) wait() {
	for reg8(nvmIntFlag).Get()&intFlagReady == 0 {
	}
}

func (f *Flash) command(cmd uint16) error {
	reg16(nvmStatus).Set(statusErrors)
	reg16(nvmCtrlA).Set(cmdKey | cmd)
	f.wait()

	if reg8(nvmIntFlag).Get()&intFlagError == 0 {
		return nil
	}
	st := reg16(nvmStatus).Get()
	reg8(nvmIntFlag).Set(intFlagError)
	switch {
	case st&(1<<3) != 0:
		return errLocked
	case st&(1<<2) != 0:
		return errProgram
	default:
		return errNVM
	}
}

var _ nvm.Flash = (*Flash)(nil)
