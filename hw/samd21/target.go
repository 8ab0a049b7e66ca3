//go:build tinygo

package samd21

import (
	"device/arm"

	"github.com/moffa90/go-sdboot/handoff"
	"github.com/moffa90/go-sdboot/integrity"
	"github.com/moffa90/go-sdboot/nvm"
)

const vtorAddr = 0xE000ED08

// FenceRegister is the erratum register toggled around CRC computations.
type FenceRegister struct{}

func (FenceRegister) Get() uint32 {
	return reg32(integrity.FenceRegisterAddr).Get()
}

func (FenceRegister) Set(value uint32) {
	reg32(integrity.FenceRegisterAddr).Set(value)
}

// CPU is the Cortex-M0+ handoff. It implements handoff.CPU.
type CPU struct{}

func (CPU) SetVTOR(base uint32) {
	reg32(vtorAddr).Set(base)
}

// Enter loads MSP and branches in one asm block; nothing may use the stack
// after the MSP write.
func (CPU) Enter(sp, entry uint32) {
	arm.AsmFull(`
		msr msp, {sp}
		bx {entry}
	`, map[string]interface{}{
		"sp":    sp,
		"entry": entry,
	})
}

func (CPU) SystemReset() {
	arm.SystemReset()
}

// Target bundles the SAM D21 implementations of the bootloader boundaries.
type Target struct {
	Driver   *nvm.Driver
	Verifier *integrity.Verifier
	CPU      handoff.CPU
}

// NewTarget wires the NVM controller, the DSU and the fence register for
// nvm.DefaultLayout.
func NewTarget() *Target {
	drv := nvm.NewDriver(NewFlash(), nvm.DefaultLayout)
	return &Target{
		Driver:   drv,
		Verifier: integrity.NewVerifier(CRCEngine{}, integrity.NewFence(FenceRegister{}), drv),
		CPU:      CPU{},
	}
}
