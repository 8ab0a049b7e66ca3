package sim

import (
	"fmt"
	"sync"
)

// DefaultFenceValue is the power-on value of the simulated fence register.
const DefaultFenceValue = 0x00030000

// Register is a simulated 32-bit control register that keeps a history of
// writes.
type Register struct {
	mu      sync.Mutex
	value   uint32
	history []uint32
}

// NewRegister returns a register holding value.
func NewRegister(value uint32) *Register {
	return &Register{value: value}
}

// Get implements integrity.Register.
func (r *Register) Get() uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.value
}

// Set implements integrity.Register.
func (r *Register) Set(value uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.value = value
	r.history = append(r.history, value)
}

// History returns every value written, in order.
func (r *Register) History() []uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]uint32(nil), r.history...)
}

// CPUState is what the simulated CPU remembers.
type CPUState struct {
	VTOR uint32
	SP   uint32
	PC   uint32

	// Handoffs counts completed Enter calls
	Handoffs int

	// Resets counts SystemReset calls
	Resets int
}

// CPU records the handoff and resets instead of performing them.
type CPU struct {
	mu     sync.Mutex
	state  CPUState
	events []string
}

// SetVTOR implements handoff.CPU.
func (c *CPU) SetVTOR(base uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.VTOR = base
	c.events = append(c.events, fmt.Sprintf("vtor 0x%08X", base))
}

// Enter implements handoff.CPU.
func (c *CPU) Enter(sp, entry uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.SP = sp
	c.state.PC = entry
	c.state.Handoffs++
	c.events = append(c.events, fmt.Sprintf("enter sp=0x%08X pc=0x%08X", sp, entry))
}

// SystemReset implements handoff.CPU.
func (c *CPU) SystemReset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Resets++
	c.events = append(c.events, "reset")
}

// State returns the recorded state.
func (c *CPU) State() CPUState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Events returns the recorded operations since the last ClearEvents.
func (c *CPU) Events() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.events...)
}

// ClearEvents forgets the recorded operations but keeps the state.
func (c *CPU) ClearEvents() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = nil
}
