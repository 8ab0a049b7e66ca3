package integrity

import "sync"

// Register is a 32-bit memory-mapped control register.
type Register interface {
	Get() uint32
	Set(value uint32)
}

// Fence owns the CRC unit and applies the erratum register sequence around
// each use.
type Fence struct {
	mu  sync.Mutex
	reg Register

	clearMask   uint32
	restoreMask uint32
}

// NewFence returns a fence driving reg with the reference part's masks.
func NewFence(reg Register) *Fence {
	return NewFenceMasks(reg, FenceClearMask, FenceRestoreMask)
}

// NewFenceMasks returns a fence with custom masks.
func NewFenceMasks(reg Register, clearMask, restoreMask uint32) *Fence {
	if reg == nil {
		panic("register cannot be nil")
	}
	return &Fence{
		reg:         reg,
		clearMask:   clearMask,
		restoreMask: restoreMask,
	}
}

// Acquire takes exclusive ownership of the CRC unit and clears the fence
// bits. The returned release restores them and gives up ownership; it must
// be called exactly once.
func (f *Fence) Acquire() (release func()) {
	f.mu.Lock()
	f.reg.Set(f.reg.Get() &^ f.clearMask)

	var once sync.Once
	return func() {
		once.Do(func() {
			f.reg.Set(f.reg.Get() | f.restoreMask)
			f.mu.Unlock()
		})
	}
}

// Do runs fn while holding the fence.
func (f *Fence) Do(fn func() error) error {
	release := f.Acquire()
	defer release()
	return fn()
}
