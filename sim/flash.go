package sim

import (
	"bytes"
	"sync"

	"github.com/pkg/errors"

	"github.com/moffa90/go-sdboot/nvm"
)

// ErrProtected is returned for erase and write requests below the
// application base.
var ErrProtected = errors.New("address is in the protected bootloader region")

// FlashStats counts flash operations.
type FlashStats struct {
	Erases int
	Writes int
	Reads  int
}

// Flash is RAM-backed NOR flash covering [0, layout.End()).
type Flash struct {
	mu     sync.Mutex
	layout nvm.Layout
	mem    []byte

	eraseErr map[uint32]error
	writeErr map[uint32]error
	stuck    map[uint32]byte

	stats FlashStats
}

// NewFlash returns flash with an erased application region. The bootloader
// region below layout.Base is zero filled.
func NewFlash(layout nvm.Layout) *Flash {
	mem := make([]byte, layout.End())
	for i := layout.Base; i < layout.End(); i++ {
		mem[i] = nvm.EraseValue
	}
	return newFlash(layout, mem)
}

func newFlash(layout nvm.Layout, mem []byte) *Flash {
	return &Flash{
		layout:   layout,
		mem:      mem,
		eraseErr: make(map[uint32]error),
		writeErr: make(map[uint32]error),
		stuck:    make(map[uint32]byte),
	}
}

// EraseRow implements nvm.Flash.
func (f *Flash) EraseRow(addr uint32) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.stats.Erases++
	if err := f.checkWrite(addr, f.layout.RowSize); err != nil {
		return errors.Wrapf(err, "erase 0x%08X", addr)
	}
	if (addr-f.layout.Base)%uint32(f.layout.RowSize) != 0 {
		return errors.Errorf("erase 0x%08X: not row aligned", addr)
	}
	if err := f.eraseErr[addr]; err != nil {
		return err
	}

	for i := addr; i < addr+uint32(f.layout.RowSize); i++ {
		f.mem[i] = nvm.EraseValue
		if v, ok := f.stuck[i]; ok {
			f.mem[i] = v
		}
	}
	return nil
}

// WritePage implements nvm.Flash. Bits can only go from 1 to 0.
func (f *Flash) WritePage(addr uint32, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.stats.Writes++
	if err := f.checkWrite(addr, len(data)); err != nil {
		return errors.Wrapf(err, "write 0x%08X", addr)
	}
	if len(data) != f.layout.PageSize() {
		return errors.Errorf("write 0x%08X: %d bytes is not one page", addr, len(data))
	}
	if (addr-f.layout.Base)%uint32(f.layout.PageSize()) != 0 {
		return errors.Errorf("write 0x%08X: not page aligned", addr)
	}
	if err := f.writeErr[addr]; err != nil {
		return err
	}

	for i, b := range data {
		f.mem[addr+uint32(i)] &= b
	}
	return nil
}

// Read implements nvm.Flash.
func (f *Flash) Read(addr uint32, p []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.stats.Reads++
	if int(addr)+len(p) > len(f.mem) {
		return errors.Errorf("read 0x%08X+%d: out of bounds", addr, len(p))
	}
	copy(p, f.mem[addr:])
	return nil
}

// FailErase makes every erase of the row at addr fail with err. A nil err
// clears the fault.
func (f *Flash) FailErase(addr uint32, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	setFault(f.eraseErr, addr, err)
}

// FailWrite makes every write of the page at addr fail with err. A nil err
// clears the fault.
func (f *Flash) FailWrite(addr uint32, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	setFault(f.writeErr, addr, err)
}

// StickByte makes the byte at addr read value after every erase.
func (f *Flash) StickByte(addr uint32, value byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stuck[addr] = value
}

// FlipBit inverts one bit of memory in place, bypassing NOR rules.
func (f *Flash) FlipBit(addr uint32, bit uint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mem[addr] ^= 1 << bit
}

// Load copies data into memory at addr, bypassing NOR rules and
// protection. It is used to seed the bootloader region or a resident
// application.
func (f *Flash) Load(addr uint32, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if int(addr)+len(data) > len(f.mem) {
		return errors.Errorf("load 0x%08X+%d: out of bounds", addr, len(data))
	}
	copy(f.mem[addr:], data)
	return nil
}

// Bytes returns a copy of n bytes at addr.
func (f *Flash) Bytes(addr uint32, n int) []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return bytes.Clone(f.mem[addr : int(addr)+n])
}

// Stats returns the operation counters.
func (f *Flash) Stats() FlashStats {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stats
}

// ResetStats zeroes the operation counters.
func (f *Flash) ResetStats() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stats = FlashStats{}
}

func (f *Flash) checkWrite(addr uint32, n int) error {
	if addr < f.layout.Base {
		return ErrProtected
	}
	if int(addr)+n > len(f.mem) {
		return errors.New("out of bounds")
	}
	return nil
}

func setFault(faults map[uint32]error, addr uint32, err error) {
	if err == nil {
		delete(faults, addr)
		return
	}
	faults[addr] = err
}
