//go:build tinygo

package samd21

import (
	"errors"
	"unsafe"

	"github.com/moffa90/go-sdboot/integrity"
)

// DSU registers.
const (
	dsuBase = 0x41002000

	dsuCtrl    = dsuBase + 0x00
	dsuStatusA = dsuBase + 0x01
	dsuAddr    = dsuBase + 0x04
	dsuLength  = dsuBase + 0x08
	dsuData    = dsuBase + 0x0C

	dsuCtrlCRC     = 1 << 2
	dsuStatusDone  = 1 << 0
	dsuStatusBusEr = 1 << 2
)

var errBusError = errors.New("dsu: bus error during crc")

// CRCEngine computes CRC32 with the Device Service Unit. It implements
// integrity.Engine and returns the same value as the IEEE polynomial software
// CRC.
type CRCEngine struct{}

func (CRCEngine) CRC32(data []byte) (uint32, error) {
	if len(data) == 0 {
		return 0, nil
	}
	addr := uintptr(unsafe.Pointer(&data[0]))
	if addr%4 != 0 || len(data)%4 != 0 {
		return 0, errors.New("dsu: crc range must be word aligned")
	}

	reg8(dsuStatusA).Set(dsuStatusDone | dsuStatusBusEr)
	reg32(dsuData).Set(0xFFFFFFFF)
	reg32(dsuAddr).Set(uint32(addr))
	reg32(dsuLength).Set(uint32(len(data)))
	reg8(dsuCtrl).Set(dsuCtrlCRC)

	for reg8(dsuStatusA).Get()&dsuStatusDone == 0 {
	}
	if reg8(dsuStatusA).Get()&dsuStatusBusEr != 0 {
		return 0, errBusError
	}
	return ^reg32(dsuData).Get(), nil
}

var _ integrity.Engine = CRCEngine{}
