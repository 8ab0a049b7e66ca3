package integrity

import "hash/crc32"

// Engine is a CRC-32 unit. Implementations need not be safe for concurrent
// use; the Fence serializes calls.
type Engine interface {
	CRC32(data []byte) (uint32, error)
}

// SoftwareEngine computes the IEEE 802.3 CRC-32 in software.
// It is used on hosts and by the simulator.
type SoftwareEngine struct{}

// CRC32 implements Engine.
func (SoftwareEngine) CRC32(data []byte) (uint32, error) {
	return crc32.ChecksumIEEE(data), nil
}
