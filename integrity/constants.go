package integrity

// CRC fence register of the reference part.
const (
	// FenceRegisterAddr is the address of the control register guarding the CRC unit
	FenceRegisterAddr = 0x41007058

	// FenceClearMask is cleared before every CRC computation
	FenceClearMask = 0x30000

	// FenceRestoreMask is set after every CRC computation
	FenceRestoreMask = 0x20000
)
