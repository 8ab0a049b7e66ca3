// Package integrity checks programmed rows against their source bytes using a
// 32-bit CRC unit.
//
// # CRC Fence
//
// The reference part has an erratum: before the CRC unit reads memory, bits
// of a control register must be cleared, and afterwards a bit must be set
// again. Every checksum call goes through a Fence:
//
//	release := fence.Acquire() // clear FenceClearMask
//	sum, err := engine.CRC32(buf)
//	release()                  // set FenceRestoreMask
//
// Verifier does this for you and guarantees the release on every return
// path. The Fence also serializes access to the CRC unit, so a Verifier may
// be shared between goroutines.
//
// # Basic Usage
//
//	fence := integrity.NewFence(reg)
//	v := integrity.NewVerifier(integrity.SoftwareEngine{}, fence, driver)
//
//	if err := v.VerifyRow(buf, 12); err != nil {
//	    var mismatch *integrity.ChecksumMismatchError
//	    if errors.As(err, &mismatch) {
//	        // row 12 does not hold buf
//	    }
//	}
package integrity
