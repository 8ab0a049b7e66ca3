package integrity

import (
	"errors"
	"fmt"
)

// ChecksumMismatchError indicates that a row's live contents do not match
// its source buffer.
type ChecksumMismatchError struct {
	RowNum   int
	Expected uint32
	Actual   uint32
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("checksum mismatch for row %d: expected 0x%08X, got 0x%08X",
		e.RowNum, e.Expected, e.Actual)
}

// EngineError wraps a failure of the CRC unit itself.
type EngineError struct {
	// Target is what was being checksummed, "buffer" or "row N"
	Target string
	Err    error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("crc of %s failed: %v", e.Target, e.Err)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

// IsMismatch returns true if err is or wraps a ChecksumMismatchError.
func IsMismatch(err error) bool {
	var m *ChecksumMismatchError
	return errors.As(err, &m)
}
