package integrity

import (
	"errors"
	"fmt"
)

// RowReader reads the live contents of a row. *nvm.Driver implements it.
type RowReader interface {
	Read(row int) ([]byte, error)
}

// Verifier compares source buffers against programmed rows.
type Verifier struct {
	engine Engine
	fence  *Fence
	rows   RowReader
}

// NewVerifier creates a verifier. All CRC computations go through fence.
//
// Example:
//
//	v := integrity.NewVerifier(integrity.SoftwareEngine{}, integrity.NewFence(reg), drv)
func NewVerifier(engine Engine, fence *Fence, rows RowReader) *Verifier {
	if engine == nil || fence == nil || rows == nil {
		panic("engine, fence and rows cannot be nil")
	}
	return &Verifier{
		engine: engine,
		fence:  fence,
		rows:   rows,
	}
}

// Checksum computes the CRC of buf inside the fence.
func (v *Verifier) Checksum(buf []byte) (uint32, error) {
	var sum uint32
	err := v.fence.Do(func() error {
		var err error
		sum, err = v.engine.CRC32(buf)
		return err
	})
	if err != nil {
		return 0, &EngineError{Target: "buffer", Err: err}
	}
	return sum, nil
}

// ChecksumRow computes the CRC of the live contents of a row.
func (v *Verifier) ChecksumRow(row int) (uint32, error) {
	data, err := v.rows.Read(row)
	if err != nil {
		return 0, err
	}

	sum, err := v.Checksum(data)
	if err != nil {
		return 0, &EngineError{Target: fmt.Sprintf("row %d", row), Err: errors.Unwrap(err)}
	}
	return sum, nil
}

// VerifyRow reports whether row currently holds src. It returns nil on a
// match, a *ChecksumMismatchError when the checksums differ, and any other
// error when a checksum could not be computed.
func (v *Verifier) VerifyRow(src []byte, row int) error {
	want, err := v.Checksum(src)
	if err != nil {
		return err
	}

	got, err := v.ChecksumRow(row)
	if err != nil {
		return err
	}

	if want != got {
		return &ChecksumMismatchError{RowNum: row, Expected: want, Actual: got}
	}
	return nil
}
