package integrity

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockRegister records every value written to it.
type MockRegister struct {
	value  uint32
	writes []uint32
}

func (r *MockRegister) Get() uint32 { return r.value }

func (r *MockRegister) Set(v uint32) {
	r.value = v
	r.writes = append(r.writes, v)
}

// MockRows serves rows from a map.
type MockRows struct {
	rows map[int][]byte
	err  error
}

func (m *MockRows) Read(row int) ([]byte, error) {
	if m.err != nil {
		return nil, m.err
	}
	data, ok := m.rows[row]
	if !ok {
		return nil, fmt.Errorf("row %d not found", row)
	}
	return append([]byte(nil), data...), nil
}

// fenceCheckingEngine fails the test if called outside the fence.
type fenceCheckingEngine struct {
	t     *testing.T
	reg   *MockRegister
	calls int
	err   error
}

func (e *fenceCheckingEngine) CRC32(data []byte) (uint32, error) {
	e.calls++
	if e.reg.value&FenceClearMask != 0 {
		e.t.Errorf("CRC unit used with fence bits set: 0x%08X", e.reg.value)
	}
	if e.err != nil {
		return 0, e.err
	}
	return SoftwareEngine{}.CRC32(data)
}

func rowData(seed byte) []byte {
	data := make([]byte, 256)
	for i := range data {
		data[i] = byte(i)*3 + seed
	}
	return data
}

func TestFenceSequence(t *testing.T) {
	reg := &MockRegister{value: 0x00031234}
	fence := NewFence(reg)

	release := fence.Acquire()
	assert.Equal(t, uint32(0x00001234), reg.value)
	release()
	assert.Equal(t, uint32(0x00021234), reg.value)

	// release is idempotent
	release()
	assert.Equal(t, []uint32{0x00001234, 0x00021234}, reg.writes)
}

func TestFenceReleasedOnError(t *testing.T) {
	reg := &MockRegister{value: FenceClearMask}
	fence := NewFence(reg)

	boom := errors.New("boom")
	err := fence.Do(func() error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, uint32(FenceRestoreMask), reg.value)

	// a second acquire would deadlock if the first was not released
	fence.Do(func() error { return nil })
}

func TestFenceIsExclusive(t *testing.T) {
	reg := &MockRegister{}
	fence := NewFence(reg)

	var mu sync.Mutex
	inside := 0
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fence.Do(func() error {
				mu.Lock()
				inside++
				n := inside
				mu.Unlock()
				assert.Equal(t, 1, n)
				mu.Lock()
				inside--
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()
}

func TestChecksum(t *testing.T) {
	reg := &MockRegister{value: FenceClearMask}
	engine := &fenceCheckingEngine{t: t, reg: reg}
	v := NewVerifier(engine, NewFence(reg), &MockRows{})

	// IEEE CRC-32 check value
	sum, err := v.Checksum([]byte("123456789"))
	require.NoError(t, err)
	assert.Equal(t, uint32(0xCBF43926), sum)
	assert.Equal(t, 1, engine.calls)
	assert.Equal(t, uint32(FenceRestoreMask), reg.value&FenceClearMask)
}

func TestChecksumEngineFailureRestoresFence(t *testing.T) {
	reg := &MockRegister{value: FenceClearMask}
	boom := errors.New("bus error")
	engine := &fenceCheckingEngine{t: t, reg: reg, err: boom}
	v := NewVerifier(engine, NewFence(reg), &MockRows{})

	_, err := v.Checksum(rowData(0))
	var engineErr *EngineError
	require.ErrorAs(t, err, &engineErr)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, uint32(FenceRestoreMask), reg.value)
}

func TestVerifyRow(t *testing.T) {
	tests := []struct {
		name     string
		src      []byte
		live     []byte
		mismatch bool
	}{
		{
			name: "identical",
			src:  rowData(1),
			live: rowData(1),
		},
		{
			name:     "bit flip in source",
			src:      flipBit(rowData(1), 100, 3),
			live:     rowData(1),
			mismatch: true,
		},
		{
			name:     "bit flip in target row",
			src:      rowData(1),
			live:     flipBit(rowData(1), 255, 7),
			mismatch: true,
		},
		{
			name:     "first bit",
			src:      rowData(9),
			live:     flipBit(rowData(9), 0, 0),
			mismatch: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := &MockRegister{}
			rows := &MockRows{rows: map[int][]byte{7: tt.live}}
			v := NewVerifier(&fenceCheckingEngine{t: t, reg: reg}, NewFence(reg), rows)

			err := v.VerifyRow(tt.src, 7)
			if !tt.mismatch {
				assert.NoError(t, err)
				return
			}

			var mismatch *ChecksumMismatchError
			require.ErrorAs(t, err, &mismatch)
			assert.Equal(t, 7, mismatch.RowNum)
			assert.NotEqual(t, mismatch.Expected, mismatch.Actual)
			assert.True(t, IsMismatch(err))
		})
	}
}

func TestVerifyRowMatchesChecksumEquality(t *testing.T) {
	reg := &MockRegister{}
	rows := &MockRows{rows: map[int][]byte{0: rowData(4)}}
	v := NewVerifier(SoftwareEngine{}, NewFence(reg), rows)

	for _, src := range [][]byte{rowData(4), rowData(5)} {
		a, err := v.Checksum(src)
		require.NoError(t, err)
		b, err := v.ChecksumRow(0)
		require.NoError(t, err)

		assert.Equal(t, a == b, v.VerifyRow(src, 0) == nil)
	}
}

func TestVerifyRowReadFailure(t *testing.T) {
	reg := &MockRegister{}
	boom := errors.New("row unreadable")
	v := NewVerifier(SoftwareEngine{}, NewFence(reg), &MockRows{err: boom})

	err := v.VerifyRow(rowData(0), 3)
	assert.ErrorIs(t, err, boom)
	assert.False(t, IsMismatch(err))
}

func TestChecksumMismatchErrorMessage(t *testing.T) {
	err := &ChecksumMismatchError{RowNum: 42, Expected: 0xDEADBEEF, Actual: 0x01020304}
	assert.Contains(t, err.Error(), "row 42")
	assert.Contains(t, err.Error(), "0xDEADBEEF")
	assert.Contains(t, err.Error(), "0x01020304")
}

func flipBit(data []byte, idx int, bit uint) []byte {
	data[idx] ^= 1 << bit
	return data
}
