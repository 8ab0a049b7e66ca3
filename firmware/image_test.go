package firmware

import (
	"bytes"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moffa90/go-sdboot/nvm"
)

func TestImageRows(t *testing.T) {
	data := make([]byte, 2*nvm.RowSize+100)
	for i := range data {
		data[i] = byte(i % 251)
	}

	m, fsys := mountedMemFS(t)
	m.Put("Application_New.bin", data)

	img, err := Open(fsys, DefaultSlots[0], nvm.RowSize)
	require.NoError(t, err)
	defer img.Close()

	assert.Equal(t, int64(len(data)), img.Size())
	assert.Equal(t, 3, img.Rows())

	for i := 0; i < 2; i++ {
		row, err := img.NextRow()
		require.NoError(t, err)
		assert.Equal(t, i, row.Number)
		assert.Equal(t, data[i*nvm.RowSize:(i+1)*nvm.RowSize], row.Data)
	}

	row, err := img.NextRow()
	var short *nvm.ShortReadError
	require.ErrorAs(t, err, &short)
	assert.Equal(t, 2, row.Number)
	assert.Equal(t, 100, short.Got)
	assert.Equal(t, data[2*nvm.RowSize:], row.Data[:100])

	row, err = img.NextRow()
	require.ErrorAs(t, err, &short)
	assert.Equal(t, 3, row.Number)
	assert.Equal(t, bytes.Repeat([]byte{nvm.EraseValue}, nvm.RowSize), row.Data)
}

func TestOpenMissingImage(t *testing.T) {
	_, fsys := mountedMemFS(t)

	_, err := Open(fsys, DefaultSlots[1], nvm.RowSize)
	var openErr *OpenError
	require.ErrorAs(t, err, &openErr)
	assert.Equal(t, SlotB, openErr.Slot)
	assert.Equal(t, "TestB.bin", openErr.Name)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestOpenRejectsBadRowSize(t *testing.T) {
	m, fsys := mountedMemFS(t)
	m.Put("Application_New.bin", []byte{1})

	_, err := Open(fsys, DefaultSlots[0], 0)
	assert.Error(t, err)
}
