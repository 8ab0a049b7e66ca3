package nvm

import (
	"bytes"
	"errors"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadRow(t *testing.T) {
	image := make([]byte, 2*RowSize+10)
	for i := range image {
		image[i] = byte(i * 7)
	}
	r := bytes.NewReader(image)

	row, err := ReadRow(r, 0, RowSize)
	require.NoError(t, err)
	assert.Equal(t, image[:RowSize], row.Data)

	row, err = ReadRow(r, 1, RowSize)
	require.NoError(t, err)
	assert.Equal(t, 1, row.Number)
	assert.Equal(t, image[RowSize:2*RowSize], row.Data)

	row, err = ReadRow(r, 2, RowSize)
	var short *ShortReadError
	require.ErrorAs(t, err, &short)
	assert.Equal(t, 10, short.Got)
	assert.Equal(t, RowSize, short.Want)
	require.NotNil(t, row)
	assert.Equal(t, image[2*RowSize:], row.Data[:10])
	assert.Equal(t, bytes.Repeat([]byte{EraseValue}, RowSize-10), row.Data[10:])

	row, err = ReadRow(r, 3, RowSize)
	require.ErrorAs(t, err, &short)
	assert.Equal(t, 0, short.Got)
	assert.True(t, row.Erased())
}

func TestReadRowPropagatesReaderError(t *testing.T) {
	boom := errors.New("card removed")
	row, err := ReadRow(iotest.ErrReader(boom), 0, RowSize)
	assert.Nil(t, row)
	assert.ErrorIs(t, err, boom)

	var short *ShortReadError
	assert.False(t, errors.As(err, &short))
}

func TestReadRowHandlesTrickleReader(t *testing.T) {
	data := pattern(0x5A)
	row, err := ReadRow(iotest.OneByteReader(bytes.NewReader(data)), 0, RowSize)
	require.NoError(t, err)
	assert.Equal(t, data, row.Data)
}

func TestRowPages(t *testing.T) {
	row := &Row{Data: pattern(0)}
	pages := row.Pages()
	require.Len(t, pages, PagesPerRow)
	for i, page := range pages {
		assert.Len(t, page, PageSize)
		assert.Equal(t, row.Data[i*PageSize:(i+1)*PageSize], page)
	}
}

func TestSplitAndJoinRows(t *testing.T) {
	tests := []struct {
		name     string
		size     int
		wantRows int
	}{
		{"empty", 0, 0},
		{"one byte", 1, 1},
		{"exact rows", 10 * RowSize, 10},
		{"partial tail", 3*RowSize + 1, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := make([]byte, tt.size)
			for i := range data {
				data[i] = byte(i)
			}

			rows := SplitRows(data, RowSize)
			require.Len(t, rows, tt.wantRows)
			for i, row := range rows {
				assert.Equal(t, i, row.Number)
				assert.Len(t, row.Data, RowSize)
			}

			joined := JoinRows(rows)
			assert.Equal(t, data, joined[:len(data)])
			assert.Equal(t, tt.wantRows*RowSize, len(joined))
			for _, b := range joined[len(data):] {
				assert.Equal(t, byte(EraseValue), b)
			}
		})
	}
}

func TestLayout(t *testing.T) {
	l := DefaultLayout
	require.NoError(t, l.Validate())
	assert.Equal(t, 64, l.PageSize())
	assert.Equal(t, uint32(0x12000), l.Addr(0))
	assert.Equal(t, uint32(0x12000+5*256), l.Addr(5))
	assert.Equal(t, uint32(0x12000+360*256), l.End())
	assert.True(t, l.Contains(359))
	assert.False(t, l.Contains(360))
	assert.False(t, l.Contains(-1))

	assert.Error(t, Layout{Base: AppBase, RowSize: 6, MaxRows: 1}.Validate())
	assert.Error(t, Layout{Base: AppBase, RowSize: RowSize}.Validate())
	assert.Error(t, Layout{RowSize: RowSize, MaxRows: 1}.Validate())

	// a region that wraps around would put rows below the base
	assert.Error(t, Layout{Base: 0xFFFFFF00, RowSize: RowSize, MaxRows: 4}.Validate())
	assert.Error(t, Layout{Base: 0xFFFFFC00, RowSize: RowSize, MaxRows: 4}.Validate())
	assert.NoError(t, Layout{Base: 0xFFFFFC00, RowSize: RowSize, MaxRows: 3}.Validate())
	assert.Panics(t, func() {
		NewDriver(NewMockFlash(DefaultLayout), Layout{Base: 0xFFFFFF00, RowSize: RowSize, MaxRows: 4})
	})
}
