package table_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bodgit/screenpack/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntryMarshalBinary(t *testing.T) {
	tests := []struct {
		Name     string
		Entry    table.Entry
		Expected []byte
	}{
		{
			"zero",
			table.Entry{},
			make([]byte, table.EntrySize),
		},
		{
			"fields",
			table.Entry{ID: 0x0102, Width: 320, Height: 240, Offset: 0x0a0b0c0d},
			[]byte{0x02, 0x01, 0x40, 0x01, 0xf0, 0x00, 0x0d, 0x0c, 0x0b, 0x0a, 0, 0, 0, 0, 0, 0},
		},
		{
			"max",
			table.Entry{ID: 0xffff, Width: 0xffff, Height: 0xffff, Offset: 0xffffffff},
			[]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0, 0, 0, 0, 0, 0},
		},
	}

	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			b, err := test.Entry.MarshalBinary()
			require.NoError(t, err)
			assert.Len(t, b, table.EntrySize)
			assert.Equal(t, test.Expected, b)

			var e table.Entry
			require.NoError(t, e.UnmarshalBinary(b))
			assert.Equal(t, test.Entry, e)
		})
	}
}

func TestEntryUnmarshalIgnoresPadding(t *testing.T) {
	b := []byte{5, 0, 2, 0, 3, 0, 8, 0, 0, 0, 0xde, 0xad, 0xbe, 0xef, 0xff, 0xff}

	var e table.Entry
	require.NoError(t, e.UnmarshalBinary(b))
	assert.Equal(t, table.Entry{ID: 5, Width: 2, Height: 3, Offset: 8}, e)

	assert.Error(t, e.UnmarshalBinary(b[:10]))
}

func TestTableUnmarshalTruncated(t *testing.T) {
	var tbl table.Table
	assert.ErrorIs(t, tbl.UnmarshalBinary(make([]byte, 17)), table.ErrTruncated)

	require.NoError(t, tbl.UnmarshalBinary(nil))
	assert.Empty(t, tbl)
}

func TestLoad(t *testing.T) {
	tbl := table.Table{
		{ID: 0, Width: 10, Height: 10, Offset: 0},
		{ID: 1, Width: 10, Height: 10, Offset: 0},
		{ID: 2, Width: 4, Height: 2, Offset: 48},
	}

	file := filepath.Join(t.TempDir(), table.Filename)
	f, err := os.Create(file)
	require.NoError(t, err)
	n, err := tbl.WriteTo(f)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.EqualValues(t, 3*table.EntrySize, n)

	loaded, err := table.Load(file)
	require.NoError(t, err)
	assert.Equal(t, tbl, loaded)
	assert.Equal(t, 100, loaded[0].Pixels())
	assert.Equal(t, "[2] 4x2 at 48", loaded[2].String())
}
