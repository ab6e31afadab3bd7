package blob_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/bodgit/screenpack/blob"
	"github.com/bodgit/screenpack/rle"
	"github.com/bodgit/screenpack/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type image struct {
	id     uint16
	width  int
	height int
	pixels []uint16
}

func solid(id uint16, width, height int, p uint16) image {
	pixels := make([]uint16, width*height)
	for i := range pixels {
		pixels[i] = p
	}
	return image{id, width, height, pixels}
}

func stripes(id uint16, width, height int) image {
	pixels := make([]uint16, width*height)
	for i := range pixels {
		pixels[i] = uint16(i / width)
	}
	return image{id, width, height, pixels}
}

func pack(t *testing.T, dedup bool, images ...image) ([]byte, table.Table, []bool) {
	t.Helper()

	var b bytes.Buffer
	p := blob.New(&b, blob.WithDedup(dedup))

	var shared []bool
	for _, m := range images {
		_, s, err := p.Add(m.id, m.pixels, m.width, m.height)
		require.NoError(t, err)
		shared = append(shared, s)
	}
	assert.EqualValues(t, b.Len(), p.Size())

	return b.Bytes(), p.Table(), shared
}

func TestDirect(t *testing.T) {
	b, tbl, shared := pack(t, false, solid(0, 4, 4, 1), solid(1, 4, 4, 1), stripes(2, 3, 2))

	assert.Equal(t, []bool{false, false, false}, shared)
	assert.Equal(t, table.Table{
		{ID: 0, Width: 4, Height: 4, Offset: 0},
		{ID: 1, Width: 4, Height: 4, Offset: 4},
		{ID: 2, Width: 3, Height: 2, Offset: 8},
	}, tbl)
	assert.Len(t, b, 16)
}

func TestDedupSharesOffset(t *testing.T) {
	m := stripes(0, 10, 10)
	dup := m
	dup.id = 1

	b, tbl, shared := pack(t, true, m, dup)

	assert.Equal(t, []bool{false, true}, shared)
	require.Len(t, tbl, 2)
	assert.Equal(t, tbl[0].Offset, tbl[1].Offset)
	assert.Len(t, b, 10*rle.RunSize, "payload must only be stored once")
}

func TestDedupFirstMatchWins(t *testing.T) {
	_, tbl, shared := pack(t, true,
		stripes(0, 2, 2),
		solid(1, 4, 4, 9),
		solid(2, 4, 4, 9),
		stripes(3, 2, 2),
		solid(4, 4, 4, 9),
	)

	assert.Equal(t, []bool{false, false, true, true, true}, shared)
	assert.Equal(t, tbl[1].Offset, tbl[2].Offset)
	assert.Equal(t, tbl[1].Offset, tbl[4].Offset)
	assert.Equal(t, tbl[0].Offset, tbl[3].Offset)
}

func TestDedupRequiresEqualDimensions(t *testing.T) {
	// Both encode to a single run of 8 zero pixels
	b, tbl, shared := pack(t, true, solid(0, 2, 4, 0), solid(1, 4, 2, 0), solid(2, 8, 1, 0))

	assert.Equal(t, []bool{false, false, false}, shared)
	assert.Equal(t, []uint32{0, 4, 8}, []uint32{tbl[0].Offset, tbl[1].Offset, tbl[2].Offset})
	assert.Len(t, b, 12)
}

func TestDirectDedupEquivalence(t *testing.T) {
	images := []image{
		stripes(0, 16, 16),
		solid(1, 16, 16, 0xf800),
		solid(2, 200, 100, 0x07e0),
		stripes(3, 7, 3),
		solid(4, 1, 1, 0),
	}

	b1, t1, _ := pack(t, false, images...)
	b2, t2, _ := pack(t, true, images...)

	assert.Equal(t, b1, b2)
	assert.Equal(t, t1, t2)
}

func TestAddInvalid(t *testing.T) {
	p := blob.New(new(bytes.Buffer))

	_, _, err := p.Add(0, []uint16{1, 2, 3}, 2, 2)
	assert.ErrorIs(t, err, blob.ErrPixelCount)

	_, _, err = p.Add(0, nil, 0, 0)
	assert.ErrorIs(t, err, rle.ErrEmpty)

	_, _, err = p.Add(0, make([]uint16, 65535), 65535, 1)
	assert.ErrorIs(t, err, blob.ErrDimensions)

	assert.Empty(t, p.Table())
	assert.Zero(t, p.Size())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestAddWriteError(t *testing.T) {
	p := blob.New(failingWriter{})

	_, _, err := p.Add(0, []uint16{1}, 1, 1)
	assert.EqualError(t, err, "disk full")
	assert.Empty(t, p.Table())
}

func TestCheck(t *testing.T) {
	var b bytes.Buffer
	p := blob.New(&b, blob.WithMaxSize(8))

	_, _, err := p.Add(0, []uint16{1}, 1, 1)
	require.NoError(t, err)
	assert.NoError(t, p.Check())

	_, _, err = p.Add(1, []uint16{2}, 1, 1)
	require.NoError(t, err)
	assert.ErrorIs(t, p.Check(), blob.ErrTooLarge)

	unlimited := blob.New(&b)
	_, _, err = unlimited.Add(0, make([]uint16, 100000), 1000, 100)
	require.NoError(t, err)
	assert.NoError(t, unlimited.Check())
}

func TestValidateIDs(t *testing.T) {
	tests := []struct {
		Name     string
		IDs      []uint16
		Min      int
		Expected error
	}{
		{"consecutive", []uint16{0, 1, 2, 3}, 4, nil},
		{"unsorted", []uint16{3, 0, 2, 1}, 4, nil},
		{"gap", []uint16{0, 1, 2, 4}, 0, blob.ErrMissingID},
		{"no zero", []uint16{1, 2, 3}, 0, blob.ErrMissingID},
		{"too few", []uint16{0, 1, 2}, 4, blob.ErrTooFewIDs},
		{"duplicate", []uint16{0, 1, 1, 2}, 0, blob.ErrDuplicateID},
		{"empty", nil, 0, nil},
	}

	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			err := blob.ValidateIDs(test.IDs, test.Min)
			if test.Expected == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, test.Expected)
			}
		})
	}

	assert.EqualError(t, blob.ValidateIDs([]uint16{0, 1, 2, 4}, 0), "blob: identifier missing: 3")
}
