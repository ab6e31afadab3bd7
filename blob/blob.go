/*
Package blob implements the packing engine that builds the shared image blob
and its descriptor table.

Images are run-length encoded and appended to the blob in the order they are
added. When deduplication is enabled an image whose encoded payload and
dimensions exactly match an earlier image is not written again; its descriptor
points at the earlier image's offset instead.
*/
package blob

import (
	"bytes"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"math"

	"github.com/bodgit/screenpack/rle"
	"github.com/bodgit/screenpack/table"
)

// Filename is the expected filename used when writing to disk
const Filename = "BMPDATA.BIN"

var (
	// ErrDimensions is returned for images that can't be described by a
	// table entry
	ErrDimensions = errors.New("blob: image dimensions out of range")

	// ErrPixelCount is returned when the number of pixels doesn't match the
	// declared dimensions
	ErrPixelCount = errors.New("blob: pixel count does not match dimensions")

	// ErrOffset is returned when the blob grows past what a table entry can
	// address
	ErrOffset = errors.New("blob: offset exceeds 32 bits")

	// ErrTooLarge is returned by Check when the blob has reached the
	// configured maximum size
	ErrTooLarge = errors.New("blob: too large")
)

type payload struct {
	offset uint32
	width  uint16
	height uint16
	data   []byte
}

// Packer accumulates images into a blob written to an io.Writer and records
// a table entry for each one. It is not safe for concurrent use; every offset
// depends on all of the images added before it.
type Packer struct {
	w       io.Writer
	dedup   bool
	maxSize int64

	offset  int64
	entries table.Table

	// Unique payloads bucketed by CRC-32, each bucket in arrival order
	index map[uint32][]*payload
}

// Option configures a Packer
type Option func(*Packer)

// WithDedup enables or disables reuse of identical payloads
func WithDedup(dedup bool) Option {
	return func(p *Packer) {
		p.dedup = dedup
	}
}

// WithMaxSize sets the size in bytes the blob must stay below for Check to
// pass. Zero disables the check.
func WithMaxSize(size int64) Option {
	return func(p *Packer) {
		p.maxSize = size
	}
}

// New returns a Packer writing payloads to w
func New(w io.Writer, options ...Option) *Packer {
	p := &Packer{
		w:     w,
		index: make(map[uint32][]*payload),
	}
	for _, o := range options {
		o(p)
	}
	return p
}

// find returns the earliest payload added with identical content and
// dimensions. Every matching payload must share the CRC so only that bucket
// is scanned, but the comparison itself is always on the full payload.
func (p *Packer) find(sum uint32, width, height uint16, data []byte) *payload {
	for _, c := range p.index[sum] {
		if c.width == width && c.height == height && bytes.Equal(c.data, data) {
			return c
		}
	}
	return nil
}

// Add encodes the image and appends it to the blob, returning the table entry
// created for it. shared reports whether the entry reuses the payload of an
// earlier image, in which case nothing was written.
func (p *Packer) Add(id uint16, pixels []uint16, width, height int) (entry table.Entry, shared bool, err error) {
	if width < 0 || height < 0 || width >= math.MaxUint16 || height >= math.MaxUint16 {
		return table.Entry{}, false, fmt.Errorf("%w: %dx%d", ErrDimensions, width, height)
	}
	if len(pixels) != width*height {
		return table.Entry{}, false, fmt.Errorf("%w: %d pixels for %dx%d", ErrPixelCount, len(pixels), width, height)
	}

	data, err := rle.Encode(pixels)
	if err != nil {
		return table.Entry{}, false, err
	}

	entry = table.Entry{
		ID:     id,
		Width:  uint16(width),
		Height: uint16(height),
	}

	var sum uint32
	if p.dedup {
		sum = crc32.ChecksumIEEE(data)
		if c := p.find(sum, entry.Width, entry.Height, data); c != nil {
			entry.Offset = c.offset
			p.entries = append(p.entries, entry)
			return entry, true, nil
		}
	}

	if p.offset > math.MaxUint32 {
		return table.Entry{}, false, ErrOffset
	}
	entry.Offset = uint32(p.offset)

	if _, err := p.w.Write(data); err != nil {
		return table.Entry{}, false, err
	}
	p.offset += int64(len(data))
	p.entries = append(p.entries, entry)

	if p.dedup {
		p.index[sum] = append(p.index[sum], &payload{
			offset: entry.Offset,
			width:  entry.Width,
			height: entry.Height,
			data:   data,
		})
	}

	return entry, false, nil
}

// Size returns the number of bytes written to the blob so far
func (p *Packer) Size() int64 {
	return p.offset
}

// Table returns the entries added so far, in the order they were added
func (p *Packer) Table() table.Table {
	return append(table.Table(nil), p.entries...)
}

// Check returns an error wrapping ErrTooLarge if a maximum size is set and
// the blob is not below it
func (p *Packer) Check() error {
	if p.maxSize > 0 && p.offset >= p.maxSize {
		return fmt.Errorf("%w: %d bytes, limit is %d", ErrTooLarge, p.offset, p.maxSize)
	}
	return nil
}
