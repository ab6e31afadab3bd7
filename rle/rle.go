/*
Package rle implements the run-length pixel codec used by the screen resource
blob.

Each image is stored as a sequence of 32-bit big-endian run records. The low
14 bits of a record hold the repetition count, from 1 to 16383, the next two
bits are reserved and always zero, and the upper 16 bits hold the 5-6-5 pixel
value that is repeated. There is no header or terminator; the number of pixels
to read is implied by the dimensions stored in the descriptor table.
*/
package rle

import (
	"encoding/binary"
	"errors"
)

const (
	// RunSize is the size in bytes of a single run record
	RunSize = 4

	// MaxCount is the largest repetition count a run record can hold
	MaxCount = 1<<countBits - 1

	countBits = 14
	countMask = MaxCount
)

var (
	// ErrEmpty is returned when asked to encode zero pixels
	ErrEmpty = errors.New("rle: no pixels to encode")
)

// Run is a single decoded run record.
type Run struct {
	Count uint16
	Pixel uint16
}

func (r Run) word() uint32 {
	return uint32(r.Pixel)<<16 | uint32(r.Count)&countMask
}

// AppendRun appends the 4 byte record for r to b and returns the extended
// slice.
func AppendRun(b []byte, r Run) []byte {
	var tmp [RunSize]byte
	binary.BigEndian.PutUint32(tmp[:], r.word())
	return append(b, tmp[:]...)
}

// ParseRun decodes a single run record from the first 4 bytes of b. The
// reserved bits are ignored.
func ParseRun(b []byte) Run {
	w := binary.BigEndian.Uint32(b)
	return Run{
		Count: uint16(w & countMask),
		Pixel: uint16(w >> 16),
	}
}
