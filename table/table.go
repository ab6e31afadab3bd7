/*
Package table implements the descriptor table that locates each image inside
the shared blob.

The table is a flat sequence of 16 byte records with no header. Each record is
the image identifier, width and height as 16-bit values, followed by the 32-bit
byte offset of the image's run records within the blob, all little-endian. The
remaining 6 bytes are reserved; they are written as zero and ignored on read.
*/
package table

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

const (
	// Filename is the expected filename used when writing to disk
	Filename = "TABLE.BIN"

	// EntrySize defines the size in bytes of each record
	EntrySize = 16
)

var (
	errWrongSize = errors.New("table: record must be exactly 16 bytes")

	// ErrTruncated is returned when the table length is not a multiple of
	// EntrySize
	ErrTruncated = errors.New("table: length is not a multiple of 16 bytes")
)

// Entry is a single descriptor record. It implements the
// encoding.BinaryMarshaler and encoding.BinaryUnmarshaler interfaces.
type Entry struct {
	ID     uint16
	Width  uint16
	Height uint16
	Offset uint32
}

// Pixels returns the number of pixels the entry declares
func (e Entry) Pixels() int {
	return int(e.Width) * int(e.Height)
}

func (e Entry) String() string {
	return fmt.Sprintf("[%d] %dx%d at %d", e.ID, e.Width, e.Height, e.Offset)
}

func (e Entry) put(b []byte) {
	binary.LittleEndian.PutUint16(b[0:], e.ID)
	binary.LittleEndian.PutUint16(b[2:], e.Width)
	binary.LittleEndian.PutUint16(b[4:], e.Height)
	binary.LittleEndian.PutUint32(b[6:], e.Offset)
	for i := 10; i < EntrySize; i++ {
		b[i] = 0
	}
}

// MarshalBinary encodes the entry into its 16 byte form
func (e Entry) MarshalBinary() ([]byte, error) {
	b := make([]byte, EntrySize)
	e.put(b)
	return b, nil
}

// UnmarshalBinary decodes the entry from its 16 byte form
func (e *Entry) UnmarshalBinary(b []byte) error {
	if len(b) != EntrySize {
		return errWrongSize
	}
	e.ID = binary.LittleEndian.Uint16(b[0:])
	e.Width = binary.LittleEndian.Uint16(b[2:])
	e.Height = binary.LittleEndian.Uint16(b[4:])
	e.Offset = binary.LittleEndian.Uint32(b[6:])
	return nil
}

// Table is the ordered list of descriptor records, kept in the order the
// images were packed rather than offset order.
type Table []Entry

// MarshalBinary encodes the table into binary form and returns the result
func (t Table) MarshalBinary() ([]byte, error) {
	b := make([]byte, len(t)*EntrySize)
	for i, e := range t {
		e.put(b[i*EntrySize:])
	}
	return b, nil
}

// UnmarshalBinary decodes the table from binary form
func (t *Table) UnmarshalBinary(b []byte) error {
	if len(b)%EntrySize != 0 {
		return ErrTruncated
	}

	entries := make(Table, len(b)/EntrySize)
	for i := range entries {
		if err := entries[i].UnmarshalBinary(b[i*EntrySize : (i+1)*EntrySize]); err != nil {
			return err
		}
	}
	*t = entries

	return nil
}

// WriteTo writes the binary form of the table to w
func (t Table) WriteTo(w io.Writer) (int64, error) {
	b, err := t.MarshalBinary()
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(w, bytes.NewReader(b))
	return n, err
}

// Load reads a table from the named file
func Load(file string) (Table, error) {
	b, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}

	var t Table
	if err := t.UnmarshalBinary(b); err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	return t, nil
}
