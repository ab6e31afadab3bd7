package rle

import (
	"bufio"
	"io"
	"math"
)

func readFull(r io.Reader, b []byte) error {
	_, err := io.ReadFull(r, b)
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return err
}

// Decode reads run records from r until n pixels have been produced.
//
// If the last run read holds more pixels than are still needed, it is cut
// short at n and decoding stops; the number of pixels that were dropped is
// returned as excess. This is not treated as an error. Running out of input
// before n pixels have been produced is.
func Decode(r io.Reader, n int) (pixels []uint16, excess int, err error) {
	pixels = make([]uint16, n)

	var tmp [RunSize]byte
	for i := 0; i < n; {
		if err := readFull(r, tmp[:]); err != nil {
			return nil, 0, err
		}

		run := ParseRun(tmp[:])
		count := int(run.Count)
		if i+count > n {
			excess = i + count - n
			count = n - i
		}

		for j := 0; j < count; j++ {
			pixels[i+j] = run.Pixel
		}
		i += count

		if excess > 0 {
			break
		}
	}

	return pixels, excess, nil
}

// DecodeAt is like Decode but reads from ra starting at offset. It only uses
// positioned reads so it is safe to call concurrently on a shared ra.
func DecodeAt(ra io.ReaderAt, offset int64, n int) ([]uint16, int, error) {
	return Decode(bufio.NewReader(io.NewSectionReader(ra, offset, math.MaxInt64-offset)), n)
}
