package rle

// Runs splits pixels into runs of identical values, no run being longer than
// MaxCount.
func Runs(pixels []uint16) ([]Run, error) {
	if len(pixels) == 0 {
		return nil, ErrEmpty
	}

	var runs []Run
	count := 1
	for i := 1; i < len(pixels); i++ {
		if pixels[i] != pixels[i-1] || count == MaxCount {
			runs = append(runs, Run{Count: uint16(count), Pixel: pixels[i-1]})
			count = 0
		}
		count++
	}

	// Whatever is left over is always flushed
	return append(runs, Run{Count: uint16(count), Pixel: pixels[len(pixels)-1]}), nil
}

// Encode compresses pixels and returns the run records as a byte slice, the
// length of which is always a multiple of RunSize.
func Encode(pixels []uint16) ([]byte, error) {
	runs, err := Runs(pixels)
	if err != nil {
		return nil, err
	}

	b := make([]byte, 0, len(runs)*RunSize)
	for _, r := range runs {
		b = AppendRun(b, r)
	}
	return b, nil
}
