package rgb565

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/ericpauley/go-quantize/quantize"
)

// Quantize reduces m to at most n colors. Fewer colors means longer runs and
// so smaller payloads. If m already uses no more than n colors, or n is not
// positive, m is returned unchanged.
func Quantize(m image.Image, n int) image.Image {
	if n <= 0 {
		return m
	}

	if cp, ok := m.ColorModel().(color.Palette); ok && len(cp) <= n {
		return m
	}

	b := m.Bounds()
	q := quantize.MedianCutQuantizer{}
	pm := image.NewPaletted(b, q.Quantize(make(color.Palette, 0, n), m))
	draw.Draw(pm, b, m, b.Min, draw.Src)

	return pm
}
