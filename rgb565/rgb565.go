/*
Package rgb565 implements the 16-bit 5-6-5 pixel format the screen resources
are stored in, along with an image.Image backed by it.

Each pixel is packed as RRRRRGGGGGGBBBBB. There is no alpha channel.
*/
package rgb565

import (
	"image"
	"image/color"
)

// Color is a single packed 5-6-5 pixel
type Color uint16

func expand5(v uint32) uint32 {
	v = v<<3 | v>>2
	return v<<8 | v
}

func expand6(v uint32) uint32 {
	v = v<<2 | v>>4
	return v<<8 | v
}

// RGBA implements the color.Color interface
func (c Color) RGBA() (r, g, b, a uint32) {
	r = expand5(uint32(c) >> 11 & 0x1f)
	g = expand6(uint32(c) >> 5 & 0x3f)
	b = expand5(uint32(c) & 0x1f)
	return r, g, b, 0xffff
}

// Model converts any color to a Color, truncating each channel
var Model = color.ModelFunc(model)

func model(c color.Color) color.Color {
	if c, ok := c.(Color); ok {
		return c
	}
	return pack(c)
}

func pack(c color.Color) Color {
	r, g, b, _ := c.RGBA()
	return Color(r>>11<<11 | g>>10<<5 | b>>11)
}

// Image is an in-memory image whose At method returns Color values
type Image struct {
	// Pix holds the pixels in row-major order, starting at the top-left
	// corner of Rect
	Pix    []uint16
	Stride int
	Rect   image.Rectangle
}

// New returns a new Image with the given bounds
func New(r image.Rectangle) *Image {
	return &Image{
		Pix:    make([]uint16, r.Dx()*r.Dy()),
		Stride: r.Dx(),
		Rect:   r,
	}
}

// FromPixels wraps a flat slice of pixels as a width by height image. The
// slice is not copied.
func FromPixels(pixels []uint16, width, height int) *Image {
	return &Image{
		Pix:    pixels,
		Stride: width,
		Rect:   image.Rect(0, 0, width, height),
	}
}

// ColorModel implements the image.Image interface
func (m *Image) ColorModel() color.Model {
	return Model
}

// Bounds implements the image.Image interface
func (m *Image) Bounds() image.Rectangle {
	return m.Rect
}

// PixOffset returns the index of the pixel at (x, y) within Pix
func (m *Image) PixOffset(x, y int) int {
	return (y-m.Rect.Min.Y)*m.Stride + (x - m.Rect.Min.X)
}

// At implements the image.Image interface
func (m *Image) At(x, y int) color.Color {
	return m.RGB565At(x, y)
}

// RGB565At returns the pixel at (x, y), or zero if it is out of bounds
func (m *Image) RGB565At(x, y int) Color {
	if !(image.Point{x, y}.In(m.Rect)) {
		return 0
	}
	return Color(m.Pix[m.PixOffset(x, y)])
}

// Set implements the draw.Image interface
func (m *Image) Set(x, y int, c color.Color) {
	if !(image.Point{x, y}.In(m.Rect)) {
		return
	}
	m.Pix[m.PixOffset(x, y)] = uint16(model(c).(Color))
}

// Pixels returns the image as a flat row-major slice with no padding between
// rows, suitable for run-length encoding
func (m *Image) Pixels() []uint16 {
	w, h := m.Rect.Dx(), m.Rect.Dy()
	if m.Stride == w {
		return m.Pix[:w*h]
	}
	pixels := make([]uint16, 0, w*h)
	for y := 0; y < h; y++ {
		pixels = append(pixels, m.Pix[y*m.Stride:y*m.Stride+w]...)
	}
	return pixels
}

// Convert returns a copy of m in 5-6-5 form with the top-left corner moved to
// (0, 0)
func Convert(m image.Image) *Image {
	b := m.Bounds()
	dst := New(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			dst.Pix[(y-b.Min.Y)*dst.Stride+x-b.Min.X] = uint16(pack(m.At(x, y)))
		}
	}
	return dst
}
