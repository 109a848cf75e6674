// Package image1bit provides a 1-bit monochrome image format for small OLED panels.
//
// Pixels are packed 8 per byte, row-major, with the leftmost pixel in the most
// significant bit. A set bit is a lit (white) pixel.
package image1bit

import (
	"image"
	"image/color"
)

// Bit is a monochrome color: On is lit, Off is dark.
type Bit bool

const (
	On  Bit = true
	Off Bit = false
)

// RGBA implements color.Color.
func (b Bit) RGBA() (r, g, b2, a uint32) {
	if b {
		return 0xFFFF, 0xFFFF, 0xFFFF, 0xFFFF
	}
	return 0, 0, 0, 0xFFFF
}

func (b Bit) String() string {
	if b {
		return "On"
	}
	return "Off"
}

// toBit thresholds the luma of c at 50%.
func toBit(c color.Color) color.Color {
	if b, ok := c.(Bit); ok {
		return b
	}
	r, g, b, _ := c.RGBA()
	y := (299*r + 587*g + 114*b + 500) / 1000
	return Bit(y >= 0x8000)
}

// BitModel converts colors to Bit.
var BitModel = color.ModelFunc(toBit)

// MSBFirst is a 1-bit image stored MSB-first within each byte.
type MSBFirst struct {
	Pix    []byte          // Pixel data (8 pixels per byte)
	Stride int             // Bytes per row
	Rect   image.Rectangle // Image bounds
}

// NewMSBFirst creates a blank (all Off) image with the given bounds.
// The width must be a multiple of 8.
func NewMSBFirst(r image.Rectangle) *MSBFirst {
	w, h := r.Dx(), r.Dy()
	if w < 0 || h < 0 {
		return &MSBFirst{Rect: r}
	}
	if w%8 != 0 {
		panic("image1bit: width must be a multiple of 8")
	}
	stride := w / 8
	return &MSBFirst{
		Pix:    make([]byte, stride*h),
		Stride: stride,
		Rect:   r,
	}
}

// ColorModel returns BitModel.
func (p *MSBFirst) ColorModel() color.Model {
	return BitModel
}

// Bounds returns the image bounds.
func (p *MSBFirst) Bounds() image.Rectangle {
	return p.Rect
}

// At implements image.Image.
func (p *MSBFirst) At(x, y int) color.Color {
	return p.BitAt(x, y)
}

// BitAt returns the pixel at (x, y). Points outside the bounds are Off.
func (p *MSBFirst) BitAt(x, y int) Bit {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return Off
	}
	offset, mask := p.pixOffset(x, y)
	return p.Pix[offset]&mask != 0
}

// Set implements draw.Image. The color is thresholded through BitModel, which
// makes the image usable as a draw.FloydSteinberg destination.
func (p *MSBFirst) Set(x, y int, c color.Color) {
	p.SetBit(x, y, BitModel.Convert(c).(Bit))
}

// SetBit sets the pixel at (x, y) without color conversion.
func (p *MSBFirst) SetBit(x, y int, b Bit) {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return
	}
	offset, mask := p.pixOffset(x, y)
	if b {
		p.Pix[offset] |= mask
	} else {
		p.Pix[offset] &^= mask
	}
}

// pixOffset returns the byte offset and bit mask for (x, y).
// x%8 == 0 maps to bit 7.
func (p *MSBFirst) pixOffset(x, y int) (offset int, mask byte) {
	dx := x - p.Rect.Min.X
	offset = (y-p.Rect.Min.Y)*p.Stride + dx/8
	mask = 0x80 >> uint(dx&7)
	return
}
