package transcoder

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"

	"gifscreen/image1bit"
)

// Panel geometry.
const (
	ScreenWidth  = 128
	ScreenHeight = 64
	FrameBytes   = ScreenWidth * ScreenHeight / 8
)

var screenRect = image.Rect(0, 0, ScreenWidth, ScreenHeight)

// Transform maps one decoded frame onto the panel: orient, fit, then dither
// down to 1bpp.
func Transform(img image.Image, mode FitMode) *image1bit.MSBFirst {
	canvas, content := Fit(Orient(img), mode)
	return Quantize(canvas, content)
}

// Orient rotates portrait frames 90° counter-clockwise so they use the
// landscape panel. The output bounds grow to hold the whole rotated frame.
func Orient(img image.Image) image.Image {
	b := img.Bounds()
	if b.Dy() > b.Dx() {
		return imaging.Rotate90(img)
	}
	return img
}

// Fit scales img onto a ScreenWidth×ScreenHeight canvas and returns the canvas
// together with the rectangle covered by source content.
func Fit(img image.Image, mode FitMode) (*image.NRGBA, image.Rectangle) {
	if mode == FitModeFit {
		b := img.Bounds()
		r := FitRect(b.Dx(), b.Dy())
		canvas := imaging.New(ScreenWidth, ScreenHeight, color.Black)
		if r.Empty() {
			return canvas, r
		}
		if r.Dx() == b.Dx() && r.Dy() == b.Dy() {
			return imaging.Paste(canvas, img, r.Min), r
		}
		scaled := imaging.Resize(img, r.Dx(), r.Dy(), imaging.Lanczos)
		return imaging.Paste(canvas, scaled, r.Min), r
	}
	return imaging.Fill(img, ScreenWidth, ScreenHeight, imaging.Center, imaging.Lanczos), screenRect
}

// FitRect returns the centered rectangle a w×h source occupies on the screen
// in FIT mode. Sources larger than the screen are scaled down with their
// aspect ratio kept; sources that already fit stay at their own size.
func FitRect(w, h int) image.Rectangle {
	if w <= 0 || h <= 0 {
		return image.Rectangle{}
	}
	sw, sh := w, h
	if w > ScreenWidth || h > ScreenHeight {
		sw, sh = ScreenWidth, ScreenHeight
		if w*ScreenHeight > h*ScreenWidth {
			sh = (h*ScreenWidth + w/2) / w
		} else {
			sw = (w*ScreenHeight + h/2) / h
		}
		sw = max(1, min(sw, ScreenWidth))
		sh = max(1, min(sh, ScreenHeight))
	}

	x0 := (ScreenWidth - sw) / 2
	y0 := (ScreenHeight - sh) / 2
	return image.Rect(x0, y0, x0+sw, y0+sh)
}

// Quantize composites canvas onto black and Floyd–Steinberg dithers the
// content rectangle into a 1bpp frame. Pixels outside content stay Off.
func Quantize(canvas image.Image, content image.Rectangle) *image1bit.MSBFirst {
	gray := image.NewGray(screenRect)
	draw.Draw(gray, screenRect, image.Black, image.Point{}, draw.Src)
	draw.Draw(gray, screenRect, canvas, canvas.Bounds().Min, draw.Over)

	out := image1bit.NewMSBFirst(screenRect)
	content = content.Intersect(screenRect)
	if !content.Empty() {
		draw.FloydSteinberg.Draw(out, content, gray, content.Min)
	}
	return out
}
