package transcoder

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/gif"
	_ "image/jpeg"
	_ "image/png"
	"time"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// Decoding budgets. A source is rejected before any pixel buffer is
// allocated when its canvas exceeds MaxPixels, or when frames times canvas
// exceeds MaxAnimationPixels.
const (
	MaxPixels          = 89_478_485
	MaxAnimationPixels = 1 << 28
)

// RawFrame is one decoded, fully composited picture of the source.
type RawFrame struct {
	Image    image.Image
	Delay    time.Duration
	HasDelay bool
}

// DecodeEach decodes data and calls fn once per frame in display order,
// stopping at the first error fn returns. The frame image is only valid
// during the call; it is reused for the next frame.
func DecodeEach(data []byte, fn func(RawFrame) error) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: empty source", ErrDecode)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	pixels := int64(cfg.Width) * int64(cfg.Height)
	if pixels > MaxPixels {
		return fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrDecode, cfg.Width, cfg.Height, MaxPixels)
	}

	if format != "gif" {
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrDecode, format, err)
		}
		return fn(RawFrame{Image: img})
	}

	n := countGIFFrames(data)
	if n > MaxFrames {
		return fmt.Errorf("%w: gif has %d frames", ErrTooManyFrames, n)
	}
	if int64(n)*max(pixels, 1) > MaxAnimationPixels {
		return fmt.Errorf("%w: %d frames of %dx%d exceed %d pixels", ErrDecode, n, cfg.Width, cfg.Height, MaxAnimationPixels)
	}
	g, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if len(g.Image) == 0 {
		return fmt.Errorf("%w: gif has no image blocks", ErrEmptyResult)
	}
	return compositeGIF(g, fn)
}

// Decode collects every frame of data. Each frame owns its image.
func Decode(data []byte) ([]RawFrame, error) {
	var frames []RawFrame
	err := DecodeEach(data, func(f RawFrame) error {
		if rgba, ok := f.Image.(*image.RGBA); ok {
			f.Image = cloneRGBA(rgba)
		}
		frames = append(frames, f)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return frames, nil
}

// compositeGIF replays the GIF onto its logical screen so that each frame is
// what a viewer shows at that point, honoring the disposal methods.
func compositeGIF(g *gif.GIF, fn func(RawFrame) error) error {
	screen := image.Rect(0, 0, g.Config.Width, g.Config.Height)
	for _, p := range g.Image {
		screen = screen.Union(p.Bounds())
	}

	canvas := image.NewRGBA(screen)
	var previous *image.RGBA
	for i, p := range g.Image {
		var disposal byte
		if i < len(g.Disposal) {
			disposal = g.Disposal[i]
		}
		if disposal == gif.DisposalPrevious {
			if previous == nil {
				previous = image.NewRGBA(screen)
			}
			copy(previous.Pix, canvas.Pix)
		}

		draw.Draw(canvas, p.Bounds(), p, p.Bounds().Min, draw.Over)

		frame := RawFrame{Image: canvas}
		// image/gif reports a missing graphic control block as delay 0, so
		// zero is taken as "no hint" and gets the default delay.
		if i < len(g.Delay) && g.Delay[i] > 0 {
			frame.Delay = time.Duration(g.Delay[i]) * 10 * time.Millisecond
			frame.HasDelay = true
		}
		if err := fn(frame); err != nil {
			return err
		}

		switch disposal {
		case gif.DisposalBackground:
			draw.Draw(canvas, p.Bounds(), image.Transparent, image.Point{}, draw.Src)
		case gif.DisposalPrevious:
			copy(canvas.Pix, previous.Pix)
		}
	}
	return nil
}

// countGIFFrames walks the GIF block structure and counts image descriptors
// without decompressing anything. Counting stops at the first malformed or
// truncated block; gif.DecodeAll reports those.
func countGIFFrames(data []byte) int {
	const headerLen = 6 + 7
	if len(data) < headerLen {
		return 0
	}
	pos := headerLen
	if flags := data[10]; flags&0x80 != 0 {
		pos += 3 << ((flags & 7) + 1)
	}

	skipSubBlocks := func() bool {
		for pos < len(data) {
			size := int(data[pos])
			pos++
			if size == 0 {
				return true
			}
			pos += size
		}
		return false
	}

	frames := 0
	for pos < len(data) {
		switch data[pos] {
		case 0x21: // extension: introducer, label, sub-blocks
			pos += 2
			if !skipSubBlocks() {
				return frames
			}
		case 0x2C: // image descriptor
			if pos+10 > len(data) {
				return frames
			}
			flags := data[pos+9]
			pos += 10
			if flags&0x80 != 0 {
				pos += 3 << ((flags & 7) + 1)
			}
			pos++ // LZW minimum code size
			if !skipSubBlocks() {
				return frames
			}
			frames++
		default: // trailer or garbage
			return frames
		}
	}
	return frames
}

func cloneRGBA(src *image.RGBA) *image.RGBA {
	dst := image.NewRGBA(src.Rect)
	copy(dst.Pix, src.Pix)
	return dst
}
