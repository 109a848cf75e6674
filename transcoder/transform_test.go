package transcoder

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"testing"

	"gifscreen/image1bit"
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

func countLit(f *image1bit.MSBFirst, r image.Rectangle) int {
	n := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if f.BitAt(x, y) {
				n++
			}
		}
	}
	return n
}

func TestFitRect(t *testing.T) {
	tests := []struct {
		name string
		w, h int
		want image.Rectangle
	}{
		{"exact", 128, 64, image.Rect(0, 0, 128, 64)},
		{"double", 256, 128, image.Rect(0, 0, 128, 64)},
		{"wide", 300, 100, image.Rect(0, 10, 128, 53)},
		{"square", 100, 100, image.Rect(32, 0, 96, 64)},
		{"tiny kept native", 16, 8, image.Rect(56, 28, 72, 36)},
		{"small square native", 40, 40, image.Rect(44, 12, 84, 52)},
		{"narrower than screen but too tall", 100, 80, image.Rect(24, 0, 104, 64)},
		{"very wide", 10000, 1, image.Rect(0, 31, 128, 32)},
		{"empty", 0, 10, image.Rectangle{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FitRect(tt.w, tt.h); got != tt.want {
				t.Errorf("FitRect(%d, %d) = %v, want %v", tt.w, tt.h, got, tt.want)
			}
		})
	}
}

func TestTransformGeometry(t *testing.T) {
	sources := []struct {
		name string
		w, h int
	}{
		{"wide", 400, 50},
		{"square", 90, 90},
		{"portrait", 40, 300},
		{"single pixel", 1, 1},
	}
	for _, src := range sources {
		for _, mode := range []FitMode{FitModeFill, FitModeFit} {
			t.Run(src.name+"/"+mode.String(), func(t *testing.T) {
				out := Transform(solid(src.w, src.h, color.White), mode)
				if out.Bounds() != image.Rect(0, 0, ScreenWidth, ScreenHeight) {
					t.Errorf("bounds = %v", out.Bounds())
				}
				if len(out.Pix) != FrameBytes {
					t.Errorf("len(Pix) = %d, want %d", len(out.Pix), FrameBytes)
				}
			})
		}
	}
}

func TestFillCoversScreen(t *testing.T) {
	for _, size := range []image.Point{{400, 50}, {128, 64}, {70, 60}, {10, 5}} {
		out := Transform(solid(size.X, size.Y, color.White), FitModeFill)
		lit := countLit(out, out.Bounds())
		if lit < ScreenWidth*ScreenHeight*99/100 {
			t.Errorf("%v: %d lit pixels, want nearly all of %d", size, lit, ScreenWidth*ScreenHeight)
		}
	}
}

func TestFitLeavesLetterboxBlack(t *testing.T) {
	for _, size := range []image.Point{{300, 100}, {100, 100}, {64, 40}, {500, 20}} {
		img := Orient(solid(size.X, size.Y, color.White))
		b := img.Bounds()
		content := FitRect(b.Dx(), b.Dy())

		out := Transform(solid(size.X, size.Y, color.White), FitModeFit)
		for y := 0; y < ScreenHeight; y++ {
			for x := 0; x < ScreenWidth; x++ {
				if !(image.Pt(x, y).In(content)) && out.BitAt(x, y) == image1bit.On {
					t.Fatalf("%v: pixel (%d,%d) outside %v is lit", size, x, y, content)
				}
			}
		}
		if countLit(out, content) == 0 {
			t.Errorf("%v: content rectangle %v is empty", size, content)
		}
	}
}

func TestPortraitIsRotated(t *testing.T) {
	// Top half white, bottom half black.
	src := solid(64, 200, color.Black)
	draw.Draw(src, image.Rect(0, 0, 64, 100), image.White, image.Point{}, draw.Src)

	if b := Orient(src).Bounds(); b.Dx() != 200 || b.Dy() != 64 {
		t.Fatalf("Orient bounds = %v, want 200x64", b)
	}

	rotated := Transform(src, FitModeFill)
	canvas, content := Fit(src, FitModeFill)
	unrotated := Quantize(canvas, content)
	if bytes.Equal(rotated.Pix, unrotated.Pix) {
		t.Fatal("rotated and unrotated fits are identical")
	}

	// Rotating counter-clockwise moves the top edge to the left.
	if rotated.BitAt(10, 32) != image1bit.On {
		t.Error("left side of rotated frame should be lit")
	}
	if rotated.BitAt(117, 32) != image1bit.Off {
		t.Error("right side of rotated frame should be dark")
	}
}

func TestFitKeepsSmallSourceAtNativeSize(t *testing.T) {
	out := Transform(solid(16, 8, color.White), FitModeFit)
	want := image.Rect(56, 28, 72, 36)
	if n := countLit(out, want); n != 16*8 {
		t.Errorf("%d lit pixels inside %v, want %d", n, want, 16*8)
	}
	if n := countLit(out, out.Bounds()); n != 16*8 {
		t.Errorf("%d lit pixels overall, want %d", n, 16*8)
	}
}

func TestTransparentCompositesOnBlack(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 128, 64))
	draw.Draw(src, src.Bounds(), image.NewUniform(color.NRGBA{255, 255, 255, 0}), image.Point{}, draw.Src)

	for _, mode := range []FitMode{FitModeFill, FitModeFit} {
		out := Transform(src, mode)
		if n := countLit(out, out.Bounds()); n != 0 {
			t.Errorf("%v: %d lit pixels from a fully transparent source", mode, n)
		}
	}
}

func TestDitherKeepsGradient(t *testing.T) {
	// A mid gray must not collapse to all-on or all-off as a flat threshold would.
	out := Transform(solid(128, 64, color.Gray{Y: 0x60}), FitModeFill)
	lit := countLit(out, out.Bounds())
	total := ScreenWidth * ScreenHeight
	if lit < total/5 || lit > total/2 {
		t.Errorf("lit = %d of %d, want roughly 38%%", lit, total)
	}
}

func TestParseFitMode(t *testing.T) {
	tests := []struct {
		in      string
		want    FitMode
		wantErr bool
	}{
		{"fill", FitModeFill, false},
		{"FIT", FitModeFit, false},
		{" fit ", FitModeFit, false},
		{"stretch", FitModeFill, true},
		{"", FitModeFill, true},
	}
	for _, tt := range tests {
		got, err := ParseFitMode(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFitMode(%q) = %v, %v", tt.in, got, err)
		}
	}
}
