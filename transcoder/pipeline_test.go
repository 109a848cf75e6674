package transcoder

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"testing"
)

type staticFetcher []byte

func (s staticFetcher) Fetch(context.Context, string) ([]byte, error) {
	return s, nil
}

func TestCompileSingleFrame(t *testing.T) {
	blob, err := Compile(context.Background(), staticFetcher(encodePNG(t, solid(200, 120, color.White))), "http://x/a.png", FitModeFill)
	if err != nil {
		t.Fatal(err)
	}
	if len(blob) != HeaderSize+FrameBytes {
		t.Fatalf("len(blob) = %d, want %d", len(blob), HeaderSize+FrameBytes)
	}
	h, _, err := ParseBlob(blob)
	if err != nil {
		t.Fatal(err)
	}
	if h.Frames != 1 || h.DelayMs != DefaultDelayMs {
		t.Errorf("header = %+v, want 1 frame at %dms", h, DefaultDelayMs)
	}
}

func TestCompileUsesFirstFrameDelay(t *testing.T) {
	r := image.Rect(0, 0, 8, 8)
	data := encodeGIF(t, &gif.GIF{
		Image: []*image.Paletted{paletted(r, 0), paletted(r, 1)},
		Delay: []int{5, 50},
	})
	blob, err := Compile(context.Background(), staticFetcher(data), "http://x/a.gif", FitModeFit)
	if err != nil {
		t.Fatal(err)
	}
	h, frames, err := ParseBlob(blob)
	if err != nil {
		t.Fatal(err)
	}
	if h.Frames != 2 || h.DelayMs != 50 {
		t.Errorf("header = %+v, want 2 frames at 50ms", h)
	}
	// Frame order is decode order: black first, white second.
	if bytes.Count(frames[0], []byte{0}) != FrameBytes {
		t.Error("first frame should be dark")
	}
	if bytes.Equal(frames[1], frames[0]) {
		t.Error("second frame should differ from the first")
	}
}

func TestCompileIsDeterministic(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 97, 53))
	for y := 0; y < 53; y++ {
		for x := 0; x < 97; x++ {
			src.Set(x, y, color.RGBA{uint8(x * 2), uint8(y * 4), uint8(x + y), 0xFF})
		}
	}
	f := staticFetcher(encodePNG(t, src))
	a, err := Compile(context.Background(), f, "u", FitModeFit)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Compile(context.Background(), f, "u", FitModeFit)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Error("compiling the same source twice produced different blobs")
	}
}

func TestEncodeEmpty(t *testing.T) {
	if _, err := Encode(nil, FitModeFill); !errors.Is(err, ErrEmptyResult) {
		t.Errorf("Encode(nil) error = %v, want ErrEmptyResult", err)
	}
}
