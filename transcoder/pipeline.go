package transcoder

import (
	"context"

	"gifscreen/image1bit"
)

// Compile fetches rawURL and encodes it into an animation blob. Frames go
// through the transform one at a time as they are decoded.
func Compile(ctx context.Context, f Fetcher, rawURL string, mode FitMode) ([]byte, error) {
	data, err := f.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	enc := frameEncoder{mode: mode}
	err = DecodeEach(data, func(frame RawFrame) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return enc.add(frame)
	})
	if err != nil {
		return nil, err
	}
	return enc.bytes()
}

// Encode runs every frame through Transform and Pack, in order, and assembles
// the result. The frame delay comes from the first frame only.
func Encode(frames []RawFrame, mode FitMode) ([]byte, error) {
	enc := frameEncoder{mode: mode}
	for _, f := range frames {
		if err := enc.add(f); err != nil {
			return nil, err
		}
	}
	return enc.bytes()
}

type frameEncoder struct {
	mode FitMode
	asm  *Assembler
}

func (e *frameEncoder) add(f RawFrame) error {
	if e.asm == nil {
		e.asm = NewAssembler(DelayMs(f.Delay, f.HasDelay))
	}
	return e.asm.Add(Pack(Transform(f.Image, e.mode)))
}

func (e *frameEncoder) bytes() ([]byte, error) {
	if e.asm == nil {
		return nil, ErrEmptyResult
	}
	return e.asm.Bytes()
}

// Unpack turns a packed frame back into a screen frame.
func Unpack(packed []byte) *image1bit.MSBFirst {
	frame := image1bit.NewMSBFirst(screenRect)
	copy(frame.Pix, MirrorBytes(packed))
	return frame
}
