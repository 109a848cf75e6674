package transcoder

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"
)

// Binary layout, all big endian:
// offset, length, type,   field
// 0,      2,      uint16, frame count
// 2,      2,      uint16, frame delay in milliseconds
// 4,      1024*n, bytes,  packed frames in display order
const (
	HeaderSize     = 4
	DefaultDelayMs = 100
	MaxFrames      = math.MaxUint16
)

var ErrTooManyFrames = errors.New("frame count exceeds 65535")

// Header is the fixed prefix of an animation blob.
type Header struct {
	Frames  uint16
	DelayMs uint16
}

// DelayMs converts a frame duration hint to the header field, falling back to
// DefaultDelayMs when the hint is absent and clamping to the u16 range.
func DelayMs(d time.Duration, ok bool) uint16 {
	if !ok {
		return DefaultDelayMs
	}
	ms := d.Milliseconds()
	switch {
	case ms < 0:
		return 0
	case ms > math.MaxUint16:
		return math.MaxUint16
	default:
		return uint16(ms)
	}
}

// Assembler accumulates packed frames into a private buffer.
type Assembler struct {
	delayMs uint16
	frames  int
	buf     bytes.Buffer
}

func NewAssembler(delayMs uint16) *Assembler {
	a := &Assembler{delayMs: delayMs}
	a.buf.Write(make([]byte, HeaderSize))
	return a
}

// Add appends one packed frame.
func (a *Assembler) Add(packed []byte) error {
	if len(packed) != FrameBytes {
		return fmt.Errorf("packed frame is %d bytes, want %d", len(packed), FrameBytes)
	}
	if a.frames >= MaxFrames {
		return ErrTooManyFrames
	}
	a.buf.Write(packed)
	a.frames++
	return nil
}

// Frames returns the number of frames added so far.
func (a *Assembler) Frames() int {
	return a.frames
}

// Bytes finalizes the header and returns the blob.
func (a *Assembler) Bytes() ([]byte, error) {
	if a.frames == 0 {
		return nil, fmt.Errorf("%w: nothing to assemble", ErrEmptyResult)
	}
	out := bytes.Clone(a.buf.Bytes())
	binary.BigEndian.PutUint16(out[0:2], uint16(a.frames))
	binary.BigEndian.PutUint16(out[2:4], a.delayMs)
	return out, nil
}

// ParseBlob validates a blob and splits it into its header and frames.
func ParseBlob(blob []byte) (Header, [][]byte, error) {
	if len(blob) < HeaderSize {
		return Header{}, nil, fmt.Errorf("blob too short: %d bytes", len(blob))
	}
	h := Header{
		Frames:  binary.BigEndian.Uint16(blob[0:2]),
		DelayMs: binary.BigEndian.Uint16(blob[2:4]),
	}
	want := HeaderSize + int(h.Frames)*FrameBytes
	if len(blob) != want {
		return h, nil, fmt.Errorf("blob is %d bytes, header implies %d", len(blob), want)
	}
	frames := make([][]byte, h.Frames)
	for i := range frames {
		off := HeaderSize + i*FrameBytes
		frames[i] = blob[off : off+FrameBytes]
	}
	return h, frames, nil
}
