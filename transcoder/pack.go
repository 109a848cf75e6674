package transcoder

import "gifscreen/image1bit"

// mirrorTable[b] is b with its bit order reversed (bit 7 <-> bit 0).
var mirrorTable [256]byte

func init() {
	for i := range mirrorTable {
		b := byte(i)
		b = (b&0xF0)>>4 | (b&0x0F)<<4
		b = (b&0xCC)>>2 | (b&0x33)<<2
		b = (b&0xAA)>>1 | (b&0x55)<<1
		mirrorTable[i] = b
	}
}

// Mirror reverses the bit order of a single byte.
func Mirror(b byte) byte {
	return mirrorTable[b]
}

// MirrorBytes returns a copy of src with every byte bit-mirrored.
func MirrorBytes(src []byte) []byte {
	dst := make([]byte, len(src))
	for i, b := range src {
		dst[i] = mirrorTable[b]
	}
	return dst
}

// Pack converts a screen frame into the panel's LSB-first byte order.
func Pack(frame *image1bit.MSBFirst) []byte {
	return MirrorBytes(frame.Pix)
}
