package transcoder

import "errors"

var (
	ErrNetwork     = errors.New("network error")
	ErrDecode      = errors.New("decode error")
	ErrEmptyResult = errors.New("no frames")
)

// Kind classifies a pipeline error for clients.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNetwork):
		return "network"
	case errors.Is(err, ErrDecode):
		return "decode"
	case errors.Is(err, ErrEmptyResult):
		return "empty"
	default:
		return "internal"
	}
}
