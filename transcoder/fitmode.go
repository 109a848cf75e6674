package transcoder

import (
	"errors"
	"fmt"
	"strings"
)

var ErrMode = errors.New("unknown fit mode")

// FitMode selects how a frame is mapped onto the screen.
type FitMode int

const (
	// FitModeFill scales to cover the whole screen and center-crops the rest.
	FitModeFill FitMode = iota
	// FitModeFit scales to be fully visible and letterboxes with black.
	FitModeFit
)

func (m FitMode) String() string {
	switch m {
	case FitModeFill:
		return "fill"
	case FitModeFit:
		return "fit"
	default:
		return fmt.Sprintf("FitMode(%d)", int(m))
	}
}

// ParseFitMode accepts "fill" or "fit", case-insensitively.
func ParseFitMode(s string) (FitMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fill":
		return FitModeFill, nil
	case "fit":
		return FitModeFit, nil
	default:
		return FitModeFill, fmt.Errorf("%w: %q", ErrMode, s)
	}
}

func (m FitMode) MarshalText() ([]byte, error) {
	if m != FitModeFill && m != FitModeFit {
		return nil, fmt.Errorf("%w: %d", ErrMode, int(m))
	}
	return []byte(m.String()), nil
}

func (m *FitMode) UnmarshalText(text []byte) error {
	parsed, err := ParseFitMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
