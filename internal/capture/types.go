package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
)

var (
	ErrNotOpen           = errors.New("capture session is not open")
	ErrNotReady          = errors.New("no video frame decoded yet")
	ErrDeviceUnavailable = errors.New("capture device unavailable")
)

// Facing is the preferred camera direction.
type Facing string

const (
	FacingUser        Facing = "user"
	FacingEnvironment Facing = "environment"
)

// ParseFacing accepts "user" or "environment".
func ParseFacing(s string) (Facing, error) {
	switch f := Facing(s); f {
	case FacingUser, FacingEnvironment:
		return f, nil
	default:
		return "", fmt.Errorf("facing must be %q or %q, got %q", FacingUser, FacingEnvironment, s)
	}
}

// Constraints are ideal values; a source may deliver something else.
type Constraints struct {
	Width  int
	Height int
	Facing Facing
}

func DefaultConstraints() Constraints {
	return Constraints{Width: 1920, Height: 1080, Facing: FacingUser}
}

// Stream is a live video feed.
type Stream interface {
	// Ready is closed once the first frame has been decoded, or once the
	// feed has ended without one.
	Ready() <-chan struct{}
	// Frame returns the most recent decoded frame, or why there is none.
	Frame() (image.Image, error)
	// StopAllTracks releases the feed. It is safe to call more than once.
	StopAllTracks()
}

// Source opens streams.
type Source interface {
	GetStream(ctx context.Context, c Constraints) (Stream, error)
}

// DeviceError reports a source that refused or failed to open a stream.
type DeviceError struct {
	Source string
	Err    error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("capture %s: %v", e.Source, e.Err)
}

func (e *DeviceError) Unwrap() error { return e.Err }
