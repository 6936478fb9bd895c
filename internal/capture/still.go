package capture

import (
	"context"
	"fmt"
	"image"
	"os"

	"github.com/disintegration/imaging"
)

// StillSource serves one fixed image as a stream that is ready at once.
// It stands in for a camera when a snapshot should come from a file.
type StillSource struct {
	Image image.Image
}

// NewStillSourceFromFile decodes path, honouring its EXIF orientation.
func NewStillSourceFromFile(path string) (*StillSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &DeviceError{Source: path, Err: err}
	}
	defer f.Close()

	img, err := imaging.Decode(f, imaging.AutoOrientation(true))
	if err != nil {
		return nil, &DeviceError{Source: path, Err: fmt.Errorf("decode: %w", err)}
	}
	return &StillSource{Image: img}, nil
}

func (s *StillSource) GetStream(ctx context.Context, c Constraints) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.Image == nil {
		return nil, &DeviceError{Source: "still", Err: ErrDeviceUnavailable}
	}
	img := s.Image
	if c.Width > 0 && c.Height > 0 {
		b := img.Bounds()
		if b.Dx() > c.Width || b.Dy() > c.Height {
			img = imaging.Fit(img, c.Width, c.Height, imaging.Lanczos)
		}
	}
	ready := make(chan struct{})
	close(ready)
	return &stillStream{img: img, ready: ready}, nil
}

type stillStream struct {
	img   image.Image
	ready chan struct{}
}

func (s *stillStream) Ready() <-chan struct{} { return s.ready }

func (s *stillStream) Frame() (image.Image, error) { return s.img, nil }

func (s *stillStream) StopAllTracks() {}
