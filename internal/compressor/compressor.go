// Package compressor re-encodes images at a given quality and size cap.
package compressor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"math"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"squash/internal/orientation"
	"squash/pkg/imgutil"
)

const (
	MinQuality = 1
	MaxQuality = 100
)

// Compressor is the re-encode primitive driven by the size search and by
// single-shot compression. maxWidth/maxHeight of 0 mean "no cap".
type Compressor interface {
	Compress(ctx context.Context, src imgutil.DataURL, o orientation.Orientation, quality, maxWidth, maxHeight int) (imgutil.DataURL, error)
}

// Func adapts a plain function to Compressor.
type Func func(ctx context.Context, src imgutil.DataURL, o orientation.Orientation, quality, maxWidth, maxHeight int) (imgutil.DataURL, error)

func (f Func) Compress(ctx context.Context, src imgutil.DataURL, o orientation.Orientation, quality, maxWidth, maxHeight int) (imgutil.DataURL, error) {
	return f(ctx, src, o, quality, maxWidth, maxHeight)
}

// PrimitiveError reports a failed re-encode.
type PrimitiveError struct {
	Stage   string
	Quality int
	Err     error
}

func (e *PrimitiveError) Error() string {
	return fmt.Sprintf("compress: %s at quality %d: %v", e.Stage, e.Quality, e.Err)
}

func (e *PrimitiveError) Unwrap() error { return e.Err }

var ErrQualityRange = errors.New("quality out of range")

// Imaging is the Compressor backed by disintegration/imaging. JPEG-like
// sources are written as JPEG; PNG sources stay PNG, where quality has
// no effect and only the size cap shrinks the output.
type Imaging struct {
	Filter imaging.ResampleFilter
}

// NewImaging returns an Imaging compressor using Lanczos resampling.
func NewImaging() *Imaging {
	return &Imaging{Filter: imaging.Lanczos}
}

func (c *Imaging) Compress(ctx context.Context, src imgutil.DataURL, o orientation.Orientation, quality, maxWidth, maxHeight int) (imgutil.DataURL, error) {
	if quality < MinQuality || quality > MaxQuality {
		return "", &PrimitiveError{Stage: "validate", Quality: quality, Err: ErrQualityRange}
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := src.Bytes()
	if err != nil {
		return "", &PrimitiveError{Stage: "read", Quality: quality, Err: err}
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return "", &PrimitiveError{Stage: "decode", Quality: quality, Err: err}
	}

	img = orientation.Apply(img, o)
	img = c.fit(img, maxWidth, maxHeight)

	kind := outputKind(src.Kind())
	var buf bytes.Buffer
	switch kind {
	case imgutil.KindPNG:
		err = imaging.Encode(&buf, img, imaging.PNG, imaging.PNGCompressionLevel(png.BestCompression))
	default:
		err = imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality))
	}
	if err != nil {
		return "", &PrimitiveError{Stage: "encode", Quality: quality, Err: err}
	}

	return imgutil.Encode(kind, buf.Bytes()), nil
}

func (c *Imaging) fit(img image.Image, maxWidth, maxHeight int) image.Image {
	if maxWidth <= 0 && maxHeight <= 0 {
		return img
	}
	b := img.Bounds()
	if maxWidth <= 0 {
		maxWidth = math.MaxInt32
	}
	if maxHeight <= 0 {
		maxHeight = math.MaxInt32
	}
	if b.Dx() <= maxWidth && b.Dy() <= maxHeight {
		return img
	}
	filter := c.Filter
	if filter.Support == 0 && filter.Kernel == nil {
		filter = imaging.Lanczos
	}
	return imaging.Fit(img, maxWidth, maxHeight, filter)
}

func outputKind(src imgutil.Kind) imgutil.Kind {
	if src == imgutil.KindPNG {
		return imgutil.KindPNG
	}
	return imgutil.KindJPEG
}

// Dimensions reports the displayed size of src once o is applied.
func Dimensions(src imgutil.DataURL, o orientation.Orientation) (int, int, error) {
	data, err := src.Bytes()
	if err != nil {
		return 0, 0, err
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("decode config: %w", err)
	}
	if o.SwapsAxes() {
		return cfg.Height, cfg.Width, nil
	}
	return cfg.Width, cfg.Height, nil
}
