package compressor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"squash/internal/imagetest"
	"squash/internal/orientation"
	"squash/pkg/imgutil"
)

func jpegSource(t *testing.T, w, h int) imgutil.DataURL {
	t.Helper()
	return imgutil.Encode(imgutil.KindJPEG, imagetest.JPEG(imagetest.Noise(w, h, 7), 95))
}

func TestImagingLowerQualityShrinks(t *testing.T) {
	c := NewImaging()
	src := jpegSource(t, 64, 48)

	high, err := c.Compress(context.Background(), src, orientation.Up, 90, 0, 0)
	require.NoError(t, err)
	low, err := c.Compress(context.Background(), src, orientation.Up, 10, 0, 0)
	require.NoError(t, err)

	assert.Equal(t, imgutil.KindJPEG, low.Kind())
	assert.Less(t, imgutil.ByteCount(low), imgutil.ByteCount(high))
}

func TestImagingFitsWithinCap(t *testing.T) {
	c := NewImaging()
	src := jpegSource(t, 80, 40)

	out, err := c.Compress(context.Background(), src, orientation.Up, 50, 20, 100)
	require.NoError(t, err)

	w, h, err := Dimensions(out, orientation.Up)
	require.NoError(t, err)
	assert.Equal(t, 20, w)
	assert.Equal(t, 10, h)
}

func TestImagingNeverUpscales(t *testing.T) {
	c := NewImaging()
	src := jpegSource(t, 16, 8)

	out, err := c.Compress(context.Background(), src, orientation.Up, 50, 200, 100)
	require.NoError(t, err)

	w, h, err := Dimensions(out, orientation.Up)
	require.NoError(t, err)
	assert.Equal(t, 16, w)
	assert.Equal(t, 8, h)
}

func TestImagingAppliesOrientation(t *testing.T) {
	c := NewImaging()
	src := jpegSource(t, 30, 10)

	out, err := c.Compress(context.Background(), src, orientation.Right, 80, 0, 0)
	require.NoError(t, err)

	w, h, err := Dimensions(out, orientation.Up)
	require.NoError(t, err)
	assert.Equal(t, 10, w)
	assert.Equal(t, 30, h)
}

func TestImagingKeepsPNG(t *testing.T) {
	c := NewImaging()
	src := imgutil.Encode(imgutil.KindPNG, imagetest.PNG(imagetest.Noise(12, 12, 9)))

	out, err := c.Compress(context.Background(), src, orientation.NotJPEG, 10, 6, 6)
	require.NoError(t, err)
	assert.Equal(t, imgutil.KindPNG, out.Kind())
}

func TestImagingFailures(t *testing.T) {
	c := NewImaging()

	tests := []struct {
		name    string
		src     imgutil.DataURL
		quality int
		stage   string
	}{
		{name: "quality too high", src: jpegSource(t, 4, 4), quality: 101, stage: "validate"},
		{name: "quality zero", src: jpegSource(t, 4, 4), quality: 0, stage: "validate"},
		{name: "not a data url", src: "garbage", quality: 50, stage: "read"},
		{name: "corrupt payload", src: imgutil.Encode(imgutil.KindJPEG, []byte{0xff, 0xd8, 0xff, 0x00}), quality: 50, stage: "decode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Compress(context.Background(), tt.src, orientation.Up, tt.quality, 0, 0)
			var perr *PrimitiveError
			require.True(t, errors.As(err, &perr), "got %v", err)
			assert.Equal(t, tt.stage, perr.Stage)
		})
	}
}

func TestImagingHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewImaging().Compress(ctx, jpegSource(t, 4, 4), orientation.Up, 50, 0, 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDimensionsSwapsForRotatedOrientation(t *testing.T) {
	src := jpegSource(t, 30, 10)

	w, h, err := Dimensions(src, orientation.Left)
	require.NoError(t, err)
	assert.Equal(t, 10, w)
	assert.Equal(t, 30, h)
}
