// Package acquire produces input images, with their orientation and file
// name, from files on disk, an interactive picker, or a capture session.
package acquire

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"squash/internal/orientation"
	"squash/pkg/imgutil"
)

// ErrNoFileSelected is returned when the user dismissed the selection.
var ErrNoFileSelected = errors.New("no file selected")

// Upload is one acquired image.
type Upload struct {
	Image       imgutil.DataURL
	Orientation orientation.Orientation
	FileName    string
	Kind        imgutil.Kind
}

// Acquirer yields a single image.
type Acquirer interface {
	Acquire(ctx context.Context) (Upload, error)
}

// MultiAcquirer yields several images at once.
type MultiAcquirer interface {
	AcquireMultiple(ctx context.Context) ([]Upload, error)
}

// UnsupportedError reports a file that is not a recognised image.
type UnsupportedError struct {
	FileName string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("%s: unsupported image format", e.FileName)
}

// FromBytes builds an Upload from an encoded image, reading its
// orientation once.
func FromBytes(name string, data []byte) (Upload, error) {
	kind, err := imgutil.Sniff(data)
	if err != nil {
		return Upload{}, fmt.Errorf("%s: %w", name, err)
	}
	if kind == imgutil.KindUnknown {
		return Upload{}, &UnsupportedError{FileName: name}
	}

	o, err := orientation.Read(data)
	if err != nil {
		return Upload{}, fmt.Errorf("%s: read orientation: %w", name, err)
	}

	return Upload{
		Image:       imgutil.Encode(kind, data),
		Orientation: o,
		FileName:    name,
		Kind:        kind,
	}, nil
}

// FromFile reads path and builds an Upload named after its base name.
// Files whose header is not a known image are rejected before the rest
// is read.
func FromFile(path string) (Upload, error) {
	name := filepath.Base(path)
	kind, err := imgutil.SniffFile(path)
	if err != nil {
		return Upload{}, fmt.Errorf("%s: %w", name, err)
	}
	if kind == imgutil.KindUnknown {
		return Upload{}, &UnsupportedError{FileName: name}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Upload{}, err
	}
	return FromBytes(name, data)
}
