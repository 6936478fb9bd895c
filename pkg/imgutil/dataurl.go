package imgutil

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// DataURL is an encoded image carried as a base64 data URL
// ("data:image/jpeg;base64,..."). Values are immutable; every
// transformation produces a new DataURL.
type DataURL string

const (
	dataPrefix   = "data:"
	base64Marker = ";base64,"
)

var ErrNotDataURL = errors.New("not a base64 data url")

// Encode wraps raw image bytes into a data URL for kind.
func Encode(kind Kind, data []byte) DataURL {
	var b strings.Builder
	b.Grow(len(dataPrefix) + len(kind.MIME()) + len(base64Marker) + base64.StdEncoding.EncodedLen(len(data)))
	b.WriteString(dataPrefix)
	b.WriteString(kind.MIME())
	b.WriteString(base64Marker)
	b.WriteString(base64.StdEncoding.EncodeToString(data))
	return DataURL(b.String())
}

// EncodeSniffed wraps raw bytes, detecting the kind from their header.
func EncodeSniffed(data []byte) (DataURL, Kind, error) {
	kind, err := Sniff(data)
	if err != nil {
		return "", KindUnknown, err
	}
	if kind == KindUnknown {
		return "", KindUnknown, fmt.Errorf("unsupported image format")
	}
	return Encode(kind, data), kind, nil
}

// MIME returns the media type declared in the data URL header.
func (d DataURL) MIME() string {
	mime, _, err := d.split()
	if err != nil {
		return ""
	}
	return mime
}

// Kind returns the image kind declared in the data URL header.
func (d DataURL) Kind() Kind {
	return KindFromMIME(d.MIME())
}

// Bytes decodes the base64 payload.
func (d DataURL) Bytes() ([]byte, error) {
	_, payload, err := d.split()
	if err != nil {
		return nil, err
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decode data url payload: %w", err)
	}
	return data, nil
}

// Prefix returns at most n leading characters, for log previews.
func (d DataURL) Prefix(n int) string {
	s := string(d)
	if n < 0 || len(s) <= n {
		return s
	}
	return s[:n]
}

func (d DataURL) split() (string, string, error) {
	s := string(d)
	if !strings.HasPrefix(s, dataPrefix) {
		return "", "", ErrNotDataURL
	}
	idx := strings.Index(s, base64Marker)
	if idx < 0 {
		return "", "", ErrNotDataURL
	}
	return s[len(dataPrefix):idx], s[idx+len(base64Marker):], nil
}

// ByteCount reports the size of the encoded image: the UTF-8 byte length
// of the whole data URL string, header included.
func ByteCount(d DataURL) int {
	return len(d)
}
