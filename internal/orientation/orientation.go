// Package orientation reads and applies the EXIF orientation tag that
// is attached to an image when it is acquired.
package orientation

import (
	"errors"
	"image"
	"strings"

	"github.com/disintegration/imaging"
	exif "github.com/dsoprea/go-exif/v3"

	"squash/pkg/imgutil"
)

// Orientation is the EXIF rotation/mirroring tag. Values 1..8 are the
// EXIF tag values; the negative values describe why no tag was read.
type Orientation int

const (
	NotDefined    Orientation = -2
	NotJPEG       Orientation = -1
	Up            Orientation = 1
	UpMirrored    Orientation = 2
	Down          Orientation = 3
	DownMirrored  Orientation = 4
	LeftMirrored  Orientation = 5
	Right         Orientation = 6
	RightMirrored Orientation = 7
	Left          Orientation = 8
)

const orientationTagID = 0x0112

func (o Orientation) String() string {
	switch o {
	case Up:
		return "Up"
	case UpMirrored:
		return "UpMirrored"
	case Down:
		return "Down"
	case DownMirrored:
		return "DownMirrored"
	case LeftMirrored:
		return "LeftMirrored"
	case Right:
		return "Right"
	case RightMirrored:
		return "RightMirrored"
	case Left:
		return "Left"
	case NotJPEG:
		return "NotJpeg"
	default:
		return "NotDefined"
	}
}

// Valid reports whether o is one of the eight EXIF values.
func (o Orientation) Valid() bool {
	return o >= Up && o <= Left
}

// SwapsAxes reports whether applying o exchanges width and height.
func (o Orientation) SwapsAxes() bool {
	return o >= LeftMirrored && o <= Left
}

// Read extracts the orientation tag from an encoded JPEG or TIFF. JPEGs
// are searched for their APP1 EXIF block; a TIFF is its own EXIF block.
// A missing EXIF block is not an error and yields NotDefined.
func Read(data []byte) (Orientation, error) {
	kind, err := imgutil.Sniff(data)
	if err != nil || (kind != imgutil.KindJPEG && kind != imgutil.KindTIFF) {
		return NotJPEG, nil
	}

	raw := data
	if kind == imgutil.KindJPEG {
		raw, err = exif.SearchAndExtractExif(data)
		if err != nil {
			if errorsIsNoExif(err) {
				return NotDefined, nil
			}
			return NotDefined, err
		}
	}

	tags, _, err := exif.GetFlatExifData(raw, nil)
	if err != nil {
		if errorsIsNoExif(err) {
			return NotDefined, nil
		}
		return NotDefined, err
	}

	for _, tag := range tags {
		if tag.TagId != orientationTagID {
			continue
		}
		values, ok := tag.Value.([]uint16)
		if !ok || len(values) == 0 {
			continue
		}
		if o := Orientation(values[0]); o.Valid() {
			return o, nil
		}
	}
	return NotDefined, nil
}

// ReadDataURL is Read for an image carried as a data URL.
func ReadDataURL(d imgutil.DataURL) (Orientation, error) {
	data, err := d.Bytes()
	if err != nil {
		return NotDefined, err
	}
	return Read(data)
}

// Apply returns img transformed so that it displays upright. Unknown
// orientations leave the pixels untouched.
func Apply(img image.Image, o Orientation) image.Image {
	switch o {
	case UpMirrored:
		return imaging.FlipH(img)
	case Down:
		return imaging.Rotate180(img)
	case DownMirrored:
		return imaging.FlipV(img)
	case LeftMirrored:
		return imaging.Transpose(img)
	case Right:
		return imaging.Rotate270(img)
	case RightMirrored:
		return imaging.Transverse(img)
	case Left:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

func errorsIsNoExif(err error) bool {
	if errors.Is(err, exif.ErrNoExif) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no exif")
}
