package render

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"

	"github.com/abihf/camshot/session"
	"github.com/pkg/errors"
	"github.com/rwcarlsen/goexif/exif"
	"golang.org/x/image/math/f64"
)

// Orientation is the EXIF orientation tag, 1 (upright) through 8.
type Orientation int

const Upright Orientation = 1

// ReadOrientation extracts the EXIF orientation of an encoded image.
func ReadOrientation(data []byte) (Orientation, error) {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return 0, errors.Wrap(session.ErrDecodeFailed, err.Error())
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 0, errors.Wrap(session.ErrDecodeFailed, err.Error())
	}
	v, err := tag.Int(0)
	if err != nil {
		return 0, errors.Wrap(session.ErrDecodeFailed, err.Error())
	}
	o := Orientation(v)
	if o < 1 || o > 8 {
		return 0, errors.Wrapf(session.ErrDecodeFailed, "orientation %d out of range", v)
	}
	return o, nil
}

// swapsAxes reports whether the orientation turns the image a quarter.
func (o Orientation) swapsAxes() bool {
	return o >= 5
}

// matrix maps the stored pixels of a w x h image to their upright place.
func (o Orientation) matrix(w, h int) f64.Aff3 {
	fw, fh := float64(w), float64(h)
	switch o {
	case 2:
		return f64.Aff3{-1, 0, fw, 0, 1, 0}
	case 3:
		return f64.Aff3{-1, 0, fw, 0, -1, fh}
	case 4:
		return f64.Aff3{1, 0, 0, 0, -1, fh}
	case 5:
		return f64.Aff3{0, 1, 0, 1, 0, 0}
	case 6:
		return f64.Aff3{0, -1, fh, 1, 0, 0}
	case 7:
		return f64.Aff3{0, -1, fh, -1, 0, fw}
	case 8:
		return f64.Aff3{0, 1, 0, -1, 0, fw}
	}
	return f64.Aff3{1, 0, 0, 0, 1, 0}
}

// Apply returns img turned upright according to o.
func (o Orientation) Apply(img image.Image) image.Image {
	if o <= Upright || o > 8 {
		return img
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if o.swapsAxes() {
		return paint(img, o.matrix(w, h), h, w)
	}
	return paint(img, o.matrix(w, h), w, h)
}

// DecodeFile decodes a picked image and honours its embedded orientation.
// Missing or unreadable orientation metadata is not fatal: the image is
// returned as stored, without any guessing. A nil log uses slog.Default.
func DecodeFile(data []byte, log *slog.Logger) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "can not decode picked image")
	}

	o, err := ReadOrientation(data)
	if err != nil {
		if log == nil {
			log = slog.Default()
		}
		log.Debug("Painting picked image without orientation correction", "error", err)
		return img, nil
	}
	return o.Apply(img), nil
}
