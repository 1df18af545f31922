package render

import (
	"bytes"
	"image"
	"image/jpeg"
	"io"
	"math"

	"github.com/pkg/errors"
)

// DefaultQuality is used when the requested quality is outside [0,1].
const DefaultQuality = 0.92

// Export writes target as a JPEG. JPEG is chosen because every decoder
// reads it.
func Export(w io.Writer, target image.Image, quality float64) error {
	err := jpeg.Encode(w, target, &jpeg.Options{Quality: jpegQuality(quality)})
	return errors.Wrap(err, "can not encode jpeg")
}

func Encode(target image.Image, quality float64) ([]byte, error) {
	var buf bytes.Buffer
	if err := Export(&buf, target, quality); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func jpegQuality(q float64) int {
	if math.IsNaN(q) || q < 0 || q > 1 {
		q = DefaultQuality
	}
	return max(1, int(math.Round(q*100)))
}
