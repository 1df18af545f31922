package capture

import (
	"bytes"
	"image"
	"image/jpeg"
	"strings"

	"github.com/blackjack/webcam"
	"github.com/pkg/errors"
)

// PixelFormat is a V4L2 fourcc.
type PixelFormat webcam.PixelFormat

const (
	MJPEG PixelFormat = 0x47504A4D
	YUYV  PixelFormat = 0x56595559
)

func (f PixelFormat) String() string {
	b := []byte{byte(f), byte(f >> 8), byte(f >> 16), byte(f >> 24)}
	return strings.TrimRight(string(b), "\x00 ")
}

// ParsePixelFormat accepts "", "auto", "mjpeg"/"mjpg" and "yuyv".
func ParsePixelFormat(s string) (PixelFormat, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return 0, nil
	case "mjpeg", "mjpg":
		return MJPEG, nil
	case "yuyv", "yuy2":
		return YUYV, nil
	}
	return 0, errors.Errorf("unsupported pixel format %q", s)
}

// choosePixelFormat prefers MJPEG, which most UVC cameras offer at full
// resolution, then YUYV.
func choosePixelFormat(supported map[webcam.PixelFormat]string, want PixelFormat) (PixelFormat, error) {
	candidates := []PixelFormat{MJPEG, YUYV}
	if want != 0 {
		candidates = []PixelFormat{want}
	}
	for _, f := range candidates {
		if _, ok := supported[webcam.PixelFormat(f)]; ok {
			return f, nil
		}
	}
	names := make([]string, 0, len(supported))
	for _, desc := range supported {
		names = append(names, desc)
	}
	return 0, errors.Errorf("no usable pixel format (camera offers %s)", strings.Join(names, ", "))
}

func decodeFrame(frame []byte, format PixelFormat, width, height int) (image.Image, error) {
	switch format {
	case MJPEG:
		img, err := jpeg.Decode(bytes.NewReader(frame))
		return img, errors.Wrap(err, "can not decode mjpeg frame")
	case YUYV:
		return decodeYUYV(frame, width, height)
	}
	return nil, errors.Errorf("unsupported pixel format %s", format)
}

func decodeYUYV(frame []byte, width, height int) (image.Image, error) {
	if width%2 != 0 {
		return nil, errors.Errorf("yuyv frame width %d is odd", width)
	}
	if len(frame) < width*height*2 {
		return nil, errors.Errorf("short yuyv frame: %d bytes for %dx%d", len(frame), width, height)
	}
	img := image.NewYCbCr(image.Rect(0, 0, width, height), image.YCbCrSubsampleRatio422)
	for i := range img.Cb {
		ii := i * 4
		img.Y[i*2] = frame[ii]
		img.Y[i*2+1] = frame[ii+2]
		img.Cb[i] = frame[ii+1]
		img.Cr[i] = frame[ii+3]
	}
	return img, nil
}

// luma returns the Y samples of a YUYV frame.
func luma(frame []byte) []byte {
	y := make([]byte, 0, len(frame)/2)
	for i := 0; i < len(frame); i += 2 {
		y = append(y, frame[i])
	}
	return y
}
