// Package render turns raw camera frames into upright, unmirrored stills.
package render

import (
	"image"

	"github.com/abihf/camshot/session"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// Layout is the orientation decision for one frame.
type Layout struct {
	Width  int
	Height int
	Rotate bool
	Mirror bool
}

// Plan decides how a frame of the given native size is presented. Sensors
// usually deliver landscape data; on a portrait screen such frames are turned
// a quarter to stand upright. Front captures are always un-mirrored.
func Plan(nativeWidth, nativeHeight int, facing session.FacingMode, portrait bool) Layout {
	l := Layout{
		Width:  nativeWidth,
		Height: nativeHeight,
		Rotate: portrait && nativeWidth > nativeHeight,
		Mirror: facing == session.Front,
	}
	if l.Rotate {
		l.Width, l.Height = nativeHeight, nativeWidth
	}
	return l
}

// Matrix maps native frame coordinates onto the target surface. Rotation
// establishes the upright frame first; the mirror flips x inside it, so a
// front capture is always the left-right mirror of the same back capture.
func (l Layout) Matrix() f64.Aff3 {
	m := f64.Aff3{1, 0, 0, 0, 1, 0}
	if l.Rotate {
		// quarter turn counter-clockwise: (x, y) -> (y, nativeWidth-x)
		m = f64.Aff3{0, 1, 0, -1, 0, float64(l.Height)}
	}
	if l.Mirror {
		m[0], m[1], m[2] = -m[0], -m[1], float64(l.Width)-m[2]
	}
	return m
}

// Render paints frame onto a new surface sized to the post-rotation
// dimensions.
func Render(frame image.Image, facing session.FacingMode, portrait bool) *image.RGBA {
	b := frame.Bounds()
	l := Plan(b.Dx(), b.Dy(), facing, portrait)
	return paint(frame, l.Matrix(), l.Width, l.Height)
}

func paint(src image.Image, m f64.Aff3, width, height int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	b := src.Bounds()
	// shift so the matrix sees the frame at the origin
	m[2] -= m[0]*float64(b.Min.X) + m[1]*float64(b.Min.Y)
	m[5] -= m[3]*float64(b.Min.X) + m[4]*float64(b.Min.Y)
	draw.NearestNeighbor.Transform(dst, m, src, b, draw.Src, nil)
	return dst
}
