package session

import (
	"context"
	"image"
)

// Constraints are the preferences passed to a Streamer. Width and Height are
// hints; the stream reports what it actually negotiated.
type Constraints struct {
	Facing FacingMode
	Width  int
	Height int
}

type Stream interface {
	Next(ctx context.Context) (image.Image, error)
	Width() int
	Height() int
	// Stop releases the underlying device. It must be safe to call twice.
	Stop()
}

type Streamer interface {
	OpenStream(ctx context.Context, c Constraints) (Stream, error)
}

type Picker interface {
	Pick(ctx context.Context, facing FacingMode) ([]byte, error)
}

type Platform interface {
	SupportsLiveCapture() bool
}

// Source is either a *LiveStream or a *PickedFile.
type Source interface {
	Facing() FacingMode
	isSource()
}

type LiveStream struct {
	Stream Stream
	facing FacingMode
}

func (s *LiveStream) Facing() FacingMode { return s.facing }
func (s *LiveStream) Width() int         { return s.Stream.Width() }
func (s *LiveStream) Height() int        { return s.Stream.Height() }
func (*LiveStream) isSource()            {}

type PickedFile struct {
	Data   []byte
	facing FacingMode
}

func (s *PickedFile) Facing() FacingMode { return s.facing }
func (*PickedFile) isSource()            {}

// Frame is one captured still. Live frames carry Image, picked files carry
// the encoded Data.
type Frame struct {
	Image  image.Image
	Data   []byte
	Facing FacingMode
}

func (f *Frame) FromFile() bool {
	return f.Image == nil
}
