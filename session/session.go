// Package session owns the camera capture lifecycle: which camera faces the
// subject, whether a live stream is open, and when to fall back to a native
// image picker.
package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/pkg/errors"
)

type Option struct {
	Streamer Streamer
	Picker   Picker
	Platform Platform
	// Resolution hints for the live stream.
	Width  int
	Height int
	Logger *slog.Logger
}

// Controller serializes every operation behind one mutex, so only a single
// open attempt is ever in flight.
type Controller struct {
	mu     sync.Mutex
	opt    Option
	log    *slog.Logger
	facing FacingMode
	source Source
}

func NewController(opt Option) *Controller {
	if opt.Platform == nil {
		opt.Platform = Fixed(true)
	}
	if opt.Width == 0 {
		opt.Width = 1280
	}
	if opt.Height == 0 {
		opt.Height = 720
	}
	log := opt.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Controller{opt: opt, log: log.With("component", "session")}
}

func (c *Controller) Facing() FacingMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.facing
}

func (c *Controller) Source() Source {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.source
}

// Open acquires a source for the given facing mode, replacing any active one.
func (c *Controller) Open(ctx context.Context, facing FacingMode) (Source, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open(ctx, facing)
}

func (c *Controller) open(ctx context.Context, facing FacingMode) (Source, error) {
	c.release()
	c.facing = facing

	if c.opt.Streamer == nil {
		return c.fallback(ctx, facing, ErrDeviceUnavailable)
	}

	stream, err := c.opt.Streamer.OpenStream(ctx, Constraints{
		Facing: facing,
		Width:  c.opt.Width,
		Height: c.opt.Height,
	})
	if err != nil {
		c.log.Warn("Live stream unavailable", "facing", facing, "error", err)
		return c.fallback(ctx, facing, classify(err))
	}

	src := &LiveStream{Stream: stream, facing: facing}
	c.source = src
	c.log.Info("Camera ready", "facing", facing, "width", stream.Width(), "height", stream.Height())
	return src, nil
}

// fallback degrades to the native picker when the platform restricts live
// capture, otherwise reports cause as the terminal failure.
func (c *Controller) fallback(ctx context.Context, facing FacingMode, cause error) (Source, error) {
	if c.opt.Platform.SupportsLiveCapture() || c.opt.Picker == nil {
		return nil, cause
	}

	c.log.Info("Live capture restricted here, using native picker", "hint", facing.Hint())
	data, err := c.opt.Picker.Pick(ctx, facing)
	if err != nil {
		return nil, errors.Wrap(err, "native picker failed")
	}

	src := &PickedFile{Data: data, facing: facing}
	c.source = src
	return src, nil
}

// SwitchFacing toggles between front and back cameras and reopens the
// stream. Picked-file sessions cannot renegotiate and are left untouched.
func (c *Controller) SwitchFacing(ctx context.Context) (Source, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.source.(*PickedFile); ok {
		return nil, ErrUnsupported
	}
	return c.open(ctx, c.facing.Toggle())
}

// Capture grabs one still from the active source. The lock is not held
// while waiting for a live frame, so Close can stop the stream and unblock
// a pending capture.
func (c *Controller) Capture(ctx context.Context) (*Frame, error) {
	c.mu.Lock()
	if live, ok := c.source.(*LiveStream); ok {
		c.mu.Unlock()
		img, err := live.Stream.Next(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "can not read frame")
		}
		return &Frame{Image: img, Facing: live.facing}, nil
	}
	defer c.mu.Unlock()

	if src, ok := c.source.(*PickedFile); ok {
		return &Frame{Data: src.Data, Facing: src.facing}, nil
	}

	if c.opt.Platform.SupportsLiveCapture() || c.opt.Picker == nil {
		return nil, ErrNoSource
	}
	src, err := c.fallback(ctx, c.facing, ErrNoSource)
	if err != nil {
		return nil, err
	}
	picked := src.(*PickedFile)
	return &Frame{Data: picked.Data, Facing: picked.facing}, nil
}

// Close stops the active stream, if any. It is safe to call repeatedly.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.release()
}

func (c *Controller) release() {
	if live, ok := c.source.(*LiveStream); ok {
		live.Stream.Stop()
		c.log.Debug("Camera released", "facing", live.facing)
	}
	c.source = nil
}
