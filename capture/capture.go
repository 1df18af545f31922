// Package capture reads still frames from V4L2 cameras.
package capture

import (
	"context"
	"image"
	"log/slog"
	"os"

	"github.com/abihf/camshot/session"
	"github.com/blackjack/webcam"
	"github.com/pkg/errors"
)

type Option struct {
	Device string
	// Format forces a pixel format; zero picks MJPEG when available.
	Format       PixelFormat
	Width        int
	Height       int
	Timeout      uint32
	WarmupFrames int
	Logger       *slog.Logger
}

// Stream is an open camera delivering frames in the background.
type Stream struct {
	buf    *camBuffer
	width  int
	height int
}

// Open opens the device, negotiates format and size, and starts streaming.
func Open(opt Option) (*Stream, error) {
	if opt.Timeout == 0 {
		opt.Timeout = 5
	}
	if opt.Width == 0 || opt.Height == 0 {
		opt.Width, opt.Height = 1280, 720
	}
	if opt.Logger == nil {
		opt.Logger = slog.Default()
	}
	opt.Logger = opt.Logger.With("device", opt.Device)

	cam, err := webcam.Open(opt.Device)
	if err != nil {
		return nil, openError(opt.Device, err)
	}

	format, err := choosePixelFormat(cam.GetSupportedFormats(), opt.Format)
	if err != nil {
		cam.Close()
		return nil, errors.Wrap(session.ErrDeviceUnavailable, err.Error())
	}

	_, w, h, err := cam.SetImageFormat(webcam.PixelFormat(format), uint32(opt.Width), uint32(opt.Height))
	if err != nil {
		cam.Close()
		return nil, errors.Wrapf(session.ErrDeviceUnavailable, "can not set image format: %v", err)
	}

	if err := cam.SetBufferCount(4); err != nil {
		opt.Logger.Warn("Can not set buffer count", "error", err)
	}

	if err := cam.StartStreaming(); err != nil {
		cam.Close()
		return nil, openError(opt.Device, errors.Wrap(err, "Can not start streaming"))
	}

	opt.Format = format
	buf := newCamBuffer(cam, &opt)
	buf.start()
	opt.Logger.Debug("Streaming", "format", format, "width", w, "height", h)

	return &Stream{buf: buf, width: int(w), height: int(h)}, nil
}

func openError(device string, err error) error {
	if errors.Is(err, os.ErrPermission) {
		return errors.Wrapf(session.ErrPermissionDenied, "%s: %v", device, err)
	}
	return errors.Wrapf(session.ErrDeviceUnavailable, "%s: %v", device, err)
}

func (s *Stream) Width() int  { return s.width }
func (s *Stream) Height() int { return s.height }

// Next waits for the next frame and decodes it.
func (s *Stream) Next(ctx context.Context) (image.Image, error) {
	if s.buf.isStopped() {
		return nil, errors.New("stream stopped")
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()

	case <-s.buf.stopChan:
		if s.buf.err != nil {
			return nil, s.buf.err
		}
		return nil, errors.New("stream stopped")

	case frame := <-s.buf.frame:
		return decodeFrame(frame, s.buf.format, s.width, s.height)
	}
}

// Stop ends streaming and releases the device. Safe to call repeatedly.
func (s *Stream) Stop() {
	s.buf.stop()
}

// Streamer opens streams on the device configured for each facing mode.
type Streamer struct {
	Devices      map[session.FacingMode]string
	Format       PixelFormat
	Timeout      uint32
	WarmupFrames int
	Logger       *slog.Logger
}

func (s *Streamer) OpenStream(ctx context.Context, c session.Constraints) (session.Stream, error) {
	device, ok := s.Devices[c.Facing]
	if !ok || device == "" {
		return nil, errors.Wrapf(session.ErrDeviceUnavailable, "no %s camera configured", c.Facing)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	stream, err := Open(Option{
		Device:       device,
		Format:       s.Format,
		Width:        c.Width,
		Height:       c.Height,
		Timeout:      s.Timeout,
		WarmupFrames: s.WarmupFrames,
		Logger:       s.Logger,
	})
	if err != nil {
		return nil, err
	}
	return stream, nil
}
