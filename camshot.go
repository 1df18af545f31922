// Package camshot takes upright still photos from a camera, falling back to
// a native image picker where live capture is not possible.
package camshot

import (
	"context"
	"image"
	"io"
	"log/slog"

	"github.com/abihf/camshot/capture"
	"github.com/abihf/camshot/config"
	"github.com/abihf/camshot/picker"
	"github.com/abihf/camshot/render"
	"github.com/abihf/camshot/session"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type Camera struct {
	ctrl    *session.Controller
	quality float64
	log     *slog.Logger
}

// New wires a camera from configuration.
func New(conf *config.Config) (*Camera, error) {
	format, err := capture.ParsePixelFormat(conf.Format)
	if err != nil {
		return nil, err
	}

	devices := map[session.FacingMode]string{}
	for name, dev := range conf.Devices {
		facing, err := session.ParseFacing(name)
		if err != nil {
			return nil, errors.Wrap(err, "invalid devices entry")
		}
		devices[facing] = dev
	}

	platform, err := platformFor(conf.Fallback)
	if err != nil {
		return nil, err
	}

	return NewWithOption(session.Option{
		Streamer: &capture.Streamer{
			Devices:      devices,
			Format:       format,
			Timeout:      uint32(conf.Timeout),
			WarmupFrames: conf.WarmupFrames,
			Logger:       slog.Default(),
		},
		Picker:   &picker.Command{Args: conf.Picker},
		Platform: platform,
		Width:    conf.Width,
		Height:   conf.Height,
		Logger:   slog.Default(),
	}, conf.Quality), nil
}

func NewWithOption(opt session.Option, quality float64) *Camera {
	log := opt.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Camera{ctrl: session.NewController(opt), quality: quality, log: log.With("component", "camshot")}
}

func platformFor(fallback string) (session.Platform, error) {
	switch fallback {
	case "", "auto":
		env := session.DetectEnvironment()
		slog.Debug("Detected environment", "installed_app", env.InstalledApp, "restricted", env.RestrictedPlatform)
		return env, nil
	case "always":
		return session.Fixed(false), nil
	case "never":
		return session.Fixed(true), nil
	}
	return nil, errors.Errorf("invalid fallback mode %q", fallback)
}

func (c *Camera) Open(ctx context.Context, facing session.FacingMode) (session.Source, error) {
	return c.ctrl.Open(ctx, facing)
}

func (c *Camera) Switch(ctx context.Context) (session.Source, error) {
	return c.ctrl.SwitchFacing(ctx)
}

func (c *Camera) Facing() session.FacingMode {
	return c.ctrl.Facing()
}

func (c *Camera) Source() session.Source {
	return c.ctrl.Source()
}

// Snap captures one still and returns it upright. portrait tells whether
// the picture is meant for a portrait display.
func (c *Camera) Snap(ctx context.Context, portrait bool) (image.Image, error) {
	frame, err := c.ctrl.Capture(ctx)
	if err != nil {
		return nil, err
	}
	if frame.FromFile() {
		return render.DecodeFile(frame.Data, c.log)
	}
	return render.Render(frame.Image, frame.Facing, portrait), nil
}

// Export encodes img with the configured quality.
func (c *Camera) Export(w io.Writer, img image.Image) error {
	return render.Export(w, img, c.quality)
}

// Close releases the camera. Call it on shutdown.
func (c *Camera) Close() {
	c.ctrl.Close()
}

// OutputName returns a unique file name for a snapshot.
func OutputName() string {
	return "snapshot-" + uuid.NewString() + ".jpg"
}
