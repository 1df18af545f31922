package capture

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/abihf/camshot/session"
	"github.com/blackjack/webcam"
)

type fakeDevice struct {
	mu      sync.Mutex
	frame   []byte
	readErr error
	closed  int
	stopped int
}

func (d *fakeDevice) WaitForFrame(uint32) error {
	time.Sleep(time.Millisecond)
	return nil
}

func (d *fakeDevice) ReadFrame() ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.frame, d.readErr
}

func (d *fakeDevice) StopStreaming() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped++
	return nil
}

func (d *fakeDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed++
	return nil
}

func yuyvFrame(w, h int, y byte) []byte {
	frame := make([]byte, w*h*2)
	for i := 0; i < len(frame); i += 4 {
		frame[i], frame[i+1], frame[i+2], frame[i+3] = y, 128, y, 128
	}
	return frame
}

func newTestStream(dev *fakeDevice, w, h, warmup int) *Stream {
	buf := newCamBuffer(dev, &Option{Format: YUYV, Timeout: 1, WarmupFrames: warmup, Logger: slog.Default()})
	buf.start()
	return &Stream{buf: buf, width: w, height: h}
}

func TestStream_Next(t *testing.T) {
	dev := &fakeDevice{frame: yuyvFrame(4, 2, 200)}
	s := newTestStream(dev, 4, 2, 0)
	defer s.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	img, err := s.Next(ctx)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if img.Bounds() != image.Rect(0, 0, 4, 2) {
		t.Errorf("bounds = %v", img.Bounds())
	}
	if got := img.(*image.YCbCr).Y[3]; got != 200 {
		t.Errorf("luma = %d, want 200", got)
	}
}

func TestStream_StopReleasesDeviceOnce(t *testing.T) {
	dev := &fakeDevice{frame: yuyvFrame(4, 2, 50)}
	s := newTestStream(dev, 4, 2, 0)

	s.Stop()
	s.Stop()

	if dev.closed != 1 || dev.stopped != 1 {
		t.Errorf("closed=%d stopped=%d, want 1 and 1", dev.closed, dev.stopped)
	}
	if _, err := s.Next(context.Background()); err == nil {
		t.Errorf("Next after Stop should fail")
	}
}

func TestStream_ReadErrorEndsStream(t *testing.T) {
	dev := &fakeDevice{readErr: errors.New("EIO")}
	s := newTestStream(dev, 4, 2, 0)
	defer s.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := s.Next(ctx); err == nil || errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Next error = %v, want read failure", err)
	}
}

func TestStream_NextHonoursContext(t *testing.T) {
	// all black frames never pass the warm-up check
	dev := &fakeDevice{frame: yuyvFrame(4, 2, 0)}
	s := newTestStream(dev, 4, 2, 1<<30)
	defer s.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := s.Next(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Next error = %v, want deadline exceeded", err)
	}
}

func TestHasGoodBlackLevel(t *testing.T) {
	tests := []struct {
		name string
		img  []byte
		want bool
	}{
		{"empty", nil, false},
		{"all dark", []byte{0, 10, 20, 30}, false},
		{"all bright", []byte{200, 210, 220, 230}, false},
		{"mixed", []byte{0, 200, 200, 200, 200}, true},
	}
	for _, tt := range tests {
		if got := hasGoodBlackLevel(tt.img); got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestDecodeYUYV(t *testing.T) {
	if _, err := decodeYUYV(make([]byte, 4), 4, 2); err == nil {
		t.Errorf("expected short frame error")
	}
	if _, err := decodeYUYV(make([]byte, 30), 3, 2); err == nil {
		t.Errorf("expected odd width error")
	}
	frame := []byte{10, 100, 20, 200, 30, 101, 40, 201}
	img, err := decodeYUYV(frame, 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	ycc := img.(*image.YCbCr)
	if ycc.Y[0] != 10 || ycc.Y[1] != 20 || ycc.Y[2] != 30 || ycc.Y[3] != 40 {
		t.Errorf("Y = %v", ycc.Y)
	}
	if ycc.Cb[0] != 100 || ycc.Cr[1] != 201 {
		t.Errorf("Cb = %v Cr = %v", ycc.Cb, ycc.Cr)
	}
}

func TestChoosePixelFormat(t *testing.T) {
	both := map[webcam.PixelFormat]string{
		webcam.PixelFormat(YUYV):  "YUYV 4:2:2",
		webcam.PixelFormat(MJPEG): "Motion-JPEG",
	}
	if f, err := choosePixelFormat(both, 0); err != nil || f != MJPEG {
		t.Errorf("auto = %v, %v; want MJPG", f, err)
	}
	if f, err := choosePixelFormat(both, YUYV); err != nil || f != YUYV {
		t.Errorf("forced = %v, %v; want YUYV", f, err)
	}
	grey := map[webcam.PixelFormat]string{0x59455247: "Greyscale"}
	if _, err := choosePixelFormat(grey, 0); err == nil {
		t.Errorf("expected error for greyscale-only camera")
	}
}

func TestParsePixelFormat(t *testing.T) {
	for in, want := range map[string]PixelFormat{"": 0, "auto": 0, "MJPG": MJPEG, "yuyv": YUYV} {
		if got, err := ParsePixelFormat(in); err != nil || got != want {
			t.Errorf("ParsePixelFormat(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParsePixelFormat("h264"); err == nil {
		t.Errorf("expected error")
	}
	if MJPEG.String() != "MJPG" || YUYV.String() != "YUYV" {
		t.Errorf("fourcc names: %s %s", MJPEG, YUYV)
	}
}

func TestStreamer_UnknownFacing(t *testing.T) {
	s := &Streamer{Devices: map[session.FacingMode]string{session.Back: "/dev/video0"}}
	_, err := s.OpenStream(context.Background(), session.Constraints{Facing: session.Front})
	if !errors.Is(err, session.ErrDeviceUnavailable) {
		t.Errorf("error = %v, want ErrDeviceUnavailable", err)
	}
}

func TestOpen_MissingDevice(t *testing.T) {
	_, err := Open(Option{Device: "/dev/camshot-does-not-exist"})
	if !errors.Is(err, session.ErrDeviceUnavailable) {
		t.Errorf("error = %v, want ErrDeviceUnavailable", err)
	}
}
