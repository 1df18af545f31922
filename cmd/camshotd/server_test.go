package main

import (
	"context"
	"image"
	"image/jpeg"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/abihf/camshot"
	"github.com/abihf/camshot/config"
	"github.com/abihf/camshot/protocol"
	"github.com/abihf/camshot/session"
	"github.com/pkg/errors"
)

type testStream struct{ w, h int }

func (s testStream) Next(context.Context) (image.Image, error) {
	return image.NewRGBA(image.Rect(0, 0, s.w, s.h)), nil
}
func (s testStream) Width() int  { return s.w }
func (s testStream) Height() int { return s.h }
func (testStream) Stop()         {}

type testStreamer struct{ err error }

func (s testStreamer) OpenStream(_ context.Context, c session.Constraints) (session.Stream, error) {
	if s.err != nil {
		return nil, s.err
	}
	return testStream{c.Width, c.Height}, nil
}

func newTestServer(err error) *server {
	cam := camshot.NewWithOption(session.Option{Streamer: testStreamer{err: err}}, 0.9)
	return newServer(cam, &config.Config{})
}

func TestDispatch_OpenSnapClose(t *testing.T) {
	s := newTestServer(nil)
	ctx := context.Background()

	extras, err := s.dispatch(ctx, &protocol.Req{Action: protocol.ActionOpen, Params: map[string]string{"facing": "front"}})
	if err != nil {
		t.Fatalf("OPEN: %v", err)
	}
	if extras["source"] != "live" || extras["facing"] != "front" || extras["width"] != "1280" {
		t.Errorf("OPEN extras = %v", extras)
	}

	output := filepath.Join(t.TempDir(), "shot.jpg")
	extras, err = s.dispatch(ctx, &protocol.Req{Action: protocol.ActionSnap, Params: map[string]string{"output": output, "portrait": "true"}})
	if err != nil {
		t.Fatalf("SNAP: %v", err)
	}
	if extras["width"] != "720" || extras["height"] != "1280" || extras["output"] != output {
		t.Errorf("SNAP extras = %v", extras)
	}
	f, err := os.Open(output)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if _, err := jpeg.DecodeConfig(f); err != nil {
		t.Errorf("output is not a jpeg: %v", err)
	}

	extras, err = s.dispatch(ctx, &protocol.Req{Action: protocol.ActionSwitch})
	if err != nil || extras["facing"] != "back" {
		t.Errorf("SWITCH = %v, %v", extras, err)
	}

	if _, err := s.dispatch(ctx, &protocol.Req{Action: protocol.ActionClose}); err != nil {
		t.Fatalf("CLOSE: %v", err)
	}
	if _, err := s.dispatch(ctx, &protocol.Req{Action: protocol.ActionSnap}); !errors.Is(err, session.ErrNoSource) {
		t.Errorf("SNAP after CLOSE = %v, want ErrNoSource", err)
	}
}

func TestDispatch_UnknownAction(t *testing.T) {
	s := newTestServer(nil)
	if _, err := s.dispatch(context.Background(), &protocol.Req{Action: "DANCE"}); err == nil {
		t.Errorf("expected error")
	}
}

func TestHTTP_Snapshot(t *testing.T) {
	s := newTestServer(nil)
	rec := httptest.NewRecorder()
	s.router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/snapshot.jpg?portrait=true", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("content type = %q", ct)
	}
	cfg, err := jpeg.DecodeConfig(rec.Body)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 720 || cfg.Height != 1280 {
		t.Errorf("snapshot %dx%d, want 720x1280", cfg.Width, cfg.Height)
	}
}

func TestHTTP_Errors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"denied", session.ErrPermissionDenied, http.StatusForbidden},
		{"missing", session.ErrDeviceUnavailable, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(tt.err)
			rec := httptest.NewRecorder()
			s.router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/snapshot.jpg", nil))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestHTTP_SwitchWithoutCamera(t *testing.T) {
	s := newTestServer(nil)
	rec := httptest.NewRecorder()
	s.router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/switch", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d: %s", rec.Code, rec.Body)
	}
	if s.cam.Facing() != session.Front {
		t.Errorf("facing = %v, want front", s.cam.Facing())
	}
}

type blockedStream struct{ testStream }

func (blockedStream) Next(ctx context.Context) (image.Image, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

type blockedStreamer struct{}

func (blockedStreamer) OpenStream(_ context.Context, c session.Constraints) (session.Stream, error) {
	return blockedStream{testStream{c.Width, c.Height}}, nil
}

func TestHandle_ShutdownAbortsSnap(t *testing.T) {
	cam := camshot.NewWithOption(session.Option{Streamer: blockedStreamer{}}, 0.9)
	s := newServer(cam, &config.Config{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client, conn := net.Pipe()
	defer client.Close()
	done := make(chan struct{})
	go func() {
		s.handle(ctx, conn)
		close(done)
	}()

	if err := protocol.WriteReq(client, "1", protocol.ActionOpen, nil); err != nil {
		t.Fatal(err)
	}
	if res, err := protocol.ReadRes(client); err != nil || res.Status != protocol.StatusSuccess {
		t.Fatalf("OPEN = %+v, %v", res, err)
	}

	output := filepath.Join(t.TempDir(), "shot.jpg")
	if err := protocol.WriteReq(client, "2", protocol.ActionSnap, map[string]string{"output": output}); err != nil {
		t.Fatal(err)
	}
	cancel()

	res, err := protocol.ReadRes(client)
	if err != nil {
		t.Fatal(err)
	}
	if res.ID != "2" || res.Status != protocol.StatusError {
		t.Errorf("SNAP = %+v, want error", res)
	}
	if _, err := os.Stat(output); !os.IsNotExist(err) {
		t.Errorf("output written after shutdown: %v", err)
	}

	client.Close()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Errorf("handler still running")
	}
}
