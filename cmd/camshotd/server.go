package main

import (
	"context"
	"image"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/abihf/camshot"
	"github.com/abihf/camshot/config"
	"github.com/abihf/camshot/protocol"
	"github.com/abihf/camshot/session"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
)

type server struct {
	// one camera operation at a time, across socket and HTTP clients
	mu   sync.Mutex
	cam  *camshot.Camera
	conf *config.Config
}

func newServer(cam *camshot.Camera, conf *config.Config) *server {
	return &server{cam: cam, conf: conf}
}

func (s *server) handle(ctx context.Context, c net.Conn) {
	defer c.Close()

	for {
		req, err := protocol.ReadReq(c)
		if err != nil {
			if err.Error() != "EOF" {
				slog.Warn("Can not read request", "error", err)
			}
			return
		}
		if req.ID == "" {
			req.ID = uuid.NewString()
		}

		extras, err := s.dispatch(ctx, req)
		if err != nil {
			slog.Warn("Request failed", "id", req.ID, "action", req.Action, "error", err)
			protocol.WriteErrorRes(c, req.ID, err)
		} else {
			protocol.WriteSuccessRes(c, req.ID, extras)
		}
	}
}

func (s *server) dispatch(ctx context.Context, req *protocol.Req) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	slog.Info("Handling request", "id", req.ID, "action", req.Action)
	switch req.Action {
	case protocol.ActionOpen:
		facing, err := session.ParseFacing(protocol.ToOpenReq(req).Facing)
		if err != nil {
			return nil, err
		}
		src, err := s.cam.Open(ctx, facing)
		if err != nil {
			return nil, err
		}
		return describe(src), nil

	case protocol.ActionSwitch:
		src, err := s.cam.Switch(ctx)
		if err != nil {
			return nil, err
		}
		return describe(src), nil

	case protocol.ActionSnap:
		snap := protocol.ToSnapReq(req)
		if _, ok := req.Params["portrait"]; !ok {
			snap.Portrait = s.conf.Portrait
		}
		return s.snapToFile(ctx, snap)

	case protocol.ActionClose:
		s.cam.Close()
		return nil, nil
	}
	return nil, errors.Errorf("unknown action %q", req.Action)
}

func (s *server) snapToFile(ctx context.Context, snap *protocol.SnapReq) (map[string]string, error) {
	output := snap.Output
	if output == "" {
		output = filepath.Join(os.TempDir(), camshot.OutputName())
	}

	img, err := s.cam.Snap(ctx, snap.Portrait)
	if err != nil {
		return nil, err
	}

	f, err := os.Create(output)
	if err != nil {
		return nil, errors.Wrap(err, "can not create output")
	}
	defer f.Close()
	if err := s.cam.Export(f, img); err != nil {
		return nil, err
	}

	extras := sizeOf(img)
	extras["output"] = output
	return extras, nil
}

func describe(src session.Source) map[string]string {
	extras := map[string]string{"facing": src.Facing().String()}
	switch src := src.(type) {
	case *session.LiveStream:
		extras["source"] = "live"
		extras["width"] = strconv.Itoa(src.Width())
		extras["height"] = strconv.Itoa(src.Height())
	case *session.PickedFile:
		extras["source"] = "file"
	}
	return extras
}

func sizeOf(img image.Image) map[string]string {
	b := img.Bounds()
	return map[string]string{
		"width":  strconv.Itoa(b.Dx()),
		"height": strconv.Itoa(b.Dy()),
	}
}

func (s *server) router() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/snapshot.jpg", s.serveSnapshot).Methods(http.MethodGet)
	r.HandleFunc("/open", s.serveAction(protocol.ActionOpen)).Methods(http.MethodPost)
	r.HandleFunc("/switch", s.serveAction(protocol.ActionSwitch)).Methods(http.MethodPost)
	r.HandleFunc("/close", s.serveAction(protocol.ActionClose)).Methods(http.MethodPost)
	return r
}

func (s *server) serveAction(action protocol.Action) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := &protocol.Req{
			ID:     uuid.NewString(),
			Action: action,
			Params: map[string]string{"facing": r.URL.Query().Get("facing")},
		}
		extras, err := s.dispatch(r.Context(), req)
		if err != nil {
			http.Error(w, err.Error(), statusFor(err))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		protocol.WriteSuccessRes(w, req.ID, extras)
	}
}

// serveSnapshot opens the camera on demand and streams back a JPEG.
func (s *server) serveSnapshot(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := r.URL.Query()
	portrait := s.conf.Portrait
	if v := q.Get("portrait"); v != "" {
		portrait, _ = strconv.ParseBool(v)
	}

	if s.cam.Source() == nil {
		facing, err := session.ParseFacing(q.Get("facing"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if _, err := s.cam.Open(r.Context(), facing); err != nil {
			http.Error(w, err.Error(), statusFor(err))
			return
		}
	}

	img, err := s.cam.Snap(r.Context(), portrait)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	if err := s.cam.Export(w, img); err != nil {
		slog.Warn("Can not send snapshot", "error", err)
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, session.ErrDeviceUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, session.ErrUnsupported), errors.Is(err, session.ErrNoSource), errors.Is(err, session.ErrCancelled):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
