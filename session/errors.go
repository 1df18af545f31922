package session

import (
	"context"

	"github.com/pkg/errors"
)

var (
	ErrPermissionDenied  = errors.New("camera permission denied")
	ErrDeviceUnavailable = errors.New("camera unavailable")
	ErrUnsupported       = errors.New("operation not supported by current source")
	ErrDecodeFailed      = errors.New("image orientation decode failed")
	ErrCancelled         = errors.New("no image selected")
	ErrNoSource          = errors.New("camera is not open")
)

// classify makes sure an acquisition failure carries one of the acquisition
// error kinds. Context errors pass through untouched.
func classify(err error) error {
	if errors.Is(err, ErrPermissionDenied) || errors.Is(err, ErrDeviceUnavailable) ||
		errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &kindError{kind: ErrDeviceUnavailable, cause: err}
}

// kindError tags cause with an error kind; both stay reachable through
// errors.Is and errors.As.
type kindError struct {
	kind  error
	cause error
}

func (e *kindError) Error() string {
	return e.kind.Error() + ": " + e.cause.Error()
}

func (e *kindError) Unwrap() []error {
	return []error{e.kind, e.cause}
}
