// Package picker lets the user choose an image through a native dialog when
// no live camera stream can be opened.
package picker

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"

	"github.com/abihf/camshot/session"
	"github.com/pkg/errors"
)

// Command runs an external chooser that prints the selected path on
// stdout. Every "{facing}" in the arguments is replaced with the capture
// hint ("user" or "environment").
type Command struct {
	Args []string
}

func (c *Command) Pick(ctx context.Context, facing session.FacingMode) ([]byte, error) {
	if len(c.Args) == 0 {
		return nil, errors.Wrap(session.ErrDeviceUnavailable, "no picker command configured")
	}

	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = strings.ReplaceAll(a, "{facing}", facing.Hint())
	}

	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stdout = &out
	cmd.Stderr = os.Stderr
	cmd.Env = append(os.Environ(), "CAMSHOT_FACING="+facing.Hint())

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			// choosers exit non-zero when the dialog is dismissed
			return nil, session.ErrCancelled
		}
		return nil, errors.Wrapf(session.ErrDeviceUnavailable, "can not run picker: %v", err)
	}

	path := strings.TrimSpace(out.String())
	if path == "" {
		return nil, session.ErrCancelled
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "can not read picked image")
	}
	return data, nil
}

// File always returns the same file. It stands in for a dialog when the
// image is chosen up front, e.g. on the command line.
type File string

func (f File) Pick(context.Context, session.FacingMode) ([]byte, error) {
	data, err := os.ReadFile(string(f))
	return data, errors.Wrap(err, "can not read picked image")
}
