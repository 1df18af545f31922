package session

import (
	"strings"

	"github.com/pkg/errors"
)

// FacingMode selects the physical camera.
type FacingMode int

const (
	Back FacingMode = iota
	Front
)

func ParseFacing(s string) (FacingMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "back", "environment", "rear":
		return Back, nil
	case "front", "user", "selfie":
		return Front, nil
	}
	return Back, errors.Errorf("unknown facing mode %q", s)
}

func (f FacingMode) String() string {
	if f == Front {
		return "front"
	}
	return "back"
}

// Hint is the capture hint handed to native pickers.
func (f FacingMode) Hint() string {
	if f == Front {
		return "user"
	}
	return "environment"
}

func (f FacingMode) Toggle() FacingMode {
	if f == Front {
		return Back
	}
	return Front
}
