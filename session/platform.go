package session

import (
	"os"
	"path/filepath"
	"runtime"
	"syscall"
)

// Environment describes the execution context of the process.
//
// Live capture is only considered unsupported when the process runs as an
// installed app inside a sandbox known to hide camera devices, in which case
// the controller degrades to the native picker.
type Environment struct {
	InstalledApp       bool
	RestrictedPlatform bool
}

func (e Environment) SupportsLiveCapture() bool {
	return !(e.InstalledApp && e.RestrictedPlatform)
}

// DetectEnvironment inspects the sandbox markers of Flatpak and Snap bundles.
// A sandbox only counts as restricting capture when no camera node can be
// opened from inside it, e.g. Flatpak without device access or a Snap whose
// camera interface is not connected.
func DetectEnvironment() Environment {
	return detectEnvironment(os.Getenv, fileExists, videoDeviceUsable)
}

func detectEnvironment(getenv func(string) string, exists func(string) bool, usable func() bool) Environment {
	flatpak := getenv("FLATPAK_ID") != "" || exists("/.flatpak-info")
	snap := getenv("SNAP_NAME") != ""
	env := Environment{InstalledApp: flatpak || snap}
	if env.InstalledApp && runtime.GOOS == "linux" {
		env.RestrictedPlatform = !usable()
	}
	return env
}

// videoDeviceUsable reports whether any /dev/video* node opens. Opening a
// V4L2 node does not start streaming.
func videoDeviceUsable() bool {
	nodes, _ := filepath.Glob("/dev/video*")
	for _, node := range nodes {
		f, err := os.OpenFile(node, os.O_RDWR|syscall.O_NONBLOCK, 0)
		if err == nil {
			f.Close()
			return true
		}
	}
	return false
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Fixed is a Platform with a preset answer, used when configuration forces
// or forbids the fallback path.
type Fixed bool

func (f Fixed) SupportsLiveCapture() bool { return bool(f) }
