package config

import (
	"encoding/json"
	"log/slog"
	"os"
)

const DefaultPath = "/etc/camshot/config.json"

// unsetQuality marks a quality the file did not mention; 0 is a valid value.
const unsetQuality = -1

type Config struct {
	// Devices maps "back" and "front" to V4L2 device nodes.
	Devices map[string]string `json:"devices"`
	Format  string            `json:"format"`
	Width   int               `json:"width"`
	Height  int               `json:"height"`
	Quality float64           `json:"quality"`
	// Timeout is the frame wait in seconds.
	Timeout      int `json:"timeout"`
	WarmupFrames int `json:"warmup_frames"`
	// Fallback is "auto", "always" or "never".
	Fallback string   `json:"fallback"`
	Picker   []string `json:"picker"`
	Portrait bool     `json:"portrait"`

	Socket  string `json:"socket"`
	PidFile string `json:"pid_file"`
	HTTP    string `json:"http"`
}

// Load reads the config file named by CAMSHOT_CONFIG, or DefaultPath. A
// missing or broken file is logged and defaults are used.
func Load() *Config {
	path := os.Getenv("CAMSHOT_CONFIG")
	if path == "" {
		path = DefaultPath
	}
	return LoadPath(path)
}

func LoadPath(path string) *Config {
	conf, err := loadFromFile(path)
	if err != nil {
		slog.Warn("Failed to load config file", "path", path, "error", err)
	}
	if conf == nil {
		conf = &Config{Quality: unsetQuality}
	}
	conf.applyDefaults()
	return conf
}

func (conf *Config) applyDefaults() {
	if conf.Devices == nil {
		conf.Devices = map[string]string{}
	}
	if conf.Devices["back"] == "" {
		conf.Devices["back"] = "/dev/video0"
	}
	if conf.Width == 0 || conf.Height == 0 {
		conf.Width, conf.Height = 1280, 720
	}
	if conf.Quality < 0 || conf.Quality > 1 {
		conf.Quality = 0.92
	}
	if conf.Timeout == 0 {
		conf.Timeout = 5
	}
	if conf.WarmupFrames == 0 {
		conf.WarmupFrames = 5
	}
	if conf.Fallback == "" {
		conf.Fallback = "auto"
	}
	if len(conf.Picker) == 0 {
		conf.Picker = []string{"zenity", "--file-selection", "--title=Take a photo ({facing} camera)", "--file-filter=*.jpg *.jpeg *.png"}
	}
	if conf.Socket == "" {
		conf.Socket = "/run/camshot/camshot.sock"
	}
	if conf.PidFile == "" {
		conf.PidFile = "/run/camshot/camshot.pid"
	}
}

func loadFromFile(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	config := &Config{Quality: unsetQuality}
	err = json.NewDecoder(file).Decode(config)
	if err != nil {
		return nil, err
	}

	return config, nil
}
