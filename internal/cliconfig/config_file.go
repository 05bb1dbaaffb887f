package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML
// friendly.
type FileConfig struct {
	ServerURL              string `toml:"server_url"`
	CameraIDPrefix         string `toml:"camera_id_prefix"`
	GstBinary              string `toml:"gst_binary"`
	QueueCapacity          int    `toml:"queue_capacity"`
	ActiveInterval         string `toml:"active_interval"`
	StableInterval         string `toml:"stable_interval"`
	ResetCountersOnRestart *bool  `toml:"reset_counters_on_restart"`
	LogLevel               string `toml:"log_level"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path,
// ~/.camship/config.toml, if the home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".camship", "config.toml")
	}
	return ""
}

// FileExists reports whether path names an existing file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("server-url", fc.ServerURL, &cfg.ServerURL)
	s.setString("camera-id-prefix", fc.CameraIDPrefix, &cfg.CameraIDPrefix)
	s.setString("gst-binary", fc.GstBinary, &cfg.GstBinary)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)
	s.setInt("queue-capacity", fc.QueueCapacity, &cfg.QueueCapacity)
	s.setBool("reset-counters-on-restart", fc.ResetCountersOnRestart, &cfg.ResetCountersOnRestart)

	if err := s.setDuration("active-interval", fc.ActiveInterval, &cfg.ActiveInterval); err != nil {
		return err
	}
	if err := s.setDuration("stable-interval", fc.StableInterval, &cfg.StableInterval); err != nil {
		return err
	}
	return nil
}
