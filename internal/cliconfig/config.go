package cliconfig

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bft-labs/camship/internal/domain"
)

// DefaultServerURL is the default ingestion endpoint.
const DefaultServerURL = "ws://127.0.0.1:3001"

// Config holds CLI configuration for camship.
type Config struct {
	ServerURL      string
	CameraIDPrefix string
	GstBinary      string

	QueueCapacity int

	// Controller evaluation cadence: ActiveInterval while conditions are
	// moving, StableInterval once the stability counter settles.
	ActiveInterval time.Duration
	StableInterval time.Duration

	// ResetCountersOnRestart clears the controller's failure/success
	// counters when the encoder restarts. Off by default: counters persist
	// across profile changes.
	ResetCountersOnRestart bool

	LogLevel string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		ServerURL:      envOr("CAMSHIP_SERVER_URL", DefaultServerURL),
		CameraIDPrefix: "camera-go",
		GstBinary:      "gst-launch-1.0",
		QueueCapacity:  60,
		ActiveInterval: 2 * time.Second,
		StableInterval: 5 * time.Second,
		LogLevel:       "info",
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Validate checks the configuration for errors and sets derived defaults.
func (c *Config) Validate() error {
	if c.ServerURL == "" {
		c.ServerURL = DefaultServerURL
	}
	if !strings.HasPrefix(c.ServerURL, "ws://") && !strings.HasPrefix(c.ServerURL, "wss://") {
		return fmt.Errorf("%w: server-url must be a ws:// or wss:// endpoint", domain.ErrInvalidConfig)
	}
	if c.CameraIDPrefix == "" {
		c.CameraIDPrefix = "camera-go"
	}
	if c.QueueCapacity <= 0 {
		return fmt.Errorf("%w: queue capacity must be positive", domain.ErrInvalidConfig)
	}
	if c.ActiveInterval <= 0 || c.StableInterval <= 0 {
		return fmt.Errorf("%w: evaluation intervals must be positive", domain.ErrInvalidConfig)
	}
	if c.StableInterval < c.ActiveInterval {
		return fmt.Errorf("%w: stable interval must not be shorter than active interval", domain.ErrInvalidConfig)
	}
	return nil
}

// configSetter helps apply configuration values while respecting flag
// precedence. It only applies values if the corresponding flag hasn't been
// explicitly set.
type configSetter struct {
	changed map[string]bool
}

func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not
// changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
