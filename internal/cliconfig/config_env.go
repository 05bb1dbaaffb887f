package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables
// (CAMSHIP_*). It respects flags that have been explicitly set (changed
// map). Returns an error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("server-url", os.Getenv("CAMSHIP_SERVER_URL"), &cfg.ServerURL)
	s.setString("camera-id-prefix", os.Getenv("CAMSHIP_CAMERA_ID_PREFIX"), &cfg.CameraIDPrefix)
	s.setString("gst-binary", os.Getenv("CAMSHIP_GST_BINARY"), &cfg.GstBinary)
	s.setString("log-level", os.Getenv("CAMSHIP_LOG_LEVEL"), &cfg.LogLevel)

	if err := s.setIntFromString("queue-capacity", os.Getenv("CAMSHIP_QUEUE_CAPACITY"), &cfg.QueueCapacity); err != nil {
		return err
	}
	if err := s.setDuration("active-interval", os.Getenv("CAMSHIP_ACTIVE_INTERVAL"), &cfg.ActiveInterval); err != nil {
		return err
	}
	if err := s.setDuration("stable-interval", os.Getenv("CAMSHIP_STABLE_INTERVAL"), &cfg.StableInterval); err != nil {
		return err
	}

	s.setBoolFromString("reset-counters-on-restart", os.Getenv("CAMSHIP_RESET_COUNTERS_ON_RESTART"), &cfg.ResetCountersOnRestart)
	return nil
}
