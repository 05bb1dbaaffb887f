package cliconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFileConfig(t *testing.T) {
	path := writeConfigFile(t, `
server_url = "wss://ingest.example.com"
camera_id_prefix = "cam-lab"
queue_capacity = 120
active_interval = "1s"
stable_interval = "10s"
reset_counters_on_restart = true
log_level = "debug"
`)

	fc, err := LoadFileConfig(path)
	if err != nil {
		t.Fatalf("LoadFileConfig: %v", err)
	}

	cfg := DefaultConfig()
	if err := ApplyFileConfig(&cfg, fc, nil); err != nil {
		t.Fatalf("ApplyFileConfig: %v", err)
	}

	if cfg.ServerURL != "wss://ingest.example.com" {
		t.Errorf("ServerURL = %v", cfg.ServerURL)
	}
	if cfg.CameraIDPrefix != "cam-lab" {
		t.Errorf("CameraIDPrefix = %v", cfg.CameraIDPrefix)
	}
	if cfg.QueueCapacity != 120 {
		t.Errorf("QueueCapacity = %v", cfg.QueueCapacity)
	}
	if cfg.ActiveInterval != time.Second || cfg.StableInterval != 10*time.Second {
		t.Errorf("intervals = %v/%v", cfg.ActiveInterval, cfg.StableInterval)
	}
	if !cfg.ResetCountersOnRestart {
		t.Errorf("ResetCountersOnRestart not applied")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %v", cfg.LogLevel)
	}
}

func TestApplyFileConfig_ChangedFlagsWin(t *testing.T) {
	fc := FileConfig{ServerURL: "ws://file:3001", QueueCapacity: 10}
	cfg := DefaultConfig()
	cfg.ServerURL = "ws://flag:3001"
	changed := map[string]bool{"server-url": true}

	if err := ApplyFileConfig(&cfg, fc, changed); err != nil {
		t.Fatalf("ApplyFileConfig: %v", err)
	}
	if cfg.ServerURL != "ws://flag:3001" {
		t.Errorf("ServerURL = %v, flag should win over file", cfg.ServerURL)
	}
	if cfg.QueueCapacity != 10 {
		t.Errorf("QueueCapacity = %v, want 10 from file", cfg.QueueCapacity)
	}
}

func TestLoadFileConfig_BadTOML(t *testing.T) {
	path := writeConfigFile(t, "server_url = [broken")
	if _, err := LoadFileConfig(path); err == nil {
		t.Fatal("expected parse error")
	}
}
