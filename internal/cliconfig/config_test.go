package cliconfig

import (
	"errors"
	"testing"
	"time"

	"github.com/bft-labs/camship/internal/domain"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.CameraIDPrefix != "camera-go" {
		t.Errorf("CameraIDPrefix = %v, want camera-go", cfg.CameraIDPrefix)
	}
	if cfg.QueueCapacity != 60 {
		t.Errorf("QueueCapacity = %v, want 60", cfg.QueueCapacity)
	}
	if cfg.ActiveInterval != 2*time.Second {
		t.Errorf("ActiveInterval = %v, want 2s", cfg.ActiveInterval)
	}
	if cfg.StableInterval != 5*time.Second {
		t.Errorf("StableInterval = %v, want 5s", cfg.StableInterval)
	}
	if cfg.ResetCountersOnRestart {
		t.Errorf("ResetCountersOnRestart = true, want false by default")
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		c := DefaultConfig()
		c.ServerURL = "ws://localhost:3001"
		return c
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:   "valid config",
			mutate: func(*Config) {},
		},
		{
			name:   "empty url gets default",
			mutate: func(c *Config) { c.ServerURL = "" },
		},
		{
			name:    "http url rejected",
			mutate:  func(c *Config) { c.ServerURL = "http://localhost:3001" },
			wantErr: true,
		},
		{
			name:   "wss accepted",
			mutate: func(c *Config) { c.ServerURL = "wss://ingest.example.com" },
		},
		{
			name:    "zero queue capacity",
			mutate:  func(c *Config) { c.QueueCapacity = 0 },
			wantErr: true,
		},
		{
			name:    "negative interval",
			mutate:  func(c *Config) { c.ActiveInterval = -time.Second },
			wantErr: true,
		},
		{
			name: "stable shorter than active",
			mutate: func(c *Config) {
				c.ActiveInterval = 5 * time.Second
				c.StableInterval = 2 * time.Second
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, domain.ErrInvalidConfig) {
				t.Fatalf("error %v is not ErrInvalidConfig", err)
			}
		})
	}
}

func TestApplyEnvConfig_FlagPrecedence(t *testing.T) {
	t.Setenv("CAMSHIP_SERVER_URL", "ws://env:3001")
	t.Setenv("CAMSHIP_QUEUE_CAPACITY", "30")

	cfg := DefaultConfig()
	cfg.ServerURL = "ws://flag:3001"
	changed := map[string]bool{"server-url": true}

	if err := ApplyEnvConfig(&cfg, changed); err != nil {
		t.Fatalf("ApplyEnvConfig: %v", err)
	}
	if cfg.ServerURL != "ws://flag:3001" {
		t.Errorf("ServerURL = %v, flag should win over env", cfg.ServerURL)
	}
	if cfg.QueueCapacity != 30 {
		t.Errorf("QueueCapacity = %v, want 30 from env", cfg.QueueCapacity)
	}
}

func TestApplyEnvConfig_InvalidDuration(t *testing.T) {
	t.Setenv("CAMSHIP_ACTIVE_INTERVAL", "soon")
	cfg := DefaultConfig()
	if err := ApplyEnvConfig(&cfg, nil); err == nil {
		t.Fatal("expected error for invalid duration")
	}
}
