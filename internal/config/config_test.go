package config

import (
	"testing"
	"time"
)

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "default config should be valid",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "invalid http port",
			mutate:  func(c *Config) { c.Server.HTTPPort = 0 },
			wantErr: true,
		},
		{
			name:    "window too small",
			mutate:  func(c *Config) { c.Baseline.WindowSize = 1 },
			wantErr: true,
		},
		{
			name: "window shorter than two cycles",
			mutate: func(c *Config) {
				c.Baseline.WindowSize = 30
				c.Baseline.SeasonalityPeriod = 24
			},
			wantErr: true,
		},
		{
			name:    "zero seasonality period",
			mutate:  func(c *Config) { c.Baseline.SeasonalityPeriod = 0 },
			wantErr: true,
		},
		{
			name: "alert enabled without threshold",
			mutate: func(c *Config) {
				c.Alert.Enabled = true
				c.Alert.Threshold = 0
			},
			wantErr: true,
		},
		{
			name: "alert disabled skips alert validation",
			mutate: func(c *Config) {
				c.Alert.Enabled = false
				c.Alert.Threshold = 0
			},
			wantErr: false,
		},
		{
			name: "etcd enabled without endpoints",
			mutate: func(c *Config) {
				c.Etcd.Enabled = true
				c.Etcd.Endpoints = nil
			},
			wantErr: true,
		},
		{
			name: "etcd disabled skips etcd validation",
			mutate: func(c *Config) {
				c.Etcd.Enabled = true
				c.Etcd.Endpoints = []string{"http://localhost:2379"}
				c.Etcd.DialTimeout = 5 * time.Second
			},
			wantErr: false,
		},
		{
			name:    "negative snapshot interval",
			mutate:  func(c *Config) { c.Snapshot.Interval = -time.Second },
			wantErr: true,
		},
		{
			name: "snapshot enabled without dir",
			mutate: func(c *Config) {
				c.Snapshot.Interval = time.Minute
				c.Snapshot.Dir = ""
			},
			wantErr: true,
		},
		{
			name:    "invalid log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: true,
		},
		{
			name:    "invalid log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Baseline.WindowSize != 168 {
		t.Errorf("Expected default window size 168, got %d", cfg.Baseline.WindowSize)
	}
	if cfg.Baseline.SeasonalityPeriod != 24 {
		t.Errorf("Expected default seasonality period 24, got %d", cfg.Baseline.SeasonalityPeriod)
	}
	if cfg.Alert.Threshold != 3.0 {
		t.Errorf("Expected default alert threshold 3.0, got %v", cfg.Alert.Threshold)
	}
	if cfg.Ingest.Subject != "driftwatch.samples" {
		t.Errorf("Unexpected default ingest subject: %s", cfg.Ingest.Subject)
	}
}

func TestLoadOrDefault_MissingFile(t *testing.T) {
	cfg := LoadOrDefault("/nonexistent/path/config.yaml")
	if cfg == nil {
		t.Fatal("Expected default config for missing file")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config must validate: %v", err)
	}
}
