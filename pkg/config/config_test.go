package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected default config to be valid, got error: %v", err)
	}
}

func TestDefaultConfig_DocumentedDefaults(t *testing.T) {
	cfg := DefaultConfig()

	if !cfg.Poller.Enabled {
		t.Error("expected polling to be enabled by default")
	}
	if cfg.Poller.IntervalMS != 1000 {
		t.Errorf("poller.interval_ms = %d, want 1000", cfg.Poller.IntervalMS)
	}
	if cfg.Poller.RefreshInterval != 60*time.Second {
		t.Errorf("poller.refresh_interval = %v, want 60s", cfg.Poller.RefreshInterval)
	}
	if cfg.PollInterval() != time.Second {
		t.Errorf("PollInterval() = %v, want 1s", cfg.PollInterval())
	}
}

func TestValidate_InvalidValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{
			name: "poll interval must be > 0",
			mutate: func(c *Config) {
				c.Poller.IntervalMS = 0
			},
		},
		{
			name: "vendor must not be empty",
			mutate: func(c *Config) {
				c.Poller.Vendor = ""
			},
		},
		{
			name: "refresh interval must be > 0",
			mutate: func(c *Config) {
				c.Poller.RefreshInterval = 0
			},
		},
		{
			name: "fetch timeout must be > 0",
			mutate: func(c *Config) {
				c.Poller.FetchTimeout = 0
			},
		},
		{
			name: "redis stream must not be empty",
			mutate: func(c *Config) {
				c.Redis.Stream = ""
			},
		},
		{
			name: "max stream len must be > 0",
			mutate: func(c *Config) {
				c.Redis.MaxStreamLen = 0
			},
		},
		{
			name: "rate limit rps required when enabled",
			mutate: func(c *Config) {
				c.Monitoring.RateLimitEnabled = true
				c.Monitoring.RequestsPerSecond = 0
			},
		},
		{
			name: "tracing sample rate bounds",
			mutate: func(c *Config) {
				c.Tracing.Enabled = true
				c.Tracing.SampleRate = 1.5
			},
		},
		{
			name: "logging level must not be empty",
			mutate: func(c *Config) {
				c.Logging.Level = ""
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error, got nil")
			}
		})
	}
}

func TestLoad_MissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("expected no error for missing file, got: %v", err)
	}
	if cfg.Poller.IntervalMS != 1000 {
		t.Errorf("expected default interval, got %d", cfg.Poller.IntervalMS)
	}
}

func TestLoad_ReadsYAMLOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
poller:
  enabled: false
  interval_ms: 500
redis:
  stream: "test:samples"
  max_stream_len: 1000
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Poller.Enabled {
		t.Error("expected polling disabled from yaml")
	}
	if cfg.Poller.IntervalMS != 500 {
		t.Errorf("interval_ms = %d, want 500", cfg.Poller.IntervalMS)
	}
	if cfg.Redis.Stream != "test:samples" {
		t.Errorf("redis.stream = %q, want test:samples", cfg.Redis.Stream)
	}
	if cfg.Redis.MaxStreamLen != 1000 {
		t.Errorf("redis.max_stream_len = %d, want 1000", cfg.Redis.MaxStreamLen)
	}
	// Untouched sections keep their defaults.
	if cfg.Poller.RefreshInterval != 60*time.Second {
		t.Errorf("refresh_interval = %v, want 60s", cfg.Poller.RefreshInterval)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("LINKPULSE_REDIS_ADDRESS", "redis.internal:6379")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Redis.Address != "redis.internal:6379" {
		t.Errorf("redis.address = %q, want env override", cfg.Redis.Address)
	}
}
