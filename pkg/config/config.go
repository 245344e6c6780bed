package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Poller struct {
		// Enabled is the kill switch: when false the collector performs no
		// work and the run loop exits immediately.
		Enabled         bool          `yaml:"enabled"`
		IntervalMS      int           `yaml:"interval_ms"`
		Vendor          string        `yaml:"vendor"`
		RefreshInterval time.Duration `yaml:"refresh_interval"`
		FetchTimeout    time.Duration `yaml:"fetch_timeout"`
		StatsEvery      int           `yaml:"stats_every"`
	} `yaml:"poller"`

	Database struct {
		DSN             string        `yaml:"dsn"`
		MaxOpenConns    int           `yaml:"max_open_conns"`
		MaxIdleConns    int           `yaml:"max_idle_conns"`
		ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	} `yaml:"database"`

	Redis struct {
		Address      string `yaml:"address"`
		Password     string `yaml:"password"`
		DB           int    `yaml:"db"`
		PoolSize     int    `yaml:"pool_size"`
		Stream       string `yaml:"stream"`
		MaxStreamLen int64  `yaml:"max_stream_len"`
	} `yaml:"redis"`

	Monitoring struct {
		Address           string        `yaml:"address"`
		PrometheusEnabled bool          `yaml:"prometheus_enabled"`
		ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
		RateLimitEnabled  bool          `yaml:"rate_limit_enabled"`
		RequestsPerSecond float64       `yaml:"requests_per_second"`
		Burst             int           `yaml:"burst"`
	} `yaml:"monitoring"`

	Tracing struct {
		Enabled     bool    `yaml:"enabled"`
		JaegerURL   string  `yaml:"jaeger_url"`
		Environment string  `yaml:"environment"`
		SampleRate  float64 `yaml:"sample_rate"`
	} `yaml:"tracing"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
}

// PollInterval returns the poll cadence as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Poller.IntervalMS) * time.Millisecond
}

// Validate checks that configuration values are within acceptable ranges.
func (c *Config) Validate() error {
	// Poller
	if c.Poller.IntervalMS <= 0 {
		return fmt.Errorf("poller.interval_ms must be > 0")
	}
	if c.Poller.Vendor == "" {
		return fmt.Errorf("poller.vendor must not be empty")
	}
	if c.Poller.RefreshInterval <= 0 {
		return fmt.Errorf("poller.refresh_interval must be > 0")
	}
	if c.Poller.FetchTimeout <= 0 {
		return fmt.Errorf("poller.fetch_timeout must be > 0")
	}
	if c.Poller.StatsEvery <= 0 {
		return fmt.Errorf("poller.stats_every must be > 0")
	}

	// Redis
	if c.Redis.Address == "" {
		return fmt.Errorf("redis.address must not be empty")
	}
	if c.Redis.Stream == "" {
		return fmt.Errorf("redis.stream must not be empty")
	}
	if c.Redis.MaxStreamLen <= 0 {
		return fmt.Errorf("redis.max_stream_len must be > 0")
	}
	if c.Redis.PoolSize <= 0 {
		return fmt.Errorf("redis.pool_size must be > 0")
	}

	// Database
	if c.Database.MaxOpenConns < 0 {
		return fmt.Errorf("database.max_open_conns must be >= 0")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns must be >= 0")
	}

	// Monitoring
	if c.Monitoring.PrometheusEnabled && c.Monitoring.Address == "" {
		return fmt.Errorf("monitoring.address must not be empty when prometheus_enabled=true")
	}
	if c.Monitoring.RateLimitEnabled {
		if c.Monitoring.RequestsPerSecond <= 0 {
			return fmt.Errorf("monitoring.requests_per_second must be > 0 when rate limiting is enabled")
		}
		if c.Monitoring.Burst <= 0 {
			return fmt.Errorf("monitoring.burst must be > 0 when rate limiting is enabled")
		}
	}

	// Tracing
	if c.Tracing.Enabled {
		if c.Tracing.JaegerURL == "" {
			return fmt.Errorf("tracing.jaeger_url must not be empty when tracing is enabled")
		}
		if c.Tracing.SampleRate <= 0 || c.Tracing.SampleRate > 1 {
			return fmt.Errorf("tracing.sample_rate must be in (0, 1]")
		}
	}

	// Logging
	if c.Logging.Level == "" {
		return fmt.Errorf("logging.level must not be empty")
	}

	return nil
}

// Load reads configuration from YAML file, applies defaults and env overrides.
func Load(configPath string) (*Config, error) {
	// If file does not exist, fall back to defaults
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config yaml: %w", err)
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// DefaultConfig returns configuration with sane defaults.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Poller.Enabled = true
	cfg.Poller.IntervalMS = 1000
	cfg.Poller.Vendor = "routeros"
	cfg.Poller.RefreshInterval = 60 * time.Second
	cfg.Poller.FetchTimeout = 5 * time.Second
	cfg.Poller.StatsEvery = 60

	cfg.Database.MaxOpenConns = 10
	cfg.Database.MaxIdleConns = 5
	cfg.Database.ConnMaxLifetime = 5 * time.Minute

	cfg.Redis.Address = "localhost:6379"
	cfg.Redis.DB = 0
	cfg.Redis.PoolSize = 10
	cfg.Redis.Stream = "linkpulse:samples"
	cfg.Redis.MaxStreamLen = 100000

	cfg.Monitoring.Address = ":9090"
	cfg.Monitoring.PrometheusEnabled = true
	cfg.Monitoring.ShutdownTimeout = 10 * time.Second
	cfg.Monitoring.RateLimitEnabled = false
	cfg.Monitoring.RequestsPerSecond = 50
	cfg.Monitoring.Burst = 100

	cfg.Tracing.Enabled = false
	cfg.Tracing.JaegerURL = "http://localhost:14268/api/traces"
	cfg.Tracing.Environment = "development"
	cfg.Tracing.SampleRate = 1.0

	cfg.Logging.Level = "info"
	cfg.Logging.Format = "json"

	return cfg
}

func (c *Config) applyEnvOverrides() {
	// Apply environment variable overrides
	if dsn := os.Getenv("LINKPULSE_DATABASE_DSN"); dsn != "" {
		c.Database.DSN = dsn
	}
	if addr := os.Getenv("LINKPULSE_REDIS_ADDRESS"); addr != "" {
		c.Redis.Address = addr
	}
	if pass := os.Getenv("LINKPULSE_REDIS_PASSWORD"); pass != "" {
		c.Redis.Password = pass
	}
	if level := os.Getenv("LINKPULSE_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}
