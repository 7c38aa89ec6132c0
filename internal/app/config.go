package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
	"go.uber.org/multierr"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	LogFormat string `toml:"log_format"`
	LogLevel  string `toml:"log_level"`

	// WorkflowDir holds .hcl workflow files. Empty means the built-in catalog.
	WorkflowDir string `toml:"workflow_dir"`

	MySQLDSN     string `toml:"mysql_dsn"`
	LayerTable   string `toml:"layer_table"`
	QueryRetries uint64 `toml:"query_retries"`

	KafkaBrokers  []string      `toml:"kafka_brokers"`
	DispatchTopic string        `toml:"dispatch_topic"`
	ResultTopic   string        `toml:"result_topic"`
	ConsumerGroup string        `toml:"consumer_group"`
	Workers       int           `toml:"workers"`
	RunTimeout    time.Duration `toml:"run_timeout"`

	ComputeURL          string        `toml:"compute_url"`
	ComputePollInterval time.Duration `toml:"compute_poll_interval"`

	ProgressURL     string `toml:"progress_url"`
	HealthcheckPort int    `toml:"healthcheck_port"`
}

// DefaultConfig returns the configuration used when nothing overrides it.
func DefaultConfig() Config {
	return Config{
		LogFormat:           "json",
		LogLevel:            "info",
		LayerTable:          "computing_layer",
		QueryRetries:        3,
		DispatchTopic:       "layergen.dispatch",
		ResultTopic:         "layergen.results",
		ConsumerGroup:       "layergen",
		Workers:             4,
		ComputeURL:          "http://localhost:8000",
		ComputePollInterval: 10 * time.Second,
	}
}

// LoadConfigFile decodes the TOML file at path on top of cfg. Unknown keys
// are rejected so typos do not silently fall back to defaults.
func LoadConfigFile(path string, cfg *Config) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("config file %s: unknown keys %v", path, undecoded)
	}
	return nil
}

// NewConfig validates cfg and returns a copy of it.
func NewConfig(cfg Config) (*Config, error) {
	var errs error
	if _, err := parseLevel(cfg.LogLevel); err != nil {
		errs = multierr.Append(errs, err)
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		errs = multierr.Append(errs, fmt.Errorf("invalid log_format %q: must be 'text' or 'json'", cfg.LogFormat))
	}
	if cfg.Workers < 1 {
		errs = multierr.Append(errs, fmt.Errorf("workers must be at least 1, got %d", cfg.Workers))
	}
	if cfg.RunTimeout < 0 {
		errs = multierr.Append(errs, errors.New("run_timeout must not be negative"))
	}
	if cfg.ComputePollInterval <= 0 {
		errs = multierr.Append(errs, errors.New("compute_poll_interval must be positive"))
	}
	if cfg.HealthcheckPort < 0 || cfg.HealthcheckPort > 65535 {
		errs = multierr.Append(errs, fmt.Errorf("healthcheck_port %d is out of range", cfg.HealthcheckPort))
	}
	if cfg.ComputeURL == "" {
		errs = multierr.Append(errs, errors.New("compute_url is required"))
	}
	if cfg.LayerTable == "" {
		errs = multierr.Append(errs, errors.New("layer_table is required"))
	}
	if errs != nil {
		return nil, fmt.Errorf("invalid configuration: %w", errs)
	}
	return &cfg, nil
}

// ValidateQueue checks the settings the worker and enqueue commands need.
func (c *Config) ValidateQueue() error {
	if len(c.KafkaBrokers) == 0 {
		return errors.New("kafka_brokers is required")
	}
	if c.DispatchTopic == "" {
		return errors.New("dispatch_topic is required")
	}
	return nil
}
