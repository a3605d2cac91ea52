package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Version is the release string reported by the CLI.
const Version = "0.4.0"

// MaxTriesLimit bounds retry.max_tries.
const MaxTriesLimit = 20

// ErrInvalid wraps every validation failure returned by Validate.
var ErrInvalid = errors.New("invalid configuration")

// Config holds all configuration for a curation run.
type Config struct {
	Source  SourceConfig  `yaml:"source"`
	Retry   RetryConfig   `yaml:"retry"`
	Collect CollectConfig `yaml:"collect"`
	Filter  FilterConfig  `yaml:"filter"`
	Data    DataConfig    `yaml:"data"`
	Log     LogConfig     `yaml:"log"`
}

// SourceConfig selects and tunes the remote record service.
type SourceConfig struct {
	Provider  string        `yaml:"provider"`
	BaseURL   string        `yaml:"base_url"`
	Timeout   time.Duration `yaml:"timeout"`
	RateLimit float64       `yaml:"rate_limit"` // requests per second across all workers; 0 disables
	Burst     int           `yaml:"burst"`
}

// RetryConfig controls the resilient fetcher.
type RetryConfig struct {
	MaxTries int           `yaml:"max_tries"` // total attempts, including the first
	Backoff  string        `yaml:"backoff"`   // "exponential" or "linear"
	Unit     time.Duration `yaml:"unit"`
}

// CollectConfig controls the batch collector.
type CollectConfig struct {
	WorkerCap   int `yaml:"worker_cap"`
	ReportEvery int `yaml:"report_every"`
}

// FilterConfig holds the inclusive hit-count thresholds.
type FilterConfig struct {
	MinReviewed   int `yaml:"min_reviewed"`
	MinUnreviewed int `yaml:"min_unreviewed"`
}

// DataConfig locates the on-disk layout used by full runs.
type DataConfig struct {
	Dir     string `yaml:"dir"`
	RunType string `yaml:"run_type"` // "demo" or "main"
}

// LogConfig controls logger construction.
type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
	Dir   string `yaml:"dir"` // empty disables the log file
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Source: SourceConfig{
			Provider: "ebi",
			BaseURL:  "https://www.ebi.ac.uk/proteins/api",
			Timeout:  60 * time.Second,
			Burst:    1,
		},
		Retry: RetryConfig{
			MaxTries: 6,
			Backoff:  "exponential",
			Unit:     time.Second,
		},
		Collect: CollectConfig{
			WorkerCap:   50,
			ReportEvery: 5,
		},
		Filter: FilterConfig{
			MinReviewed:   10,
			MinUnreviewed: 100,
		},
		Data: DataConfig{
			Dir:     "data",
			RunType: "demo",
		},
		Log: LogConfig{
			Level: "info",
			Dir:   "logs",
		},
	}
}

// Load returns the default configuration overlaid with the YAML file at path
// (skipped when path is empty) and then with CANDIDATES_* environment variables.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

// applyEnv overrides fields from environment variables, keeping the current
// value when a variable is unset or unparsable.
func applyEnv(cfg *Config) {
	cfg.Source.Provider = getenv("CANDIDATES_PROVIDER", cfg.Source.Provider)
	cfg.Source.BaseURL = getenv("CANDIDATES_BASE_URL", cfg.Source.BaseURL)
	cfg.Source.Timeout = getenvDuration("CANDIDATES_TIMEOUT", cfg.Source.Timeout)
	cfg.Source.RateLimit = getenvFloat("CANDIDATES_RATE_LIMIT", cfg.Source.RateLimit)
	cfg.Source.Burst = getenvInt("CANDIDATES_BURST", cfg.Source.Burst)

	cfg.Retry.MaxTries = getenvInt("CANDIDATES_MAX_TRIES", cfg.Retry.MaxTries)
	cfg.Retry.Backoff = getenv("CANDIDATES_BACKOFF", cfg.Retry.Backoff)
	cfg.Retry.Unit = getenvDuration("CANDIDATES_BACKOFF_UNIT", cfg.Retry.Unit)

	cfg.Collect.WorkerCap = getenvInt("CANDIDATES_WORKER_CAP", cfg.Collect.WorkerCap)
	cfg.Collect.ReportEvery = getenvInt("CANDIDATES_REPORT_EVERY", cfg.Collect.ReportEvery)

	cfg.Filter.MinReviewed = getenvInt("CANDIDATES_MIN_REVIEWED", cfg.Filter.MinReviewed)
	cfg.Filter.MinUnreviewed = getenvInt("CANDIDATES_MIN_UNREVIEWED", cfg.Filter.MinUnreviewed)

	cfg.Data.Dir = getenv("CANDIDATES_DATA_DIR", cfg.Data.Dir)
	cfg.Data.RunType = getenv("CANDIDATES_RUN_TYPE", cfg.Data.RunType)

	cfg.Log.Level = getenv("CANDIDATES_LOG_LEVEL", cfg.Log.Level)
	cfg.Log.JSON = getenvBool("CANDIDATES_LOG_JSON", cfg.Log.JSON)
	cfg.Log.Dir = getenv("CANDIDATES_LOG_DIR", cfg.Log.Dir)
}

// Validate reports every invalid field at once. The returned error wraps ErrInvalid.
func (c Config) Validate() error {
	var errs []error
	if c.Source.Provider == "" {
		errs = append(errs, errors.New("source provider must be set (CANDIDATES_PROVIDER)"))
	}
	if c.Source.BaseURL == "" {
		errs = append(errs, errors.New("source base_url must be set (CANDIDATES_BASE_URL)"))
	}
	if c.Source.Timeout < 0 {
		errs = append(errs, fmt.Errorf("source timeout must be >= 0, got %v", c.Source.Timeout))
	}
	if c.Source.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("source rate_limit must be >= 0, got %v", c.Source.RateLimit))
	}
	if c.Source.RateLimit > 0 && c.Source.Burst < 1 {
		errs = append(errs, fmt.Errorf("source burst must be >= 1 when rate_limit is set, got %d", c.Source.Burst))
	}
	if c.Retry.MaxTries < 1 || c.Retry.MaxTries > MaxTriesLimit {
		errs = append(errs, fmt.Errorf("retry max_tries must be between 1 and %d, got %d", MaxTriesLimit, c.Retry.MaxTries))
	}
	switch c.Retry.Backoff {
	case "exponential", "linear":
	default:
		errs = append(errs, fmt.Errorf("retry backoff must be exponential or linear, got %q", c.Retry.Backoff))
	}
	if c.Retry.Unit < 0 {
		errs = append(errs, fmt.Errorf("retry unit must be >= 0, got %v", c.Retry.Unit))
	}
	if c.Collect.WorkerCap < 1 {
		errs = append(errs, fmt.Errorf("collect worker_cap must be >= 1, got %d", c.Collect.WorkerCap))
	}
	if c.Collect.ReportEvery < 1 {
		errs = append(errs, fmt.Errorf("collect report_every must be >= 1, got %d", c.Collect.ReportEvery))
	}
	if c.Filter.MinReviewed < 0 || c.Filter.MinUnreviewed < 0 {
		errs = append(errs, fmt.Errorf("filter thresholds must be >= 0, got reviewed=%d unreviewed=%d",
			c.Filter.MinReviewed, c.Filter.MinUnreviewed))
	}
	switch c.Data.RunType {
	case "demo", "main":
	default:
		errs = append(errs, fmt.Errorf("data run_type must be demo or main, got %q", c.Data.RunType))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getenvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func getenvBool(key string, fallback bool) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes":
		return true
	case "0", "false", "no":
		return false
	}
	return fallback
}
