package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"CANDIDATES_PROVIDER", "CANDIDATES_BASE_URL", "CANDIDATES_TIMEOUT",
	"CANDIDATES_RATE_LIMIT", "CANDIDATES_BURST", "CANDIDATES_MAX_TRIES",
	"CANDIDATES_BACKOFF", "CANDIDATES_BACKOFF_UNIT", "CANDIDATES_WORKER_CAP",
	"CANDIDATES_REPORT_EVERY", "CANDIDATES_MIN_REVIEWED", "CANDIDATES_MIN_UNREVIEWED",
	"CANDIDATES_DATA_DIR", "CANDIDATES_RUN_TYPE", "CANDIDATES_LOG_LEVEL",
	"CANDIDATES_LOG_JSON", "CANDIDATES_LOG_DIR",
}

// clearEnv blanks every variable Load reads; getenv treats "" as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "ebi", cfg.Source.Provider)
	assert.Equal(t, "https://www.ebi.ac.uk/proteins/api", cfg.Source.BaseURL)
	assert.Equal(t, 6, cfg.Retry.MaxTries)
	assert.Equal(t, "exponential", cfg.Retry.Backoff)
	assert.Equal(t, time.Second, cfg.Retry.Unit)
	assert.Equal(t, 50, cfg.Collect.WorkerCap)
	assert.Equal(t, 5, cfg.Collect.ReportEvery)
	assert.Equal(t, 10, cfg.Filter.MinReviewed)
	assert.Equal(t, 100, cfg.Filter.MinUnreviewed)
	assert.Equal(t, "demo", cfg.Data.RunType)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_YAMLFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "candidates.yaml")
	doc := `
source:
  base_url: http://localhost:8080
  timeout: 5s
  rate_limit: 20
  burst: 4
retry:
  backoff: linear
  unit: 250ms
collect:
  worker_cap: 150
filter:
  min_unreviewed: 50
data:
  run_type: main
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080", cfg.Source.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Source.Timeout)
	assert.Equal(t, 20.0, cfg.Source.RateLimit)
	assert.Equal(t, 4, cfg.Source.Burst)
	assert.Equal(t, "linear", cfg.Retry.Backoff)
	assert.Equal(t, 250*time.Millisecond, cfg.Retry.Unit)
	assert.Equal(t, 150, cfg.Collect.WorkerCap)
	assert.Equal(t, 50, cfg.Filter.MinUnreviewed)
	assert.Equal(t, "main", cfg.Data.RunType)

	// Keys absent from the file keep their defaults.
	assert.Equal(t, "ebi", cfg.Source.Provider)
	assert.Equal(t, 6, cfg.Retry.MaxTries)
	assert.Equal(t, 10, cfg.Filter.MinReviewed)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "candidates.yaml")
	require.NoError(t, os.WriteFile(path, []byte("collect:\n  worker_cap: 150\n"), 0o644))
	t.Setenv("CANDIDATES_WORKER_CAP", "80")
	t.Setenv("CANDIDATES_BACKOFF_UNIT", "10ms")
	t.Setenv("CANDIDATES_LOG_JSON", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 80, cfg.Collect.WorkerCap)
	assert.Equal(t, 10*time.Millisecond, cfg.Retry.Unit)
	assert.True(t, cfg.Log.JSON)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("collect: [worker_cap"), 0o644))
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse")
}

func TestGetenvInt(t *testing.T) {
	tests := []struct {
		name     string
		envVal   string
		fallback int
		want     int
	}{
		{"empty uses fallback", "", 50, 50},
		{"valid int", "150", 50, 150},
		{"zero", "0", 50, 0},
		{"invalid falls back", "abc", 50, 50},
		{"negative", "-1", 50, -1},
	}

	const key = "CANDIDATES_TEST_GETENVINT"
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(key, tt.envVal)
			if got := getenvInt(key, tt.fallback); got != tt.want {
				t.Errorf("getenvInt(%q, %d) = %d, want %d", tt.envVal, tt.fallback, got, tt.want)
			}
		})
	}
}

func TestGetenvDuration_InvalidFallsBack(t *testing.T) {
	t.Setenv("CANDIDATES_TEST_DURATION", "soon")
	assert.Equal(t, time.Minute, getenvDuration("CANDIDATES_TEST_DURATION", time.Minute))
}

// --- Validation tests ---

func TestValidate_BadBackoff(t *testing.T) {
	cfg := Default()
	cfg.Retry.Backoff = "fibonacci"
	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalid))
	assert.Contains(t, err.Error(), "backoff")
}

func TestValidate_RateLimitNeedsBurst(t *testing.T) {
	cfg := Default()
	cfg.Source.RateLimit = 10
	cfg.Source.Burst = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "burst")
}

func TestValidate_MaxTriesBounded(t *testing.T) {
	cfg := Default()
	cfg.Retry.MaxTries = MaxTriesLimit
	require.NoError(t, cfg.Validate())

	cfg.Retry.MaxTries = 40
	err := cfg.Validate()
	require.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, err.Error(), "max_tries")
}

func TestValidate_MultipleErrors(t *testing.T) {
	cfg := Default()
	cfg.Retry.MaxTries = 0
	cfg.Collect.WorkerCap = 0
	cfg.Data.RunType = "staging"
	err := cfg.Validate()
	require.Error(t, err)

	msg := err.Error()
	for _, want := range []string{"max_tries", "worker_cap", "run_type"} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected error to mention %q, got: %v", want, msg)
		}
	}
}

func TestVersion_IsSet(t *testing.T) {
	if Version == "" {
		t.Fatal("expected non-empty Version constant")
	}
}
