package connector

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hejijunhao/candidates/internal/connector/httpclient"
	"github.com/hejijunhao/candidates/internal/model"
)

// Source is the remote record service as seen by the collection engine.
// Implementations must be safe for concurrent use; log carries the calling
// worker's identity.
type Source interface {
	// CountHits returns the number of reviewed (or unreviewed) records that
	// carry the family identifier.
	CountHits(ctx context.Context, log *zap.Logger, id string, reviewed bool) (int, error)

	// Records fetches every reviewed record that carries the family identifier.
	Records(ctx context.Context, log *zap.Logger, id string) ([]model.RawRecord, error)
}

// SourceConfig holds provider-agnostic connection settings.
type SourceConfig struct {
	Provider  string
	BaseURL   string
	Timeout   time.Duration
	MaxTries  int
	Backoff   httpclient.Backoff
	RateLimit float64
	Burst     int
}

// HTTPOptions translates the config into httpclient options.
func (c SourceConfig) HTTPOptions() []httpclient.Option {
	opts := []httpclient.Option{
		httpclient.WithMaxTries(c.MaxTries),
		httpclient.WithBackoff(c.Backoff),
		httpclient.WithRateLimit(c.RateLimit, c.Burst),
	}
	if c.Timeout > 0 {
		opts = append(opts, httpclient.WithTimeout(c.Timeout))
	}
	return opts
}
