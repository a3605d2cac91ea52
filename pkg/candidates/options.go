package candidates

import (
	"time"

	"go.uber.org/zap"

	"github.com/hejijunhao/candidates/internal/config"
)

type options struct {
	cfg config.Config
	log *zap.Logger
}

func defaultOptions() options {
	return options{cfg: config.Default(), log: zap.NewNop()}
}

// Option configures a Client.
type Option func(*options)

// WithBaseURL points the client at another deployment of the proteins API.
func WithBaseURL(url string) Option {
	return func(o *options) {
		o.cfg.Source.BaseURL = url
	}
}

// WithTimeout sets the per-request timeout. Default: 60s.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.cfg.Source.Timeout = d
	}
}

// WithRetry sets the total number of attempts per request and the backoff
// ("exponential" or "linear") with its base unit.
func WithRetry(maxTries int, backoff string, unit time.Duration) Option {
	return func(o *options) {
		o.cfg.Retry.MaxTries = maxTries
		o.cfg.Retry.Backoff = backoff
		o.cfg.Retry.Unit = unit
	}
}

// WithRateLimit caps requests per second across all workers.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(o *options) {
		o.cfg.Source.RateLimit = perSecond
		o.cfg.Source.Burst = burst
	}
}

// WithWorkerCap sets the maximum number of concurrent workers. Default: 50.
func WithWorkerCap(n int) Option {
	return func(o *options) {
		o.cfg.Collect.WorkerCap = n
	}
}

// WithThresholds sets the inclusive minimum reviewed and unreviewed hit
// counts. Default: 10 and 100.
func WithThresholds(minReviewed, minUnreviewed int) Option {
	return func(o *options) {
		o.cfg.Filter.MinReviewed = minReviewed
		o.cfg.Filter.MinUnreviewed = minUnreviewed
	}
}

// WithLogger sets the logger. Default: no logging.
func WithLogger(log *zap.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}
