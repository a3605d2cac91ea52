package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ErrRetriesExhausted is matched by every *FetchError.
var ErrRetriesExhausted = errors.New("retries exhausted")

// APIError represents a non-2xx HTTP response.
type APIError struct {
	StatusCode int
	Body       string // first 512 bytes
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// FetchError is the terminal failure of Get after every attempt failed.
// Callers are expected to abort the run.
type FetchError struct {
	Target   string
	Attempts int
	Err      error // last attempt's error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: giving up after %d attempts: %v", e.Target, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() []error { return []error{ErrRetriesExhausted, e.Err} }

// Backoff returns the delay before the given attempt (2 for the first retry).
// Implementations must grow monotonically with attempt.
type Backoff func(attempt int) time.Duration

// MaxDelay caps every backoff delay.
const MaxDelay = time.Hour

// Exponential waits unit * 3^attempt, up to MaxDelay.
func Exponential(unit time.Duration) Backoff {
	return func(attempt int) time.Duration {
		return saturate(math.Pow(3, float64(attempt)) * float64(unit))
	}
}

// Linear waits unit * 2 * attempt, up to MaxDelay.
func Linear(unit time.Duration) Backoff {
	return func(attempt int) time.Duration {
		return saturate(2 * float64(attempt) * float64(unit))
	}
}

func saturate(d float64) time.Duration {
	if math.IsNaN(d) || d >= float64(MaxDelay) {
		return MaxDelay
	}
	return time.Duration(d)
}

// ParseBackoff maps "exponential" or "linear" to a Backoff.
func ParseBackoff(name string, unit time.Duration) (Backoff, error) {
	switch name {
	case "exponential":
		return Exponential(unit), nil
	case "linear":
		return Linear(unit), nil
	}
	return nil, fmt.Errorf("unknown backoff %q", name)
}

// Response is a successful (2xx) reply with its body fully read.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Client is an HTTP client with a base URL, bounded retries and optional
// request pacing.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxTries   int
	backoff    Backoff
	limiter    *rate.Limiter
}

// Option configures Client behavior.
type Option func(*Client)

// WithTimeout sets the per-attempt HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithMaxTries sets the total number of attempts, including the first. Default: 6.
func WithMaxTries(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxTries = n
		}
	}
}

// WithBackoff sets the delay policy between attempts. Default: Exponential(time.Second).
func WithBackoff(b Backoff) Option {
	return func(c *Client) {
		if b != nil {
			c.backoff = b
		}
	}
}

// WithRateLimit paces attempts across every caller sharing this Client.
// rps <= 0 disables pacing.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(burst, 1))
		}
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

const defaultMaxTries = 6

// New creates a Client for the given base URL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		maxTries: defaultMaxTries,
		backoff:  Exponential(time.Second),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get sends a GET request with the given Accept header and returns the first
// 2xx response. Non-2xx statuses and transport errors are retried up to the
// configured number of attempts with a growing backoff; exhaustion returns a
// *FetchError. Context cancellation is returned immediately.
//
// log should carry the caller's identity (worker, stage); every line written
// here goes through it.
func (c *Client) Get(ctx context.Context, log *zap.Logger, path string, query url.Values, accept string) (*Response, error) {
	if log == nil {
		log = zap.NewNop()
	}
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	if _, err := url.Parse(target); err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxTries; attempt++ {
		if attempt > 1 {
			if err := sleep(ctx, c.backoff(attempt)); err != nil {
				return nil, err
			}
		}
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		resp, err := c.do(ctx, target, accept)
		if err == nil {
			if attempt > 1 {
				log.Warn("fetch: succeeded after retries",
					zap.String("target", target),
					zap.Int("attempts", attempt),
				)
			}
			return resp, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		lastErr = err
		log.Warn("fetch: attempt failed",
			zap.String("target", target),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}

	log.Error("fetch: giving up",
		zap.String("target", target),
		zap.Int("attempts", c.maxTries),
		zap.Error(lastErr),
	)
	return nil, &FetchError{Target: target, Attempts: c.maxTries, Err: lastErr}
}

// do performs a single attempt. Any non-2xx status is an *APIError.
func (c *Client) do(ctx context.Context, target, accept string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyStr := string(body)
		if len(bodyStr) > 512 {
			bodyStr = bodyStr[:512]
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Body: bodyStr}
	}
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
