package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/rhuss/kanzel/pkg/observability"
)

// DefaultRetryableStatuses is the set of HTTP status codes treated as
// transient: request timeout, rate limiting, and server-side failures
// typical of a backend that is still starting up.
var DefaultRetryableStatuses = []int{
	http.StatusRequestTimeout,
	http.StatusTooManyRequests,
	http.StatusInternalServerError,
	http.StatusBadGateway,
	http.StatusServiceUnavailable,
	http.StatusGatewayTimeout,
}

// Config holds retry and timeout settings for a Fetcher.
type Config struct {
	// MaxRetries is the number of retries after the initial attempt.
	// Zero or negative means use the default of 3.
	MaxRetries int

	// BaseDelay is the delay before the first retry. Subsequent retries
	// wait BaseDelay × BackoffFactor^(attempt−1). Defaults to 1s.
	BaseDelay time.Duration

	// BackoffFactor is the exponential backoff multiplier. Defaults to 2.
	BackoffFactor float64

	// Timeout bounds each individual attempt. Defaults to 30s.
	Timeout time.Duration

	// RetryableStatuses overrides DefaultRetryableStatuses when non-empty.
	RetryableStatuses []int
}

func (c Config) maxRetries() int {
	if c.MaxRetries <= 0 {
		return 3
	}
	return c.MaxRetries
}

func (c Config) baseDelay() time.Duration {
	if c.BaseDelay <= 0 {
		return time.Second
	}
	return c.BaseDelay
}

func (c Config) backoffFactor() float64 {
	if c.BackoffFactor <= 0 {
		return 2
	}
	return c.BackoffFactor
}

func (c Config) timeout() time.Duration {
	if c.Timeout <= 0 {
		return 30 * time.Second
	}
	return c.Timeout
}

// ConnectionError is returned when the network layer cannot complete the
// operation within the retry budget: DNS failures, refused connections,
// and per-attempt timeouts all end up here.
type ConnectionError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection to %s failed after %d attempts: %v", e.URL, e.Attempts, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// Fetcher performs HTTP requests with bounded retries.
type Fetcher struct {
	client    *http.Client
	cfg       Config
	retryable map[int]bool
	logger    *slog.Logger
}

// New creates a Fetcher with the given configuration.
func New(cfg Config) *Fetcher {
	statuses := cfg.RetryableStatuses
	if len(statuses) == 0 {
		statuses = DefaultRetryableStatuses
	}
	retryable := make(map[int]bool, len(statuses))
	for _, s := range statuses {
		retryable[s] = true
	}

	return &Fetcher{
		// The per-attempt timeout is enforced through the request context,
		// not the client, so a caller-supplied deadline shorter than the
		// configured timeout still wins.
		client:    &http.Client{},
		cfg:       cfg,
		retryable: retryable,
		logger:    slog.Default(),
	}
}

// Post performs a POST with a JSON body, retrying transient failures.
//
// A response is returned for every completed HTTP exchange, including
// non-2xx statuses: a retryable status that survives the retry budget is
// propagated as the final response, and non-retryable statuses short-
// circuit immediately. Only network-level failures become a
// ConnectionError.
func (f *Fetcher) Post(ctx context.Context, url string, header http.Header, body []byte) (*http.Response, error) {
	maxRetries := f.cfg.maxRetries()

	var lastErr error
	for attempt := 1; ; attempt++ {
		resp, err := f.attempt(ctx, url, header, body)

		switch {
		case err == nil && !f.retryable[resp.StatusCode]:
			outcome := "success"
			if resp.StatusCode >= 400 {
				outcome = "terminal_status"
			}
			observability.UpstreamAttemptsTotal.WithLabelValues(outcome).Inc()
			return resp, nil

		case err == nil:
			// Retryable status.
			observability.UpstreamAttemptsTotal.WithLabelValues("retryable_status").Inc()
			if attempt > maxRetries {
				f.logger.Warn("upstream fetch giving up",
					"url", url,
					"attempt", attempt,
					"status", resp.StatusCode,
				)
				return resp, nil
			}
			resp.Body.Close()
			lastErr = fmt.Errorf("status %d", resp.StatusCode)

		default:
			// Network-level failure. A cancelled parent context is terminal;
			// a per-attempt timeout or transport error is retryable.
			if ctx.Err() != nil {
				observability.UpstreamAttemptsTotal.WithLabelValues("cancelled").Inc()
				return nil, &ConnectionError{URL: url, Attempts: attempt, Err: ctx.Err()}
			}
			observability.UpstreamAttemptsTotal.WithLabelValues("retryable_error").Inc()
			lastErr = err
			if attempt > maxRetries {
				f.logger.Warn("upstream fetch giving up",
					"url", url,
					"attempt", attempt,
					"error", err.Error(),
				)
				return nil, &ConnectionError{URL: url, Attempts: attempt, Err: err}
			}
		}

		delay := f.delayFor(attempt)
		f.logger.Info("retrying upstream fetch",
			"url", url,
			"attempt", attempt,
			"delay", delay,
			"cause", lastErr.Error(),
		)
		observability.UpstreamRetriesTotal.Inc()

		if err := sleep(ctx, delay); err != nil {
			return nil, &ConnectionError{URL: url, Attempts: attempt, Err: err}
		}
	}
}

// attempt performs one HTTP exchange under the per-attempt timeout.
func (f *Fetcher) attempt(ctx context.Context, url string, header http.Header, body []byte) (*http.Response, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, f.cfg.timeout())

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		cancel()
		// Request construction failures are programming errors, not
		// transport failures; surfacing them as a ConnectionError would
		// only schedule pointless retries.
		return nil, err
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		cancel()
		return nil, err
	}

	// Tie the cancel to body close so the attempt context stays alive
	// while the caller reads the response.
	resp.Body = &cancelReadCloser{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

// delayFor computes the backoff delay for the given attempt number,
// counted from 1.
func (f *Fetcher) delayFor(attempt int) time.Duration {
	delay := float64(f.cfg.baseDelay())
	for i := 1; i < attempt; i++ {
		delay *= f.cfg.backoffFactor()
	}
	return time.Duration(delay)
}

// sleep waits for d or until the context is done.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type cancelReadCloser struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelReadCloser) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}
