// Package fetch provides the HTTP client used to pull spreadsheet
// exports from the backing store. The remote endpoint is slow and
// rate-limited, so every request goes through a token bucket and
// failed requests are retried with exponential backoff and jitter.
package fetch

import (
	"context"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Config holds rate limiting and retry configuration.
type Config struct {
	RequestsPerSecond float64
	Burst             int
	MaxRetries        int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	RequestTimeout    time.Duration
}

// DefaultConfig returns conservative settings for a shared spreadsheet
// backend.
func DefaultConfig() Config {
	return Config{
		RequestsPerSecond: 2,
		Burst:             4,
		MaxRetries:        3,
		InitialBackoff:    100 * time.Millisecond,
		MaxBackoff:        30 * time.Second,
		RequestTimeout:    30 * time.Second,
	}
}

// RetryError reports that all retry attempts for a URL are exhausted.
type RetryError struct {
	URL        string
	Attempts   int
	LastStatus int
	LastErr    error
}

func (e *RetryError) Error() string {
	msg := fmt.Sprintf("failed to fetch %s after %d attempts", e.URL, e.Attempts)
	if e.LastStatus != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.LastStatus)
	}
	if e.LastErr != nil {
		msg += ": " + e.LastErr.Error()
	}
	return msg
}

func (e *RetryError) Unwrap() error {
	return e.LastErr
}

// Client is an HTTP client with rate limiting and retry logic.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	config     Config
}

// NewClient creates a client with the given config.
func NewClient(config Config) *Client {
	if config.RequestsPerSecond <= 0 {
		config.RequestsPerSecond = DefaultConfig().RequestsPerSecond
	}
	if config.Burst <= 0 {
		config.Burst = 1
	}
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = DefaultConfig().RequestTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: config.RequestTimeout},
		limiter:    rate.NewLimiter(rate.Limit(config.RequestsPerSecond), config.Burst),
		config:     config,
	}
}

// NewClientDefault creates a client with default settings.
func NewClientDefault() *Client {
	return NewClient(DefaultConfig())
}

// Get fetches url and returns the response body. Retryable failures
// (network errors, HTTP 429 and 5xx) are retried up to MaxRetries.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	var lastStatus int
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := c.backoff(attempt-1, lastStatus == http.StatusTooManyRequests)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		body, status, err := c.doGet(ctx, url)
		if err == nil && status >= 200 && status < 300 {
			return body, nil
		}

		lastStatus = status
		lastErr = err

		if status != 0 && !isRetryableStatus(status) {
			return nil, &RetryError{URL: url, Attempts: attempt + 1, LastStatus: status}
		}
	}

	return nil, &RetryError{
		URL:        url,
		Attempts:   c.config.MaxRetries + 1,
		LastStatus: lastStatus,
		LastErr:    lastErr,
	}
}

func (c *Client) doGet(ctx context.Context, url string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("User-Agent", "ShopBot-CatalogService/1.0")
	req.Header.Set("Accept", "*/*")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}

// isRetryableStatus reports whether an HTTP status is worth retrying:
// 429 and 5xx.
func isRetryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || (status >= 500 && status < 600)
}

// backoff computes the delay before the given retry attempt, with a
// 0-25% jitter. Rate-limited responses back off more aggressively.
func (c *Client) backoff(attempt int, rateLimited bool) time.Duration {
	base := 2.0
	if rateLimited {
		base = 3.0
	}
	delay := float64(c.config.InitialBackoff) * math.Pow(base, float64(attempt))
	capped := math.Min(delay, float64(c.config.MaxBackoff))
	jitter := rand.Float64() * 0.25 * capped
	return time.Duration(capped + jitter)
}
