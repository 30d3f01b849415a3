// Package httpclient provides the rate-limited HTTP client every
// provider call funnels through. One client per provider: a shared
// token bucket, a retry/backoff policy and a failure taxonomy.
package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"dexwatch/internal/observability"
)

// Default configuration values.
const (
	DefaultTimeout    = 30 * time.Second
	DefaultMaxRetries = 3

	// DefaultRetryAfter is applied when a 429 carries no Retry-After header.
	DefaultRetryAfter = 60 * time.Second
)

// Client wraps http.Client with a token-bucket limiter and a
// retry/backoff policy. All outbound calls go through one
// acquire-then-send path so a single limiter config governs an entire
// provider's traffic.
type Client struct {
	baseURL    string
	client     *http.Client
	limiter    Limiter
	maxRetries int
	headers    map[string]string
	logger     *log.Logger
}

// Option configures Client.
type Option func(*Client)

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.client = hc
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithLimiter sets the request limiter. Pass NopLimiter in tests.
func WithLimiter(l Limiter) Option {
	return func(c *Client) {
		c.limiter = l
	}
}

// WithMaxRetries sets the transient-failure retry budget.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// WithHeader adds a header to every request, e.g. a provider API key.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		c.headers[key] = value
	}
}

// WithProxy routes requests through an HTTP proxy.
func WithProxy(proxyURL string) Option {
	return func(c *Client) {
		u, err := url.Parse(proxyURL)
		if err != nil {
			return
		}
		transport := &http.Transport{Proxy: http.ProxyURL(u)}
		c.client.Transport = transport
	}
}

// WithLogger sets the logger for retry and rate-limit events.
func WithLogger(logger *log.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a client for one provider. ratePerMinute sizes the
// shared token bucket.
func New(baseURL string, ratePerMinute int, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		client:     &http.Client{Timeout: DefaultTimeout},
		limiter:    NewTokenBucket(ratePerMinute),
		maxRetries: DefaultMaxRetries,
		headers:    make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Limiter returns the client's limiter so a collector and a monitor
// can share one bucket per provider.
func (c *Client) Limiter() Limiter {
	return c.limiter
}

// Get performs a GET against baseURL+path and returns the response
// body. Outcomes map to the package error taxonomy:
//
//   - 2xx: body, nil
//   - 429: sleep for Retry-After (default 60s), retry without spending
//     the retry budget
//   - 5xx, timeout, connection error: exponential backoff (2^attempt
//     seconds) up to maxRetries, then ErrTransient
//   - 404: ErrNoData
//   - other 4xx: ErrPermanent, no retry
func (c *Client) Get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			c.logf("transient failure, retry %d/%d in %s: %v", attempt, c.maxRetries, backoff, lastErr)
			if err := sleep(ctx, backoff); err != nil {
				return nil, err
			}
		}

		if err := c.limiter.Acquire(ctx); err != nil {
			return nil, err
		}

		body, retryAfter, err := c.send(ctx, reqURL)
		if err == nil {
			observability.RecordProviderRequest("ok")
			return body, nil
		}
		if retryAfter > 0 {
			// 429 sleeps do not consume the retry budget.
			observability.RecordProviderRequest("rate_limited")
			c.logf("rate limited, sleeping %s: %s", retryAfter, reqURL)
			if serr := sleep(ctx, retryAfter); serr != nil {
				return nil, fmt.Errorf("%w: %v", ErrRateLimited, serr)
			}
			attempt--
			continue
		}
		if !isTransient(err) {
			observability.RecordProviderRequest("permanent")
			return nil, err
		}
		lastErr = err
	}

	observability.RecordProviderRequest("transient")
	return nil, fmt.Errorf("%w: retries exhausted: %v", ErrTransient, lastErr)
}

// send performs one HTTP round trip. A positive retryAfter signals a
// 429 response.
func (c *Client) send(ctx context.Context, reqURL string) (body []byte, retryAfter time.Duration, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: create request: %v", ErrPermanent, err)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("transient: http request: %v", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("transient: read response: %v", err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return data, 0, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, parseRetryAfter(resp.Header.Get("Retry-After")), fmt.Errorf("%w", ErrRateLimited)
	case resp.StatusCode == http.StatusNotFound:
		return nil, 0, fmt.Errorf("%w: %s", ErrNoData, reqURL)
	case resp.StatusCode >= 500:
		return nil, 0, fmt.Errorf("transient: %v", &StatusError{StatusCode: resp.StatusCode, Body: string(data)})
	default:
		return nil, 0, fmt.Errorf("%w: %v", ErrPermanent, &StatusError{StatusCode: resp.StatusCode, Body: string(data)})
	}
}

// isTransient reports whether an error from send may be retried.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrPermanent) || errors.Is(err, ErrNoData) || errors.Is(err, ErrRateLimited) {
		return false
	}
	return true
}

// parseRetryAfter interprets a Retry-After header as delta-seconds or
// an HTTP date, falling back to DefaultRetryAfter.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return DefaultRetryAfter
	}
	if secs, err := strconv.Atoi(header); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return DefaultRetryAfter
}

func sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

func (c *Client) logf(format string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Printf(format, args...)
	}
}
