// Package transport is the shared HTTP delivery path for trackkit
// adapters: JSON POST with exponential-backoff retry and error
// classification. Analytics endpoints are fire-and-forget, so response
// bodies are drained and discarded on success.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"time"

	"github.com/trackkit/trackkit-go/core"
)

// RetryConfig configures retry behavior.
type RetryConfig struct {
	MaxRetries int           // Maximum number of retry attempts (default: 3)
	BaseDelay  time.Duration // Initial delay before first retry (default: 250ms)
	MaxDelay   time.Duration // Maximum delay cap (default: 5s)
	Jitter     float64       // Jitter factor 0.0-1.0 (default: 0.2)
}

// DefaultRetryConfig returns retry defaults tuned for beacon-style
// analytics delivery: short delays, bounded total latency.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		BaseDelay:  250 * time.Millisecond,
		MaxDelay:   5 * time.Second,
		Jitter:     0.2,
	}
}

func (c RetryConfig) normalized() RetryConfig {
	d := DefaultRetryConfig()
	if c.MaxRetries <= 0 {
		c.MaxRetries = d.MaxRetries
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = d.BaseDelay
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = d.MaxDelay
	}
	if c.Jitter < 0 || c.Jitter > 1 {
		c.Jitter = d.Jitter
	}
	return c
}

// nextDelay returns the delay before retry number attempt (0-based) and
// whether another attempt should be made. Exponential backoff with jitter,
// capped at MaxDelay.
func (c RetryConfig) nextDelay(attempt int) (time.Duration, bool) {
	if attempt >= c.MaxRetries {
		return 0, false
	}
	delay := float64(c.BaseDelay) * math.Pow(2, float64(attempt))
	if c.Jitter > 0 {
		jitterRange := delay * c.Jitter
		delay += (rand.Float64()*2 - 1) * jitterRange
	}
	if delay > float64(c.MaxDelay) {
		delay = float64(c.MaxDelay)
	}
	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay), true
}

// Client delivers JSON payloads for one adapter.
type Client struct {
	provider string
	http     *http.Client
	retry    RetryConfig
	headers  http.Header
}

// Option configures a transport Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithRetry sets the retry policy.
func WithRetry(cfg RetryConfig) Option {
	return func(c *Client) {
		c.retry = cfg.normalized()
	}
}

// WithHeader adds a header to every request.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		c.headers.Set(key, value)
	}
}

// New creates a transport client for the named provider. The name tags
// classified errors.
func New(provider string, opts ...Option) *Client {
	c := &Client{
		provider: provider,
		http:     &http.Client{Timeout: 10 * time.Second},
		retry:    DefaultRetryConfig(),
		headers:  make(http.Header),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PostJSON marshals body and POSTs it to url, retrying transient failures
// (network errors, 429, 5xx). Non-retryable HTTP failures surface as
// PROVIDER_ERROR; exhausted transport failures as NETWORK_ERROR wrapping
// core.ErrNetwork.
func (c *Client) PostJSON(ctx context.Context, url string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return &core.Error{
			Code:     core.ErrCodeProviderError,
			Provider: c.provider,
			Message:  "payload encoding failed",
			Err:      err,
		}
	}

	var lastErr error
	for attempt := 0; ; attempt++ {
		lastErr = c.post(ctx, url, payload)
		if lastErr == nil {
			return nil
		}
		if !retryable(lastErr) {
			return lastErr
		}
		delay, ok := c.retry.nextDelay(attempt)
		if !ok {
			return lastErr
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return &core.Error{
				Code:     core.ErrCodeNetworkError,
				Provider: c.provider,
				Message:  "delivery canceled",
				Err:      fmt.Errorf("%w: %v", core.ErrNetwork, ctx.Err()),
			}
		}
	}
}

func (c *Client) post(ctx context.Context, url string, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return &core.Error{
			Code:     core.ErrCodeProviderError,
			Provider: c.provider,
			Message:  "request construction failed",
			Err:      err,
		}
	}
	req.Header.Set("Content-Type", "application/json")
	for key, values := range c.headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &core.Error{
			Code:     core.ErrCodeNetworkError,
			Provider: c.provider,
			Message:  "request failed",
			Err:      fmt.Errorf("%w: %v", core.ErrNetwork, err),
		}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	code := core.ErrCodeProviderError
	if transientStatus(resp.StatusCode) {
		code = core.ErrCodeNetworkError
	}
	return &core.Error{
		Code:     code,
		Provider: c.provider,
		Message:  fmt.Sprintf("endpoint returned HTTP %d", resp.StatusCode),
		Err:      httpStatusError{status: resp.StatusCode},
	}
}

func transientStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

func retryable(err error) bool {
	typed, ok := err.(*core.Error)
	return ok && typed.Code == core.ErrCodeNetworkError
}

// httpStatusError preserves the status code for callers that need it.
type httpStatusError struct {
	status int
}

func (e httpStatusError) Error() string {
	return fmt.Sprintf("http status %d", e.status)
}

// StatusCode extracts an HTTP status code from a transport error chain,
// or 0 when the failure never produced a response.
func StatusCode(err error) int {
	typed, ok := err.(*core.Error)
	if !ok {
		return 0
	}
	if se, ok := typed.Err.(httpStatusError); ok {
		return se.status
	}
	return 0
}
