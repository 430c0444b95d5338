package plausible

import (
	"net/http"

	"github.com/trackkit/trackkit-go/providers/internal/transport"
)

// DefaultHost is the Plausible Cloud endpoint. Self-hosted instances set
// their own host via WithHost.
const DefaultHost = "https://plausible.io"

// Config holds the configuration for the Plausible adapter.
type Config struct {
	// Domain is the site domain registered with Plausible. Required.
	Domain string

	// Host is the base URL of the Plausible instance.
	// Defaults to DefaultHost.
	Host string

	// HTTPClient is the HTTP client to use for requests.
	HTTPClient *http.Client

	// Retry overrides the delivery retry policy.
	Retry transport.RetryConfig

	// UserAgent is forwarded to Plausible, which uses it for visitor
	// attribution.
	UserAgent string
}

// Option is a function that configures the Plausible adapter.
type Option func(*Config)

// WithHost sets the base URL of a self-hosted Plausible instance.
func WithHost(host string) Option {
	return func(c *Config) {
		if host != "" {
			c.Host = host
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Config) {
		c.HTTPClient = client
	}
}

// WithRetry overrides the delivery retry policy.
func WithRetry(cfg transport.RetryConfig) Option {
	return func(c *Config) {
		c.Retry = cfg
	}
}

// WithUserAgent sets the User-Agent forwarded to Plausible.
func WithUserAgent(ua string) Option {
	return func(c *Config) {
		c.UserAgent = ua
	}
}
