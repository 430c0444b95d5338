package umami

import (
	"net/http"

	"github.com/trackkit/trackkit-go/providers/internal/transport"
)

// DefaultHost is the Umami Cloud endpoint. Self-hosted instances set
// their own host via WithHost.
const DefaultHost = "https://cloud.umami.is"

// Config holds the configuration for the Umami adapter.
type Config struct {
	// WebsiteID is the Umami website UUID. Required.
	WebsiteID string

	// Host is the base URL of the Umami instance.
	// Defaults to DefaultHost.
	Host string

	// HTTPClient is the HTTP client to use for requests.
	HTTPClient *http.Client

	// Retry overrides the delivery retry policy.
	Retry transport.RetryConfig

	// UserAgent is sent with every request. Umami derives the visitor
	// session from it, so hosts embedding the SDK server-side should set
	// the end user's agent.
	UserAgent string
}

// Option is a function that configures the Umami adapter.
type Option func(*Config)

// WithHost sets the base URL of a self-hosted Umami instance.
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

// WithUserAgent sets the User-Agent forwarded to Umami.
func WithUserAgent(ua string) Option {
	return func(c *Config) {
		c.UserAgent = ua
	}
}
