package ga4

import (
	"net/http"

	"github.com/trackkit/trackkit-go/core"
	"github.com/trackkit/trackkit-go/providers/internal/transport"
)

// DefaultHost is the Google Analytics Measurement Protocol endpoint.
const DefaultHost = "https://www.google-analytics.com"

// Config holds the configuration for the GA4 adapter.
type Config struct {
	// MeasurementID is the GA4 stream ID (G-XXXXXXX). Required.
	MeasurementID string

	// APISecret is the Measurement Protocol API secret. Required.
	APISecret core.Secret

	// Host overrides the collection endpoint, e.g. for a measurement
	// proxy or the /debug validation server.
	Host string

	// ClientID identifies the device/browser instance. Generated when
	// empty; hosts that persist their own client ID should set it so
	// sessions survive process restarts.
	ClientID string

	// HTTPClient is the HTTP client to use for requests.
	HTTPClient *http.Client

	// Retry overrides the delivery retry policy.
	Retry transport.RetryConfig
}

// Option is a function that configures the GA4 adapter.
type Option func(*Config)

// WithAPISecret sets the Measurement Protocol API secret.
func WithAPISecret(secret core.Secret) Option {
	return func(c *Config) {
		c.APISecret = secret
	}
}

// WithHost overrides the collection endpoint.
func WithHost(host string) Option {
	return func(c *Config) {
		if host != "" {
			c.Host = host
		}
	}
}

// WithClientID sets a stable client ID.
func WithClientID(id string) Option {
	return func(c *Config) {
		c.ClientID = id
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
