// Package ga4 implements the trackkit adapter for Google Analytics 4 via
// the Measurement Protocol (/mp/collect).
package ga4

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/trackkit/trackkit-go/core"
	"github.com/trackkit/trackkit-go/providers/internal/transport"
)

// GA4 is an analytics adapter for the GA4 Measurement Protocol.
// GA4 is safe for concurrent use.
type GA4 struct {
	config    Config
	transport *transport.Client

	mu     sync.Mutex
	userID string
}

// New creates a new GA4 adapter for the given measurement ID.
func New(measurementID string, opts ...Option) *GA4 {
	cfg := Config{
		MeasurementID: measurementID,
		Host:          DefaultHost,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.ClientID == "" {
		cfg.ClientID = uuid.NewString()
	}

	topts := []transport.Option{transport.WithRetry(cfg.Retry)}
	if cfg.HTTPClient != nil {
		topts = append(topts, transport.WithHTTPClient(cfg.HTTPClient))
	}

	return &GA4{
		config:    cfg,
		transport: transport.New("ga4", topts...),
	}
}

// Name returns the adapter identifier.
func (p *GA4) Name() string {
	return "ga4"
}

// collectPayload is the body of POST /mp/collect.
type collectPayload struct {
	ClientID string       `json:"client_id"`
	UserID   string       `json:"user_id,omitempty"`
	Events   []eventEntry `json:"events"`
}

type eventEntry struct {
	Name   string         `json:"name"`
	Params map[string]any `json:"params,omitempty"`
}

func (p *GA4) endpoint() string {
	q := url.Values{}
	q.Set("measurement_id", p.config.MeasurementID)
	q.Set("api_secret", p.config.APISecret.Expose())
	return strings.TrimSuffix(p.config.Host, "/") + "/mp/collect?" + q.Encode()
}

func (p *GA4) send(ctx context.Context, name string, params map[string]any) error {
	p.mu.Lock()
	userID := p.userID
	p.mu.Unlock()

	return p.transport.PostJSON(ctx, p.endpoint(), collectPayload{
		ClientID: p.config.ClientID,
		UserID:   userID,
		Events:   []eventEntry{{Name: name, Params: params}},
	})
}

func pageParams(page *core.PageContext) map[string]any {
	if page == nil {
		return nil
	}
	params := make(map[string]any)
	if page.URL != "" {
		params["page_location"] = page.URL
	} else if page.Path != "" {
		params["page_location"] = page.Path
	}
	if page.Title != "" {
		params["page_title"] = page.Title
	}
	if page.Referrer != "" {
		params["page_referrer"] = page.Referrer
	}
	if len(params) == 0 {
		return nil
	}
	return params
}

// Track sends a named custom event. Property keys become event params;
// page context params are merged in without overriding explicit props.
func (p *GA4) Track(ctx context.Context, name string, props core.Props, page *core.PageContext) error {
	params := make(map[string]any, len(props))
	for k, v := range props {
		params[k] = v
	}
	for k, v := range pageParams(page) {
		if _, exists := params[k]; !exists {
			params[k] = v
		}
	}
	if len(params) == 0 {
		params = nil
	}
	return p.send(ctx, name, params)
}

// Pageview sends GA4's reserved page_view event.
func (p *GA4) Pageview(ctx context.Context, page *core.PageContext) error {
	return p.send(ctx, "page_view", pageParams(page))
}

// Identify sets the user_id attached to subsequent events. An empty ID
// clears it. Nothing is transmitted by the call itself.
func (p *GA4) Identify(_ context.Context, userID string, _ *core.PageContext) error {
	p.mu.Lock()
	p.userID = userID
	p.mu.Unlock()
	return nil
}

// Destroy releases adapter resources.
func (p *GA4) Destroy() error {
	p.mu.Lock()
	p.userID = ""
	p.mu.Unlock()
	return nil
}

// Compile-time check that GA4 implements core.Provider.
var _ core.Provider = (*GA4)(nil)
