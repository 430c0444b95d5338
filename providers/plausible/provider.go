// Package plausible implements the trackkit adapter for Plausible
// Analytics (https://plausible.io) via the /api/event endpoint.
package plausible

import (
	"context"
	"strings"
	"sync"

	"github.com/trackkit/trackkit-go/core"
	"github.com/trackkit/trackkit-go/providers/internal/transport"
)

const (
	defaultUserAgent = "trackkit-go/1.0"

	// pageviewEvent is Plausible's reserved event name for page views.
	pageviewEvent = "pageview"
)

// Plausible is an analytics adapter for the Plausible Events API.
// Plausible is safe for concurrent use.
type Plausible struct {
	config    Config
	transport *transport.Client

	mu     sync.Mutex
	userID string
}

// New creates a new Plausible adapter for the given site domain.
func New(domain string, opts ...Option) *Plausible {
	cfg := Config{
		Domain:    domain,
		Host:      DefaultHost,
		UserAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	topts := []transport.Option{
		transport.WithHeader("User-Agent", cfg.UserAgent),
		transport.WithRetry(cfg.Retry),
	}
	if cfg.HTTPClient != nil {
		topts = append(topts, transport.WithHTTPClient(cfg.HTTPClient))
	}

	return &Plausible{
		config:    cfg,
		transport: transport.New("plausible", topts...),
	}
}

// Name returns the adapter identifier.
func (p *Plausible) Name() string {
	return "plausible"
}

// eventPayload is the body of POST /api/event.
type eventPayload struct {
	Domain   string     `json:"domain"`
	Name     string     `json:"name"`
	URL      string     `json:"url"`
	Referrer string     `json:"referrer,omitempty"`
	Props    core.Props `json:"props,omitempty"`
}

func (p *Plausible) endpoint() string {
	return strings.TrimSuffix(p.config.Host, "/") + "/api/event"
}

func (p *Plausible) payload(name string, props core.Props, page *core.PageContext) eventPayload {
	out := eventPayload{
		Domain: p.config.Domain,
		Name:   name,
		URL:    "app://localhost/",
	}
	if page != nil {
		if page.URL != "" {
			out.URL = page.URL
		} else if page.Path != "" {
			out.URL = "https://" + p.config.Domain + page.Path
		}
		out.Referrer = page.Referrer
	}

	p.mu.Lock()
	userID := p.userID
	p.mu.Unlock()
	if userID != "" {
		// Plausible has no first-class user identity; surface it as a
		// custom property.
		merged := make(core.Props, len(props)+1)
		for k, v := range props {
			merged[k] = v
		}
		merged["user_id"] = userID
		props = merged
	}
	out.Props = props
	return out
}

// Track sends a named custom event.
func (p *Plausible) Track(ctx context.Context, name string, props core.Props, page *core.PageContext) error {
	return p.transport.PostJSON(ctx, p.endpoint(), p.payload(name, props, page))
}

// Pageview sends Plausible's reserved pageview event.
func (p *Plausible) Pageview(ctx context.Context, page *core.PageContext) error {
	return p.transport.PostJSON(ctx, p.endpoint(), p.payload(pageviewEvent, nil, page))
}

// Identify stores the user ID for attachment to subsequent events as a
// user_id prop. Plausible is cookieless and has no identify endpoint, so
// nothing is transmitted here.
func (p *Plausible) Identify(_ context.Context, userID string, _ *core.PageContext) error {
	p.mu.Lock()
	p.userID = userID
	p.mu.Unlock()
	return nil
}

// Destroy releases adapter resources.
func (p *Plausible) Destroy() error {
	p.mu.Lock()
	p.userID = ""
	p.mu.Unlock()
	return nil
}

// Compile-time check that Plausible implements core.Provider.
var _ core.Provider = (*Plausible)(nil)
