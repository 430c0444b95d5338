// Package umami implements the trackkit adapter for Umami
// (https://umami.is), covering both Umami Cloud and self-hosted
// instances via the /api/send endpoint.
package umami

import (
	"context"
	"strings"
	"sync"

	"github.com/trackkit/trackkit-go/core"
	"github.com/trackkit/trackkit-go/providers/internal/transport"
)

const defaultUserAgent = "trackkit-go/1.0"

// Umami is an analytics adapter for the Umami API.
// Umami is safe for concurrent use.
type Umami struct {
	config    Config
	transport *transport.Client

	mu     sync.Mutex
	userID string
}

// New creates a new Umami adapter for the given website ID.
func New(websiteID string, opts ...Option) *Umami {
	cfg := Config{
		WebsiteID: websiteID,
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

	return &Umami{
		config:    cfg,
		transport: transport.New("umami", topts...),
	}
}

// Name returns the adapter identifier.
func (p *Umami) Name() string {
	return "umami"
}

// sendPayload is the body of POST /api/send.
type sendPayload struct {
	Type    string       `json:"type"`
	Payload eventPayload `json:"payload"`
}

type eventPayload struct {
	Website  string     `json:"website"`
	URL      string     `json:"url,omitempty"`
	Title    string     `json:"title,omitempty"`
	Referrer string     `json:"referrer,omitempty"`
	Hostname string     `json:"hostname,omitempty"`
	Language string     `json:"language,omitempty"`
	Name     string     `json:"name,omitempty"`
	Data     core.Props `json:"data,omitempty"`
	ID       string     `json:"id,omitempty"`
}

func (p *Umami) endpoint() string {
	return strings.TrimSuffix(p.config.Host, "/") + "/api/send"
}

func (p *Umami) payload(page *core.PageContext) eventPayload {
	out := eventPayload{Website: p.config.WebsiteID}
	if page != nil {
		out.URL = page.URL
		if out.URL == "" {
			out.URL = page.Path
		}
		out.Title = page.Title
		out.Referrer = page.Referrer
		out.Hostname = page.Hostname
		out.Language = page.Language
	}
	p.mu.Lock()
	out.ID = p.userID
	p.mu.Unlock()
	return out
}

// Track sends a named custom event.
func (p *Umami) Track(ctx context.Context, name string, props core.Props, page *core.PageContext) error {
	body := p.payload(page)
	body.Name = name
	body.Data = props
	return p.transport.PostJSON(ctx, p.endpoint(), sendPayload{Type: "event", Payload: body})
}

// Pageview sends a page view.
func (p *Umami) Pageview(ctx context.Context, page *core.PageContext) error {
	return p.transport.PostJSON(ctx, p.endpoint(), sendPayload{Type: "event", Payload: p.payload(page)})
}

// Identify tags the session with a distinct ID. Umami receives it as the
// payload's id field on this and all subsequent events; an empty userID
// clears the association.
func (p *Umami) Identify(ctx context.Context, userID string, page *core.PageContext) error {
	p.mu.Lock()
	p.userID = userID
	p.mu.Unlock()
	if userID == "" {
		return nil
	}
	return p.transport.PostJSON(ctx, p.endpoint(), sendPayload{Type: "identify", Payload: p.payload(page)})
}

// Destroy releases adapter resources. Umami delivery is stateless, so
// this only clears the session association.
func (p *Umami) Destroy() error {
	p.mu.Lock()
	p.userID = ""
	p.mu.Unlock()
	return nil
}

// Compile-time check that Umami implements core.Provider.
var _ core.Provider = (*Umami)(nil)
