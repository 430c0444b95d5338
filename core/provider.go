package core

import "context"

// Provider is the adapter contract the facade consumes. Implementations
// format and transmit events to one analytics backend (Umami, Plausible,
// GA4, ...). Providers SHOULD be safe for concurrent calls.
//
// Transport, retry policy, and payload schemas are provider territory;
// the core only decides whether and when a call reaches a provider.
type Provider interface {
	// Name returns the provider identifier (e.g. "umami", "plausible").
	Name() string

	// Track sends a named custom event with optional properties.
	Track(ctx context.Context, name string, props Props, page *PageContext) error

	// Pageview sends a page/screen view.
	Pageview(ctx context.Context, page *PageContext) error

	// Identify associates events with a user ID. An empty ID clears the
	// association.
	Identify(ctx context.Context, userID string, page *PageContext) error

	// Destroy releases provider resources. Called at most once by the
	// lifecycle wrapper.
	Destroy() error
}

// Initializer is an optional interface for providers that need async
// setup before they can deliver events.
type Initializer interface {
	Init(ctx context.Context) error
}

// NavigationNotifier is an optional interface for providers that detect
// SPA-style navigation changes themselves. The facade routes the reported
// page context back through its own consent gate as a pageview.
type NavigationNotifier interface {
	SetNavigationCallback(fn func(page *PageContext))
}

// noopProvider is the fallback installed when a configured provider fails
// to construct or initialize, keeping the public call surface non-throwing.
type noopProvider struct{}

func (noopProvider) Name() string { return "noop" }

func (noopProvider) Track(context.Context, string, Props, *PageContext) error { return nil }

func (noopProvider) Pageview(context.Context, *PageContext) error { return nil }

func (noopProvider) Identify(context.Context, string, *PageContext) error { return nil }

func (noopProvider) Destroy() error { return nil }
