// Package providers contains analytics backend adapters for trackkit.
//
// Each adapter is implemented in its own subpackage (e.g., providers/umami,
// providers/plausible). Adapters implement the core.Provider interface:
//
//	type Provider interface {
//	    Name() string
//	    Track(ctx context.Context, name string, props core.Props, page *core.PageContext) error
//	    Pageview(ctx context.Context, page *core.PageContext) error
//	    Identify(ctx context.Context, userID string, page *core.PageContext) error
//	    Destroy() error
//	}
//
// Adapters that need async setup additionally implement core.Initializer;
// adapters that detect SPA navigation themselves implement
// core.NavigationNotifier.
//
// # Concurrency
//
// Adapters SHOULD be safe for concurrent calls. If an adapter cannot be
// concurrent-safe, it MUST document this limitation.
//
// # Transport
//
// Payload formatting, HTTP delivery, and retry/backoff policy are adapter
// territory; the core facade only decides whether and when a call reaches
// an adapter. The shared delivery path lives in
// providers/internal/transport.
package providers

import "github.com/trackkit/trackkit-go/core"

// Re-export core types for convenience.
// Adapter implementations can import just the providers package.
type (
	// Provider is the interface that analytics adapters must implement.
	Provider = core.Provider

	// ProviderConfig is the common configuration handed to factories.
	ProviderConfig = core.ProviderConfig

	// Props carries custom event properties.
	Props = core.Props

	// PageContext describes the page or screen a call was recorded on.
	PageContext = core.PageContext

	// Secret wraps adapter credentials against accidental logging.
	Secret = core.Secret
)

// Re-export sentinel errors.
var (
	ErrNetwork      = core.ErrNetwork
	ErrNotSupported = core.ErrNotSupported
)
