// Package core provides the trackkit SDK facade and the types every
// provider adapter implements.
//
// trackkit is a client-side analytics facade: one stable entry point that
// host applications can call at any time, even before a backend provider
// is chosen, before user consent is known, during server-side rendering,
// or while a previous provider is torn down, without panics, improper
// event loss, or double delivery.
//
// # Client
//
// The primary entry point is [Client]. Construct one per process and call
// it freely; gated calls buffer and replay in order once the provider is
// ready and consent permits:
//
//	client := core.NewClient(core.Config{
//	    ProviderName: "umami",
//	    Provider: func() (core.Provider, error) {
//	        return providers.Create("umami", core.ProviderConfig{
//	            SiteID: "9f2c...",
//	            Host:   "https://stats.example.com",
//	        })
//	    },
//	    Consent: core.ConsentConfig{RequireExplicit: true},
//	})
//	client.Init(ctx)
//
//	client.Track("signup", core.Props{"plan": "pro"})
//	client.Pageview(&core.PageContext{Path: "/pricing"})
//	client.GrantConsent() // queued calls flush here, FIFO
//
// # Delivery pipeline
//
// Every call runs the same synchronous decision procedure: the consent
// gate decides between forwarding to the [StatefulProvider], dropping
// (denied consent), and buffering in the [EventQueue]. Server-side calls
// recorded before a provider is attached go to the process-wide SSR queue
// instead and hand off to the client session exactly once; see
// [SerializeSSRQueue] and [HydrateSSRQueue].
//
// Three triggers flush the buffers, each producing at most one replay
// pass: the provider becoming ready, consent transitioning to granted,
// and an explicit [Client.FlushIfReady]. Replayed calls go through the
// live gate again, so a call blocked by a policy change is re-queued, not
// bypassed.
//
// # Errors
//
// Public methods never return errors and never panic. Failures are
// normalized into [Error] values and delivered to the configured
// [ErrorHandler]; a failed provider is replaced by a no-op fallback so
// the surface stays callable indefinitely.
package core
