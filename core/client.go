package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ProviderFactory constructs the adapter when the facade initializes.
// Deferring construction keeps NewClient synchronous and lets the facade
// classify construction failures itself.
type ProviderFactory func() (Provider, error)

// ProviderConfig is the common configuration handed to registry factories.
// Adapter-specific knobs live in each adapter's functional options.
type ProviderConfig struct {
	// SiteID identifies the site/property at the backend (website ID,
	// domain, measurement ID).
	SiteID string

	// Host overrides the backend endpoint for self-hosted instances.
	Host string

	// APISecret authenticates providers that need one (GA4).
	APISecret Secret
}

// Config configures a Client.
type Config struct {
	// ProviderName is the requested adapter's identifier. Used to tag
	// errors even when construction fails, and to detect disagreeing
	// repeated Init calls.
	ProviderName string

	// Provider constructs the adapter at Init time, typically a closure
	// over providers.Create. Nil yields an INVALID_CONFIG error and the
	// no-op fallback.
	Provider ProviderFactory

	// SiteID and Host mirror the provider configuration for diagnostics
	// and repeated-Init comparison.
	SiteID string
	Host   string

	// QueueSize bounds the pre-ready/pre-consent buffer.
	// Defaults to DefaultQueueSize.
	QueueSize int

	// Environment selects server-side vs client behavior. EnvAuto treats
	// js/wasm builds as client.
	Environment Environment

	// Consent configures the consent gate.
	Consent ConsentConfig

	// OnError receives every normalized SDK failure. Optional.
	OnError ErrorHandler

	// Diagnostics receives operational events. Optional.
	Diagnostics DiagnosticsHook
}

// Client is the single analytics entry point. Call sites may invoke
// Track/Pageview/Identify at any time (before Init, before consent is
// known, during server-side rendering, while a previous provider is torn
// down) and never observe a panic or an error return. Whether and
// when a call reaches the provider is decided by the consent gate and the
// provider lifecycle; gated calls buffer in the EventQueue (or the SSR
// queue when no client runtime exists) and replay in FIFO order.
//
// Construct one Client per process (or per test); there is no package
// singleton.
type Client struct {
	mu       sync.Mutex
	cfg      Config
	consent  *ConsentManager
	queue    *EventQueue
	provider *StatefulProvider
	initDone chan struct{}
	unsub    func()

	diag    DiagnosticsHook
	onError ErrorHandler
}

// NewClient creates a facade in pre-init state: consent gate and queue are
// live immediately, so calls made before Init buffer correctly.
func NewClient(cfg Config) *Client {
	c := &Client{
		cfg:     cfg,
		diag:    cfg.Diagnostics,
		onError: cfg.OnError,
	}
	if c.diag == nil {
		c.diag = NoopDiagnosticsHook{}
	}
	c.attach()
	return c
}

// attach builds a fresh consent manager and queue, starting an independent
// lifecycle. Used at construction and after Destroy.
func (c *Client) attach() {
	consent := NewConsentManager(c.cfg.Consent)
	queue := NewEventQueue(QueueConfig{
		MaxSize:    c.cfg.QueueSize,
		OnOverflow: c.onOverflow,
	})
	unsub := consent.OnChange(func(status, previous ConsentStatus) {
		c.onConsentChange(consent, status, previous)
	})

	c.mu.Lock()
	c.consent = consent
	c.queue = queue
	c.unsub = unsub
	c.mu.Unlock()
}

// Init attaches and initializes the configured provider. It returns
// immediately; adapter setup runs asynchronously and queued calls flush
// when the provider reports ready. Repeated calls are ignored; passing a
// Config that disagrees on ProviderName/SiteID/Host/QueueSize additionally
// reports an INVALID_CONFIG warning.
func (c *Client) Init(ctx context.Context, override ...Config) {
	defer c.recovered()

	c.mu.Lock()
	if c.provider != nil {
		cur := c.cfg
		c.mu.Unlock()
		if len(override) > 0 && configDisagrees(cur, override[0]) {
			c.reportError(newError(ErrCodeInvalidConfig, cur.ProviderName,
				"init ignored: facade already initialized with a different configuration", nil))
		}
		return
	}
	factory := c.cfg.Provider
	requested := c.cfg.ProviderName
	c.mu.Unlock()

	adapter, constructErr := construct(factory)
	if constructErr != nil {
		code := ErrCodeInitFailed
		var typed *Error
		if errors.As(constructErr, &typed) && typed.Code == ErrCodeInvalidConfig {
			code = ErrCodeInvalidConfig
		}
		c.reportError(newError(code, requested, "provider unavailable, falling back to no-op", constructErr))
		adapter = noopProvider{}
	}

	sp := NewStatefulProvider(adapter)
	done := make(chan struct{})
	c.mu.Lock()
	c.provider = sp
	c.initDone = done
	c.mu.Unlock()

	if nn, ok := adapter.(NavigationNotifier); ok {
		nn.SetNavigationCallback(func(page *PageContext) {
			// Navigation from a torn-down provider must not leak into a
			// newer lifecycle.
			if c.currentProvider() != sp {
				return
			}
			c.Pageview(page)
		})
	}

	sp.OnReady(func() {
		c.diag.OnLifecycle(LifecycleEvent{Provider: sp.Name(), From: StateInitializing, To: StateReady})
		c.flushFor(sp)
	})

	go func() {
		defer close(done)
		if err := sp.Init(ctx); err != nil && !errors.Is(err, ErrDestroyed) {
			c.reportError(newError(ErrCodeInitFailed, requested, "provider init failed, falling back to no-op", err))
			c.diag.OnLifecycle(LifecycleEvent{Provider: sp.Name(), From: StateInitializing, To: StateError})
			c.swapToNoop(sp)
		}
	}()
}

// construct invokes the factory, converting a nil factory or a factory
// panic into an error.
func construct(factory ProviderFactory) (adapter Provider, err error) {
	if factory == nil {
		return nil, newError(ErrCodeInvalidConfig, "", "no provider configured", nil)
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("provider factory panicked: %v", r)
		}
	}()
	adapter, err = factory()
	if err == nil && adapter == nil {
		err = errors.New("provider factory returned nil")
	}
	return adapter, err
}

func configDisagrees(a, b Config) bool {
	return a.ProviderName != b.ProviderName ||
		a.SiteID != b.SiteID ||
		a.Host != b.Host ||
		a.QueueSize != b.QueueSize
}

// swapToNoop replaces a failed lifecycle with a ready no-op provider so
// the public surface stays callable and queued events drain.
func (c *Client) swapToNoop(failed *StatefulProvider) {
	noop := NewStatefulProvider(noopProvider{})
	c.mu.Lock()
	if c.provider != failed {
		c.mu.Unlock()
		return
	}
	c.provider = noop
	c.mu.Unlock()

	noop.OnReady(func() { c.flushFor(noop) })
	_ = noop.Init(context.Background())
}

// Track records a named custom event.
func (c *Client) Track(name string, props Props) {
	defer c.recovered()
	c.exec(Call{Type: CallTrack, Name: name, Props: props, Timestamp: nowMillis()}, false)
}

// Pageview records a page/screen view.
func (c *Client) Pageview(page *PageContext) {
	defer c.recovered()
	c.exec(Call{Type: CallPageview, Page: page, Timestamp: nowMillis()}, false)
}

// Identify associates subsequent events with a user ID. An empty ID
// clears the association. Identify is essential-category by default.
func (c *Client) Identify(userID string) {
	defer c.recovered()
	c.exec(Call{Type: CallIdentify, UserID: userID, Timestamp: nowMillis()}, false)
}

// Record submits a fully specified call, for call sites that need to set
// the consent category or page context explicitly.
func (c *Client) Record(call Call) {
	defer c.recovered()
	if call.Timestamp == 0 {
		call.Timestamp = nowMillis()
	}
	c.exec(call, false)
}

// exec is the synchronous decision procedure every call goes through,
// live or replayed:
//
//  1. No provider attached: server-side calls go to the SSR queue;
//     otherwise denied consent drops (unless essential is allowed) and
//     anything else buffers in the EventQueue.
//  2. Provider attached: the consent gate decides between immediate
//     forwarding, dropping (denied), and buffering (pending).
func (c *Client) exec(call Call, replayed bool) {
	c.mu.Lock()
	provider := c.provider
	consent := c.consent
	env := c.cfg.Environment
	c.mu.Unlock()

	if provider == nil && !isClientRuntime(env) {
		EnqueueSSREvent(env, call)
		return
	}

	category := call.category()
	if category != CategoryEssential {
		consent.PromoteImplicitIfAllowed()
	}

	if provider != nil && provider.State() == StateReady && consent.IsGranted(category) {
		c.forward(provider, call, replayed)
		return
	}

	if consent.Status() == ConsentDenied && !consent.IsGranted(category) {
		consent.IncrementDroppedDenied()
		return
	}

	// Pending consent, denied-but-essential, or no provider yet: buffer.
	consent.IncrementQueued()
	c.enqueue(call)
}

func (c *Client) enqueue(call Call) {
	c.mu.Lock()
	queue := c.queue
	c.mu.Unlock()
	queue.Enqueue(call)
}

// forward dispatches one call to the provider. The call type tag is
// matched exhaustively; there is no reflective dispatch. Failures are
// reported on the error channel and never abort the caller.
func (c *Client) forward(provider *StatefulProvider, call Call, replayed bool) {
	ctx := context.Background()
	start := time.Now()

	var err error
	switch call.Type {
	case CallTrack:
		err = provider.Track(ctx, call.Name, call.Props, call.Page)
	case CallPageview:
		err = provider.Pageview(ctx, call.Page)
	case CallIdentify:
		err = provider.Identify(ctx, call.UserID, call.Page)
	default:
		err = fmt.Errorf("%w: call type %q", ErrNotSupported, call.Type)
	}

	c.diag.OnDelivery(DeliveryEvent{
		Provider: provider.Name(),
		Type:     call.Type,
		Replayed: replayed,
		Start:    start,
		End:      time.Now(),
		Err:      err,
	})

	if err == nil {
		return
	}
	if errors.Is(err, ErrNotReady) {
		// Lost the race against a lifecycle change; buffer for the next
		// flush instead of dropping.
		c.enqueue(call)
		return
	}
	code := ErrCodeProviderError
	if errors.Is(err, ErrNetwork) {
		code = ErrCodeNetworkError
	}
	c.reportError(newError(code, provider.Name(), fmt.Sprintf("%s delivery failed", call.Type), err))
}

// onConsentChange reacts to consent transitions of the lifecycle the
// subscription belongs to. Granting flushes; denying clears the local
// queue (essential entries survive only when configured to bypass denied
// consent). The SSR queue is never cleared retroactively.
func (c *Client) onConsentChange(consent *ConsentManager, status, previous ConsentStatus) {
	c.diag.OnConsentChange(ConsentChangeEvent{Status: status, Previous: previous})

	if c.currentConsent() != consent {
		return
	}

	switch status {
	case ConsentGranted:
		c.FlushIfReady()
	case ConsentDenied:
		c.mu.Lock()
		queue := c.queue
		allowEssential := c.cfg.Consent.AllowEssentialOnDenied
		c.mu.Unlock()

		var dropped []Call
		if allowEssential {
			dropped = queue.Remove(func(call Call) bool {
				return call.category() != CategoryEssential
			})
		} else {
			dropped = queue.Flush()
		}
		for range dropped {
			consent.IncrementDroppedDenied()
		}
	}
}

// FlushIfReady drains the SSR queue and then the local queue, each FIFO,
// and replays every entry through the live exec path, so a
// call still blocked by current policy is re-gated rather than bypassed.
// No-op unless a ready provider is attached and consent permits delivery.
func (c *Client) FlushIfReady() {
	defer c.recovered()
	c.mu.Lock()
	provider := c.provider
	c.mu.Unlock()
	if provider == nil {
		return
	}
	c.flushFor(provider)
}

// flushFor replays queued calls against one specific lifecycle, so a
// flush triggered by an old provider's readiness cannot deliver into a
// newer lifecycle (or vice versa).
func (c *Client) flushFor(provider *StatefulProvider) {
	c.mu.Lock()
	current := c.provider
	consent := c.consent
	queue := c.queue
	allowEssential := c.cfg.Consent.AllowEssentialOnDenied
	c.mu.Unlock()

	if current != provider || provider.State() != StateReady {
		return
	}
	switch consent.Status() {
	case ConsentGranted:
	case ConsentDenied:
		if !allowEssential {
			return
		}
	default:
		return
	}

	// Drain first so one trigger produces exactly one replay pass; replay
	// re-queues anything the gate still blocks.
	pending := HydrateSSRQueue()
	pending = append(pending, queue.Flush()...)
	for _, call := range pending {
		c.exec(call, true)
	}
}

// WaitForReady blocks until this lifecycle's init settles or ctx is done.
// After an init failure it waits for the no-op fallback instead, so a nil
// return means the facade can deliver (possibly nowhere). It returns
// ErrNotReady when Init has not been called.
func (c *Client) WaitForReady(ctx context.Context) error {
	c.mu.Lock()
	done := c.initDone
	c.mu.Unlock()
	if done == nil {
		return ErrNotReady
	}
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	provider := c.currentProvider()
	if provider == nil {
		return ErrDestroyed
	}
	return provider.WaitForReady(ctx)
}

// GrantConsent transitions consent to granted, flushing queued calls if
// the provider is ready.
func (c *Client) GrantConsent() {
	defer c.recovered()
	c.currentConsent().Grant()
}

// DenyConsent transitions consent to denied and clears the local queue.
func (c *Client) DenyConsent() {
	defer c.recovered()
	c.currentConsent().Deny()
}

// ResetConsent returns consent to pending and removes the persisted record.
func (c *Client) ResetConsent() {
	defer c.recovered()
	c.currentConsent().Reset()
}

// ConsentSnapshot returns the current consent diagnostics.
func (c *Client) ConsentSnapshot() ConsentSnapshot {
	return c.currentConsent().Snapshot()
}

// QueueState returns the current queue diagnostics.
func (c *Client) QueueState() QueueState {
	c.mu.Lock()
	queue := c.queue
	c.mu.Unlock()
	return queue.State()
}

// ProviderSnapshot returns the lifecycle transcript of the current
// provider, or a zero snapshot before Init.
func (c *Client) ProviderSnapshot() LifecycleSnapshot {
	c.mu.Lock()
	provider := c.provider
	c.mu.Unlock()
	if provider == nil {
		return LifecycleSnapshot{State: StateIdle}
	}
	return provider.Snapshot()
}

// Destroy tears down the current provider, clears the queue, detaches the
// consent manager, and resets the facade to pre-init state. A subsequent
// Init starts a fully independent lifecycle; old and new providers never
// double-deliver. Destroy errors are reported, not propagated.
func (c *Client) Destroy() {
	defer c.recovered()

	c.mu.Lock()
	provider := c.provider
	queue := c.queue
	unsub := c.unsub
	c.provider = nil
	c.initDone = nil
	c.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	queue.Flush()
	c.attach()

	if provider != nil {
		if err := provider.Destroy(); err != nil {
			c.reportError(newError(ErrCodeProviderError, provider.Name(), "provider destroy failed", err))
		}
		c.diag.OnLifecycle(LifecycleEvent{Provider: provider.Name(), To: StateDestroyed})
	}
}

func (c *Client) currentProvider() *StatefulProvider {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.provider
}

func (c *Client) currentConsent() *ConsentManager {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.consent
}

// onOverflow reports queue evictions: informational on the error channel,
// counted in diagnostics.
func (c *Client) onOverflow(dropped []Call) {
	c.diag.OnQueueOverflow(OverflowEvent{Dropped: len(dropped), Size: c.QueueState().Size})
	c.reportError(newError(ErrCodeQueueOverflow, c.cfg.ProviderName,
		fmt.Sprintf("%d queued event(s) evicted at capacity", len(dropped)), nil))
}

// reportError routes a normalized failure to the host error callback. A
// panicking callback is recovered; host mistakes never reach call sites.
func (c *Client) reportError(err *Error) {
	handler := c.onError
	if handler == nil {
		return
	}
	defer func() { _ = recover() }()
	handler(err)
}

// recovered keeps the public surface non-throwing: any internal panic is
// normalized onto the error channel.
func (c *Client) recovered() {
	if r := recover(); r != nil {
		c.reportError(newError(ErrCodeProviderError, c.cfg.ProviderName,
			fmt.Sprintf("internal panic recovered: %v", r), nil))
	}
}
