package core

import (
	"context"
	"sync"
	"time"
)

// ProviderState is the lifecycle position of a StatefulProvider.
// Transitions are monotonic: error and destroyed are terminal for the
// instance; retrying requires constructing a new StatefulProvider.
type ProviderState string

const (
	StateIdle         ProviderState = "idle"
	StateInitializing ProviderState = "initializing"
	StateReady        ProviderState = "ready"
	StateError        ProviderState = "error"
	StateDestroyed    ProviderState = "destroyed"
)

// StateTransition is one recorded lifecycle step.
type StateTransition struct {
	From ProviderState
	To   ProviderState
	At   time.Time
}

// LifecycleSnapshot is a diagnostic transcript of a StatefulProvider, for
// tests and devtools.
type LifecycleSnapshot struct {
	State   ProviderState
	History []StateTransition
}

// StatefulProvider wraps exactly one Provider adapter with a lifecycle
// state machine and a ready-callback list. It does not buffer calls;
// buffering is the EventQueue's job, one layer up.
type StatefulProvider struct {
	mu        sync.Mutex
	adapter   Provider
	state     ProviderState
	history   []StateTransition
	initErr   error
	done      chan struct{}
	destroyed bool // adapter.Destroy issued
	pending   map[int]func()
	nextCBID  int
}

// NewStatefulProvider wraps the given adapter in an idle lifecycle.
func NewStatefulProvider(adapter Provider) *StatefulProvider {
	return &StatefulProvider{
		adapter: adapter,
		state:   StateIdle,
		done:    make(chan struct{}),
		pending: make(map[int]func()),
	}
}

// Name returns the wrapped adapter's identifier.
func (p *StatefulProvider) Name() string {
	return p.adapter.Name()
}

// Adapter returns the wrapped adapter.
func (p *StatefulProvider) Adapter() Provider {
	return p.adapter
}

// transitionLocked records a state change. Callers must hold p.mu.
func (p *StatefulProvider) transitionLocked(to ProviderState) {
	p.history = append(p.history, StateTransition{From: p.state, To: to, At: time.Now()})
	p.state = to
}

// Init runs the adapter's optional async setup. On success the provider
// becomes ready and every registered ready-callback fires exactly once;
// on failure the provider enters the terminal error state and the
// classified error is returned. Init from any state other than idle is a
// no-op returning the recorded outcome.
func (p *StatefulProvider) Init(ctx context.Context) error {
	p.mu.Lock()
	if p.state != StateIdle {
		err := p.initErr
		p.mu.Unlock()
		return err
	}
	p.transitionLocked(StateInitializing)
	adapter := p.adapter
	p.mu.Unlock()

	var initErr error
	if in, ok := adapter.(Initializer); ok {
		initErr = in.Init(ctx)
	}

	p.mu.Lock()
	if p.state != StateInitializing {
		// Destroyed while initializing; the outcome no longer matters.
		p.mu.Unlock()
		return ErrDestroyed
	}
	if initErr != nil {
		p.initErr = newError(ErrCodeProviderError, adapter.Name(), "provider init failed", initErr)
		p.transitionLocked(StateError)
		close(p.done)
		p.mu.Unlock()
		return p.initErr
	}
	p.transitionLocked(StateReady)
	callbacks := make([]func(), 0, len(p.pending))
	for id := 0; id < p.nextCBID; id++ {
		if cb, ok := p.pending[id]; ok {
			callbacks = append(callbacks, cb)
		}
	}
	p.pending = make(map[int]func())
	p.mu.Unlock()

	// Run ready-callbacks before releasing WaitForReady, so waiters
	// observe a fully flushed facade.
	for _, cb := range callbacks {
		cb()
	}
	close(p.done)
	return nil
}

// OnReady registers a callback to fire once the provider is ready. A
// callback registered after readiness is scheduled asynchronously rather
// than invoked inline, keeping caller ordering predictable. The returned
// disposer removes a still-pending callback and is a no-op after delivery.
func (p *StatefulProvider) OnReady(cb func()) (unsubscribe func()) {
	p.mu.Lock()
	if p.state == StateReady {
		p.mu.Unlock()
		go cb()
		return func() {}
	}
	if p.state == StateError || p.state == StateDestroyed {
		p.mu.Unlock()
		return func() {}
	}
	id := p.nextCBID
	p.nextCBID++
	p.pending[id] = cb
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		delete(p.pending, id)
		p.mu.Unlock()
	}
}

// WaitForReady blocks until init settles (ready or error) or ctx is done.
func (p *StatefulProvider) WaitForReady(ctx context.Context) error {
	select {
	case <-p.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == StateReady {
		return nil
	}
	if p.initErr != nil {
		return p.initErr
	}
	return ErrDestroyed
}

// guard returns the adapter when the provider is ready, or a sentinel
// error describing why calls cannot be forwarded.
func (p *StatefulProvider) guard() (Provider, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch p.state {
	case StateReady:
		return p.adapter, nil
	case StateDestroyed:
		return nil, ErrDestroyed
	default:
		return nil, ErrNotReady
	}
}

// Track forwards to the adapter while ready.
func (p *StatefulProvider) Track(ctx context.Context, name string, props Props, page *PageContext) error {
	adapter, err := p.guard()
	if err != nil {
		return err
	}
	return adapter.Track(ctx, name, props, page)
}

// Pageview forwards to the adapter while ready.
func (p *StatefulProvider) Pageview(ctx context.Context, page *PageContext) error {
	adapter, err := p.guard()
	if err != nil {
		return err
	}
	return adapter.Pageview(ctx, page)
}

// Identify forwards to the adapter while ready.
func (p *StatefulProvider) Identify(ctx context.Context, userID string, page *PageContext) error {
	adapter, err := p.guard()
	if err != nil {
		return err
	}
	return adapter.Identify(ctx, userID, page)
}

// State returns the current lifecycle state.
func (p *StatefulProvider) State() ProviderState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Destroy tears the provider down from any state, calling the adapter's
// Destroy exactly once. Repeated calls are no-ops returning nil.
func (p *StatefulProvider) Destroy() error {
	p.mu.Lock()
	if p.destroyed {
		p.mu.Unlock()
		return nil
	}
	p.destroyed = true
	interrupted := p.state == StateIdle || p.state == StateInitializing
	p.transitionLocked(StateDestroyed)
	p.pending = make(map[int]func())
	if interrupted {
		// Release any WaitForReady callers; init will never settle.
		close(p.done)
	}
	adapter := p.adapter
	p.mu.Unlock()

	return adapter.Destroy()
}

// Snapshot returns the lifecycle transcript.
func (p *StatefulProvider) Snapshot() LifecycleSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	history := make([]StateTransition, len(p.history))
	copy(history, p.history)
	return LifecycleSnapshot{State: p.state, History: history}
}
