package core

import "sync"

// ConsentStatus is the current position of the consent state machine.
type ConsentStatus string

const (
	ConsentPending ConsentStatus = "pending"
	ConsentGranted ConsentStatus = "granted"
	ConsentDenied  ConsentStatus = "denied"
)

// ConsentMethod records how a granted/denied status was reached.
type ConsentMethod string

const (
	ConsentExplicit ConsentMethod = "explicit"
	ConsentImplicit ConsentMethod = "implicit"
)

// ConsentConfig configures a ConsentManager.
type ConsentConfig struct {
	// InitialStatus is used when no persisted record applies.
	// Defaults to ConsentPending.
	InitialStatus ConsentStatus

	// RequireExplicit disables implicit promotion: when false, the first
	// gated call promotes a pending status to granted with method
	// "implicit".
	RequireExplicit bool

	// AllowEssentialOnDenied lets essential-category calls through a
	// denied consent state.
	AllowEssentialOnDenied bool

	// PolicyVersion invalidates persisted consent when bumped: a stored
	// record with a different version is discarded on load.
	PolicyVersion string

	// StorageKey keys the persisted record. Defaults to
	// DefaultConsentStorageKey.
	StorageKey string

	// Store persists consent across sessions. Nil disables persistence.
	Store ConsentStore

	// DisablePersistence keeps consent in memory even if Store is set.
	DisablePersistence bool
}

// ConsentSnapshot is a read-only copy of the manager's state.
type ConsentSnapshot struct {
	Status              ConsentStatus
	Method              ConsentMethod
	PolicyVersion       string
	QueuedEvents        int
	DroppedEventsDenied int
	UpdatedAt           int64
}

// ConsentChangeFunc observes consent transitions. It receives the new and
// previous status; repeated identical transitions are still delivered
// (de-duplication is the subscriber's concern).
type ConsentChangeFunc func(status, previous ConsentStatus)

// ConsentManager tracks and persists the consent state machine that gates
// event delivery. Transitions happen only through explicit calls; there
// is no automatic timeout.
//
// Storage failures never propagate: a failing store degrades the manager
// to in-memory-only operation.
type ConsentManager struct {
	mu            sync.Mutex
	cfg           ConsentConfig
	status        ConsentStatus
	method        ConsentMethod
	updatedAt     int64
	queued        int
	droppedDenied int
	nextSubID     int
	subs          map[int]ConsentChangeFunc
}

// NewConsentManager creates a manager, loading any persisted record whose
// policy version matches the configured one. A stale or missing record
// falls back to cfg.InitialStatus.
func NewConsentManager(cfg ConsentConfig) *ConsentManager {
	if cfg.InitialStatus == "" {
		cfg.InitialStatus = ConsentPending
	}
	if cfg.StorageKey == "" {
		cfg.StorageKey = DefaultConsentStorageKey
	}
	m := &ConsentManager{
		cfg:       cfg,
		status:    cfg.InitialStatus,
		updatedAt: nowMillis(),
		subs:      make(map[int]ConsentChangeFunc),
	}
	if cfg.Store != nil && !cfg.DisablePersistence {
		rec, err := cfg.Store.Load(cfg.StorageKey)
		if err == nil && rec != nil && rec.PolicyVersion == cfg.PolicyVersion {
			m.status = rec.Status
			m.method = ConsentExplicit
			m.updatedAt = rec.UpdatedAt
		}
	}
	return m
}

// Grant transitions to granted with method "explicit".
func (m *ConsentManager) Grant() {
	m.transition(ConsentGranted, ConsentExplicit)
}

// Deny transitions to denied.
func (m *ConsentManager) Deny() {
	m.transition(ConsentDenied, ConsentExplicit)
}

// Reset returns the machine to pending and removes the persisted record.
func (m *ConsentManager) Reset() {
	m.mu.Lock()
	prev := m.status
	m.status = ConsentPending
	m.method = ""
	m.updatedAt = nowMillis()
	subs := m.subscribers()
	store, key := m.storeForWrite()
	m.mu.Unlock()

	if store != nil {
		_ = store.Delete(key)
	}
	for _, fn := range subs {
		fn(ConsentPending, prev)
	}
}

// PromoteImplicitIfAllowed grants consent with method "implicit" when
// consent mode is implicit and status is still pending. No-op otherwise.
// Intended to run on the first non-essential call site invocation.
func (m *ConsentManager) PromoteImplicitIfAllowed() {
	m.mu.Lock()
	if m.cfg.RequireExplicit || m.status != ConsentPending {
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()
	m.transition(ConsentGranted, ConsentImplicit)
}

func (m *ConsentManager) transition(status ConsentStatus, method ConsentMethod) {
	m.mu.Lock()
	prev := m.status
	m.status = status
	m.method = method
	m.updatedAt = nowMillis()
	rec := ConsentRecord{
		Status:        status,
		PolicyVersion: m.cfg.PolicyVersion,
		UpdatedAt:     m.updatedAt,
	}
	subs := m.subscribers()
	store, key := m.storeForWrite()
	m.mu.Unlock()

	if store != nil {
		// Storage failures degrade to in-memory-only operation.
		_ = store.Save(key, rec)
	}
	for _, fn := range subs {
		fn(status, prev)
	}
}

// subscribers returns the current listeners in registration order.
// Callers must hold m.mu.
func (m *ConsentManager) subscribers() []ConsentChangeFunc {
	out := make([]ConsentChangeFunc, 0, len(m.subs))
	for id := 0; id < m.nextSubID; id++ {
		if fn, ok := m.subs[id]; ok {
			out = append(out, fn)
		}
	}
	return out
}

func (m *ConsentManager) storeForWrite() (ConsentStore, string) {
	if m.cfg.Store == nil || m.cfg.DisablePersistence {
		return nil, ""
	}
	return m.cfg.Store, m.cfg.StorageKey
}

// IsGranted reports whether a call in the given category may be delivered
// right now. Pending always gates (callers must queue); denied lets only
// essential calls through, and only when AllowEssentialOnDenied is set.
func (m *ConsentManager) IsGranted(category ConsentCategory) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch m.status {
	case ConsentGranted:
		return true
	case ConsentDenied:
		return m.cfg.AllowEssentialOnDenied && category == CategoryEssential
	default:
		return false
	}
}

// Status returns the current consent status.
func (m *ConsentManager) Status() ConsentStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// IncrementQueued bumps the diagnostic counter of queued events.
func (m *ConsentManager) IncrementQueued() {
	m.mu.Lock()
	m.queued++
	m.mu.Unlock()
}

// IncrementDroppedDenied bumps the diagnostic counter of events dropped
// under denied consent.
func (m *ConsentManager) IncrementDroppedDenied() {
	m.mu.Lock()
	m.droppedDenied++
	m.mu.Unlock()
}

// OnChange registers a transition listener and returns a disposer that
// removes exactly that listener.
func (m *ConsentManager) OnChange(fn ConsentChangeFunc) (unsubscribe func()) {
	m.mu.Lock()
	id := m.nextSubID
	m.nextSubID++
	m.subs[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

// Snapshot returns a read-only copy of the manager's state.
func (m *ConsentManager) Snapshot() ConsentSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return ConsentSnapshot{
		Status:              m.status,
		Method:              m.method,
		PolicyVersion:       m.cfg.PolicyVersion,
		QueuedEvents:        m.queued,
		DroppedEventsDenied: m.droppedDenied,
		UpdatedAt:           m.updatedAt,
	}
}
