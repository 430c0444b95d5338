package core

import "time"

// DiagnosticsHook receives notifications about SDK-internal activity.
// Implementations can use this for logging, metrics, or devtools.
//
// Event types are designed to never include sensitive data: no event
// properties, no user IDs, no credentials. Only operational metadata is
// exposed (provider name, call type, counts, timing). Keep it that way
// when extending this interface.
type DiagnosticsHook interface {
	// OnDelivery is called after a call was forwarded to a provider.
	OnDelivery(e DeliveryEvent)

	// OnQueueOverflow is called when the event queue evicted entries.
	OnQueueOverflow(e OverflowEvent)

	// OnConsentChange is called after every consent transition.
	OnConsentChange(e ConsentChangeEvent)

	// OnLifecycle is called on provider lifecycle transitions.
	OnLifecycle(e LifecycleEvent)
}

// DeliveryEvent describes one forwarded call.
type DeliveryEvent struct {
	Provider string
	Type     CallType
	Replayed bool // true when delivered from a queue flush
	Start    time.Time
	End      time.Time
	Err      error
}

// Duration returns the elapsed delivery time.
func (e DeliveryEvent) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// OverflowEvent reports queue evictions.
type OverflowEvent struct {
	Dropped int
	Size    int
}

// ConsentChangeEvent reports one consent transition.
type ConsentChangeEvent struct {
	Status   ConsentStatus
	Previous ConsentStatus
}

// LifecycleEvent reports one provider state transition.
type LifecycleEvent struct {
	Provider string
	From     ProviderState
	To       ProviderState
}

// NoopDiagnosticsHook is a no-op implementation of DiagnosticsHook.
// Use this as a default when no diagnostics are configured.
type NoopDiagnosticsHook struct{}

// OnDelivery does nothing.
func (NoopDiagnosticsHook) OnDelivery(DeliveryEvent) {}

// OnQueueOverflow does nothing.
func (NoopDiagnosticsHook) OnQueueOverflow(OverflowEvent) {}

// OnConsentChange does nothing.
func (NoopDiagnosticsHook) OnConsentChange(ConsentChangeEvent) {}

// OnLifecycle does nothing.
func (NoopDiagnosticsHook) OnLifecycle(LifecycleEvent) {}

// Compile-time check that NoopDiagnosticsHook implements DiagnosticsHook.
var _ DiagnosticsHook = NoopDiagnosticsHook{}
