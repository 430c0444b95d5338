package core

import (
	"encoding/json"
	"runtime"
	"sync"

	"github.com/google/uuid"
)

// SSRQueueGlobal is the name of the browser global the serialized queue is
// assigned to, consumed exactly once by the client-side snippet.
const SSRQueueGlobal = "__TRACKKIT_SSR_QUEUE__"

// Environment selects how the facade decides between server-side
// buffering and client-side delivery.
type Environment string

const (
	// EnvAuto treats js/wasm builds as client runtime and everything else
	// as server-side rendering.
	EnvAuto Environment = ""
	// EnvServer forces server-side behavior: gated calls with no provider
	// go to the SSR queue.
	EnvServer Environment = "server"
	// EnvClient forces client behavior: the SSR queue is bypassed.
	EnvClient Environment = "client"
)

// ssrSlot is the single process-wide arena cell that bridges server-side
// recorded calls into the client session. Its contract is single-producer/
// single-consumer: the server appends, the client takes exactly once.
type ssrSlot struct {
	mu      sync.Mutex
	entries []Call
}

var ssrQueue ssrSlot

// isClientRuntime reports whether this build runs inside a browser.
func isClientRuntime(env Environment) bool {
	switch env {
	case EnvServer:
		return false
	case EnvClient:
		return true
	default:
		return runtime.GOOS == "js" && runtime.GOARCH == "wasm"
	}
}

// EnqueueSSREvent appends a call to the process-wide SSR queue. It is a
// no-op in a client runtime, where the local EventQueue applies instead.
// The assigned entry ID is returned when the call was accepted.
func EnqueueSSREvent(env Environment, call Call) string {
	if isClientRuntime(env) {
		return ""
	}
	if call.ID == "" {
		call.ID = uuid.NewString()
	}
	if call.Timestamp == 0 {
		call.Timestamp = nowMillis()
	}
	ssrQueue.mu.Lock()
	ssrQueue.entries = append(ssrQueue.entries, call)
	ssrQueue.mu.Unlock()
	return call.ID
}

// SerializeSSRQueue renders the current SSR queue as an inline script tag
// assigning the queue to window.__TRACKKIT_SSR_QUEUE__. The JSON encoder
// escapes <, > and & to unicode sequences, so the payload cannot terminate
// the surrounding script element early. Serialization does not drain the
// queue; HydrateSSRQueue does.
func SerializeSSRQueue() string {
	ssrQueue.mu.Lock()
	entries := make([]Call, len(ssrQueue.entries))
	copy(entries, ssrQueue.entries)
	ssrQueue.mu.Unlock()

	payload, err := json.Marshal(entries)
	if err != nil {
		payload = []byte("[]")
	}
	return "<script>window." + SSRQueueGlobal + " = " + string(payload) + ";</script>"
}

// HydrateSSRQueue drains the SSR queue: it returns the queued entries in
// insertion order and clears the slot, so an immediate second call
// returns nil. Safe to call in any runtime; it never panics when no
// queue was ever populated.
func HydrateSSRQueue() []Call {
	ssrQueue.mu.Lock()
	entries := ssrQueue.entries
	ssrQueue.entries = nil
	ssrQueue.mu.Unlock()
	return entries
}

// DecodeSSRPayload parses a JSON queue payload previously embedded by
// SerializeSSRQueue, for hosts that ship the payload across the
// server/client boundary themselves.
func DecodeSSRPayload(data []byte) ([]Call, error) {
	var entries []Call
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
