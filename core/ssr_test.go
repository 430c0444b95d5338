package core

import (
	"strings"
	"testing"
)

func TestSSRQueue_EnqueueServerOnly(t *testing.T) {
	drainSSRQueue()
	t.Cleanup(drainSSRQueue)

	if id := EnqueueSSREvent(EnvClient, trackCall("client-side")); id != "" {
		t.Errorf("EnqueueSSREvent in client runtime returned %q, want no-op", id)
	}

	id := EnqueueSSREvent(EnvServer, trackCall("server-side"))
	if id == "" {
		t.Fatal("EnqueueSSREvent in server runtime returned empty ID")
	}

	entries := HydrateSSRQueue()
	if len(entries) != 1 || entries[0].Name != "server-side" {
		t.Errorf("hydrated %v, want the single server-side entry", queuedNames(entries))
	}
}

func TestSSRQueue_DrainOnce(t *testing.T) {
	drainSSRQueue()
	t.Cleanup(drainSSRQueue)

	EnqueueSSREvent(EnvServer, trackCall("a"))
	EnqueueSSREvent(EnvServer, trackCall("b"))

	first := HydrateSSRQueue()
	if got := queuedNames(first); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("first hydrate = %v, want [a b]", got)
	}

	if second := HydrateSSRQueue(); len(second) != 0 {
		t.Errorf("second hydrate returned %d entries, want 0", len(second))
	}
}

func TestSSRQueue_HydrateWithoutWindowIsSafe(t *testing.T) {
	drainSSRQueue()
	// Never populated: must return empty, not panic.
	if got := HydrateSSRQueue(); len(got) != 0 {
		t.Errorf("hydrate of empty slot = %d entries, want 0", len(got))
	}
}

func TestSerializeSSRQueue_EscapesScriptBreakout(t *testing.T) {
	drainSSRQueue()
	t.Cleanup(drainSSRQueue)

	EnqueueSSREvent(EnvServer, Call{
		Type:  CallTrack,
		Name:  "</script><script>alert(1)</script>",
		Props: Props{"html": "<b>&amp;</b>"},
	})

	out := SerializeSSRQueue()

	if !strings.HasPrefix(out, "<script>window."+SSRQueueGlobal+" = ") {
		t.Errorf("unexpected prefix: %q", out)
	}
	if !strings.HasSuffix(out, ";</script>") {
		t.Errorf("unexpected suffix: %q", out)
	}
	// The payload itself must not contain a literal </script>.
	payload := strings.TrimSuffix(strings.TrimPrefix(out, "<script>"), ";</script>")
	if strings.Contains(payload, "</script>") || strings.Contains(payload, "<script>") {
		t.Errorf("payload can terminate the script element early: %q", payload)
	}

	// Serialization does not drain; the round-trip decodes faithfully.
	start := strings.Index(out, "[")
	end := strings.LastIndex(out, "]")
	entries, err := DecodeSSRPayload([]byte(out[start : end+1]))
	if err != nil {
		t.Fatalf("DecodeSSRPayload: %v", err)
	}
	if len(entries) != 1 || entries[0].Name != "</script><script>alert(1)</script>" {
		t.Errorf("round-trip lost the original name: %+v", entries)
	}
	if remaining := HydrateSSRQueue(); len(remaining) != 1 {
		t.Errorf("SerializeSSRQueue drained the slot (%d left, want 1)", len(remaining))
	}
}

func TestSerializeSSRQueue_Empty(t *testing.T) {
	drainSSRQueue()
	want := "<script>window." + SSRQueueGlobal + " = [];</script>"
	if got := SerializeSSRQueue(); got != want {
		t.Errorf("SerializeSSRQueue() = %q, want %q", got, want)
	}
}
