package plausible

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/trackkit/trackkit-go/core"
)

func newEventServer(t *testing.T) (*httptest.Server, func() []eventPayload) {
	t.Helper()
	var (
		mu       sync.Mutex
		payloads []eventPayload
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/event" {
			http.NotFound(w, r)
			return
		}
		var p eventPayload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		mu.Lock()
		payloads = append(payloads, p)
		mu.Unlock()
		w.WriteHeader(http.StatusAccepted)
	}))
	t.Cleanup(server.Close)
	return server, func() []eventPayload {
		mu.Lock()
		defer mu.Unlock()
		out := make([]eventPayload, len(payloads))
		copy(out, payloads)
		return out
	}
}

func TestPlausible_Pageview(t *testing.T) {
	server, received := newEventServer(t)
	p := New("example.com", WithHost(server.URL))

	err := p.Pageview(context.Background(), &core.PageContext{
		URL:      "https://example.com/pricing",
		Referrer: "https://news.ycombinator.com",
	})
	if err != nil {
		t.Fatalf("Pageview: %v", err)
	}

	got := received()
	if len(got) != 1 {
		t.Fatalf("server received %d events, want 1", len(got))
	}
	if got[0].Name != "pageview" || got[0].Domain != "example.com" {
		t.Errorf("event = %+v", got[0])
	}
	if got[0].Referrer != "https://news.ycombinator.com" {
		t.Errorf("referrer = %q", got[0].Referrer)
	}
}

func TestPlausible_PathBuildsURLFromDomain(t *testing.T) {
	server, received := newEventServer(t)
	p := New("example.com", WithHost(server.URL))

	if err := p.Pageview(context.Background(), &core.PageContext{Path: "/docs"}); err != nil {
		t.Fatalf("Pageview: %v", err)
	}

	got := received()
	if got[0].URL != "https://example.com/docs" {
		t.Errorf("url = %q, want domain-derived URL", got[0].URL)
	}
}

func TestPlausible_TrackWithProps(t *testing.T) {
	server, received := newEventServer(t)
	p := New("example.com", WithHost(server.URL))

	err := p.Track(context.Background(), "signup", core.Props{"plan": "pro"}, nil)
	if err != nil {
		t.Fatalf("Track: %v", err)
	}

	got := received()
	if got[0].Name != "signup" {
		t.Errorf("name = %q, want signup", got[0].Name)
	}
	if plan, ok := got[0].Props["plan"].(string); !ok || plan != "pro" {
		t.Errorf("props = %v", got[0].Props)
	}
}

func TestPlausible_IdentifyBecomesProp(t *testing.T) {
	server, received := newEventServer(t)
	p := New("example.com", WithHost(server.URL))
	ctx := context.Background()

	if err := p.Identify(ctx, "user-7", nil); err != nil {
		t.Fatalf("Identify: %v", err)
	}
	// Identify itself transmits nothing.
	if got := received(); len(got) != 0 {
		t.Fatalf("identify sent %d events, want 0", len(got))
	}

	if err := p.Track(ctx, "click", nil, nil); err != nil {
		t.Fatalf("Track: %v", err)
	}
	got := received()
	if uid, ok := got[0].Props["user_id"].(string); !ok || uid != "user-7" {
		t.Errorf("props = %v, want user_id prop", got[0].Props)
	}
}
