package core

import (
	"context"
	"fmt"
	"sync"
)

// recordedCall captures one adapter invocation for assertions.
type recordedCall struct {
	Type   CallType
	Name   string
	UserID string
	Page   *PageContext
}

// mockProvider is a test implementation of Provider and Initializer.
type mockProvider struct {
	mu           sync.Mutex
	name         string
	initFunc     func(ctx context.Context) error
	trackErr     error
	pageviewErr  error
	identifyErr  error
	destroyErr   error
	calls        []recordedCall
	destroyCount int
	navCallback  func(*PageContext)
}

func newMockProvider(name string) *mockProvider {
	return &mockProvider{name: name}
}

func (m *mockProvider) Name() string { return m.name }

func (m *mockProvider) Init(ctx context.Context) error {
	if m.initFunc != nil {
		return m.initFunc(ctx)
	}
	return nil
}

func (m *mockProvider) Track(_ context.Context, name string, _ Props, page *PageContext) error {
	m.mu.Lock()
	m.calls = append(m.calls, recordedCall{Type: CallTrack, Name: name, Page: page})
	m.mu.Unlock()
	return m.trackErr
}

func (m *mockProvider) Pageview(_ context.Context, page *PageContext) error {
	m.mu.Lock()
	m.calls = append(m.calls, recordedCall{Type: CallPageview, Page: page})
	m.mu.Unlock()
	return m.pageviewErr
}

func (m *mockProvider) Identify(_ context.Context, userID string, page *PageContext) error {
	m.mu.Lock()
	m.calls = append(m.calls, recordedCall{Type: CallIdentify, UserID: userID, Page: page})
	m.mu.Unlock()
	return m.identifyErr
}

func (m *mockProvider) Destroy() error {
	m.mu.Lock()
	m.destroyCount++
	m.mu.Unlock()
	return m.destroyErr
}

func (m *mockProvider) SetNavigationCallback(fn func(*PageContext)) {
	m.mu.Lock()
	m.navCallback = fn
	m.mu.Unlock()
}

func (m *mockProvider) recorded() []recordedCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]recordedCall, len(m.calls))
	copy(out, m.calls)
	return out
}

func (m *mockProvider) destroys() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.destroyCount
}

// failingStore is a ConsentStore whose every operation fails.
type failingStore struct{}

func (failingStore) Load(string) (*ConsentRecord, error) {
	return nil, fmt.Errorf("storage unavailable")
}

func (failingStore) Save(string, ConsentRecord) error {
	return fmt.Errorf("quota exceeded")
}

func (failingStore) Delete(string) error {
	return fmt.Errorf("storage unavailable")
}

// drainSSRQueue empties the process-wide SSR slot between tests.
func drainSSRQueue() {
	HydrateSSRQueue()
}
