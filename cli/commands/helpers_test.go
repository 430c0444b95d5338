package commands

import (
	"context"
	"sync"

	"github.com/trackkit/trackkit-go/core"
)

// capturingProvider implements core.Provider and records delivered calls.
type capturingProvider struct {
	mu       sync.Mutex
	tracks   []string
	pages    []*core.PageContext
	userIDs  []string
	destroys int
}

func (p *capturingProvider) Name() string { return "fake" }

func (p *capturingProvider) Track(_ context.Context, name string, _ core.Props, _ *core.PageContext) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tracks = append(p.tracks, name)
	return nil
}

func (p *capturingProvider) Pageview(_ context.Context, page *core.PageContext) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pages = append(p.pages, page)
	return nil
}

func (p *capturingProvider) Identify(_ context.Context, userID string, _ *core.PageContext) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.userIDs = append(p.userIDs, userID)
	return nil
}

func (p *capturingProvider) Destroy() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.destroys++
	return nil
}
