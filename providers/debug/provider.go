// Package debug implements a trackkit adapter that writes events to an
// io.Writer instead of a network backend. It is used by the CLI's dry-run
// mode and is handy in tests and local development.
package debug

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/trackkit/trackkit-go/core"
)

// Debug is an adapter that logs every call as one JSON line.
// Debug is safe for concurrent use.
type Debug struct {
	mu     sync.Mutex
	out    io.Writer
	closed bool
}

// Option configures a Debug adapter.
type Option func(*Debug)

// WithWriter directs output somewhere other than stderr.
func WithWriter(w io.Writer) Option {
	return func(d *Debug) {
		if w != nil {
			d.out = w
		}
	}
}

// New creates a debug adapter writing to stderr by default.
func New(opts ...Option) *Debug {
	d := &Debug{out: os.Stderr}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Name returns the adapter identifier.
func (d *Debug) Name() string {
	return "debug"
}

type line struct {
	Call   core.CallType     `json:"call"`
	Name   string            `json:"name,omitempty"`
	Props  core.Props        `json:"props,omitempty"`
	UserID string            `json:"userId,omitempty"`
	Page   *core.PageContext `json:"page,omitempty"`
}

func (d *Debug) write(l line) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return core.ErrDestroyed
	}
	data, err := json.Marshal(l)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(d.out, string(data))
	return err
}

// Track logs a track call.
func (d *Debug) Track(_ context.Context, name string, props core.Props, page *core.PageContext) error {
	return d.write(line{Call: core.CallTrack, Name: name, Props: props, Page: page})
}

// Pageview logs a pageview call.
func (d *Debug) Pageview(_ context.Context, page *core.PageContext) error {
	return d.write(line{Call: core.CallPageview, Page: page})
}

// Identify logs an identify call.
func (d *Debug) Identify(_ context.Context, userID string, page *core.PageContext) error {
	return d.write(line{Call: core.CallIdentify, UserID: userID, Page: page})
}

// Destroy stops further output.
func (d *Debug) Destroy() error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	return nil
}

// Compile-time check that Debug implements core.Provider.
var _ core.Provider = (*Debug)(nil)
