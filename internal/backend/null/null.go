// Package null is a backend that captures nothing and discards every
// injected event. It lets a host act as a pure forwarding or test node.
package null

import (
	"context"

	"github.com/lanmouse/lanmouse/event"
	"github.com/lanmouse/lanmouse/internal/backend"
)

func init() {
	backend.Register("null", open)
}

func open(*backend.Options) (*backend.Backend, error) {
	return &backend.Backend{Source: Source{}, Sink: Sink{}}, nil
}

// Source blocks until its context is done.
type Source struct{}

func (Source) Next(ctx context.Context) (event.Event, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

// Sink discards events.
type Sink struct{}

func (Sink) Apply(context.Context, event.Event) error { return nil }
