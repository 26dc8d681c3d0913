// Package capture defines the boundary to a display backend: a source of
// locally captured input and a sink that injects input into the local
// session. The rest of lanmouse only talks to these interfaces.
package capture

import (
	"context"

	"github.com/lanmouse/lanmouse/event"
)

// EventSource produces locally captured input events.
//
// Next blocks until an event is available or ctx is done. It returns io.EOF
// when the source has no more events.
type EventSource interface {
	Next(ctx context.Context) (event.Event, error)
}

// EventSink applies input events to the local session.
//
// Apply is best effort and must return once ctx is done.
type EventSink interface {
	Apply(ctx context.Context, ev event.Event) error
}

// Grabber is implemented by sources that can withhold captured input from
// the local session while it is forwarded to a peer.
type Grabber interface {
	SetGrab(grab bool) error
}

// KeymapProvider is implemented by sources that can export the layout of
// the local keyboard.
type KeymapProvider interface {
	Keymap() ([]byte, error)
}

// KeymapApplier is implemented by sinks that can load the layout of the
// stream owner so injected keycodes resolve correctly.
type KeymapApplier interface {
	ApplyKeymap(keymap []byte) error
}

// SourceFunc adapts a function to EventSource.
type SourceFunc func(ctx context.Context) (event.Event, error)

func (f SourceFunc) Next(ctx context.Context) (event.Event, error) { return f(ctx) }

// SinkFunc adapts a function to EventSink.
type SinkFunc func(ctx context.Context, ev event.Event) error

func (f SinkFunc) Apply(ctx context.Context, ev event.Event) error { return f(ctx, ev) }
