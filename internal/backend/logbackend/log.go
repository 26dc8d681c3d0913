// Package logbackend is a backend that captures nothing and logs every
// event it is asked to inject.
package logbackend

import (
	"context"
	"log/slog"

	"github.com/lanmouse/lanmouse/event"
	"github.com/lanmouse/lanmouse/internal/backend"
	"github.com/lanmouse/lanmouse/internal/backend/null"
)

func init() {
	backend.Register("log", func(o *backend.Options) (*backend.Backend, error) {
		return &backend.Backend{
			Source: null.Source{},
			Sink:   &Sink{logger: o.Logger.With("component", "sink")},
		}, nil
	})
}

// Sink logs injected events at debug level.
type Sink struct {
	logger *slog.Logger
}

// NewSink returns a sink writing to logger.
func NewSink(logger *slog.Logger) *Sink { return &Sink{logger: logger} }

func (s *Sink) Apply(ctx context.Context, ev event.Event) error {
	s.logger.DebugContext(ctx, "inject", "kind", ev.Kind(), "event", ev)
	return nil
}

func (s *Sink) ApplyKeymap(keymap []byte) error {
	s.logger.Debug("apply keymap", "bytes", len(keymap))
	return nil
}
