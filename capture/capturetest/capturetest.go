// Package capturetest provides in-memory EventSource and EventSink
// implementations for tests.
package capturetest

import (
	"context"
	"io"
	"sync"

	"github.com/lanmouse/lanmouse/event"
)

// Source delivers the events pushed into it. Closing it ends the stream
// with io.EOF.
type Source struct {
	ch        chan event.Event
	closeOnce sync.Once

	mu     sync.Mutex
	grabs  []bool
	keymap []byte
}

// NewSource returns a source with a buffer of n events.
func NewSource(n int) *Source {
	return &Source{ch: make(chan event.Event, n)}
}

// Push queues ev, blocking while the buffer is full.
func (s *Source) Push(ev ...event.Event) {
	for _, e := range ev {
		s.ch <- e
	}
}

// Close ends the stream.
func (s *Source) Close() { s.closeOnce.Do(func() { close(s.ch) }) }

func (s *Source) Next(ctx context.Context) (event.Event, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case ev, ok := <-s.ch:
		if !ok {
			return nil, io.EOF
		}
		return ev, nil
	}
}

// SetGrab records grab changes.
func (s *Source) SetGrab(grab bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grabs = append(s.grabs, grab)
	return nil
}

// Grabs returns every SetGrab argument seen so far.
func (s *Source) Grabs() []bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]bool(nil), s.grabs...)
}

// SetKeymap sets the keymap exported through Keymap.
func (s *Source) SetKeymap(km []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keymap = km
}

func (s *Source) Keymap() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.keymap, nil
}

// Sink records applied events. Fail, when set, decides whether an Apply
// call fails.
type Sink struct {
	Fail func(ev event.Event) error

	mu      sync.Mutex
	applied []event.Event
	keymaps [][]byte
	notify  chan struct{}
}

// NewSink returns an empty recording sink.
func NewSink() *Sink {
	return &Sink{notify: make(chan struct{}, 1)}
}

func (s *Sink) Apply(ctx context.Context, ev event.Event) error {
	if s.Fail != nil {
		if err := s.Fail(ev); err != nil {
			return err
		}
	}
	s.mu.Lock()
	s.applied = append(s.applied, ev)
	s.mu.Unlock()
	s.signal()
	return nil
}

func (s *Sink) ApplyKeymap(km []byte) error {
	s.mu.Lock()
	s.keymaps = append(s.keymaps, append([]byte(nil), km...))
	s.mu.Unlock()
	s.signal()
	return nil
}

// Applied returns a copy of the events applied so far.
func (s *Sink) Applied() []event.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]event.Event(nil), s.applied...)
}

// Keymaps returns every keymap loaded so far.
func (s *Sink) Keymaps() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]byte(nil), s.keymaps...)
}

// Changed is signalled after every Apply or ApplyKeymap.
func (s *Sink) Changed() <-chan struct{} { return s.notify }

func (s *Sink) signal() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}
