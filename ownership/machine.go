package ownership

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"go.uber.org/atomic"

	"github.com/lanmouse/lanmouse/event"
	"github.com/lanmouse/lanmouse/peer"
)

// ErrInvalidInitial is returned by New for an initial state other than
// Local or Injecting.
var ErrInvalidInitial = errors.New("invalid initial ownership state")

// Option configures a Machine.
type Option func(*Machine)

// WithLogger sets the logger used for dropped events and transitions.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Machine) { m.logger = logger }
}

// WithTransitionHook registers fn to run after every transition. It is
// called outside the machine lock, in transition order per calling path.
func WithTransitionHook(fn func(from, to State)) Option {
	return func(m *Machine) { m.onTransition = fn }
}

// Machine is the ownership state machine. HandleLocal and HandleRemote may
// be called concurrently; every decision is made in one critical section.
type Machine struct {
	reg          *peer.Registry
	logger       *slog.Logger
	onTransition func(from, to State)

	mu    sync.Mutex
	state State
	// target is the peer of a Remote or Injecting state.
	target peer.Endpoint
	local  cursor
	remote cursor
	inject cursor
	// returned is set once a Return was reported for the current entry.
	returned bool

	snapshot    atomic.Pointer[State]
	transitions atomic.Uint64
}

// New creates a machine in the given initial state.
func New(reg *peer.Registry, initial State, opts ...Option) (*Machine, error) {
	self := reg.Self()
	m := &Machine{
		reg:    reg,
		logger: slog.Default(),
		local:  newCursor(self.Screen),
		inject: newCursor(self.Screen),
	}
	for _, opt := range opts {
		opt(m)
	}

	switch initial.Kind {
	case Local:
		initial.Peer = ""
	case Injecting:
		owner, err := reg.Lookup(initial.Peer)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInitial, err)
		}
		initial.Peer = owner.Role
		m.target = owner
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidInitial, initial)
	}
	m.state = initial
	m.snapshot.Store(&initial)
	return m, nil
}

// State returns the current state without taking the decision lock.
func (m *Machine) State() State { return *m.snapshot.Load() }

// Transitions returns how many transitions happened since New.
func (m *Machine) Transitions() uint64 { return m.transitions.Load() }

type transition struct {
	from, to State
	ok       bool
}

// setState must be called with mu held.
func (m *Machine) setState(to State) transition {
	from := m.state
	m.state = to
	m.snapshot.Store(&to)
	m.transitions.Inc()
	return transition{from: from, to: to, ok: true}
}

func (m *Machine) notify(t transition) {
	if !t.ok {
		return
	}
	m.logger.Info("ownership changed", "from", t.from, "to", t.to)
	if m.onTransition != nil {
		m.onTransition(t.from, t.to)
	}
}

// HandleLocal decides what to do with an event captured on this host.
func (m *Machine) HandleLocal(ev event.Event) Action {
	m.mu.Lock()
	act, t := m.handleLocal(ev)
	m.mu.Unlock()
	m.notify(t)
	return act
}

func (m *Machine) handleLocal(ev event.Event) (Action, transition) {
	if ev.Kind().IsControl() {
		m.logger.Debug("dropping control event from local source", "event", ev)
		return Action{}, transition{}
	}

	switch m.state.Kind {
	case Injecting:
		return Action{}, transition{}

	case Remote:
		out := Action{Send: []Outgoing{{To: m.target, Event: ev}}}
		mv, ok := ev.(event.Motion)
		if !ok {
			return out, transition{}
		}
		m.remote.move(mv.DX, mv.DY)
		dir, crossed := m.remote.crossing()
		if !crossed {
			return out, transition{}
		}
		if dir != m.target.Position.Opposite() {
			m.remote.clamp()
			return out, transition{}
		}
		return m.returnLocal(mv.Time, m.remote.offset(dir))

	default:
		mv, ok := ev.(event.Motion)
		if !ok {
			return Action{Inject: ev}, transition{}
		}
		m.local.move(mv.DX, mv.DY)
		dir, crossed := m.local.crossing()
		if !crossed {
			return Action{Inject: ev}, transition{}
		}
		target, ok := m.reg.Adjacent(dir)
		if !ok {
			m.local.clamp()
			return Action{Inject: ev}, transition{}
		}

		offset := m.local.offset(dir)
		m.local.clamp()
		entry := dir.Opposite()
		m.target = target
		m.remote = newCursor(target.Screen)
		m.remote.placeAt(entry, offset)
		t := m.setState(State{Kind: Remote, Peer: target.Role})
		enter := event.Enter{Time: mv.Time, Edge: edgeOf(entry), Offset: offset}
		return Action{Send: []Outgoing{{To: target, Event: enter}}}, t
	}
}

// returnLocal ends a Remote state. The local cursor reappears on the edge
// facing the peer. Must be called with mu held.
func (m *Machine) returnLocal(stamp uint32, offset float64) (Action, transition) {
	prev := m.target
	m.local.placeAt(prev.Position, offset)
	m.target = peer.Endpoint{}
	t := m.setState(State{Kind: Local})
	return Action{Send: []Outgoing{{To: prev, Event: event.Leave{Time: stamp}}}}, t
}

// HandleRemote decides what to do with an event received from a peer.
func (m *Machine) HandleRemote(from peer.Endpoint, ev event.Event) Action {
	m.mu.Lock()
	act, t := m.handleRemote(from, ev)
	m.mu.Unlock()
	m.notify(t)
	return act
}

func (m *Machine) handleRemote(from peer.Endpoint, ev event.Event) (Action, transition) {
	switch m.state.Kind {
	case Local:
		if ev.Kind() == event.KindEnter {
			m.logger.Warn("peer entered while this host owns input, ignoring", "from", from.Role, "event", ev)
		} else {
			m.logger.Debug("dropping remote event while local", "from", from.Role, "event", ev)
		}
		return Action{}, transition{}

	case Remote:
		if from.Role != m.state.Peer || ev.Kind() != event.KindReturn {
			m.logger.Debug("dropping remote event while owner", "from", from.Role, "state", m.state, "event", ev)
			return Action{}, transition{}
		}
		return m.returnLocal(ev.Stamp(), m.remote.offset(m.target.Position.Opposite()))

	default:
		if from.Role != m.state.Peer {
			m.logger.Debug("dropping event from non-owner", "from", from.Role, "owner", m.state.Peer, "event", ev)
			return Action{}, transition{}
		}
		return m.handleInjecting(ev), transition{}
	}
}

// handleInjecting runs for events from the owner. The state never changes
// here; reaching the edge facing the owner only reports a Return.
func (m *Machine) handleInjecting(ev event.Event) Action {
	switch e := ev.(type) {
	case event.Enter:
		m.inject.placeAt(peer.Direction(e.Edge), e.Offset)
		m.returned = false
		return Action{Inject: e}
	case event.Leave:
		m.logger.Debug("owner took input back", "owner", m.state.Peer)
		m.returned = true
		return Action{}
	case event.Return:
		return Action{}
	case event.Motion:
		m.inject.move(e.DX, e.DY)
		dir, crossed := m.inject.crossing()
		if !crossed {
			return Action{Inject: e}
		}
		m.inject.clamp()
		if dir != m.target.Position || m.returned {
			return Action{Inject: e}
		}
		m.returned = true
		return Action{
			Inject: e,
			Send:   []Outgoing{{To: m.target, Event: event.Return{Time: e.Time}}},
		}
	default:
		return Action{Inject: ev}
	}
}
