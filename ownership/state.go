// Package ownership decides which host currently owns the shared input
// stream. It is a pure state machine: callers feed it events and execute
// the actions it returns.
package ownership

import (
	"fmt"

	"github.com/lanmouse/lanmouse/event"
	"github.com/lanmouse/lanmouse/peer"
)

// Kind is the ownership state of the local host.
type Kind uint8

const (
	// Local: input is captured and injected on this host.
	Local Kind = iota
	// Remote: this host captures input and forwards it to a peer.
	Remote
	// Injecting: this host injects input received from the owning peer.
	Injecting
)

func (k Kind) String() string {
	switch k {
	case Local:
		return "Local"
	case Remote:
		return "Remote"
	case Injecting:
		return "Injecting"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// State is the ownership state. Peer is empty for Local.
type State struct {
	Kind Kind
	Peer peer.Role
}

func (s State) String() string {
	if s.Kind == Local {
		return s.Kind.String()
	}
	return fmt.Sprintf("%s(%s)", s.Kind, s.Peer)
}

// Outgoing is one event to send to a peer.
type Outgoing struct {
	To    peer.Endpoint
	Event event.Event
}

// Action is what the caller must do after a decision. Inject, when set, goes
// to the local sink. Send is executed in order; a failed send is dropped and
// never fed back into the machine.
type Action struct {
	Inject event.Event
	Send   []Outgoing
}

// Empty reports whether the action does nothing.
func (a Action) Empty() bool { return a.Inject == nil && len(a.Send) == 0 }
