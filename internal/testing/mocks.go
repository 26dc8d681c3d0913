package testing

import (
	"sync"
	"time"

	"github.com/lanmouse/lanmouse/ownership"
	"github.com/lanmouse/lanmouse/peer"
)

// StaticKeymap serves a fixed keymap blob.
type StaticKeymap struct {
	Data   []byte
	Sum    string
	Absent bool
}

func (k StaticKeymap) Keymap() ([]byte, bool) { return k.Data, !k.Absent }
func (k StaticKeymap) Digest() (string, bool) { return k.Sum, !k.Absent }

// FixedState reports a constant ownership snapshot.
type FixedState struct {
	S ownership.State
	N uint64
}

func (f FixedState) State() ownership.State { return f.S }
func (f FixedState) Transitions() uint64    { return f.N }

// SeenMap is a settable LastSeen source.
type SeenMap struct {
	mu sync.Mutex
	m  map[peer.Role]time.Time
}

func (s *SeenMap) Set(role peer.Role, t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.m == nil {
		s.m = map[peer.Role]time.Time{}
	}
	s.m[role] = t
}

func (s *SeenMap) LastSeen(role peer.Role) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.m[role]
	return t, ok
}
