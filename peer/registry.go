package peer

import (
	"errors"
	"fmt"
	"net/netip"
	"sort"
	"strings"
)

var (
	// ErrUnknownRole is returned when a role has no registry entry.
	ErrUnknownRole = errors.New("unknown peer role")
	// ErrInvalidConfig wraps every validation failure of New.
	ErrInvalidConfig = errors.New("invalid peer registry")
)

// Registry maps roles to endpoints. It is read-only after New.
type Registry struct {
	self     Self
	peers    map[Role]Endpoint
	byAddr   map[netip.Addr]Role
	adjacent map[Direction]Role
}

// New validates cfg and builds a registry. Every problem is reported here so
// nothing can fail later at runtime.
func New(cfg Config) (*Registry, error) {
	self := Self{Role: normalizeRole(cfg.Self.Role), Screen: cfg.Self.Screen}
	if self.Role == "" {
		return nil, fmt.Errorf("%w: self role is empty", ErrInvalidConfig)
	}
	if err := validScreen(self.Screen); err != nil {
		return nil, fmt.Errorf("%w: self: %v", ErrInvalidConfig, err)
	}

	r := &Registry{
		self:     self,
		peers:    make(map[Role]Endpoint, len(cfg.Peers)),
		byAddr:   make(map[netip.Addr]Role, len(cfg.Peers)),
		adjacent: make(map[Direction]Role, len(cfg.Peers)),
	}
	for i, pc := range cfg.Peers {
		ep, err := pc.endpoint(cfg.Defaults)
		if err != nil {
			return nil, fmt.Errorf("%w: peer %d: %v", ErrInvalidConfig, i, err)
		}
		if ep.Role == self.Role {
			return nil, fmt.Errorf("%w: peer %d reuses the local role %q", ErrInvalidConfig, i, ep.Role)
		}
		if _, dup := r.peers[ep.Role]; dup {
			return nil, fmt.Errorf("%w: duplicate role %q", ErrInvalidConfig, ep.Role)
		}
		if other, dup := r.byAddr[ep.Addr]; dup {
			return nil, fmt.Errorf("%w: %q and %q share address %s", ErrInvalidConfig, other, ep.Role, ep.Addr)
		}
		if other, dup := r.adjacent[ep.Position]; dup {
			return nil, fmt.Errorf("%w: %q and %q are both %s of this host", ErrInvalidConfig, other, ep.Role, ep.Position)
		}
		r.peers[ep.Role] = ep
		r.byAddr[ep.Addr] = ep.Role
		r.adjacent[ep.Position] = ep.Role
	}
	return r, nil
}

// Self returns the local host description.
func (r *Registry) Self() Self { return r.self }

// Lookup resolves a role.
func (r *Registry) Lookup(role Role) (Endpoint, error) {
	ep, ok := r.peers[normalizeRole(string(role))]
	if !ok {
		return Endpoint{}, fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}
	return ep, nil
}

// Adjacent returns the peer sitting in direction d, if any.
func (r *Registry) Adjacent(d Direction) (Endpoint, bool) {
	role, ok := r.adjacent[d]
	if !ok {
		return Endpoint{}, false
	}
	return r.peers[role], true
}

// ByAddr identifies a datagram sender by its IP address.
func (r *Registry) ByAddr(addr netip.Addr) (Endpoint, bool) {
	role, ok := r.byAddr[addr.Unmap()]
	if !ok {
		return Endpoint{}, false
	}
	return r.peers[role], true
}

// Peers returns all endpoints sorted by role.
func (r *Registry) Peers() []Endpoint {
	out := make([]Endpoint, 0, len(r.peers))
	for _, ep := range r.peers {
		out = append(out, ep)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Role < out[j].Role })
	return out
}

func normalizeRole(s string) Role { return Role(strings.ToLower(strings.TrimSpace(s))) }

func validScreen(s Screen) error {
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("screen %s must be positive", s)
	}
	return nil
}
