// Package peer holds the static description of the hosts sharing input:
// their roles, network endpoints, screen geometry and adjacency.
package peer

import (
	"fmt"
	"net/netip"
	"strings"
)

// Role is the logical name of a host, e.g. "left" or "desk".
type Role string

// Direction is where a peer sits relative to this host.
type Direction uint8

const (
	Left Direction = iota
	Right
	Top
	Bottom
)

var directionNames = [...]string{Left: "left", Right: "right", Top: "top", Bottom: "bottom"}

func (d Direction) String() string {
	if int(d) < len(directionNames) {
		return directionNames[d]
	}
	return fmt.Sprintf("direction(%d)", uint8(d))
}

// Opposite returns the direction facing d.
func (d Direction) Opposite() Direction {
	switch d {
	case Left:
		return Right
	case Right:
		return Left
	case Top:
		return Bottom
	default:
		return Top
	}
}

// Horizontal reports whether d is Left or Right.
func (d Direction) Horizontal() bool { return d == Left || d == Right }

// ParseDirection parses a direction name.
func ParseDirection(s string) (Direction, error) {
	for i, n := range directionNames {
		if strings.EqualFold(s, n) {
			return Direction(i), nil
		}
	}
	return 0, fmt.Errorf("invalid direction %q (want left, right, top or bottom)", s)
}

func (d Direction) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Direction) UnmarshalText(b []byte) error {
	v, err := ParseDirection(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// Screen is the pixel geometry of a host's display.
type Screen struct {
	Width  int `json:"width" yaml:"width" toml:"width"`
	Height int `json:"height" yaml:"height" toml:"height"`
}

func (s Screen) String() string { return fmt.Sprintf("%dx%d", s.Width, s.Height) }

// Endpoint is a resolved peer. It never changes after startup.
type Endpoint struct {
	Role      Role
	Addr      netip.Addr
	EventPort uint16
	SidePort  uint16
	Screen    Screen
	// Position is where the peer sits relative to this host.
	Position Direction
}

// EventAddr is the peer's datagram address.
func (e Endpoint) EventAddr() netip.AddrPort { return netip.AddrPortFrom(e.Addr, e.EventPort) }

// SideAddr is the peer's side-channel address.
func (e Endpoint) SideAddr() netip.AddrPort { return netip.AddrPortFrom(e.Addr, e.SidePort) }

func (e Endpoint) String() string {
	return fmt.Sprintf("%s@%s (%s, %s)", e.Role, e.EventAddr(), e.Position, e.Screen)
}

// Self describes the local host.
type Self struct {
	Role   Role
	Screen Screen
}
