// Package event defines the input events exchanged between peers and their
// fixed-size wire encoding.
//
// Every encoded event starts with a 1-byte kind tag followed by a 4-byte
// big-endian timestamp. The payload size is implied by the tag, so a datagram
// carries no length field.
package event

import "fmt"

// Kind is the wire tag of an event.
type Kind uint8

const (
	KindMotion Kind = iota
	KindButton
	KindScroll
	KindKey
	KindModifiers
	KindEnter
	KindLeave
	KindReturn

	kindCount
)

func (k Kind) String() string {
	switch k {
	case KindMotion:
		return "motion"
	case KindButton:
		return "button"
	case KindScroll:
		return "scroll"
	case KindKey:
		return "key"
	case KindModifiers:
		return "modifiers"
	case KindEnter:
		return "enter"
	case KindLeave:
		return "leave"
	case KindReturn:
		return "return"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// IsControl reports whether the kind is a handoff signal rather than input.
func (k Kind) IsControl() bool {
	return k == KindEnter || k == KindLeave || k == KindReturn
}

// Event is one input event or handoff signal.
type Event interface {
	Kind() Kind
	// Stamp returns the capture timestamp. It wraps and is only meaningful
	// relative to other stamps from the same device.
	Stamp() uint32
}

// Axis selects the scroll direction.
type Axis uint8

const (
	AxisVertical Axis = iota
	AxisHorizontal
)

func (a Axis) String() string {
	if a == AxisHorizontal {
		return "horizontal"
	}
	return "vertical"
}

// Edge names a screen edge.
type Edge uint8

const (
	EdgeLeft Edge = iota
	EdgeRight
	EdgeTop
	EdgeBottom
)

func (e Edge) String() string {
	switch e {
	case EdgeLeft:
		return "left"
	case EdgeRight:
		return "right"
	case EdgeTop:
		return "top"
	case EdgeBottom:
		return "bottom"
	default:
		return fmt.Sprintf("edge(%d)", uint8(e))
	}
}

// Motion is a relative pointer displacement.
type Motion struct {
	Time   uint32
	DX, DY float64
}

// Button is a pointer button press or release.
type Button struct {
	Time    uint32
	Button  uint8
	Pressed bool
}

// Scroll is a wheel or touchpad scroll along one axis.
type Scroll struct {
	Time   uint32
	Axis   Axis
	Amount float64
}

// Key is a key press or release. Keycode is interpreted with the keymap of
// the capturing host.
type Key struct {
	Time    uint32
	Keycode uint32
	Pressed bool
}

// Modifiers carries the keyboard modifier and layout group state.
type Modifiers struct {
	Time      uint32
	Depressed uint32
	Latched   uint32
	Locked    uint32
	Group     uint32
}

// Enter tells a peer that the pointer crossed onto its screen through Edge.
// Offset is the position along that edge as a fraction in [0,1].
type Enter struct {
	Time   uint32
	Edge   Edge
	Offset float64
}

// Leave tells a peer that the pointer left its screen and that the stream
// owner is injecting locally again.
type Leave struct {
	Time uint32
}

// Return is reported by an injecting peer when the pointer reaches the edge
// facing the stream owner.
type Return struct {
	Time uint32
}

func (Motion) Kind() Kind    { return KindMotion }
func (Button) Kind() Kind    { return KindButton }
func (Scroll) Kind() Kind    { return KindScroll }
func (Key) Kind() Kind       { return KindKey }
func (Modifiers) Kind() Kind { return KindModifiers }
func (Enter) Kind() Kind     { return KindEnter }
func (Leave) Kind() Kind     { return KindLeave }
func (Return) Kind() Kind    { return KindReturn }

func (e Motion) Stamp() uint32    { return e.Time }
func (e Button) Stamp() uint32    { return e.Time }
func (e Scroll) Stamp() uint32    { return e.Time }
func (e Key) Stamp() uint32       { return e.Time }
func (e Modifiers) Stamp() uint32 { return e.Time }
func (e Enter) Stamp() uint32     { return e.Time }
func (e Leave) Stamp() uint32     { return e.Time }
func (e Return) Stamp() uint32    { return e.Time }

func (e Motion) String() string {
	return fmt.Sprintf("motion(t=%d dx=%g dy=%g)", e.Time, e.DX, e.DY)
}

func (e Button) String() string {
	return fmt.Sprintf("button(t=%d btn=%d pressed=%t)", e.Time, e.Button, e.Pressed)
}

func (e Scroll) String() string {
	return fmt.Sprintf("scroll(t=%d %s %g)", e.Time, e.Axis, e.Amount)
}

func (e Key) String() string {
	return fmt.Sprintf("key(t=%d code=%d pressed=%t)", e.Time, e.Keycode, e.Pressed)
}

func (e Modifiers) String() string {
	return fmt.Sprintf("modifiers(t=%d dep=%#x lat=%#x lock=%#x group=%d)",
		e.Time, e.Depressed, e.Latched, e.Locked, e.Group)
}

func (e Enter) String() string {
	return fmt.Sprintf("enter(t=%d edge=%s offset=%g)", e.Time, e.Edge, e.Offset)
}

func (e Leave) String() string  { return fmt.Sprintf("leave(t=%d)", e.Time) }
func (e Return) String() string { return fmt.Sprintf("return(t=%d)", e.Time) }
