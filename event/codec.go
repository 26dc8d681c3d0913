package event

import (
	"encoding/binary"
	"fmt"
	"math"
)

// HeaderSize is the tag byte plus the 4-byte timestamp.
const HeaderSize = 5

// MaxSize is the largest encoded event.
const MaxSize = HeaderSize + 16

// Wire layout per kind (all numbers big-endian):
//
//	Motion    (0): header + dx(f64) + dy(f64)                      = 21 bytes
//	Button    (1): header + button(u8) + state(u8)                 =  7 bytes
//	Scroll    (2): header + axis(u8) + amount(f64)                 = 14 bytes
//	Key       (3): header + keycode(u32) + state(u8)               = 10 bytes
//	Modifiers (4): header + depressed + latched + locked + group   = 21 bytes
//	Enter     (5): header + edge(u8) + offset(f64)                 = 14 bytes
//	Leave     (6): header only                                     =  5 bytes
//	Return    (7): header only                                     =  5 bytes
var sizes = [kindCount]int{
	KindMotion:    HeaderSize + 16,
	KindButton:    HeaderSize + 2,
	KindScroll:    HeaderSize + 9,
	KindKey:       HeaderSize + 5,
	KindModifiers: HeaderSize + 16,
	KindEnter:     HeaderSize + 9,
	KindLeave:     HeaderSize,
	KindReturn:    HeaderSize,
}

// Size returns the encoded size of an event of kind k, or 0 for unknown kinds.
func Size(k Kind) int {
	if k >= kindCount {
		return 0
	}
	return sizes[k]
}

// Encode returns the wire representation of ev.
func Encode(ev Event) ([]byte, error) {
	if ev == nil {
		return nil, fmt.Errorf("encode: nil event")
	}
	buf := make([]byte, Size(ev.Kind()))
	if _, err := Put(buf, ev); err != nil {
		return nil, err
	}
	return buf, nil
}

// Put writes the wire representation of ev into dst and returns the number
// of bytes written.
func Put(dst []byte, ev Event) (int, error) {
	if ev == nil {
		return 0, fmt.Errorf("encode: nil event")
	}
	k := ev.Kind()
	n := Size(k)
	if n == 0 {
		return 0, fmt.Errorf("encode: %w: tag %d", ErrUnknownKind, uint8(k))
	}
	if len(dst) < n {
		return 0, fmt.Errorf("encode %s: %w: need %d bytes, have %d", k, ErrShortBuffer, n, len(dst))
	}
	dst[0] = byte(k)
	binary.BigEndian.PutUint32(dst[1:5], ev.Stamp())
	p := dst[HeaderSize:n]

	switch e := ev.(type) {
	case Motion:
		putFloat(p[0:8], e.DX)
		putFloat(p[8:16], e.DY)
	case Button:
		p[0] = e.Button
		p[1] = boolByte(e.Pressed)
	case Scroll:
		p[0] = byte(e.Axis)
		putFloat(p[1:9], e.Amount)
	case Key:
		binary.BigEndian.PutUint32(p[0:4], e.Keycode)
		p[4] = boolByte(e.Pressed)
	case Modifiers:
		binary.BigEndian.PutUint32(p[0:4], e.Depressed)
		binary.BigEndian.PutUint32(p[4:8], e.Latched)
		binary.BigEndian.PutUint32(p[8:12], e.Locked)
		binary.BigEndian.PutUint32(p[12:16], e.Group)
	case Enter:
		p[0] = byte(e.Edge)
		putFloat(p[1:9], e.Offset)
	case Leave, Return:
		// header only
	default:
		return 0, fmt.Errorf("encode: unsupported event type %T", ev)
	}
	return n, nil
}

// Decode parses one event from buf. Bytes beyond the size implied by the tag
// are ignored.
func Decode(buf []byte) (Event, error) {
	if len(buf) == 0 {
		return nil, &DecodeError{Err: ErrTruncated}
	}
	k := Kind(buf[0])
	n := Size(k)
	if n == 0 {
		return nil, &DecodeError{Kind: k, Len: len(buf), Err: ErrUnknownKind}
	}
	if len(buf) < n {
		return nil, &DecodeError{Kind: k, Len: len(buf), Err: ErrTruncated}
	}
	ts := binary.BigEndian.Uint32(buf[1:5])
	p := buf[HeaderSize:n]

	switch k {
	case KindMotion:
		dx, dy := getFloat(p[0:8]), getFloat(p[8:16])
		if !finite(dx) || !finite(dy) {
			return nil, invalid(k, len(buf), "motion (%v, %v)", dx, dy)
		}
		return Motion{Time: ts, DX: dx, DY: dy}, nil
	case KindButton:
		pressed, ok := byteBool(p[1])
		if !ok {
			return nil, invalid(k, len(buf), "button state %d", p[1])
		}
		return Button{Time: ts, Button: p[0], Pressed: pressed}, nil
	case KindScroll:
		axis := Axis(p[0])
		if axis != AxisVertical && axis != AxisHorizontal {
			return nil, invalid(k, len(buf), "axis %d", p[0])
		}
		amount := getFloat(p[1:9])
		if !finite(amount) {
			return nil, invalid(k, len(buf), "scroll amount %v", amount)
		}
		return Scroll{Time: ts, Axis: axis, Amount: amount}, nil
	case KindKey:
		pressed, ok := byteBool(p[4])
		if !ok {
			return nil, invalid(k, len(buf), "key state %d", p[4])
		}
		return Key{Time: ts, Keycode: binary.BigEndian.Uint32(p[0:4]), Pressed: pressed}, nil
	case KindModifiers:
		return Modifiers{
			Time:      ts,
			Depressed: binary.BigEndian.Uint32(p[0:4]),
			Latched:   binary.BigEndian.Uint32(p[4:8]),
			Locked:    binary.BigEndian.Uint32(p[8:12]),
			Group:     binary.BigEndian.Uint32(p[12:16]),
		}, nil
	case KindEnter:
		edge := Edge(p[0])
		if edge > EdgeBottom {
			return nil, invalid(k, len(buf), "edge %d", p[0])
		}
		offset := getFloat(p[1:9])
		if !finite(offset) {
			return nil, invalid(k, len(buf), "enter offset %v", offset)
		}
		return Enter{Time: ts, Edge: edge, Offset: offset}, nil
	case KindLeave:
		return Leave{Time: ts}, nil
	default:
		return Return{Time: ts}, nil
	}
}

func invalid(k Kind, n int, format string, args ...any) error {
	return &DecodeError{Kind: k, Len: n, Err: fmt.Errorf("%w: "+format, append([]any{ErrInvalidField}, args...)...)}
}

func putFloat(b []byte, f float64) { binary.BigEndian.PutUint64(b, math.Float64bits(f)) }

// finite reports whether f can be accumulated into a cursor position.
func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

func getFloat(b []byte) float64 { return math.Float64frombits(binary.BigEndian.Uint64(b)) }

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

func byteBool(b byte) (bool, bool) {
	switch b {
	case 0:
		return false, true
	case 1:
		return true, true
	default:
		return false, false
	}
}
