package ownership

import (
	"github.com/lanmouse/lanmouse/event"
	"github.com/lanmouse/lanmouse/peer"
)

// cursor is a virtual pointer position accumulated from relative motion.
// Between decisions it always lies inside [0,w) x [0,h).
type cursor struct {
	x, y float64
	w, h float64
}

func newCursor(s peer.Screen) cursor {
	w, h := float64(s.Width), float64(s.Height)
	return cursor{x: w / 2, y: h / 2, w: w, h: h}
}

func (c *cursor) move(dx, dy float64) {
	c.x += dx
	c.y += dy
}

// crossing reports the edge the cursor has left the screen through.
// Horizontal edges win when both axes are out of range.
func (c *cursor) crossing() (peer.Direction, bool) {
	switch {
	case c.x >= c.w:
		return peer.Right, true
	case c.x < 0:
		return peer.Left, true
	case c.y >= c.h:
		return peer.Bottom, true
	case c.y < 0:
		return peer.Top, true
	}
	return 0, false
}

func (c *cursor) clamp() {
	c.x = clamp(c.x, 0, c.w-1)
	c.y = clamp(c.y, 0, c.h-1)
}

// offset is the position along edge d as a fraction of its length.
func (c *cursor) offset(d peer.Direction) float64 {
	if d.Horizontal() {
		return clamp(c.y/c.h, 0, 1)
	}
	return clamp(c.x/c.w, 0, 1)
}

// placeAt puts the cursor on edge d at the given fraction along it.
func (c *cursor) placeAt(d peer.Direction, offset float64) {
	offset = clamp(offset, 0, 1)
	switch d {
	case peer.Left:
		c.x, c.y = 0, offset*c.h
	case peer.Right:
		c.x, c.y = c.w-1, offset*c.h
	case peer.Top:
		c.x, c.y = offset*c.w, 0
	case peer.Bottom:
		c.x, c.y = offset*c.w, c.h-1
	}
	c.clamp()
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// edgeOf converts a direction to the wire edge. Both enumerate
// left, right, top, bottom in the same order.
func edgeOf(d peer.Direction) event.Edge { return event.Edge(d) }
