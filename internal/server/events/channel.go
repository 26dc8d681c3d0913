// Package events implements the unreliable event channel: one input event per
// UDP datagram, no acknowledgement, no retransmission, no reordering.
package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/atomic"

	"github.com/lanmouse/lanmouse/event"
	"github.com/lanmouse/lanmouse/internal/log"
	"github.com/lanmouse/lanmouse/peer"
)

// ErrNotListening is returned by Send before the socket is bound.
var ErrNotListening = errors.New("event channel not listening")

// readBufferSize leaves room to notice datagrams larger than any event.
const readBufferSize = 2 * event.MaxSize

// Handler receives every decoded event from a known peer. It runs on the
// receive goroutine, so datagrams are handled in arrival order.
type Handler func(from peer.Endpoint, ev event.Event)

// Stats are counters of the receive loop.
type Stats struct {
	Received  uint64
	Unknown   uint64
	Malformed uint64
	Sent      uint64
	SendFail  uint64
}

// Channel owns the UDP socket shared by the receive loop and Send.
type Channel struct {
	config Config
	reg    *peer.Registry
	logger *slog.Logger
	raw    log.RawLogger
	now    func() time.Time

	conn     atomic.Pointer[net.UDPConn]
	ready    chan struct{}
	lastSeen *xsync.MapOf[peer.Role, time.Time]

	received  atomic.Uint64
	unknown   atomic.Uint64
	malformed atomic.Uint64
	sent      atomic.Uint64
	sendFail  atomic.Uint64
}

// New creates a channel. raw may be nil.
func New(config Config, reg *peer.Registry, logger *slog.Logger, raw log.RawLogger) *Channel {
	if raw == nil {
		raw = log.NewRaw(nil)
	}
	return &Channel{
		config:   config,
		reg:      reg,
		logger:   logger,
		raw:      raw,
		now:      time.Now,
		ready:    make(chan struct{}),
		lastSeen: xsync.NewMapOf[peer.Role, time.Time](),
	}
}

// Ready is closed once the socket is bound.
func (c *Channel) Ready() <-chan struct{} { return c.ready }

// LocalAddr returns the bound address, or nil before Ready.
func (c *Channel) LocalAddr() net.Addr {
	conn := c.conn.Load()
	if conn == nil {
		return nil
	}
	return conn.LocalAddr()
}

// ListenAndServe binds the socket and delivers received events to h until
// ctx is done or Close is called. It returns nil on orderly shutdown.
func (c *Channel) ListenAndServe(ctx context.Context, h Handler) error {
	lc := net.ListenConfig{Control: control(c.config.DSCP)}
	pc, err := lc.ListenPacket(ctx, "udp", c.config.Addr)
	if err != nil {
		return fmt.Errorf("listen udp %s: %w", c.config.Addr, err)
	}
	conn := pc.(*net.UDPConn)
	if c.config.ReadBuffer > 0 {
		if err := conn.SetReadBuffer(c.config.ReadBuffer); err != nil {
			c.logger.Warn("failed to set read buffer", "size", c.config.ReadBuffer, "error", err)
		}
	}
	if c.config.WriteBuffer > 0 {
		if err := conn.SetWriteBuffer(c.config.WriteBuffer); err != nil {
			c.logger.Warn("failed to set write buffer", "size", c.config.WriteBuffer, "error", err)
		}
	}
	c.conn.Store(conn)
	close(c.ready)
	c.logger.Info("event channel listening", "addr", conn.LocalAddr().String(), "dscp", c.config.DSCP)

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	buf := make([]byte, readBufferSize)
	for {
		n, from, err := conn.ReadFromUDPAddrPort(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				c.logger.Info("event channel stopped")
				return nil
			}
			// Unconnected UDP reports per-datagram errors (e.g. ICMP
			// unreachable on some platforms); keep reading.
			c.logger.Debug("event channel read error", "error", err)
			continue
		}
		data := buf[:n]
		c.raw.Log(true, from.String(), data)

		ep, ok := c.reg.ByAddr(from.Addr())
		if !ok {
			c.unknown.Inc()
			c.logger.Debug("dropping datagram from unknown sender", "from", from.String(), "size", n)
			continue
		}
		c.lastSeen.Store(ep.Role, c.now())

		ev, err := event.Decode(data)
		if err != nil {
			c.malformed.Inc()
			c.logger.Debug("dropping undecodable datagram", "from", ep.Role, "size", n, "error", err)
			continue
		}
		c.received.Inc()
		c.logger.Log(ctx, log.LevelTrace, "event received", "from", ep.Role, "event", ev)
		h(ep, ev)
	}
}

// Send writes ev to the peer as exactly one datagram. Errors are returned
// for logging; nothing is retried.
func (c *Channel) Send(to peer.Endpoint, ev event.Event) error {
	conn := c.conn.Load()
	if conn == nil {
		c.sendFail.Inc()
		return ErrNotListening
	}
	var buf [event.MaxSize]byte
	n, err := event.Put(buf[:], ev)
	if err != nil {
		c.sendFail.Inc()
		return err
	}
	dst := to.EventAddr()
	if _, err := conn.WriteToUDPAddrPort(buf[:n], dst); err != nil {
		c.sendFail.Inc()
		return fmt.Errorf("send %s to %s: %w", ev.Kind(), to.Role, err)
	}
	c.sent.Inc()
	c.raw.Log(false, dst.String(), buf[:n])
	return nil
}

// LastSeen reports when a datagram from role was last received.
func (c *Channel) LastSeen(role peer.Role) (time.Time, bool) {
	return c.lastSeen.Load(role)
}

// Stats returns a snapshot of the channel counters.
func (c *Channel) Stats() Stats {
	return Stats{
		Received:  c.received.Load(),
		Unknown:   c.unknown.Load(),
		Malformed: c.malformed.Load(),
		Sent:      c.sent.Load(),
		SendFail:  c.sendFail.Load(),
	}
}

// Close closes the socket, ending ListenAndServe.
func (c *Channel) Close() error {
	conn := c.conn.Load()
	if conn == nil {
		return nil
	}
	err := conn.Close()
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}
