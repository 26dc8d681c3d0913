// Package sideclient talks to the lanmouse side-channel of a peer.
package sideclient

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/lanmouse/lanmouse/sidetypes"
)

// ErrResponseTooLarge is returned when a response announces a body above
// sidetypes.MaxResponseSize.
var ErrResponseTooLarge = errors.New("side-channel response too large")

// Config controls low-level transport behavior such as timeouts.
type Config struct {
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

func defaultConfig() Config {
	return Config{
		DialTimeout:  3 * time.Second,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
}

// Transport is the low-level side-channel protocol implementation used by
// Client. Every call opens a fresh connection, writes one request, reads one
// response and closes. Framing is described in package sidetypes.
type Transport struct {
	addr string
	mock func(tag string, payload any, params map[string]string) ([]byte, error)
	cfg  Config
}

// NewTransport creates a new low-level transport.
func NewTransport(addr string) *Transport { return NewTransportWithConfig(addr, nil) }

// NewTransportWithConfig creates a new low-level transport with optional timeouts configuration.
func NewTransportWithConfig(addr string, cfg *Config) *Transport {
	c := defaultConfig()
	if cfg != nil {
		c = *cfg
	}
	return &Transport{addr: addr, cfg: c}
}

// NewMockTransport creates a transport that returns canned responses without
// real networking. A returned error is passed through as the call's error.
func NewMockTransport(responder func(tag string, payload any, params map[string]string) ([]byte, error)) *Transport {
	return &Transport{addr: "mock", mock: responder, cfg: defaultConfig()}
}

// Addr returns the remote address.
func (t *Transport) Addr() string { return t.addr }

// Do sends a request and returns the success body.
// Payload handling rules:
//
//	[]byte -> sent as-is
//	string -> UTF-8 bytes
//	struct/other -> JSON marshaled bytes
//	nil -> no payload appended
//
// An error response is returned as a sidetypes.ApiError.
func (t *Transport) Do(tag string, payload any, params map[string]string) ([]byte, error) {
	return t.DoCtx(context.Background(), tag, payload, params)
}

// DoCtx is like Do but honors the provided context and configured timeouts.
func (t *Transport) DoCtx(ctx context.Context, tag string, payload any, params map[string]string) ([]byte, error) {
	if t.mock != nil {
		return t.mock(tag, payload, params)
	}
	fullTag := fillTag(tag, params)
	pb, err := toPayloadBytes(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	req := []byte(fullTag)
	if len(pb) > 0 {
		req = append(append(req, ' '), pb...)
	}
	req = append(req, '\x00')
	if len(req) > sidetypes.MaxRequestSize {
		return nil, fmt.Errorf("request of %d bytes exceeds %d", len(req), sidetypes.MaxRequestSize)
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	d := &net.Dialer{Timeout: t.cfg.DialTimeout}
	conn, err := d.DialContext(ctx, "tcp", t.addr)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	// Unblock reads and writes when ctx ends before the deadlines do.
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
	defer stop()

	if tcpConn, ok := conn.(*net.TCPConn); ok {
		if err := tcpConn.SetNoDelay(true); err != nil {
			slog.Warn("failed to set TCP_NODELAY", "error", err)
		}
	}

	if t.cfg.WriteTimeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(t.cfg.WriteTimeout))
	}
	if _, err := conn.Write(req); err != nil {
		return nil, fmt.Errorf("write: %w", err)
	}
	if t.cfg.ReadTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(t.cfg.ReadTimeout))
	}
	return readResponse(conn)
}

func readResponse(r io.Reader) ([]byte, error) {
	var hdr [sidetypes.HeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	size := binary.BigEndian.Uint32(hdr[1:])
	if size > sidetypes.MaxResponseSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrResponseTooLarge, size)
	}
	body := make([]byte, size)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	switch hdr[0] {
	case sidetypes.StatusOK:
		return body, nil
	case sidetypes.StatusError:
		var apiErr sidetypes.ApiError
		if err := json.Unmarshal(body, &apiErr); err != nil {
			return nil, fmt.Errorf("decode error response: %w", err)
		}
		return nil, apiErr
	default:
		return nil, fmt.Errorf("invalid response status 0x%02x", hdr[0])
	}
}

func fillTag(pattern string, params map[string]string) string {
	if len(params) == 0 {
		return strings.ToLower(pattern)
	}
	out := pattern
	for k, v := range params {
		esc := url.PathEscape(v)
		out = strings.ReplaceAll(out, "{"+k+"}", esc)
	}
	return strings.ToLower(out)
}

func toPayloadBytes(v any) ([]byte, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case []byte:
		return t, nil
	case string:
		return []byte(t), nil
	default:
		return json.Marshal(v)
	}
}
