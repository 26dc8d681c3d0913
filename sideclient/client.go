package sideclient

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lanmouse/lanmouse/sidetypes"
)

// Client provides a high-level interface to a peer's side-channel, handling
// request formatting, response parsing and error handling.
type Client struct{ transport *Transport }

// New constructs a client for the side-channel at addr (host:port).
func New(addr string) *Client { return &Client{transport: NewTransport(addr)} }

// NewWithConfig constructs a client with custom transport timeouts.
func NewWithConfig(addr string, cfg *Config) *Client {
	return &Client{transport: NewTransportWithConfig(addr, cfg)}
}

// WithTransport constructs a Client using a custom Transport implementation.
func WithTransport(t *Transport) *Client { return &Client{transport: t} }

// Ping returns the identity of the peer.
func (c *Client) Ping() (*sidetypes.PingResponse, error) {
	return c.PingCtx(context.Background())
}

// PingCtx is the context-aware version of Ping.
func (c *Client) PingCtx(ctx context.Context) (*sidetypes.PingResponse, error) {
	raw, err := c.transport.DoCtx(ctx, sidetypes.TagPing, nil, nil)
	if err != nil {
		return nil, err
	}
	return parse[sidetypes.PingResponse](raw)
}

// GetKeymap fetches the opaque keymap blob the peer offers.
func (c *Client) GetKeymap() ([]byte, error) {
	return c.GetKeymapCtx(context.Background())
}

func (c *Client) GetKeymapCtx(ctx context.Context) ([]byte, error) {
	return c.transport.DoCtx(ctx, sidetypes.TagKeymap, nil, nil)
}

// KeymapDigest returns the digest and size of the keymap the peer offers.
func (c *Client) KeymapDigest() (*sidetypes.KeymapDigestResponse, error) {
	return c.KeymapDigestCtx(context.Background())
}

func (c *Client) KeymapDigestCtx(ctx context.Context) (*sidetypes.KeymapDigestResponse, error) {
	raw, err := c.transport.DoCtx(ctx, sidetypes.TagKeymapDigest, nil, nil)
	if err != nil {
		return nil, err
	}
	return parse[sidetypes.KeymapDigestResponse](raw)
}

// Status returns the ownership state and peer view of the remote host.
func (c *Client) Status() (*sidetypes.StatusResponse, error) {
	return c.StatusCtx(context.Background())
}

func (c *Client) StatusCtx(ctx context.Context) (*sidetypes.StatusResponse, error) {
	raw, err := c.transport.DoCtx(ctx, sidetypes.TagStatus, nil, nil)
	if err != nil {
		return nil, err
	}
	return parse[sidetypes.StatusResponse](raw)
}

func parse[T any](raw []byte) (*T, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &v, nil
}
