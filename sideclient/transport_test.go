package sideclient_test

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanmouse/lanmouse/sideclient"
	"github.com/lanmouse/lanmouse/sidetypes"
)

// fakeServer accepts connections and answers each with respond, after
// recording the raw request.
func fakeServer(t *testing.T, respond func(req []byte) []byte) (addr string, requests chan []byte) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })
	requests = make(chan []byte, 16)
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				req, err := bufio.NewReader(c).ReadBytes(0)
				if err != nil {
					return
				}
				requests <- req
				if out := respond(req); out != nil {
					_, _ = c.Write(out)
				}
			}(c)
		}
	}()
	return ln.Addr().String(), requests
}

func frame(status byte, body string) []byte {
	out := make([]byte, sidetypes.HeaderSize+len(body))
	out[0] = status
	binary.BigEndian.PutUint32(out[1:], uint32(len(body)))
	copy(out[sidetypes.HeaderSize:], body)
	return out
}

func TestTransportFraming(t *testing.T) {
	addr, requests := fakeServer(t, func([]byte) []byte { return frame(sidetypes.StatusOK, "pong") })
	tr := sideclient.NewTransport(addr)

	tests := []struct {
		name    string
		tag     string
		payload any
		params  map[string]string
		want    string
	}{
		{name: "bare tag", tag: "Ping", want: "ping\x00"},
		{name: "string payload", tag: "echo", payload: "a b", want: "echo a b\x00"},
		{name: "bytes payload", tag: "echo", payload: []byte{1, 2}, want: "echo \x01\x02\x00"},
		{name: "json payload", tag: "echo", payload: map[string]int{"n": 1}, want: "echo {\"n\":1}\x00"},
		{name: "params", tag: "keymap/{role}", params: map[string]string{"role": "Desk"}, want: "keymap/desk\x00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, err := tr.Do(tt.tag, tt.payload, tt.params)
			require.NoError(t, err)
			assert.Equal(t, "pong", string(body))
			assert.Equal(t, tt.want, string(<-requests))
		})
	}
}

func TestTransportErrors(t *testing.T) {
	tests := []struct {
		name    string
		respond []byte
		check   func(t *testing.T, err error)
	}{
		{
			name:    "problem response",
			respond: frame(sidetypes.StatusError, `{"status":404,"title":"Not Found","detail":"no keymap offered"}`),
			check: func(t *testing.T, err error) {
				var apiErr sidetypes.ApiError
				require.ErrorAs(t, err, &apiErr)
				assert.Equal(t, 404, apiErr.Status)
				assert.Equal(t, "404 Not Found: no keymap offered", apiErr.Error())
			},
		},
		{
			name:    "oversized body",
			respond: func() []byte { b := frame(sidetypes.StatusOK, ""); binary.BigEndian.PutUint32(b[1:], sidetypes.MaxResponseSize+1); return b }(),
			check:   func(t *testing.T, err error) { assert.ErrorIs(t, err, sideclient.ErrResponseTooLarge) },
		},
		{
			name:    "short body",
			respond: frame(sidetypes.StatusOK, "abcdef")[:8],
			check:   func(t *testing.T, err error) { assert.Error(t, err) },
		},
		{
			name:    "bad status",
			respond: frame(0x7f, ""),
			check:   func(t *testing.T, err error) { assert.ErrorContains(t, err, "invalid response status") },
		},
		{
			name:    "closed without response",
			respond: nil,
			check:   func(t *testing.T, err error) { assert.Error(t, err) },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, _ := fakeServer(t, func([]byte) []byte { return tt.respond })
			_, err := sideclient.NewTransport(addr).Do("keymap", nil, nil)
			tt.check(t, err)
		})
	}
}

func TestTransportContextCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		c, err := ln.Accept()
		if err == nil {
			// Hold the connection open without answering.
			defer c.Close()
			time.Sleep(2 * time.Second)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err = sideclient.NewTransport(ln.Addr().String()).DoCtx(ctx, "ping", nil, nil)
	assert.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)

	_, err = sideclient.NewTransport(ln.Addr().String()).DoCtx(ctx, "ping", nil, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMockTransport(t *testing.T) {
	tr := sideclient.NewMockTransport(func(tag string, payload any, params map[string]string) ([]byte, error) {
		assert.Equal(t, sidetypes.TagKeymapDigest, tag)
		return []byte(`{"digest":"ff","size":3}`), nil
	})
	resp, err := sideclient.WithTransport(tr).KeymapDigest()
	require.NoError(t, err)
	assert.Equal(t, sidetypes.KeymapDigestResponse{Digest: "ff", Size: 3}, *resp)
}

func TestRetry(t *testing.T) {
	transient := errors.New("connection refused")
	tests := []struct {
		name      string
		attempts  int
		failures  int
		err       error
		wantCalls int32
		wantErr   bool
	}{
		{name: "first try", attempts: 3, failures: 0, wantCalls: 1},
		{name: "recovers", attempts: 3, failures: 2, err: transient, wantCalls: 3},
		{name: "gives up", attempts: 3, failures: 5, err: transient, wantCalls: 3, wantErr: true},
		{name: "client error is final", attempts: 3, failures: 5, err: sidetypes.ApiError{Status: 404}, wantCalls: 1, wantErr: true},
		{name: "server error retried", attempts: 2, failures: 5, err: sidetypes.ApiError{Status: 500}, wantCalls: 2, wantErr: true},
		{name: "zero attempts runs once", attempts: 0, failures: 0, wantCalls: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			err := sideclient.Retry(context.Background(), tt.attempts, time.Millisecond, func(context.Context) error {
				if int(calls.Add(1)) <= tt.failures {
					return tt.err
				}
				return nil
			})
			assert.Equal(t, tt.wantCalls, calls.Load())
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRetryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32
	err := sideclient.Retry(ctx, 10, time.Hour, func(context.Context) error {
		calls.Add(1)
		cancel()
		return errors.New("down")
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRetryKeepsClientError(t *testing.T) {
	err := sideclient.Retry(context.Background(), 5, time.Millisecond, func(context.Context) error {
		return sidetypes.ApiError{Status: 404, Title: "Not Found"}
	})
	var apiErr sidetypes.ApiError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 404, apiErr.Status)
}

func TestRetryJoinsLastErrorOnCancel(t *testing.T) {
	down := errors.New("down")
	ctx, cancel := context.WithCancel(context.Background())
	err := sideclient.Retry(ctx, 10, time.Hour, func(context.Context) error {
		cancel()
		return down
	})
	assert.ErrorIs(t, err, down)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRetryDoublesBackoff(t *testing.T) {
	var stamps []time.Time
	err := sideclient.Retry(context.Background(), 3, 20*time.Millisecond, func(context.Context) error {
		stamps = append(stamps, time.Now())
		return errors.New("refused")
	})
	require.Error(t, err)
	require.Len(t, stamps, 3)
	assert.GreaterOrEqual(t, stamps[1].Sub(stamps[0]), 20*time.Millisecond)
	assert.GreaterOrEqual(t, stamps[2].Sub(stamps[1]), 40*time.Millisecond)
}
