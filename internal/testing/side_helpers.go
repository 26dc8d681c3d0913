package testing

import (
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/lanmouse/lanmouse/internal/server/side"
	"github.com/lanmouse/lanmouse/sidetypes"
)

// StartSideServer starts a side-channel server on a free loopback port and
// calls register to allow the caller to register the handlers needed for
// the test. Returns the address and a function to call when done.
func StartSideServer(t *testing.T, register func(r *side.Router)) (addr string, srv *side.Server, done func()) {
	t.Helper()
	srv = side.New("127.0.0.1:0", side.Config{ConnectionTimeout: 2 * time.Second}, slog.Default())
	if register != nil {
		register(srv.Router())
	}
	if err := srv.Start(); err != nil {
		t.Fatalf("side start failed: %v", err)
	}
	done = func() {
		srv.Close()
	}
	return srv.Addr().String(), srv, done
}

// ExecRaw dials addr, writes raw as-is and reads one framed response.
// It returns the status byte and the body.
func ExecRaw(t *testing.T, addr string, raw []byte) (byte, []byte) {
	t.Helper()
	c, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer c.Close()
	_ = c.SetDeadline(time.Now().Add(2 * time.Second))

	if _, err := c.Write(raw); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	var hdr [sidetypes.HeaderSize]byte
	if _, err := io.ReadFull(c, hdr[:]); err != nil {
		t.Fatalf("read header failed: %v", err)
	}
	body := make([]byte, binary.BigEndian.Uint32(hdr[1:]))
	if _, err := io.ReadFull(c, body); err != nil {
		t.Fatalf("read body failed: %v", err)
	}
	return hdr[0], body
}

// ExecCmd sends cmd with the null terminator the side-channel expects.
func ExecCmd(t *testing.T, addr string, cmd string) (byte, []byte) {
	t.Helper()
	return ExecRaw(t, addr, []byte(fmt.Sprintf("%s\x00", cmd)))
}

// FreeUDPAddr returns a loopback UDP address that was free a moment ago.
func FreeUDPAddr(t *testing.T) string {
	t.Helper()
	c, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen failed: %v", err)
	}
	addr := c.LocalAddr().String()
	_ = c.Close()
	return addr
}

// FreeTCPAddr returns a loopback TCP address that was free a moment ago.
func FreeTCPAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen failed: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()
	return addr
}
