//go:build unix

package events

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestControlSetsTOS(t *testing.T) {
	lc := net.ListenConfig{Control: control(46)}
	pc, err := lc.ListenPacket(context.Background(), "udp4", "127.0.0.1:0")
	require.NoError(t, err)
	defer pc.Close()

	raw, err := pc.(*net.UDPConn).SyscallConn()
	require.NoError(t, err)
	var tos int
	var gerr error
	require.NoError(t, raw.Control(func(fd uintptr) {
		tos, gerr = unix.GetsockoptInt(int(fd), unix.IPPROTO_IP, unix.IP_TOS)
	}))
	require.NoError(t, gerr)
	assert.Equal(t, 46<<2, tos)
}

func TestControlDisabled(t *testing.T) {
	assert.Nil(t, control(0))
}
