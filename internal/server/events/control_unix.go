//go:build unix

package events

import (
	"fmt"
	"syscall"

	"golang.org/x/sys/unix"
)

// control marks the socket's traffic class with dscp before it is bound.
func control(dscp int) func(network, address string, c syscall.RawConn) error {
	if dscp <= 0 {
		return nil
	}
	tos := (dscp & 0x3f) << 2
	return func(network, address string, c syscall.RawConn) error {
		var serr error
		err := c.Control(func(fd uintptr) {
			if network == "udp6" {
				serr = unix.SetsockoptInt(int(fd), unix.IPPROTO_IPV6, unix.IPV6_TCLASS, tos)
				// A dual-stack socket also carries IPv4; not every kernel accepts IP_TOS here.
				_ = unix.SetsockoptInt(int(fd), unix.IPPROTO_IP, unix.IP_TOS, tos)
				return
			}
			serr = unix.SetsockoptInt(int(fd), unix.IPPROTO_IP, unix.IP_TOS, tos)
		})
		if err != nil {
			return err
		}
		if serr != nil {
			return fmt.Errorf("set dscp %d: %w", dscp, serr)
		}
		return nil
	}
}
