//go:build !unix

package events

import "syscall"

// control is a no-op where golang.org/x/sys/unix is unavailable.
func control(int) func(network, address string, c syscall.RawConn) error { return nil }
