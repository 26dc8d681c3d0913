package side

import "time"

// Config represents the side-channel server configuration.
type Config struct {
	Addr              string        `help:"Side-channel listen address (TCP)" default:":4242" env:"LANMOUSE_SIDE_ADDR"`
	ConnectionTimeout time.Duration `help:"Deadline for reading one request and writing its response" default:"5s" env:"LANMOUSE_SIDE_CONNECTION_TIMEOUT"`
}
