package events

// Config represents the event channel configuration.
type Config struct {
	Addr        string `help:"Event channel listen address (UDP)" default:":4242" env:"LANMOUSE_EVENTS_ADDR"`
	ReadBuffer  int    `help:"Socket receive buffer size in bytes (0 keeps the OS default)" default:"1048576" env:"LANMOUSE_EVENTS_READ_BUFFER"`
	WriteBuffer int    `help:"Socket send buffer size in bytes (0 keeps the OS default)" default:"0" env:"LANMOUSE_EVENTS_WRITE_BUFFER"`
	DSCP        int    `help:"DSCP class marked on sent datagrams (0 disables marking)" default:"46" env:"LANMOUSE_EVENTS_DSCP"`
}
