package session

import "time"

// Config holds runtime tunables of a session.
type Config struct {
	SinkTimeout     time.Duration `help:"Maximum time one event may take to inject" default:"250ms" env:"LANMOUSE_SINK_TIMEOUT"`
	SinkMaxFailures int           `help:"Consecutive injection failures after which the session stops (0 disables)" default:"25" env:"LANMOUSE_SINK_MAX_FAILURES"`
	KeymapAttempts  int           `help:"Attempts per keymap request to the owner" default:"5" env:"LANMOUSE_KEYMAP_ATTEMPTS"`
	KeymapBackoff   time.Duration `help:"Initial backoff between keymap request attempts" default:"250ms" env:"LANMOUSE_KEYMAP_BACKOFF"`
}
