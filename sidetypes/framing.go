package sidetypes

// Side-channel framing.
//
// Request: `<tag>[ SP <payload>] \x00`. Tags are case-insensitive.
// Response: one status byte, a big-endian uint32 body length, then the body.
// StatusOK bodies are handler defined; StatusError bodies are a JSON
// ApiError. The server closes the connection after the response.
const (
	// HeaderSize is the size of the response header.
	HeaderSize = 5
	// MaxRequestSize bounds a request including its terminator.
	MaxRequestSize = 64 << 10
	// MaxResponseSize bounds a response body accepted by clients.
	MaxResponseSize = 16 << 20
)

// Request tags.
const (
	TagPing         = "ping"
	TagKeymap       = "keymap"
	TagKeymapDigest = "keymap/digest"
	TagStatus       = "status"
)
