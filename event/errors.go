package event

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownKind is returned when the tag byte is not a known Kind.
	ErrUnknownKind = errors.New("unknown event kind")
	// ErrTruncated is returned when the buffer is shorter than the size implied by its tag.
	ErrTruncated = errors.New("truncated event")
	// ErrInvalidField is returned when a state, axis or edge byte is out of range
	// or a float field is NaN or infinite.
	ErrInvalidField = errors.New("invalid event field")
	// ErrShortBuffer is returned by Put when dst cannot hold the encoded event.
	ErrShortBuffer = errors.New("buffer too small for event")
)

// DecodeError describes why a buffer could not be decoded.
type DecodeError struct {
	Kind Kind
	Len  int
	Err  error
}

func (e *DecodeError) Error() string {
	switch {
	case errors.Is(e.Err, ErrUnknownKind):
		return fmt.Sprintf("decode: %v: tag %d", e.Err, uint8(e.Kind))
	case errors.Is(e.Err, ErrTruncated):
		if e.Len == 0 {
			return fmt.Sprintf("decode: %v: empty buffer", e.Err)
		}
		return fmt.Sprintf("decode %s: %v: have %d bytes, need %d", e.Kind, e.Err, e.Len, Size(e.Kind))
	default:
		return fmt.Sprintf("decode %s: %v", e.Kind, e.Err)
	}
}

func (e *DecodeError) Unwrap() error { return e.Err }
