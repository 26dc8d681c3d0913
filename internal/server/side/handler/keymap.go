package handler

import (
	"encoding/json"
	"log/slog"

	"github.com/lanmouse/lanmouse/internal/server/side"
	"github.com/lanmouse/lanmouse/sidetypes"
)

// KeymapSource is the keymap offered to peers. Implementations must return
// the same bytes on every call.
type KeymapSource interface {
	Keymap() ([]byte, bool)
	Digest() (string, bool)
}

// Keymap returns a handler answering GetKeymap with the raw keymap blob.
func Keymap(src KeymapSource) side.HandlerFunc {
	return func(req *side.Request, res *side.Response, logger *slog.Logger) error {
		data, ok := src.Keymap()
		if !ok {
			return side.ErrNotFound("no keymap offered")
		}
		res.Body = data
		return nil
	}
}

// KeymapDigest returns a handler describing the keymap without sending it,
// so a peer can skip the transfer when its cached copy matches.
func KeymapDigest(src KeymapSource) side.HandlerFunc {
	return func(req *side.Request, res *side.Response, logger *slog.Logger) error {
		data, ok := src.Keymap()
		if !ok {
			return side.ErrNotFound("no keymap offered")
		}
		digest, _ := src.Digest()
		b, err := json.Marshal(sidetypes.KeymapDigestResponse{Digest: digest, Size: len(data)})
		if err != nil {
			return err
		}
		res.Body = b
		return nil
	}
}
