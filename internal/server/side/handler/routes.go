package handler

import (
	"github.com/lanmouse/lanmouse/internal/server/side"
	"github.com/lanmouse/lanmouse/peer"
	"github.com/lanmouse/lanmouse/sidetypes"
)

// Deps are the services the side-channel handlers read from.
type Deps struct {
	Version  string
	Registry *peer.Registry
	Keymap   KeymapSource
	State    StateSource
	Seen     LastSeener
}

// RegisterAll registers every side-channel route on r.
func RegisterAll(r *side.Router, d Deps) {
	r.Register(sidetypes.TagPing, Ping(d.Version, d.Registry.Self().Role))
	r.Register(sidetypes.TagKeymap, Keymap(d.Keymap))
	r.Register(sidetypes.TagKeymapDigest, KeymapDigest(d.Keymap))
	r.Register(sidetypes.TagStatus, Status(d.Registry, d.State, d.Seen))
}
