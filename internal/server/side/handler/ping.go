package handler

import (
	"encoding/json"
	"log/slog"

	"github.com/lanmouse/lanmouse/internal/server/side"
	"github.com/lanmouse/lanmouse/peer"
	"github.com/lanmouse/lanmouse/sidetypes"
)

// Ping returns a handler identifying this host.
func Ping(version string, role peer.Role) side.HandlerFunc {
	return func(req *side.Request, res *side.Response, logger *slog.Logger) error {
		b, err := json.Marshal(sidetypes.PingResponse{Server: "lanmouse", Version: version, Role: string(role)})
		if err != nil {
			return err
		}
		res.Body = b
		return nil
	}
}
