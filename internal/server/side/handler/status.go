package handler

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/lanmouse/lanmouse/internal/server/side"
	"github.com/lanmouse/lanmouse/ownership"
	"github.com/lanmouse/lanmouse/peer"
	"github.com/lanmouse/lanmouse/sidetypes"
)

// StateSource exposes the ownership machine snapshot.
type StateSource interface {
	State() ownership.State
	Transitions() uint64
}

// LastSeener reports when a datagram from a peer was last received.
type LastSeener interface {
	LastSeen(role peer.Role) (time.Time, bool)
}

// Status returns a handler describing the ownership state and peers.
func Status(reg *peer.Registry, state StateSource, seen LastSeener) side.HandlerFunc {
	return func(req *side.Request, res *side.Response, logger *slog.Logger) error {
		resp := sidetypes.StatusResponse{
			Role:        string(reg.Self().Role),
			State:       state.State().String(),
			Transitions: state.Transitions(),
			Peers:       []sidetypes.PeerStatus{},
		}
		for _, ep := range reg.Peers() {
			ps := sidetypes.PeerStatus{
				Role:     string(ep.Role),
				Address:  ep.EventAddr().String(),
				Position: ep.Position.String(),
			}
			if seen != nil {
				if t, ok := seen.LastSeen(ep.Role); ok {
					t := t.UTC()
					ps.LastSeen = &t
				}
			}
			resp.Peers = append(resp.Peers, ps)
		}
		b, err := json.Marshal(resp)
		if err != nil {
			return err
		}
		res.Body = b
		return nil
	}
}
