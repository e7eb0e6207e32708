package app

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/marusyk/Converse/internal/core"
	"github.com/marusyk/Converse/internal/domain"
)

// Relay is the stateless signaling router: it forwards opaque payloads to
// the target user's live connection with the sender attached. Unreachable
// targets are dropped silently; only the call-initiation path synthesizes
// user-visible failures.
type Relay struct {
	registry *Registry
}

func NewRelay(registry *Registry) *Relay {
	return &Relay{registry: registry}
}

// Forward reports whether the payload was handed to a live connection.
func (rl *Relay) Forward(from, to domain.UserID, ev core.EventType, payload json.RawMessage, callID string) bool {
	rec, ok := rl.registry.Lookup(to)
	if !ok || !rec.Conn.IsOpen() {
		log.Debug().Str("module", "app.relay").Str("to", string(to)).Str("event", string(ev)).Msg("target unreachable")
		return false
	}
	send(rec.Conn, core.SignalEvent{Type: ev, From: from, Payload: payload, CallID: callID})
	return true
}
