package app

import (
	"github.com/rs/zerolog/log"

	"github.com/marusyk/Converse/internal/core"
)

// send encodes v and hands it to the connection. Delivery is best-effort:
// encode failures and backpressure are logged, never propagated.
func send(conn core.SignalConnection, v any) {
	f, err := core.Encode(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app").Msg("encode event")
		return
	}
	if err := conn.TrySend(f); err != nil {
		log.Warn().Err(err).Str("module", "app").Msg("drop event")
	}
}
