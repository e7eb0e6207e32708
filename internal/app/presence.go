package app

import (
	"github.com/rs/zerolog/log"

	"github.com/marusyk/Converse/internal/core"
	"github.com/marusyk/Converse/internal/domain"
)

// PresenceStore mirrors the online set into shared storage so other
// processes can read it. All writes are best-effort.
type PresenceStore interface {
	AddOnline(userID domain.UserID) error
	RemoveOnline(userID domain.UserID) error
}

// Presence announces online/offline transitions to every other live
// connection and hands the current online set to new arrivals.
type Presence struct {
	registry *Registry
	store    PresenceStore // optional
}

func NewPresence(registry *Registry, store PresenceStore) *Presence {
	return &Presence{registry: registry, store: store}
}

// Online broadcasts user-online to everyone else and sends the full
// online-users snapshot to the connection that just registered, so it can
// render presence without polling.
func (p *Presence) Online(userID domain.UserID, displayName string, conn core.SignalConnection) {
	records := p.registry.Records()
	snapshot := make([]core.OnlineUser, 0, len(records))
	announce := core.UserOnlineEvent{Type: core.EvUserOnline, UserID: userID, DisplayName: displayName}

	for _, rec := range records {
		snapshot = append(snapshot, core.OnlineUser{ID: rec.UserID, DisplayName: rec.DisplayName})
		if rec.UserID != userID {
			send(rec.Conn, announce)
		}
	}
	send(conn, core.OnlineUsersEvent{Type: core.EvOnlineUsers, Users: snapshot})

	if p.store != nil {
		if err := p.store.AddOnline(userID); err != nil {
			log.Warn().Err(err).Str("module", "app.presence").Str("user", string(userID)).Msg("presence mirror add")
		}
	}
	log.Info().Str("module", "app.presence").Str("user", string(userID)).Msg("online")
}

// Offline broadcasts user-offline to all remaining connections.
func (p *Presence) Offline(userID domain.UserID) {
	announce := core.UserOfflineEvent{Type: core.EvUserOffline, UserID: userID}
	for _, rec := range p.registry.Records() {
		if rec.UserID != userID {
			send(rec.Conn, announce)
		}
	}
	if p.store != nil {
		if err := p.store.RemoveOnline(userID); err != nil {
			log.Warn().Err(err).Str("module", "app.presence").Str("user", string(userID)).Msg("presence mirror remove")
		}
	}
	log.Info().Str("module", "app.presence").Str("user", string(userID)).Msg("offline")
}
