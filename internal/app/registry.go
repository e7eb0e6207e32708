package app

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/marusyk/Converse/internal/core"
	"github.com/marusyk/Converse/internal/domain"
)

// ConnRecord is one live authenticated connection. Fields are immutable
// after Register stores the record.
type ConnRecord struct {
	UserID      domain.UserID
	DisplayName string
	Conn        core.SignalConnection
	ConnectedAt time.Time
}

// Registry maps a user identity to its live connection. At most one
// authoritative record exists per user at any instant; a second login
// supersedes the first.
type Registry struct {
	mu    sync.RWMutex
	conns map[domain.UserID]*ConnRecord
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[domain.UserID]*ConnRecord)}
}

// Register stores the record for userID. An existing entry with a different
// handle is superseded: the old handle is fully closed before the new one
// becomes authoritative, so there is no window with two valid handles.
func (r *Registry) Register(userID domain.UserID, displayName string, conn core.SignalConnection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.conns[userID]; ok && old.Conn != conn {
		old.Conn.Close()
		log.Info().Str("module", "app.registry").Str("user", string(userID)).Msg("superseded connection")
	}
	r.conns[userID] = &ConnRecord{
		UserID:      userID,
		DisplayName: displayName,
		Conn:        conn,
		ConnectedAt: time.Now(),
	}
	log.Info().Str("module", "app.registry").Str("user", string(userID)).Str("name", displayName).Msg("registered")
}

// Unregister removes the entry only while conn is still the authoritative
// handle, so the teardown of a superseded connection cannot evict its
// successor. A nil conn removes unconditionally. No-op if absent.
func (r *Registry) Unregister(userID domain.UserID, conn core.SignalConnection) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.conns[userID]
	if !ok {
		return false
	}
	if conn != nil && rec.Conn != conn {
		return false
	}
	delete(r.conns, userID)
	log.Info().Str("module", "app.registry").Str("user", string(userID)).Msg("unregistered")
	return true
}

func (r *Registry) Lookup(userID domain.UserID) (*ConnRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.conns[userID]
	return rec, ok
}

// Online returns a snapshot of the registered user ids, not a live view.
func (r *Registry) Online() []domain.UserID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.UserID, 0, len(r.conns))
	for id := range r.conns {
		out = append(out, id)
	}
	return out
}

// Records returns a snapshot of all live records, for fan-out.
func (r *Registry) Records() []*ConnRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*ConnRecord, 0, len(r.conns))
	for _, rec := range r.conns {
		out = append(out, rec)
	}
	return out
}
