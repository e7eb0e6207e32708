package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/marusyk/Converse/internal/core"
	"github.com/marusyk/Converse/internal/domain"
)

// Rooms tracks which connections belong to which fan-out group. One room
// per conversation, plus one per user id for direct addressing.
type Rooms struct {
	mu    sync.RWMutex
	rooms map[string]map[domain.UserID]core.SignalConnection
}

func NewRooms() *Rooms {
	return &Rooms{rooms: make(map[string]map[domain.UserID]core.SignalConnection)}
}

func (r *Rooms) Join(roomID string, userID domain.UserID, conn core.SignalConnection) {
	if roomID == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	members, ok := r.rooms[roomID]
	if !ok {
		members = make(map[domain.UserID]core.SignalConnection)
		r.rooms[roomID] = members
	}
	members[userID] = conn
	log.Info().Str("module", "app.rooms").Str("room", roomID).Str("user", string(userID)).Msg("joined")
}

func (r *Rooms) Leave(roomID string, userID domain.UserID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	members, ok := r.rooms[roomID]
	if !ok {
		return
	}
	delete(members, userID)
	if len(members) == 0 {
		delete(r.rooms, roomID)
	}
	log.Info().Str("module", "app.rooms").Str("room", roomID).Str("user", string(userID)).Msg("left")
}

// LeaveAll removes the user from every room, but only where conn is still
// the member's handle. A superseded connection must not evict the
// membership its successor re-established.
func (r *Rooms) LeaveAll(userID domain.UserID, conn core.SignalConnection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for roomID, members := range r.rooms {
		if cur, ok := members[userID]; ok && (conn == nil || cur == conn) {
			delete(members, userID)
			if len(members) == 0 {
				delete(r.rooms, roomID)
			}
		}
	}
}

// Broadcast fans v out to every member of the room except exclude.
// Stale members with a closed handle are skipped.
func (r *Rooms) Broadcast(roomID string, exclude domain.UserID, v any) {
	r.mu.RLock()
	conns := make([]core.SignalConnection, 0, len(r.rooms[roomID]))
	for userID, conn := range r.rooms[roomID] {
		if userID == exclude {
			continue
		}
		conns = append(conns, conn)
	}
	r.mu.RUnlock()

	for _, conn := range conns {
		if !conn.IsOpen() {
			continue
		}
		send(conn, v)
	}
}

func (r *Rooms) MemberCount(roomID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[roomID])
}
