package app_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marusyk/Converse/internal/app"
	"github.com/marusyk/Converse/internal/core"
	"github.com/marusyk/Converse/internal/domain"
)

type fakePresenceStore struct {
	mu      sync.Mutex
	added   []domain.UserID
	removed []domain.UserID
}

func (s *fakePresenceStore) AddOnline(id domain.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.added = append(s.added, id)
	return nil
}

func (s *fakePresenceStore) RemoveOnline(id domain.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removed = append(s.removed, id)
	return nil
}

func TestPresence_OnlineBroadcastAndSnapshot(t *testing.T) {
	reg := app.NewRegistry()
	store := &fakePresenceStore{}
	presence := app.NewPresence(reg, store)

	connA := newFakeConn()
	reg.Register("alice", "Alice", connA)
	presence.Online("alice", "Alice", connA)

	connB := newFakeConn()
	reg.Register("bob", "Bob", connB)
	presence.Online("bob", "Bob", connB)

	// Alice learns about Bob.
	online := connA.eventsOfType(t, core.EvUserOnline)
	require.Len(t, online, 1)
	assert.Equal(t, "bob", online[0]["userId"])
	assert.Equal(t, "Bob", online[0]["displayName"])

	// Bob gets the full snapshot, including himself, and no announcement
	// about his own arrival.
	snapshots := connB.eventsOfType(t, core.EvOnlineUsers)
	require.Len(t, snapshots, 1)
	users := snapshots[0]["users"].([]any)
	assert.Len(t, users, 2)
	assert.Empty(t, connB.eventsOfType(t, core.EvUserOnline))

	assert.Equal(t, []domain.UserID{"alice", "bob"}, store.added)
}

func TestPresence_Offline(t *testing.T) {
	reg := app.NewRegistry()
	store := &fakePresenceStore{}
	presence := app.NewPresence(reg, store)

	connA := newFakeConn()
	reg.Register("alice", "Alice", connA)
	presence.Online("alice", "Alice", connA)

	reg.Unregister("bob", nil)
	presence.Offline("bob")

	offline := connA.eventsOfType(t, core.EvUserOffline)
	require.Len(t, offline, 1)
	assert.Equal(t, "bob", offline[0]["userId"])
	assert.Equal(t, []domain.UserID{"bob"}, store.removed)
}

func TestPresence_NilStoreIsSafe(t *testing.T) {
	reg := app.NewRegistry()
	presence := app.NewPresence(reg, nil)

	conn := newFakeConn()
	reg.Register("alice", "Alice", conn)
	presence.Online("alice", "Alice", conn)
	presence.Offline("alice")
}
