package app_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marusyk/Converse/internal/app"
	"github.com/marusyk/Converse/internal/core"
)

func TestRelay_ForwardAttachesSender(t *testing.T) {
	reg := app.NewRegistry()
	relay := app.NewRelay(reg)

	connB := newFakeConn()
	reg.Register("bob", "Bob", connB)

	payload := json.RawMessage(`{"sdp":"v=0"}`)
	ok := relay.Forward("alice", "bob", core.EvOffer, payload, "c1")
	require.True(t, ok)

	offers := connB.eventsOfType(t, core.EvOffer)
	require.Len(t, offers, 1)
	assert.Equal(t, "alice", offers[0]["from"])
	assert.Equal(t, "c1", offers[0]["callId"])
	assert.Equal(t, map[string]any{"sdp": "v=0"}, offers[0]["payload"])
}

func TestRelay_UnreachableTargetIsSilentlyDropped(t *testing.T) {
	reg := app.NewRegistry()
	relay := app.NewRelay(reg)

	assert.False(t, relay.Forward("alice", "nobody", core.EvICECandidate, nil, ""))

	// Present but stale handle: dropped as well.
	connB := newFakeConn()
	reg.Register("bob", "Bob", connB)
	connB.Close()
	assert.False(t, relay.Forward("alice", "bob", core.EvICECandidate, nil, ""))
}
