package app_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marusyk/Converse/internal/app"
	"github.com/marusyk/Converse/internal/core"
)

func newCallSetup() (*app.Registry, *app.CallManager) {
	reg := app.NewRegistry()
	cm := app.NewCallManager(reg, app.NewPresence(reg, nil))
	cm.RingTimeout = 60 * time.Millisecond
	cm.OfferDelay = 20 * time.Millisecond
	return reg, cm
}

func TestCalls_InitiateToOfflineCallee(t *testing.T) {
	reg, cm := newCallSetup()
	connA := newFakeConn()
	reg.Register("alice", "Alice", connA)

	cm.Initiate("alice", "bob", false, "c1")

	offline := connA.eventsOfType(t, core.EvCallUserOffline)
	require.Len(t, offline, 1)
	assert.Equal(t, "bob", offline[0]["targetId"])
	_, tracked := cm.Session("c1")
	assert.False(t, tracked, "no session may be created")
}

func TestCalls_InitiateSelfCall(t *testing.T) {
	reg, cm := newCallSetup()
	connA := newFakeConn()
	reg.Register("alice", "Alice", connA)

	cm.Initiate("alice", "alice", true, "c1")

	failed := connA.eventsOfType(t, core.EvCallFailed)
	require.Len(t, failed, 1)
	assert.Equal(t, "invalid-target", failed[0]["reason"])
	_, tracked := cm.Session("c1")
	assert.False(t, tracked)
}

func TestCalls_InitiateCleansUpStaleCallee(t *testing.T) {
	reg, cm := newCallSetup()
	connA := newFakeConn()
	connB := newFakeConn()
	reg.Register("alice", "Alice", connA)
	reg.Register("bob", "Bob", connB)
	// Bob's handle died without a teardown.
	connB.Close()

	cm.Initiate("alice", "bob", false, "c1")

	offline := connA.eventsOfType(t, core.EvCallUserOffline)
	require.Len(t, offline, 1)
	_, ok := reg.Lookup("bob")
	assert.False(t, ok, "stale registry entry must be cleaned up")
	// The cleanup also announces the lost presence.
	assert.Len(t, connA.eventsOfType(t, core.EvUserOffline), 1)
	_, tracked := cm.Session("c1")
	assert.False(t, tracked)
}

func TestCalls_InitiateRingsCallee(t *testing.T) {
	reg, cm := newCallSetup()
	connA := newFakeConn()
	connB := newFakeConn()
	reg.Register("alice", "Alice", connA)
	reg.Register("bob", "Bob", connB)

	cm.Initiate("alice", "bob", true, "c1")

	incoming := connB.eventsOfType(t, core.EvIncomingCall)
	require.Len(t, incoming, 1)
	assert.Equal(t, "alice", incoming[0]["from"])
	assert.Equal(t, "Alice", incoming[0]["fromName"])
	assert.Equal(t, true, incoming[0]["isVideo"])
	assert.Equal(t, "c1", incoming[0]["callId"])

	sent := connA.eventsOfType(t, core.EvCallSent)
	require.Len(t, sent, 1)
	assert.Equal(t, "c1", sent[0]["callId"])

	sess, tracked := cm.Session("c1")
	require.True(t, tracked)
	assert.Equal(t, app.CallRinging, sess.Status)
}

func TestCalls_RingTimeout(t *testing.T) {
	reg, cm := newCallSetup()
	connA := newFakeConn()
	connB := newFakeConn()
	reg.Register("alice", "Alice", connA)
	reg.Register("bob", "Bob", connB)

	cm.Initiate("alice", "bob", false, "c1")
	time.Sleep(150 * time.Millisecond)

	failed := connA.eventsOfType(t, core.EvCallFailed)
	require.Len(t, failed, 1)
	assert.Equal(t, "No answer", failed[0]["reason"])

	ended := connB.eventsOfType(t, core.EvCallEnded)
	require.Len(t, ended, 1)
	assert.Equal(t, "timeout", ended[0]["reason"])

	_, tracked := cm.Session("c1")
	assert.False(t, tracked)
}

func TestCalls_AcceptCancelsRingTimeout(t *testing.T) {
	reg, cm := newCallSetup()
	connA := newFakeConn()
	connB := newFakeConn()
	reg.Register("alice", "Alice", connA)
	reg.Register("bob", "Bob", connB)

	cm.Initiate("alice", "bob", false, "c1")
	cm.Accept("bob", "alice", "c1")
	time.Sleep(150 * time.Millisecond)

	assert.Empty(t, connA.eventsOfType(t, core.EvCallFailed), "cancelled timer must not fire")
	accepted := connA.eventsOfType(t, core.EvCallAccepted)
	require.Len(t, accepted, 1)
	assert.Equal(t, "bob", accepted[0]["from"])

	// The caller is instructed to start the offer only after the delay.
	starts := connA.eventsOfType(t, core.EvStartOffer)
	require.Len(t, starts, 1)
	assert.Equal(t, "bob", starts[0]["from"])

	sess, tracked := cm.Session("c1")
	require.True(t, tracked)
	assert.Equal(t, app.CallAccepted, sess.Status)
	assert.False(t, sess.AcceptedAt.IsZero())
}

func TestCalls_AcceptAfterRejectIsBestEffort(t *testing.T) {
	reg, cm := newCallSetup()
	connA := newFakeConn()
	connB := newFakeConn()
	reg.Register("alice", "Alice", connA)
	reg.Register("bob", "Bob", connB)

	cm.Initiate("alice", "bob", false, "c1")
	cm.Reject("bob", "alice", "c1", "busy")

	rejected := connA.eventsOfType(t, core.EvCallRejected)
	require.Len(t, rejected, 1)
	assert.Equal(t, "busy", rejected[0]["reason"])

	// Late accept: relayed so the caller UI gets a terminal signal, but no
	// session is resurrected.
	cm.Accept("bob", "alice", "c1")
	assert.Len(t, connA.eventsOfType(t, core.EvCallAccepted), 1)
	_, tracked := cm.Session("c1")
	assert.False(t, tracked)

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, connA.eventsOfType(t, core.EvStartOffer), "no offer handshake without a session")
}

func TestCalls_AnswerMarksConnected(t *testing.T) {
	reg, cm := newCallSetup()
	connA := newFakeConn()
	connB := newFakeConn()
	reg.Register("alice", "Alice", connA)
	reg.Register("bob", "Bob", connB)

	cm.Initiate("alice", "bob", false, "c1")
	cm.Accept("bob", "alice", "c1")
	cm.MarkConnected("c1")

	sess, tracked := cm.Session("c1")
	require.True(t, tracked)
	assert.Equal(t, app.CallConnected, sess.Status)
	assert.False(t, sess.ConnectedAt.IsZero())

	// Unknown callId is a no-op.
	cm.MarkConnected("nope")
}

func TestCalls_DisconnectEndsCall(t *testing.T) {
	reg, cm := newCallSetup()
	connA := newFakeConn()
	connB := newFakeConn()
	reg.Register("alice", "Alice", connA)
	reg.Register("bob", "Bob", connB)

	cm.Initiate("alice", "bob", false, "c1")
	cm.Accept("bob", "alice", "c1")
	cm.MarkConnected("c1")

	reg.Unregister("bob", nil)
	cm.HandleDisconnect("bob")

	ended := connA.eventsOfType(t, core.EvCallEnded)
	require.Len(t, ended, 1, "counterpart must be notified exactly once")
	assert.Equal(t, "disconnect", ended[0]["reason"])
	assert.Equal(t, "c1", ended[0]["callId"])

	_, tracked := cm.Session("c1")
	assert.False(t, tracked)

	// A second disconnect finds nothing.
	cm.HandleDisconnect("bob")
	assert.Len(t, connA.eventsOfType(t, core.EvCallEnded), 1)
}

func TestCalls_EndToEndScenario(t *testing.T) {
	reg, cm := newCallSetup()
	relay := app.NewRelay(reg)
	connA := newFakeConn()
	connB := newFakeConn()
	reg.Register("A", "Alice", connA)
	reg.Register("B", "Bob", connB)

	// A calls B.
	cm.Initiate("A", "B", false, "c1")
	incoming := connB.eventsOfType(t, core.EvIncomingCall)
	require.Len(t, incoming, 1)
	assert.Equal(t, "A", incoming[0]["from"])
	assert.Equal(t, "c1", incoming[0]["callId"])

	// B accepts; A sees the acceptance and, after the delay, the
	// instruction to start the offer.
	cm.Accept("B", "A", "c1")
	require.Len(t, connA.eventsOfType(t, core.EvCallAccepted), 1)
	time.Sleep(60 * time.Millisecond)
	starts := connA.eventsOfType(t, core.EvStartOffer)
	require.Len(t, starts, 1)
	assert.Equal(t, "B", starts[0]["from"])

	// A sends the offer, B answers.
	require.True(t, relay.Forward("A", "B", core.EvOffer, json.RawMessage(`{"sdp":"offer"}`), "c1"))
	require.Len(t, connB.eventsOfType(t, core.EvOffer), 1)

	cm.MarkConnected("c1")
	require.True(t, relay.Forward("B", "A", core.EvAnswer, json.RawMessage(`{"sdp":"answer"}`), "c1"))
	require.Len(t, connA.eventsOfType(t, core.EvAnswer), 1)

	sess, tracked := cm.Session("c1")
	require.True(t, tracked)
	assert.Equal(t, app.CallConnected, sess.Status)
	assert.False(t, sess.ConnectedAt.IsZero())

	// A hangs up; B gets the end notification with the call duration.
	time.Sleep(20 * time.Millisecond)
	cm.End("A", "B", "c1")
	ended := connB.eventsOfType(t, core.EvCallEnded)
	require.Len(t, ended, 1)
	assert.Equal(t, "c1", ended[0]["callId"])
	duration, ok := ended[0]["duration"].(float64)
	require.True(t, ok, "duration must be present for a connected call")
	assert.Greater(t, duration, float64(0))

	_, tracked = cm.Session("c1")
	assert.False(t, tracked)
}

func TestCalls_GeneratedCallID(t *testing.T) {
	reg, cm := newCallSetup()
	connA := newFakeConn()
	connB := newFakeConn()
	reg.Register("alice", "Alice", connA)
	reg.Register("bob", "Bob", connB)

	cm.Initiate("alice", "bob", false, "")

	sent := connA.eventsOfType(t, core.EvCallSent)
	require.Len(t, sent, 1)
	callID, _ := sent[0]["callId"].(string)
	assert.NotEmpty(t, callID)
	_, tracked := cm.Session(callID)
	assert.True(t, tracked)
}
