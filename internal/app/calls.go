package app

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/marusyk/Converse/internal/core"
	"github.com/marusyk/Converse/internal/domain"
)

type CallStatus string

const (
	CallRinging   CallStatus = "ringing"
	CallAccepted  CallStatus = "accepted"
	CallConnected CallStatus = "connected"
	CallEnded     CallStatus = "ended"
)

// CallSession is one call attempt, owned exclusively by the CallManager
// and referenced by CallID in every relayed payload so late or duplicate
// events can be matched or discarded.
type CallSession struct {
	ID          string
	CallerID    domain.UserID
	CalleeID    domain.UserID
	IsVideo     bool
	Status      CallStatus
	StartedAt   time.Time
	AcceptedAt  time.Time
	ConnectedAt time.Time

	timer *time.Timer // ring timeout, armed while ringing
}

func (s *CallSession) stopTimer() {
	if s.timer != nil {
		s.timer.Stop()
	}
}

// CallManager owns the call lifecycle state machine:
//
//	none -> ringing -> accepted -> connected -> ended
//
// with ended also reachable from ringing (reject, timeout) and from any
// state on disconnect of either party.
type CallManager struct {
	mu       sync.Mutex
	sessions map[string]*CallSession

	registry *Registry
	presence *Presence

	RingTimeout time.Duration
	OfferDelay  time.Duration
	StaleAfter  time.Duration
	SweepEvery  time.Duration
}

func NewCallManager(registry *Registry, presence *Presence) *CallManager {
	return &CallManager{
		sessions:    make(map[string]*CallSession),
		registry:    registry,
		presence:    presence,
		RingTimeout: 30 * time.Second,
		OfferDelay:  time.Second,
		StaleAfter:  time.Hour,
		SweepEvery:  5 * time.Minute,
	}
}

// Run drives the periodic sweep that removes over-age sessions, a backstop
// against leaked state from missed transitions.
func (cm *CallManager) Run(ctx context.Context) {
	t := time.NewTicker(cm.SweepEvery)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "app.calls").Msg("sweep loop done")
			return
		case <-t.C:
			cm.sweep()
		}
	}
}

// Session returns a snapshot of the tracked session, if any.
func (cm *CallManager) Session(callID string) (CallSession, bool) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if s, ok := cm.sessions[callID]; ok {
		return *s, true
	}
	return CallSession{}, false
}

// Initiate validates reachability, creates a ringing session, relays the
// invite to the callee and confirms to the caller. Failures are converted
// into targeted events to the caller, and no session is created. A present
// but stale registry entry for the callee is cleaned up proactively.
func (cm *CallManager) Initiate(callerID, calleeID domain.UserID, isVideo bool, callID string) {
	caller, ok := cm.registry.Lookup(callerID)
	if !ok {
		log.Warn().Str("module", "app.calls").Str("caller", string(callerID)).Msg("initiate before setup")
		return
	}
	if calleeID == "" {
		send(caller.Conn, core.CallFailedEvent{Type: core.EvCallFailed, Reason: "invalid-target", Message: "No target user"})
		return
	}
	if calleeID == callerID {
		send(caller.Conn, core.CallFailedEvent{Type: core.EvCallFailed, Reason: "invalid-target", Message: "You cannot call yourself"})
		return
	}

	callee, ok := cm.registry.Lookup(calleeID)
	if !ok {
		send(caller.Conn, core.CallUserOfflineEvent{Type: core.EvCallUserOffline, TargetID: calleeID, Reason: "offline"})
		return
	}
	if !callee.Conn.IsOpen() {
		// Stale entry: the handle is dead but the record survived a missed
		// teardown. Clean it up now rather than leaving it for the callee's
		// next login.
		if cm.registry.Unregister(calleeID, callee.Conn) {
			cm.presence.Offline(calleeID)
		}
		send(caller.Conn, core.CallUserOfflineEvent{Type: core.EvCallUserOffline, TargetID: calleeID, Reason: "offline"})
		return
	}

	if callID == "" {
		callID = uuid.NewString()
	}

	cm.mu.Lock()
	sess := &CallSession{
		ID:        callID,
		CallerID:  callerID,
		CalleeID:  calleeID,
		IsVideo:   isVideo,
		Status:    CallRinging,
		StartedAt: time.Now(),
	}
	sess.timer = time.AfterFunc(cm.RingTimeout, func() { cm.onRingTimeout(callID) })
	cm.sessions[callID] = sess
	cm.mu.Unlock()

	send(callee.Conn, core.IncomingCallEvent{
		Type:     core.EvIncomingCall,
		From:     callerID,
		FromName: caller.DisplayName,
		IsVideo:  isVideo,
		CallID:   callID,
	})
	send(caller.Conn, core.CallSentEvent{Type: core.EvCallSent, CallID: callID})
	log.Info().Str("module", "app.calls").Str("call", callID).
		Str("caller", string(callerID)).Str("callee", string(calleeID)).Bool("video", isVideo).Msg("ringing")
}

// onRingTimeout fires for a specific callID and re-validates the current
// status first: a late timer must never end a call that already moved on.
func (cm *CallManager) onRingTimeout(callID string) {
	cm.mu.Lock()
	sess, ok := cm.sessions[callID]
	if !ok || sess.Status != CallRinging {
		cm.mu.Unlock()
		return
	}
	sess.Status = CallEnded
	delete(cm.sessions, callID)
	cm.mu.Unlock()

	if rec, ok := cm.registry.Lookup(sess.CallerID); ok && rec.Conn.IsOpen() {
		send(rec.Conn, core.CallFailedEvent{Type: core.EvCallFailed, Reason: "No answer", Message: "The user did not answer"})
	}
	if rec, ok := cm.registry.Lookup(sess.CalleeID); ok && rec.Conn.IsOpen() {
		send(rec.Conn, core.CallEndedEvent{Type: core.EvCallEnded, From: sess.CallerID, CallID: callID, Reason: "timeout"})
	}
	log.Info().Str("module", "app.calls").Str("call", callID).Msg("ring timeout")
}

// Accept transitions a ringing session to accepted and notifies the
// caller. After a short delay the caller is instructed to begin the media
// offer, so the offer is only sent once both sides have acknowledged the
// acceptance. A missing session (already timed out) is relayed best-effort
// without creating a new one.
func (cm *CallManager) Accept(calleeID, callerID domain.UserID, callID string) {
	cm.mu.Lock()
	sess, tracked := cm.sessions[callID]
	if tracked {
		if sess.Status != CallRinging {
			// Duplicate accept, drop.
			cm.mu.Unlock()
			return
		}
		sess.Status = CallAccepted
		sess.AcceptedAt = time.Now()
		sess.stopTimer()
	}
	cm.mu.Unlock()

	caller, ok := cm.registry.Lookup(callerID)
	if !ok || !caller.Conn.IsOpen() {
		return
	}
	send(caller.Conn, core.CallAcceptedEvent{Type: core.EvCallAccepted, From: calleeID, CallID: callID})
	if !tracked {
		log.Warn().Str("module", "app.calls").Str("call", callID).Msg("accept for unknown call, relayed anyway")
		return
	}
	log.Info().Str("module", "app.calls").Str("call", callID).Msg("accepted")

	time.AfterFunc(cm.OfferDelay, func() {
		cm.mu.Lock()
		s, ok := cm.sessions[callID]
		alive := ok && (s.Status == CallAccepted || s.Status == CallConnected)
		cm.mu.Unlock()
		if !alive {
			return
		}
		if rec, ok := cm.registry.Lookup(callerID); ok && rec.Conn.IsOpen() {
			send(rec.Conn, core.StartOfferEvent{Type: core.EvStartOffer, From: calleeID, CallID: callID})
		}
	})
}

// Reject destroys the session, if present, and relays the rejection.
func (cm *CallManager) Reject(calleeID, callerID domain.UserID, callID, reason string) {
	cm.mu.Lock()
	if sess, ok := cm.sessions[callID]; ok {
		sess.stopTimer()
		delete(cm.sessions, callID)
	}
	cm.mu.Unlock()

	if rec, ok := cm.registry.Lookup(callerID); ok && rec.Conn.IsOpen() {
		send(rec.Conn, core.CallRejectedEvent{Type: core.EvCallRejected, From: calleeID, CallID: callID, Reason: reason})
	}
	log.Info().Str("module", "app.calls").Str("call", callID).Str("reason", reason).Msg("rejected")
}

// MarkConnected stamps the connection time when an answer passes through.
// Best-effort: an unknown callID is a no-op.
func (cm *CallManager) MarkConnected(callID string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	sess, ok := cm.sessions[callID]
	if !ok || sess.Status == CallEnded {
		return
	}
	sess.stopTimer()
	sess.Status = CallConnected
	if sess.ConnectedAt.IsZero() {
		sess.ConnectedAt = time.Now()
	}
	log.Info().Str("module", "app.calls").Str("call", callID).Msg("connected")
}

// End destroys the session and relays an end notification with the call
// duration to the counterpart, if still reachable. An empty callID falls
// back to matching the caller/callee pair.
func (cm *CallManager) End(fromID, toID domain.UserID, callID string) {
	var duration int64

	cm.mu.Lock()
	sess, ok := cm.sessions[callID]
	if !ok && callID == "" {
		for _, s := range cm.sessions {
			if (s.CallerID == fromID && s.CalleeID == toID) || (s.CallerID == toID && s.CalleeID == fromID) {
				sess, ok = s, true
				break
			}
		}
	}
	if ok {
		sess.stopTimer()
		delete(cm.sessions, sess.ID)
		callID = sess.ID
		if !sess.ConnectedAt.IsZero() {
			duration = time.Since(sess.ConnectedAt).Milliseconds()
		}
	}
	cm.mu.Unlock()

	if rec, ok := cm.registry.Lookup(toID); ok && rec.Conn.IsOpen() {
		send(rec.Conn, core.CallEndedEvent{Type: core.EvCallEnded, From: fromID, CallID: callID, Duration: duration})
	}
	log.Info().Str("module", "app.calls").Str("call", callID).Int64("duration_ms", duration).Msg("ended")
}

// HandleDisconnect tears down every in-flight call involving userID as an
// implicit end with reason disconnect, notifying the counterpart once.
func (cm *CallManager) HandleDisconnect(userID domain.UserID) {
	cm.mu.Lock()
	var affected []*CallSession
	for id, s := range cm.sessions {
		if s.CallerID == userID || s.CalleeID == userID {
			s.stopTimer()
			delete(cm.sessions, id)
			affected = append(affected, s)
		}
	}
	cm.mu.Unlock()

	for _, s := range affected {
		counterpart := s.CallerID
		if counterpart == userID {
			counterpart = s.CalleeID
		}
		var duration int64
		if !s.ConnectedAt.IsZero() {
			duration = time.Since(s.ConnectedAt).Milliseconds()
		}
		if rec, ok := cm.registry.Lookup(counterpart); ok && rec.Conn.IsOpen() {
			send(rec.Conn, core.CallEndedEvent{
				Type:     core.EvCallEnded,
				From:     userID,
				CallID:   s.ID,
				Duration: duration,
				Reason:   "disconnect",
			})
		}
		log.Info().Str("module", "app.calls").Str("call", s.ID).Str("user", string(userID)).Msg("ended on disconnect")
	}
}

func (cm *CallManager) sweep() {
	cutoff := time.Now().Add(-cm.StaleAfter)
	cm.mu.Lock()
	defer cm.mu.Unlock()
	for id, s := range cm.sessions {
		if s.StartedAt.Before(cutoff) {
			s.stopTimer()
			delete(cm.sessions, id)
			log.Warn().Str("module", "app.calls").Str("call", id).Str("status", string(s.Status)).Msg("swept stale session")
		}
	}
}
