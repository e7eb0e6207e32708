package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/marusyk/Converse/internal/core"
	"github.com/marusyk/Converse/internal/domain"
)

func (ctl *Controller) handleInitiateCall(sess *clientSession, data []byte) {
	type initiatePayload struct {
		Type    core.CommandType `json:"type"`
		To      string           `json:"to"`
		IsVideo bool             `json:"isVideo"`
		CallID  string           `json:"callId,omitempty"`
	}
	var p initiatePayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad initiate-call payload")
		return
	}
	if !ctl.Limiter.Allow(sess.userID) {
		f, err := core.Encode(core.CallFailedEvent{Type: core.EvCallFailed, Reason: "rate-limited", Message: "Too many call attempts"})
		if err == nil {
			_ = sess.conn.TrySend(f)
		}
		return
	}
	ctl.Calls.Initiate(sess.userID, domain.UserID(p.To), p.IsVideo, p.CallID)
}

func (ctl *Controller) handleAcceptCall(sess *clientSession, data []byte) {
	type acceptPayload struct {
		Type    core.CommandType `json:"type"`
		To      string           `json:"to"`
		IsVideo bool             `json:"isVideo"`
		CallID  string           `json:"callId"`
	}
	var p acceptPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad accept-call payload")
		return
	}
	ctl.Calls.Accept(sess.userID, domain.UserID(p.To), p.CallID)
}

func (ctl *Controller) handleRejectCall(sess *clientSession, data []byte) {
	type rejectPayload struct {
		Type   core.CommandType `json:"type"`
		To     string           `json:"to"`
		CallID string           `json:"callId"`
		Reason string           `json:"reason,omitempty"`
	}
	var p rejectPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad reject-call payload")
		return
	}
	ctl.Calls.Reject(sess.userID, domain.UserID(p.To), p.CallID, p.Reason)
}

func (ctl *Controller) handleEndCall(sess *clientSession, data []byte) {
	type endPayload struct {
		Type   core.CommandType `json:"type"`
		To     string           `json:"to"`
		CallID string           `json:"callId,omitempty"`
	}
	var p endPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad end-call payload")
		return
	}
	ctl.Calls.End(sess.userID, domain.UserID(p.To), p.CallID)
}

type relayPayload struct {
	Type    core.CommandType `json:"type"`
	To      string           `json:"to"`
	Payload json.RawMessage  `json:"payload"`
	CallID  string           `json:"callId,omitempty"`
}

// handleSignalRelay forwards offer and ice-candidate payloads verbatim.
// Unreachable targets are dropped; the call layer owns failure surfacing.
func (ctl *Controller) handleSignalRelay(sess *clientSession, ev core.EventType, data []byte) {
	var p relayPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("event", string(ev)).Msg("bad relay payload")
		return
	}
	ctl.Relay.Forward(sess.userID, domain.UserID(p.To), ev, p.Payload, p.CallID)
}

// handleAnswer is the same relay, except the session opportunistically
// transitions to connected when it is still tracked.
func (ctl *Controller) handleAnswer(sess *clientSession, data []byte) {
	var p relayPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad answer payload")
		return
	}
	if p.CallID != "" {
		ctl.Calls.MarkConnected(p.CallID)
	}
	ctl.Relay.Forward(sess.userID, domain.UserID(p.To), core.EvAnswer, p.Payload, p.CallID)
}
