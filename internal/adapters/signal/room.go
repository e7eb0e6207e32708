package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/marusyk/Converse/internal/core"
)

type roomPayload struct {
	Type core.CommandType `json:"type"`
	Room string           `json:"room"`
}

func (ctl *Controller) handleJoinChat(sess *clientSession, data []byte) {
	var p roomPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad join chat payload")
		return
	}
	if p.Room == "" {
		return
	}
	ctl.Rooms.Join(p.Room, sess.userID, sess.conn)
}

func (ctl *Controller) handleLeaveChat(sess *clientSession, data []byte) {
	var p roomPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad leave chat payload")
		return
	}
	ctl.Rooms.Leave(p.Room, sess.userID)
}

// handleNewMessage fans the message out to the conversation room. Room
// membership already scopes delivery; no per-recipient registry lookups.
// Persistence happens on the HTTP path, not here.
func (ctl *Controller) handleNewMessage(sess *clientSession, data []byte) {
	type messagePayload struct {
		Type core.CommandType `json:"type"`
		Chat string           `json:"chat"`
	}
	var p messagePayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad new message payload")
		return
	}
	if p.Chat == "" {
		return
	}
	ctl.Rooms.Broadcast(p.Chat, sess.userID, core.MessageReceivedEvent{
		Type:    core.EvMessageReceived,
		Room:    p.Chat,
		Message: json.RawMessage(data),
	})
}

func (ctl *Controller) handleTyping(sess *clientSession, ev core.EventType, data []byte) {
	var p roomPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad typing payload")
		return
	}
	if p.Room == "" {
		return
	}
	ctl.Rooms.Broadcast(p.Room, sess.userID, core.RoomEvent{Type: ev, Room: p.Room, User: sess.userID})
}
