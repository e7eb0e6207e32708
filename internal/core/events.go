package core

import (
	"encoding/json"

	"github.com/marusyk/Converse/internal/domain"
)

// EventType enumerates every outbound wire event.
type EventType string

const (
	EvUserOnline      EventType = "user-online"
	EvUserOffline     EventType = "user-offline"
	EvOnlineUsers     EventType = "online-users"
	EvIncomingCall    EventType = "incoming-call"
	EvCallSent        EventType = "call-sent"
	EvCallAccepted    EventType = "call-accepted"
	EvCallRejected    EventType = "call-rejected"
	EvCallFailed      EventType = "call-failed"
	EvCallUserOffline EventType = "call-user-offline"
	EvStartOffer      EventType = "start-webrtc-offer"
	EvOffer           EventType = "offer"
	EvAnswer          EventType = "answer"
	EvICECandidate    EventType = "ice-candidate"
	EvCallEnded       EventType = "call-ended"
	EvMessageReceived EventType = "message received"
	EvTyping          EventType = "typing"
	EvStopTyping      EventType = "stop typing"
)

type UserOnlineEvent struct {
	Type        EventType     `json:"type"`
	UserID      domain.UserID `json:"userId"`
	DisplayName string        `json:"displayName"`
}

type UserOfflineEvent struct {
	Type   EventType     `json:"type"`
	UserID domain.UserID `json:"userId"`
}

// OnlineUser is a read-only presence view (no transport fields).
type OnlineUser struct {
	ID          domain.UserID `json:"id"`
	DisplayName string        `json:"displayName"`
}

type OnlineUsersEvent struct {
	Type  EventType    `json:"type"`
	Users []OnlineUser `json:"users"`
}

type IncomingCallEvent struct {
	Type     EventType     `json:"type"`
	From     domain.UserID `json:"from"`
	FromName string        `json:"fromName"`
	IsVideo  bool          `json:"isVideo"`
	CallID   string        `json:"callId"`
}

type CallSentEvent struct {
	Type   EventType `json:"type"`
	CallID string    `json:"callId"`
}

type CallAcceptedEvent struct {
	Type   EventType     `json:"type"`
	From   domain.UserID `json:"from"`
	CallID string        `json:"callId"`
}

type CallRejectedEvent struct {
	Type   EventType     `json:"type"`
	From   domain.UserID `json:"from"`
	CallID string        `json:"callId"`
	Reason string        `json:"reason,omitempty"`
}

type CallFailedEvent struct {
	Type    EventType `json:"type"`
	Reason  string    `json:"reason"`
	Message string    `json:"message"`
}

type CallUserOfflineEvent struct {
	Type     EventType     `json:"type"`
	TargetID domain.UserID `json:"targetId"`
	Reason   string        `json:"reason"`
}

type StartOfferEvent struct {
	Type   EventType     `json:"type"`
	From   domain.UserID `json:"from"`
	CallID string        `json:"callId"`
}

// SignalEvent carries an opaque relayed payload (offer, answer,
// ice-candidate) with the sender attached.
type SignalEvent struct {
	Type    EventType       `json:"type"`
	From    domain.UserID   `json:"from"`
	Payload json.RawMessage `json:"payload"`
	CallID  string          `json:"callId,omitempty"`
}

type CallEndedEvent struct {
	Type     EventType     `json:"type"`
	From     domain.UserID `json:"from,omitempty"`
	CallID   string        `json:"callId,omitempty"`
	Duration int64         `json:"duration,omitempty"` // milliseconds
	Reason   string        `json:"reason,omitempty"`
}

type MessageReceivedEvent struct {
	Type    EventType       `json:"type"`
	Room    string          `json:"room"`
	Message json.RawMessage `json:"message"`
}

// RoomEvent covers typing and stop typing.
type RoomEvent struct {
	Type EventType     `json:"type"`
	Room string        `json:"room"`
	User domain.UserID `json:"user"`
}

// Encode marshals an event into a Frame.
func Encode(v any) (Frame, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return Frame(b), nil
}
