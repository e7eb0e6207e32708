package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/marusyk/Converse/internal/core"
)

func (ctl *Controller) writePump(ctx context.Context, c *WsConn) {
	ticker := time.NewTicker(ctl.PingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Msg("writePump ctx done")
			return
		case data, ok := <-c.send:
			if !ok {
				log.Warn().Str("module", "signal").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (ctl *Controller) readPump(ctx context.Context, cancel context.CancelFunc, sess *clientSession) {
	defer func() {
		log.Info().Str("module", "signal").Str("user", string(sess.userID)).Msg("readPump closing")
		cancel()
		ctl.teardown(sess)
	}()

	pongWait := ctl.PingPeriod + 10*time.Second
	_ = sess.conn.conn.SetReadDeadline(time.Now().Add(pongWait))
	sess.conn.conn.SetPongHandler(func(string) error {
		return sess.conn.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Str("user", string(sess.userID)).Msg("readPump ctx done")
			return
		default:
			_, data, err := sess.conn.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Error().Err(err).Str("module", "signal").Str("user", string(sess.userID)).Msg("readPump read error")
				}
				return
			}
			ctl.handleFrame(sess, data)
		}
	}
}

func (ctl *Controller) handleFrame(sess *clientSession, data []byte) {
	var env struct {
		Type core.CommandType `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad json")
		return
	}

	switch env.Type {
	case core.CmdSetup:
		ctl.handleSetup(sess)
	case core.CmdJoinChat:
		ctl.handleJoinChat(sess, data)
	case core.CmdLeaveChat:
		ctl.handleLeaveChat(sess, data)
	case core.CmdInitiateCall:
		ctl.handleInitiateCall(sess, data)
	case core.CmdAcceptCall:
		ctl.handleAcceptCall(sess, data)
	case core.CmdRejectCall:
		ctl.handleRejectCall(sess, data)
	case core.CmdOffer:
		ctl.handleSignalRelay(sess, core.EvOffer, data)
	case core.CmdAnswer:
		ctl.handleAnswer(sess, data)
	case core.CmdICECandidate:
		ctl.handleSignalRelay(sess, core.EvICECandidate, data)
	case core.CmdEndCall:
		ctl.handleEndCall(sess, data)
	case core.CmdNewMessage:
		ctl.handleNewMessage(sess, data)
	case core.CmdTyping:
		ctl.handleTyping(sess, core.EvTyping, data)
	case core.CmdStopTyping:
		ctl.handleTyping(sess, core.EvStopTyping, data)
	default:
		log.Warn().Str("module", "signal").Str("type", string(env.Type)).Msg("unknown command")
	}
}
