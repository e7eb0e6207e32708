package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/marusyk/Converse/internal/app"
	"github.com/marusyk/Converse/internal/core"
	"github.com/marusyk/Converse/internal/domain"
)

var ErrBackpressure = errors.New("backpressure")

// Controller owns the WebSocket side of the presence and signaling core.
type Controller struct {
	Registry *app.Registry
	Presence *app.Presence
	Calls    *app.CallManager
	Rooms    *app.Rooms
	Relay    *app.Relay
	Limiter  *CallRateLimiter

	ReadLimit  int64
	PingPeriod time.Duration
}

func NewController(registry *app.Registry, presence *app.Presence, calls *app.CallManager, rooms *app.Rooms, relay *app.Relay) *Controller {
	return &Controller{
		Registry:   registry,
		Presence:   presence,
		Calls:      calls,
		Rooms:      rooms,
		Relay:      relay,
		Limiter:    NewCallRateLimiter(defaultCallLimit, defaultCallWindow),
		ReadLimit:  32768,
		PingPeriod: 54 * time.Second,
	}
}

// WsConn implements core.SignalConnection over gorilla/websocket.
type WsConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsConn) IsOpen() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.closed
}

func (c *WsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

// clientSession is the per-connection identity, fixed at upgrade time from
// the validated bearer credential.
type clientSession struct {
	userID domain.UserID
	name   string
	conn   *WsConn
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// HandleWS upgrades an already-authenticated request. The auth middleware
// rejected the attempt before this point if the credential was invalid, so
// registration is never reached for a failed credential.
func (ctl *Controller) HandleWS(ctx context.Context, c *gin.Context) {
	userID := domain.UserID(c.GetString("user_id"))
	name := c.GetString("display_name")
	log.Info().Str("module", "signal").Str("user", string(userID)).Msg("new WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}
	ws.SetReadLimit(ctl.ReadLimit)

	sess := &clientSession{
		userID: userID,
		name:   name,
		conn: &WsConn{
			conn: ws,
			send: make(chan core.Frame, 32),
		},
	}

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, sess.conn)
	go ctl.readPump(ctx, cancel, sess)
}

// handleSetup совершает регистрацию: запись в Registry, комната с именем
// пользователя для прямой адресации, presence-рассылка.
func (ctl *Controller) handleSetup(sess *clientSession) {
	ctl.Registry.Register(sess.userID, sess.name, sess.conn)
	ctl.Rooms.Join(string(sess.userID), sess.userID, sess.conn)
	ctl.Presence.Online(sess.userID, sess.name, sess.conn)
}

// teardown runs once the read pump exits. When this connection is no
// longer the authoritative handle (it was superseded), only the socket is
// closed: presence, rooms and calls belong to the successor.
func (ctl *Controller) teardown(sess *clientSession) {
	sess.conn.Close()
	if !ctl.Registry.Unregister(sess.userID, sess.conn) {
		return
	}
	ctl.Rooms.LeaveAll(sess.userID, sess.conn)
	ctl.Presence.Offline(sess.userID)
	ctl.Calls.HandleDisconnect(sess.userID)
}
