package gateway

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait     = 10 * time.Second
	sendQueueSize = 256
)

// ErrConnClosed is returned by Send after the connection has been closed.
var ErrConnClosed = errors.New("gateway: connection closed")

// ErrSendQueueFull is returned by Send when the outbound queue is saturated;
// the frame is dropped rather than blocking the sender.
var ErrSendQueueFull = errors.New("gateway: send queue full")

// Conn is the ephemeral in-memory handle for one open websocket. It owns the
// outbound queue, the write pump that drains it, and the liveness state
// machine probed by the pump's ticker. A Conn is never persisted.
type Conn struct {
	ws   *websocket.Conn
	send chan []byte
	live *liveness

	sessionID string
	userID    string

	done      chan struct{}
	closeOnce sync.Once
	log       *zap.Logger
}

func newConn(ws *websocket.Conn, log *zap.Logger) *Conn {
	return &Conn{
		ws:   ws,
		send: make(chan []byte, sendQueueSize),
		live: newLiveness(),
		done: make(chan struct{}),
		log:  log,
	}
}

// bind attaches the authenticated identity to the connection. It is the only
// side effect of a successful handshake before registration.
func (c *Conn) bind(userID, sessionID string) {
	c.userID = userID
	c.sessionID = sessionID
	c.log = c.log.With(zap.String("user_id", userID), zap.String("session_id", sessionID))
}

// SessionID returns the persisted session this connection authenticated as.
func (c *Conn) SessionID() string { return c.sessionID }

// UserID returns the owning user's id.
func (c *Conn) UserID() string { return c.userID }

// MarkAlive records a liveness acknowledgement (pong or heartbeat frame).
func (c *Conn) MarkAlive() { c.live.MarkAlive() }

// Send marshals v and queues it for the write pump. It never blocks: a closed
// connection or a full queue yields an error and the frame is dropped.
func (c *Conn) Send(v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	select {
	case <-c.done:
		return ErrConnClosed
	default:
	}
	select {
	case c.send <- payload:
		return nil
	case <-c.done:
		return ErrConnClosed
	default:
		return ErrSendQueueFull
	}
}

// Close tears down the underlying socket. It is idempotent and unblocks the
// write pump, whose ticker would otherwise leak.
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if err := c.ws.Close(); err != nil && !isExpectedCloseError(err) {
			c.log.Debug("close websocket", zap.Error(err))
		}
	})
}

// writePump drains the send queue and runs the liveness prober. Each ticker
// period it advances the liveness machine: a connection still awaiting the
// previous pong is reaped on this tick, otherwise a ping is written and the
// acknowledgement is awaited. The pump exits by closing the connection, which
// in turn ends the read loop.
func (c *Conn) writePump(pingPeriod time.Duration) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case payload := <-c.send:
			if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, payload); err != nil {
				if !isExpectedCloseError(err) {
					c.log.Debug("write frame", zap.Error(err))
				}
				return
			}
		case <-ticker.C:
			if c.live.Tick() == stateDead {
				c.log.Info("liveness probe missed, closing connection")
				return
			}
			if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

// isExpectedCloseError checks if an error is expected during connection closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	if websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "use of closed network connection") ||
		strings.Contains(msg, "websocket: close sent") ||
		strings.Contains(msg, "broken pipe")
}
