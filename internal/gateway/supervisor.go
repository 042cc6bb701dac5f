package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/flyingbingbong/jubsok-backend/internal/store"
)

// Options are the gateway tunables.
type Options struct {
	// PingPeriod is the liveness probe interval. A connection that misses
	// one full period is reaped on the next tick.
	PingPeriod time.Duration

	// MaxMessageSize bounds inbound frames in bytes.
	MaxMessageSize int64

	// FrameBurst and FrameInterval parameterize the per-connection inbound
	// frame limiter.
	FrameBurst    int
	FrameInterval time.Duration

	AllowedOrigins []string
}

func (o Options) withDefaults() Options {
	if o.PingPeriod <= 0 {
		o.PingPeriod = 3 * time.Second
	}
	if o.MaxMessageSize <= 0 {
		o.MaxMessageSize = 4096
	}
	if o.FrameBurst <= 0 {
		o.FrameBurst = 20
	}
	if o.FrameInterval <= 0 {
		o.FrameInterval = time.Second
	}
	return o
}

// Supervisor orchestrates the lifecycle of every websocket connection:
// handshake authentication, registration, liveness probing, frame dispatch,
// and close-time cleanup with the disconnect broadcast.
type Supervisor struct {
	registry *Registry
	authn    *Authenticator
	router   *Router
	users    store.UserStore
	presence *Broadcaster
	opts     Options
	upgrader websocket.Upgrader
	log      *zap.Logger
}

// NewSupervisor wires the connection lifecycle supervisor.
func NewSupervisor(
	registry *Registry,
	authn *Authenticator,
	router *Router,
	users store.UserStore,
	presence *Broadcaster,
	opts Options,
	log *zap.Logger,
) *Supervisor {
	opts = opts.withDefaults()
	origins := newOriginChecker(opts.AllowedOrigins)
	return &Supervisor{
		registry: registry,
		authn:    authn,
		router:   router,
		users:    users,
		presence: presence,
		opts:     opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     origins.check,
		},
		log: log,
	}
}

// HandleWS upgrades the request and runs the connection until it closes.
func (s *Supervisor) HandleWS(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "websocket endpoint only accepts GET requests", http.StatusMethodNotAllowed)
		return
	}
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	s.serve(ws, r)
}

// serve walks the connection through its states: authenticate, register,
// probe, dispatch, clean up. An authentication failure sends a single error
// frame and closes without registering or probing.
func (s *Supervisor) serve(ws *websocket.Conn, r *http.Request) {
	ctx := context.Background()
	c := newConn(ws, s.log)

	userID, sessionID, reason, err := s.authn.Authenticate(ctx, r.URL.Query())
	if err != nil {
		s.log.Error("handshake authentication failed", zap.Error(err))
		c.Close()
		return
	}
	if reason != "" {
		handshakeFailures.WithLabelValues(reason).Inc()
		s.log.Info("handshake rejected", zap.String("reason", reason))
		_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
		_ = ws.WriteJSON(newErrorFrame(connectPrefix, reason))
		c.Close()
		return
	}

	c.bind(userID, sessionID)
	s.registry.Insert(sessionID, c)
	activeConnections.Set(float64(s.registry.Len()))
	c.log.Info("connection open")

	go c.writePump(s.opts.PingPeriod)
	s.readLoop(c)

	c.Close()
	s.closeSession(ctx, sessionID, userID)
	c.log.Info("connection closed")
}

// readLoop reads frames until the transport closes and dispatches them
// sequentially: frame n+1 is not read before frame n's chain has settled.
func (s *Supervisor) readLoop(c *Conn) {
	c.ws.SetReadLimit(s.opts.MaxMessageSize)
	c.ws.SetPongHandler(func(string) error {
		c.MarkAlive()
		return nil
	})

	limiter := newFrameLimiter(s.opts.FrameBurst, s.opts.FrameInterval)
	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			if !isExpectedCloseError(err) {
				c.log.Debug("read frame", zap.Error(err))
			}
			return
		}
		if len(raw) == 0 {
			continue
		}
		if !limiter.allow() {
			c.log.Warn("frame rate limit exceeded, dropping frame")
			continue
		}
		if err := s.dispatch(c, raw); err != nil {
			// Infrastructure failure: not user input, force-close.
			c.log.Error("frame dispatch failed", zap.Error(err))
			return
		}
	}
}

// dispatch parses one inbound frame and hands it to the router. A malformed
// payload is answered with an error frame and otherwise ignored. A handler
// panic is converted to a fatal dispatch error.
func (s *Supervisor) dispatch(c *Conn, raw []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()

	var frame Frame
	if uerr := json.Unmarshal(raw, &frame); uerr != nil {
		return c.Send(newErrorFrame(dispatchPrefix, uerr.Error()))
	}
	if frame.Type != "" {
		framesDispatched.WithLabelValues(frame.Type).Inc()
	}
	return s.router.Handle(&Context{Ctx: context.Background(), Conn: c}, frame, dispatchPrefix)
}

// closeSession runs the close-time cleanup: deregister, then broadcast the
// disconnection if the user has no other reachable session. The probe has
// already been cancelled by closing the connection. The registry removal
// result makes the cleanup idempotent, so a double close never broadcasts
// twice. A failure while resolving the owner aborts only the broadcast;
// deregistration has already happened.
func (s *Supervisor) closeSession(ctx context.Context, sessionID, userID string) {
	if !s.registry.Remove(sessionID) {
		return
	}
	activeConnections.Set(float64(s.registry.Len()))

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		s.log.Error("resolve owner for disconnect broadcast",
			zap.String("user_id", userID), zap.Error(err))
		return
	}
	if s.hasOtherActiveSession(user, sessionID) {
		return
	}
	if err := s.presence.AnnounceDisconnected(ctx, user); err != nil {
		s.log.Error("disconnect broadcast failed",
			zap.String("user_id", userID), zap.Error(err))
	}
}

// hasOtherActiveSession checks the live registry, not the persisted session
// list: a session may look fresh in the store while its connection is gone.
func (s *Supervisor) hasOtherActiveSession(user *store.User, current string) bool {
	for _, sess := range user.Sessions {
		if sess.ID != current && s.registry.Contains(sess.ID) {
			return true
		}
	}
	return false
}
