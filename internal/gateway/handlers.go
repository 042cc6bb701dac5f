package gateway

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/flyingbingbong/jubsok-backend/internal/store"
)

// Handler error-frame namespaces, matching the chain the frame came from.
const (
	getUserPrefix = "user/getUser"
	welcomePrefix = "user/welcome"
)

// Handlers holds the dependencies of the user message namespace.
type Handlers struct {
	users    store.UserStore
	friends  store.FriendStore
	registry *Registry
	presence *Broadcaster

	now func() time.Time
	log *zap.Logger
}

// NewHandlers wires the user-namespace handler set.
func NewHandlers(users store.UserStore, friends store.FriendStore, registry *Registry, presence *Broadcaster, log *zap.Logger) *Handlers {
	return &Handlers{
		users:    users,
		friends:  friends,
		registry: registry,
		presence: presence,
		now:      time.Now,
		log:      log,
	}
}

// getUser loads the connection's owner and stores it on the dispatch context.
// Every user-namespace chain starts with it.
func (h *Handlers) getUser(c *Context, _ Payload) (Outcome, error) {
	user, err := h.users.FindByID(c.Ctx, c.Conn.UserID())
	if errors.Is(err, store.ErrNotFound) {
		if serr := c.Conn.Send(newErrorFrame(getUserPrefix, ReasonUserNotFound)); serr != nil {
			return Stop, serr
		}
		return Stop, nil
	}
	if err != nil {
		return Stop, fmt.Errorf("load connection owner: %w", err)
	}
	c.User = user
	return Next, nil
}

// heartbeat acknowledges the liveness probe and persists the session's
// lastSeen timestamp, keeping the user visible inside the presence window.
func (h *Handlers) heartbeat(c *Context, _ Payload) (Outcome, error) {
	c.Conn.MarkAlive()
	now := h.now()
	if err := h.users.TouchSession(c.Ctx, c.User.ID, c.Conn.SessionID(), now); err != nil {
		return Stop, fmt.Errorf("touch session: %w", err)
	}
	return Next, nil
}

// getSessions resolves the broadcast audience: every reachable session of the
// user's friends.
func (h *Handlers) getSessions(c *Context, _ Payload) (Outcome, error) {
	sessions, err := h.presence.ActiveSessions(c.Ctx, c.User)
	if err != nil {
		return Stop, fmt.Errorf("resolve active sessions: %w", err)
	}
	c.sessions = sessions
	return Next, nil
}

// broadcastConnection pushes a friendConnected notification to the audience
// resolved by getSessions.
func (h *Handlers) broadcastConnection(c *Context, _ Payload) (Outcome, error) {
	h.presence.Broadcast(c.sessions, Notification{
		Type: TypeFriendConnected,
		Item: map[string]string{"nickname": c.User.Nickname},
	})
	return Next, nil
}

// checkWelcomeInput validates that the welcome frame names a recipient.
func (h *Handlers) checkWelcomeInput(c *Context, data Payload) (Outcome, error) {
	to, _ := data["to"].(string)
	if to == "" {
		if err := c.Conn.Send(newErrorFrame(welcomePrefix, ReasonInsufficientInput)); err != nil {
			return Stop, err
		}
		return Stop, nil
	}
	return Next, nil
}

// findRecipient resolves the recipient nickname and keeps the document on the
// context for the following steps.
func (h *Handlers) findRecipient(c *Context, data Payload) (Outcome, error) {
	nickname, _ := data["to"].(string)
	recipient, err := h.users.FindByNickname(c.Ctx, nickname)
	if errors.Is(err, store.ErrNotFound) {
		if serr := c.Conn.Send(newErrorFrame(welcomePrefix, ReasonUserNotExist)); serr != nil {
			return Stop, serr
		}
		return Stop, nil
	}
	if err != nil {
		return Stop, fmt.Errorf("find welcome recipient: %w", err)
	}
	c.recipient = recipient
	return Next, nil
}

// checkFriendship rejects welcomes between users without a friend relation.
func (h *Handlers) checkFriendship(c *Context, _ Payload) (Outcome, error) {
	isFriend, err := h.friends.AreFriends(c.Ctx, c.User.ID, c.recipient.ID)
	if err != nil {
		return Stop, fmt.Errorf("check friendship: %w", err)
	}
	if !isFriend {
		if serr := c.Conn.Send(newErrorFrame(welcomePrefix, ReasonNotFriend)); serr != nil {
			return Stop, serr
		}
		return Stop, nil
	}
	return Next, nil
}

// sendWelcome delivers the welcome ping to every live connection of the
// recipient.
func (h *Handlers) sendWelcome(c *Context, _ Payload) (Outcome, error) {
	frame := Notification{
		Type: TypeWelcome,
		Item: map[string]string{"from": c.User.Nickname},
	}
	for _, s := range c.recipient.Sessions {
		sender, ok := h.registry.Lookup(s.ID)
		if !ok {
			continue
		}
		if err := sender.Send(frame); err != nil {
			h.log.Warn("welcome send failed",
				zap.String("session_id", s.ID), zap.Error(err))
		}
	}
	return Next, nil
}
