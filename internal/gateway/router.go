package gateway

import (
	"context"

	"github.com/flyingbingbong/jubsok-backend/internal/store"
)

// Outcome tells the router whether dispatch continues with the next handler in
// the chain.
type Outcome int

const (
	// Next runs the following handler.
	Next Outcome = iota
	// Stop ends dispatch without an error; handlers that have already
	// notified the client use it.
	Stop
)

// HandlerFunc is one step of a handler chain. Returning a Halt error stops the
// chain and sends a namespaced error frame to the connection; any other
// non-nil error is an infrastructure failure that aborts dispatch and closes
// the connection.
type HandlerFunc func(c *Context, data Payload) (Outcome, error)

// Context carries per-dispatch state through a handler chain.
type Context struct {
	Ctx  context.Context
	Conn Connection

	// User is the owner of the connection, loaded by the getUser step.
	User *store.User

	// sessions and recipient carry intermediate chain state between steps.
	sessions  []string
	recipient *store.User
}

// Connection is the per-socket surface handlers may touch.
type Connection interface {
	Sender
	SessionID() string
	UserID() string
	MarkAlive()
}

// haltError stops a chain and is surfaced to the client as an error frame.
type haltError struct{ reason string }

func (e haltError) Error() string { return e.reason }

// Halt returns the error a handler uses to stop its chain and notify the
// client with the given reason.
func Halt(reason string) error {
	return haltError{reason: reason}
}

// Router maps frame types to ordered handler chains. The table is built once
// at startup; dispatch never mutates it.
type Router struct {
	chains map[string][]HandlerFunc
}

// NewRouter returns an empty router.
func NewRouter() *Router {
	return &Router{chains: make(map[string][]HandlerFunc)}
}

// Use appends handlers to the chain registered for the frame type. Chains
// accumulate across calls rather than overwriting.
func (r *Router) Use(frameType string, handlers ...HandlerFunc) {
	r.chains[frameType] = append(r.chains[frameType], handlers...)
}

// Mount copies every chain of the sub-router into this router under
// "prefix/type" keys. This is build-time composition, not live delegation.
func (r *Router) Mount(prefix string, sub *Router) {
	for frameType, chain := range sub.chains {
		key := prefix + "/" + frameType
		r.chains[key] = append(r.chains[key], chain...)
	}
}

// Handle dispatches a frame through the chain registered for its type. A frame
// without a type, or with no registered chain, is a silent no-op. The returned
// error is an infrastructure failure; dispatch errors have already been
// reported to the client as an error frame under the given prefix.
func (r *Router) Handle(c *Context, frame Frame, prefix string) error {
	if frame.Type == "" {
		return nil
	}
	chain, ok := r.chains[frame.Type]
	if !ok {
		return nil
	}
	data := frame.Data
	if data == nil {
		data = Payload{}
	}
	for _, h := range chain {
		outcome, err := h(c, data)
		if err != nil {
			if halt, ok := err.(haltError); ok {
				return c.Conn.Send(newErrorFrame(prefix, halt.reason))
			}
			return err
		}
		if outcome == Stop {
			return nil
		}
	}
	return nil
}
