package gateway

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func step(calls *[]string, name string) HandlerFunc {
	return func(_ *Context, _ Payload) (Outcome, error) {
		*calls = append(*calls, name)
		return Next, nil
	}
}

func testCtx(conn *fakeConn) *Context {
	return &Context{Ctx: context.Background(), Conn: conn}
}

func TestRouterRunsChainInOrder(t *testing.T) {
	var calls []string
	r := NewRouter()
	r.Use("greet", step(&calls, "h1"), step(&calls, "h2"))
	r.Use("greet", step(&calls, "h3"))

	conn := newFakeConn("s1", "u1")
	err := r.Handle(testCtx(conn), Frame{Type: "greet"}, dispatchPrefix)

	require.NoError(t, err)
	assert.Equal(t, []string{"h1", "h2", "h3"}, calls)
	assert.Empty(t, conn.sent())
}

func TestRouterHaltStopsChainAndNotifies(t *testing.T) {
	var calls []string
	r := NewRouter()
	r.Use("greet",
		step(&calls, "h1"),
		func(_ *Context, _ Payload) (Outcome, error) {
			return Stop, Halt("BROKEN")
		},
		step(&calls, "h3"),
	)

	conn := newFakeConn("s1", "u1")
	err := r.Handle(testCtx(conn), Frame{Type: "greet"}, dispatchPrefix)

	require.NoError(t, err)
	assert.Equal(t, []string{"h1"}, calls)

	frames := conn.sent()
	require.Len(t, frames, 1)
	assert.Equal(t, ErrorFrame{Type: TypeError, Message: "ws/onmessage/BROKEN"}, frames[0])
}

func TestRouterStopEndsChainSilently(t *testing.T) {
	var calls []string
	r := NewRouter()
	r.Use("greet",
		step(&calls, "h1"),
		func(_ *Context, _ Payload) (Outcome, error) {
			return Stop, nil
		},
		step(&calls, "h3"),
	)

	conn := newFakeConn("s1", "u1")
	err := r.Handle(testCtx(conn), Frame{Type: "greet"}, dispatchPrefix)

	require.NoError(t, err)
	assert.Equal(t, []string{"h1"}, calls)
	assert.Empty(t, conn.sent())
}

func TestRouterUnknownTypeIsNoOp(t *testing.T) {
	var calls []string
	r := NewRouter()
	r.Use("greet", step(&calls, "h1"))

	conn := newFakeConn("s1", "u1")

	require.NoError(t, r.Handle(testCtx(conn), Frame{Type: "unknown"}, dispatchPrefix))
	require.NoError(t, r.Handle(testCtx(conn), Frame{}, dispatchPrefix))

	assert.Empty(t, calls)
	assert.Empty(t, conn.sent())
}

func TestRouterInfrastructureErrorPropagates(t *testing.T) {
	boom := errors.New("store down")
	r := NewRouter()
	r.Use("greet", func(_ *Context, _ Payload) (Outcome, error) {
		return Stop, boom
	})

	conn := newFakeConn("s1", "u1")
	err := r.Handle(testCtx(conn), Frame{Type: "greet"}, dispatchPrefix)

	assert.ErrorIs(t, err, boom)
	assert.Empty(t, conn.sent())
}

func TestRouterNilDataBecomesEmptyPayload(t *testing.T) {
	var got Payload
	r := NewRouter()
	r.Use("greet", func(_ *Context, data Payload) (Outcome, error) {
		got = data
		return Next, nil
	})

	require.NoError(t, r.Handle(testCtx(newFakeConn("s1", "u1")), Frame{Type: "greet"}, dispatchPrefix))
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestRouterMountComposesKeys(t *testing.T) {
	var calls []string
	sub := NewRouter()
	sub.Use("heartbeat", step(&calls, "hb"))

	root := NewRouter()
	root.Mount("user", sub)

	conn := newFakeConn("s1", "u1")
	require.NoError(t, root.Handle(testCtx(conn), Frame{Type: "user/heartbeat"}, dispatchPrefix))
	assert.Equal(t, []string{"hb"}, calls)

	// The unmounted name must not be reachable.
	require.NoError(t, root.Handle(testCtx(conn), Frame{Type: "heartbeat"}, dispatchPrefix))
	assert.Equal(t, []string{"hb"}, calls)
}
