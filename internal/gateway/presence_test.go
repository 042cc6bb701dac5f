package gateway

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/flyingbingbong/jubsok-backend/internal/store"
)

func presenceFixture(t *testing.T, window time.Duration) (*store.Memory, *Registry, *Broadcaster, time.Time) {
	t.Helper()
	m := store.NewMemory()
	registry := NewRegistry()
	b := NewBroadcaster(registry, m, window, zap.NewNop())

	now := time.Date(2020, 5, 10, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }
	return m, registry, b, now
}

func TestActiveSessionsWindowBoundary(t *testing.T) {
	m, _, b, now := presenceFixture(t, 5*time.Second)

	me := &store.User{ID: "me", Nickname: "me"}
	friend := &store.User{
		ID:       "friend",
		Nickname: "friend",
		Sessions: []store.Session{
			{ID: "fresh", LastSeen: now},
			{ID: "inside", LastSeen: now.Add(-5*time.Second + time.Nanosecond)},
			{ID: "boundary", LastSeen: now.Add(-5 * time.Second)},
			{ID: "stale", LastSeen: now.Add(-time.Minute)},
		},
	}
	m.PutUser(me)
	m.PutUser(friend)
	m.Befriend("me", "friend")

	ids, err := b.ActiveSessions(context.Background(), me)
	require.NoError(t, err)
	// Exactly at the boundary counts as stale.
	assert.ElementsMatch(t, []string{"fresh", "inside"}, ids)
}

func TestActiveSessionsExcludesOwnSessions(t *testing.T) {
	m, _, b, now := presenceFixture(t, 5*time.Second)

	me := &store.User{ID: "me", Nickname: "me", Sessions: []store.Session{
		{ID: "mine", LastSeen: now},
	}}
	m.PutUser(me)

	ids, err := b.ActiveSessions(context.Background(), me)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestBroadcastSkipsUnregisteredSessions(t *testing.T) {
	_, registry, b, _ := presenceFixture(t, 5*time.Second)

	online := newFakeConn("online", "friend")
	registry.Insert("online", online)

	frame := Notification{Type: TypeFriendConnected, Item: map[string]string{"nickname": "me"}}
	b.Broadcast([]string{"online", "offline"}, frame)

	frames := online.sent()
	require.Len(t, frames, 1)
	assert.Equal(t, frame, frames[0])
}

func TestBroadcastToleratesIndividualFailures(t *testing.T) {
	_, registry, b, _ := presenceFixture(t, 5*time.Second)

	failing := newFakeConn("s1", "u1")
	failing.sendErr = errors.New("queue full")
	healthy := newFakeConn("s2", "u2")
	registry.Insert("s1", failing)
	registry.Insert("s2", healthy)

	b.Broadcast([]string{"s1", "s2"}, Notification{Type: TypeWelcome})

	assert.Len(t, healthy.sent(), 1)
}

func TestAnnounceConnectedReachesEveryFriendSession(t *testing.T) {
	m, registry, b, now := presenceFixture(t, 5*time.Second)

	a := &store.User{ID: "a", Nickname: "a", Sessions: []store.Session{
		{ID: "a1", LastSeen: now}, {ID: "a2", LastSeen: now},
	}}
	other := &store.User{ID: "b", Nickname: "b", Sessions: []store.Session{
		{ID: "b1", LastSeen: now}, {ID: "b2", LastSeen: now},
	}}
	m.PutUser(a)
	m.PutUser(other)
	m.Befriend("a", "b")

	conns := map[string]*fakeConn{}
	for _, id := range []string{"a1", "a2", "b1", "b2"} {
		c := newFakeConn(id, "")
		conns[id] = c
		registry.Insert(id, c)
	}

	require.NoError(t, b.AnnounceConnected(context.Background(), a))

	// Both of the friend's sessions hear it, none of the user's own.
	assert.Len(t, conns["b1"].sent(), 1)
	assert.Len(t, conns["b2"].sent(), 1)
	assert.Empty(t, conns["a1"].sent())
	assert.Empty(t, conns["a2"].sent())

	frame, ok := conns["b1"].sent()[0].(Notification)
	require.True(t, ok)
	assert.Equal(t, TypeFriendConnected, frame.Type)
	assert.Equal(t, map[string]string{"nickname": "a"}, frame.Item)
}
