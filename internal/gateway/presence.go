package gateway

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/flyingbingbong/jubsok-backend/internal/store"
)

// Broadcaster computes the reachable audience of a user's friends and fans
// notification frames out to their live connections.
type Broadcaster struct {
	registry *Registry
	friends  store.FriendStore
	window   time.Duration

	// now is replaceable so the liveness window can be tested with a
	// controlled clock.
	now func() time.Time
	log *zap.Logger
}

// NewBroadcaster wires the presence broadcaster. window is the span after
// which a session's lastSeen is considered stale.
func NewBroadcaster(registry *Registry, friends store.FriendStore, window time.Duration, log *zap.Logger) *Broadcaster {
	return &Broadcaster{
		registry: registry,
		friends:  friends,
		window:   window,
		now:      time.Now,
		log:      log,
	}
}

// ActiveSessions returns the session ids of every friend of the user whose
// lastSeen falls strictly inside the liveness window.
func (b *Broadcaster) ActiveSessions(ctx context.Context, user *store.User) ([]string, error) {
	since := b.now().Add(-b.window)
	return b.friends.ActiveFriendSessionIDs(ctx, user.ID, since)
}

// Broadcast sends the frame to every listed session that has a live
// connection in the registry. Sessions active in the store's view but not
// connected to this process are silently skipped. All sends are issued
// concurrently and Broadcast returns only once every send has settled; an
// individual failure does not abort the others.
func (b *Broadcaster) Broadcast(sessionIDs []string, v interface{}) {
	var g errgroup.Group
	sent := 0
	for _, id := range sessionIDs {
		sender, ok := b.registry.Lookup(id)
		if !ok {
			continue
		}
		sent++
		sessionID := id
		g.Go(func() error {
			if err := sender.Send(v); err != nil {
				b.log.Warn("broadcast send failed",
					zap.String("session_id", sessionID), zap.Error(err))
			}
			return nil
		})
	}
	_ = g.Wait()
	broadcastsTotal.Add(float64(sent))
}

// AnnounceConnected notifies the user's reachable friends that the user came
// online.
func (b *Broadcaster) AnnounceConnected(ctx context.Context, user *store.User) error {
	return b.announce(ctx, user, TypeFriendConnected)
}

// AnnounceDisconnected notifies the user's reachable friends that the user
// went offline. The supervisor fires it only when the user has no remaining
// reachable session.
func (b *Broadcaster) AnnounceDisconnected(ctx context.Context, user *store.User) error {
	return b.announce(ctx, user, TypeFriendDisconnected)
}

func (b *Broadcaster) announce(ctx context.Context, user *store.User, frameType string) error {
	sessions, err := b.ActiveSessions(ctx, user)
	if err != nil {
		return err
	}
	b.Broadcast(sessions, Notification{
		Type: frameType,
		Item: map[string]string{"nickname": user.Nickname},
	})
	return nil
}
