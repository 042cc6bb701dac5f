// Package session manages the bounded per-user session list and the refresh
// tokens that anchor each session in the external key-value store.
package session

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/flyingbingbong/jubsok-backend/internal/store"
)

// RefreshTokens is the external key-value collaborator mapping a refresh
// token to the provider id it was issued for.
type RefreshTokens interface {
	Add(ctx context.Context, token, providerID string) error
	Remove(ctx context.Context, token string) error
	Lookup(ctx context.Context, token string) (string, error)
}

// Manager creates and removes device sessions, enforcing the per-user cap by
// evicting the oldest-by-lastSeen sessions together with their refresh tokens.
type Manager struct {
	users  store.UserStore
	tokens RefreshTokens
	now    func() time.Time
	log    *zap.Logger
}

// NewManager wires the session manager.
func NewManager(users store.UserStore, tokens RefreshTokens, log *zap.Logger) *Manager {
	return &Manager{users: users, tokens: tokens, now: time.Now, log: log}
}

// Add registers a new session for the user. Sessions beyond the cap are
// evicted oldest-lastSeen first, and each evicted refresh token is deleted
// from the key-value store before the new session is persisted.
func (m *Manager) Add(ctx context.Context, user *store.User, refreshToken, publicKey string) (*store.Session, error) {
	sessions := append([]store.Session(nil), user.Sessions...)
	if len(sessions) >= store.MaxSessionCount {
		sort.Slice(sessions, func(i, j int) bool {
			return sessions[i].LastSeen.Before(sessions[j].LastSeen)
		})
		evict := sessions[:len(sessions)-store.MaxSessionCount+1]
		for _, s := range evict {
			if err := m.tokens.Remove(ctx, s.RefreshToken); err != nil {
				return nil, fmt.Errorf("remove evicted refresh token: %w", err)
			}
			if err := m.users.RemoveSession(ctx, user.ID, s.ID); err != nil {
				return nil, fmt.Errorf("evict session: %w", err)
			}
			m.log.Info("session evicted",
				zap.String("user_id", user.ID), zap.String("session_id", s.ID))
		}
	}

	s := store.Session{
		ID:           uuid.NewString(),
		RefreshToken: refreshToken,
		PublicKey:    publicKey,
		LastSeen:     m.now(),
	}
	if err := m.users.AddSession(ctx, user.ID, s); err != nil {
		return nil, fmt.Errorf("add session: %w", err)
	}
	if err := m.tokens.Add(ctx, refreshToken, user.ProviderID); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}
	return &s, nil
}

// Remove deletes a session and its refresh token, e.g. on logout.
func (m *Manager) Remove(ctx context.Context, user *store.User, sessionID string) error {
	s := user.SessionByID(sessionID)
	if s == nil {
		return store.ErrNotFound
	}
	if err := m.tokens.Remove(ctx, s.RefreshToken); err != nil {
		return fmt.Errorf("remove refresh token: %w", err)
	}
	if err := m.users.RemoveSession(ctx, user.ID, sessionID); err != nil {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}
