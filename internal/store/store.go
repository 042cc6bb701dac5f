// Package store defines the document-store collaborator interfaces consumed by
// the realtime gateway: user lookup, per-user session lists, and the friend
// relation. Implementations live alongside (memory) and in the mongostore
// subpackage.
package store

import (
	"context"
	"errors"
	"time"
)

// MaxSessionCount bounds the number of device sessions a user may hold. When a
// new session would exceed the cap, the oldest-by-lastSeen sessions are evicted.
const MaxSessionCount = 5

// ErrNotFound is returned by lookups that match no document.
var ErrNotFound = errors.New("store: not found")

// Session is a persisted device credential owned by a user. It is distinct from
// a live connection: a session survives reconnects until logout or eviction.
type Session struct {
	ID           string    `bson:"_id"`
	RefreshToken string    `bson:"refreshToken"`
	PublicKey    string    `bson:"publicKey"`
	LastSeen     time.Time `bson:"lastSeen"`
}

// User carries the subset of the user document the gateway needs.
type User struct {
	ID         string    `bson:"_id"`
	Nickname   string    `bson:"nickname"`
	ProviderID string    `bson:"providerId"`
	LastSeen   time.Time `bson:"lastSeen"`
	Sessions   []Session `bson:"sessions"`
}

// SessionByRefreshToken returns the user's session holding the given refresh
// token, or nil.
func (u *User) SessionByRefreshToken(token string) *Session {
	for i := range u.Sessions {
		if u.Sessions[i].RefreshToken == token {
			return &u.Sessions[i]
		}
	}
	return nil
}

// SessionByID returns the user's session with the given id, or nil.
func (u *User) SessionByID(id string) *Session {
	for i := range u.Sessions {
		if u.Sessions[i].ID == id {
			return &u.Sessions[i]
		}
	}
	return nil
}

// UserStore is the narrow user-collection interface the gateway reads through.
type UserStore interface {
	// FindByID loads a user by its document id.
	FindByID(ctx context.Context, id string) (*User, error)

	// FindByProviderID loads a user by its external-identity id, the value
	// carried in the access-token subject.
	FindByProviderID(ctx context.Context, providerID string) (*User, error)

	// FindByNickname loads a user by nickname.
	FindByNickname(ctx context.Context, nickname string) (*User, error)

	// TouchSession sets the user's and the named session's lastSeen timestamp.
	// This is the only write the gateway performs.
	TouchSession(ctx context.Context, userID, sessionID string, at time.Time) error

	// AddSession appends a session to the user's session list.
	AddSession(ctx context.Context, userID string, s Session) error

	// RemoveSession deletes a session from the user's session list.
	RemoveSession(ctx context.Context, userID, sessionID string) error
}

// FriendStore is the read-only friend-relation interface.
type FriendStore interface {
	// AreFriends reports whether the pairwise relation exists.
	AreFriends(ctx context.Context, userID, otherID string) (bool, error)

	// ActiveFriendSessionIDs returns the session ids of every friend of the
	// user whose lastSeen is strictly after since.
	ActiveFriendSessionIDs(ctx context.Context, userID string, since time.Time) ([]string, error)
}
