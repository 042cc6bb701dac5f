package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Memory is an in-process implementation of the store interfaces. It backs the
// gateway tests and the development mode; the clock is injectable so the
// active-window queries can be exercised deterministically.
type Memory struct {
	mu      sync.RWMutex
	users   map[string]*User
	friends map[string]map[string]bool

	// Now supplies timestamps for defaulting; tests may replace it.
	Now func() time.Time
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		users:   make(map[string]*User),
		friends: make(map[string]map[string]bool),
		Now:     time.Now,
	}
}

// PutUser inserts or replaces a user document.
func (m *Memory) PutUser(u *User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	cp.Sessions = append([]Session(nil), u.Sessions...)
	m.users[u.ID] = &cp
}

// Befriend records the symmetric friend relation between two users.
func (m *Memory) Befriend(a, b string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.friends[a] == nil {
		m.friends[a] = make(map[string]bool)
	}
	if m.friends[b] == nil {
		m.friends[b] = make(map[string]bool)
	}
	m.friends[a][b] = true
	m.friends[b][a] = true
}

func (m *Memory) FindByID(_ context.Context, id string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyUser(u), nil
}

func (m *Memory) FindByProviderID(_ context.Context, providerID string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.ProviderID == providerID {
			return copyUser(u), nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) FindByNickname(_ context.Context, nickname string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Nickname == nickname {
			return copyUser(u), nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) TouchSession(_ context.Context, userID, sessionID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.LastSeen = at
	s := u.SessionByID(sessionID)
	if s == nil {
		return ErrNotFound
	}
	s.LastSeen = at
	return nil
}

func (m *Memory) AddSession(_ context.Context, userID string, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return ErrNotFound
	}
	if s.LastSeen.IsZero() {
		s.LastSeen = m.Now()
	}
	u.Sessions = append(u.Sessions, s)
	return nil
}

func (m *Memory) RemoveSession(_ context.Context, userID, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return ErrNotFound
	}
	for i := range u.Sessions {
		if u.Sessions[i].ID == sessionID {
			u.Sessions = append(u.Sessions[:i], u.Sessions[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (m *Memory) AreFriends(_ context.Context, userID, otherID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.friends[userID][otherID], nil
}

func (m *Memory) ActiveFriendSessionIDs(_ context.Context, userID string, since time.Time) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var ids []string
	for friendID := range m.friends[userID] {
		friend, ok := m.users[friendID]
		if !ok {
			continue
		}
		for _, s := range friend.Sessions {
			// Strictly after: a session exactly at the boundary is stale.
			if s.LastSeen.After(since) {
				ids = append(ids, s.ID)
			}
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func copyUser(u *User) *User {
	cp := *u
	cp.Sessions = append([]Session(nil), u.Sessions...)
	return &cp
}
