package gateway

import (
	"sync"
)

// fakeConn implements Connection for tests, recording every sent frame.
type fakeConn struct {
	mu        sync.Mutex
	sessionID string
	userID    string
	frames    []interface{}
	aliveHits int
	sendErr   error
}

func newFakeConn(sessionID, userID string) *fakeConn {
	return &fakeConn{sessionID: sessionID, userID: userID}
}

func (f *fakeConn) Send(v interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.frames = append(f.frames, v)
	return nil
}

func (f *fakeConn) SessionID() string { return f.sessionID }
func (f *fakeConn) UserID() string    { return f.userID }

func (f *fakeConn) MarkAlive() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.aliveHits++
}

func (f *fakeConn) sent() []interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]interface{}(nil), f.frames...)
}

func (f *fakeConn) markedAlive() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.aliveHits
}
