package gateway

import "sync"

// livenessState tracks the missed-heartbeat detector for one connection.
type livenessState int

const (
	// stateAlive means a pong or heartbeat arrived since the last probe.
	stateAlive livenessState = iota
	// stateAwaitingPong means a probe was sent and not yet acknowledged.
	stateAwaitingPong
	// stateDead means a full probe period elapsed without acknowledgement.
	stateDead
)

// liveness is the explicit Alive -> AwaitingPong -> Dead state machine
// attached to a connection. It replaces an ambient isAlive flag so the
// contract is testable without real timers.
type liveness struct {
	mu    sync.Mutex
	state livenessState
}

func newLiveness() *liveness {
	return &liveness{state: stateAlive}
}

// MarkAlive records an acknowledgement. A dead connection stays dead.
func (l *liveness) MarkAlive() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != stateDead {
		l.state = stateAlive
	}
}

// Tick advances the machine by one probe period and returns the new state.
// Alive becomes AwaitingPong (the caller sends a probe); AwaitingPong becomes
// Dead (the caller closes the connection on this tick).
func (l *liveness) Tick() livenessState {
	l.mu.Lock()
	defer l.mu.Unlock()
	switch l.state {
	case stateAlive:
		l.state = stateAwaitingPong
	case stateAwaitingPong:
		l.state = stateDead
	}
	return l.state
}

// State returns the current state.
func (l *liveness) State() livenessState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}
