package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLivenessStartsAlive(t *testing.T) {
	l := newLiveness()
	assert.Equal(t, stateAlive, l.State())
}

func TestLivenessTickAdvances(t *testing.T) {
	l := newLiveness()

	assert.Equal(t, stateAwaitingPong, l.Tick())
	assert.Equal(t, stateDead, l.Tick())
	assert.Equal(t, stateDead, l.Tick())
}

func TestLivenessAcknowledgementResets(t *testing.T) {
	l := newLiveness()

	l.Tick()
	l.MarkAlive()
	assert.Equal(t, stateAlive, l.State())

	// A fresh acknowledgement buys a full period again.
	assert.Equal(t, stateAwaitingPong, l.Tick())
}

func TestLivenessDeadStaysDead(t *testing.T) {
	l := newLiveness()

	l.Tick()
	l.Tick()
	l.MarkAlive()
	assert.Equal(t, stateDead, l.State())
}
