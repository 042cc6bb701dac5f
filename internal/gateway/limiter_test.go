package gateway

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFrameLimiterAllowsBurst(t *testing.T) {
	fl := newFrameLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		assert.True(t, fl.allow(), "frame %d inside the burst", i)
	}
	assert.False(t, fl.allow())
}

func TestFrameLimiterRefills(t *testing.T) {
	fl := newFrameLimiter(2, 20*time.Millisecond)

	assert.True(t, fl.allow())
	assert.True(t, fl.allow())
	assert.False(t, fl.allow())

	time.Sleep(30 * time.Millisecond)
	assert.True(t, fl.allow())
}

func TestFrameLimiterDefaultsBadInput(t *testing.T) {
	fl := newFrameLimiter(0, 0)
	assert.True(t, fl.allow())
}
