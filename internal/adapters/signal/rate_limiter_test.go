package signal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterSlidingWindow(t *testing.T) {
	clock := time.Unix(0, 0)
	rl := NewRateLimiter(3, time.Second)
	rl.now = func() time.Time { return clock }

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow(1), "attempt %d", i)
	}
	assert.False(t, rl.Allow(1))
	assert.True(t, rl.Allow(2), "sessions are limited independently")

	clock = clock.Add(500 * time.Millisecond)
	assert.False(t, rl.Allow(1))

	clock = clock.Add(501 * time.Millisecond)
	assert.True(t, rl.Allow(1))
}

func TestRateLimiterForget(t *testing.T) {
	rl := NewRateLimiter(1, time.Hour)
	assert.True(t, rl.Allow(7))
	assert.False(t, rl.Allow(7))

	rl.Forget(7)
	assert.True(t, rl.Allow(7))
}
