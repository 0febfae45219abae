package ratelimiter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFixedWindow(t *testing.T) {
	clock := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	rl := NewFixedWindowLimiter(2, time.Minute)
	rl.now = func() time.Time { return clock }

	ok, _ := rl.Allow("10.0.0.1")
	assert.True(t, ok)
	ok, _ = rl.Allow("10.0.0.1")
	assert.True(t, ok)

	clock = clock.Add(20 * time.Second)
	ok, retry := rl.Allow("10.0.0.1")
	assert.False(t, ok)
	assert.Equal(t, 40*time.Second, retry)

	// other clients have their own window
	ok, _ = rl.Allow("10.0.0.2")
	assert.True(t, ok)

	clock = clock.Add(40 * time.Second)
	ok, _ = rl.Allow("10.0.0.1")
	assert.True(t, ok)
}

func TestFixedWindowSweep(t *testing.T) {
	clock := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	rl := NewFixedWindowLimiter(5, time.Minute)
	rl.now = func() time.Time { return clock }

	rl.Allow("a")
	rl.Allow("b")
	assert.Len(t, rl.clients, 2)

	clock = clock.Add(2 * time.Minute)
	rl.Allow("c")
	assert.Len(t, rl.clients, 1)
}
