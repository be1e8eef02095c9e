// internal/failover/ratelimit_test.go
package failover

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimit_AllowsUpToCeiling(t *testing.T) {
	rl := NewRateLimit(3, time.Minute)

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Check())
		rl.Consume()
	}

	assert.False(t, rl.Check())
}

func TestRateLimit_CheckDoesNotConsume(t *testing.T) {
	rl := NewRateLimit(1, time.Minute)

	// Any number of checks leaves the slot available.
	for i := 0; i < 10; i++ {
		assert.True(t, rl.Check())
	}

	rl.Consume()
	assert.False(t, rl.Check())
}

func TestRateLimit_WindowSlides(t *testing.T) {
	current := time.Now()
	rl := NewRateLimit(2, time.Minute)
	rl.now = func() time.Time { return current }

	rl.Consume()
	rl.Consume()
	assert.False(t, rl.Check())

	// 30s later the oldest entries are still inside the window.
	current = current.Add(30 * time.Second)
	assert.False(t, rl.Check())

	// Past the window both slots free up.
	current = current.Add(31 * time.Second)
	assert.True(t, rl.Check())

	rl.Consume()
	rl.Consume()
	assert.False(t, rl.Check())
}
