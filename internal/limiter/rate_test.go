package limiter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_SpacesRequests(t *testing.T) {
	r := NewRateLimiter(time.Hour)

	assert.True(t, r.Allow())
	assert.False(t, r.Allow())
}

func TestRateLimiter_ZeroIntervalIsUnlimited(t *testing.T) {
	r := NewRateLimiter(0)
	for i := 0; i < 10; i++ {
		assert.True(t, r.Allow())
	}
	assert.NoError(t, r.Wait(context.Background()))
}

func TestPause_RespectsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := Pause(ctx, time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)

	assert.NoError(t, Pause(context.Background(), time.Millisecond))
}
