package policy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_PerMinuteWindow(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{MaxPerDay: 50, MaxPerMinute: 2}, nil)
	ctx := context.Background()

	assert.True(t, rl.Allow(ctx, "user-1"))
	rl.Increment(ctx, "user-1")
	assert.True(t, rl.Allow(ctx, "user-1"))
	rl.Increment(ctx, "user-1")
	assert.False(t, rl.Allow(ctx, "user-1"), "third request within the minute window should be blocked")
}

func TestRateLimiter_IndependentUsers(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{MaxPerDay: 50, MaxPerMinute: 1}, nil)
	ctx := context.Background()

	assert.True(t, rl.Allow(ctx, "user-a"))
	rl.Increment(ctx, "user-a")
	assert.True(t, rl.Allow(ctx, "user-b"), "a different user must have its own window")
	assert.False(t, rl.Allow(ctx, "user-a"))
}

func TestRateLimiter_DailyCapBelowMinuteCap(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{MaxPerDay: 1, MaxPerMinute: 5}, nil)
	ctx := context.Background()

	assert.True(t, rl.Allow(ctx, "user-1"))
	rl.Increment(ctx, "user-1")
	assert.False(t, rl.Allow(ctx, "user-1"), "daily cap should bind even though the minute window is open")
}

func TestRateLimiter_AllowDoesNotConsumeQuota(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{MaxPerDay: 50, MaxPerMinute: 1}, nil)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		assert.True(t, rl.Allow(ctx, "user-1"), "peeking Allow repeatedly must never consume quota on its own")
	}
	rl.Increment(ctx, "user-1")
	assert.False(t, rl.Allow(ctx, "user-1"), "quota is only consumed by an explicit Increment")
}

func TestRateLimiter_AllowDistributedWithoutCounterFallsBackInProcess(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{MaxPerDay: 50, MaxPerMinute: 1}, nil)
	ctx := context.Background()

	assert.True(t, rl.AllowDistributed(ctx, "user-1"))
	rl.IncrementDistributed(ctx, "user-1")
	assert.False(t, rl.AllowDistributed(ctx, "user-1"))
}
