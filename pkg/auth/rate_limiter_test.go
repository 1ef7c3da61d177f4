package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlidingWindowLimiter_BlocksOverLimit(t *testing.T) {
	limiter := NewSlidingWindowLimiter(2, time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		allowed, err := limiter.Allow(ctx, "client-1")
		require.NoError(t, err)
		assert.True(t, allowed)
	}

	allowed, err := limiter.Allow(ctx, "client-1")
	require.NoError(t, err)
	assert.False(t, allowed)

	// Other keys have their own window.
	allowed, err = limiter.Allow(ctx, "client-2")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestSlidingWindowLimiter_WindowExpires(t *testing.T) {
	limiter := NewSlidingWindowLimiter(1, 10*time.Millisecond)
	ctx := context.Background()

	allowed, err := limiter.Allow(ctx, "client-1")
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, err = limiter.Allow(ctx, "client-1")
	require.NoError(t, err)
	require.False(t, allowed)

	time.Sleep(20 * time.Millisecond)

	allowed, err = limiter.Allow(ctx, "client-1")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestSlidingWindowLimiter_Reset(t *testing.T) {
	limiter := NewSlidingWindowLimiter(1, time.Minute)
	ctx := context.Background()

	_, err := limiter.Allow(ctx, "client-1")
	require.NoError(t, err)

	require.NoError(t, limiter.Reset(ctx, "client-1"))

	allowed, err := limiter.Allow(ctx, "client-1")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestScopedLimiters_SeparateKeySpaces(t *testing.T) {
	ctx := context.Background()

	ipLimiter := NewIPRateLimiter(1)
	allowed, err := ipLimiter.Allow(ctx, "203.0.113.7")
	require.NoError(t, err)
	assert.True(t, allowed)
	allowed, _ = ipLimiter.Allow(ctx, "203.0.113.7")
	assert.False(t, allowed)

	userLimiter := NewUserRateLimiter(1)
	allowed, err = userLimiter.Allow(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, allowed)
}
