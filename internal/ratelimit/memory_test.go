package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(attempts int, window time.Duration) (*MemoryLimiter, *time.Time) {
	l := NewMemoryLimiter(attempts, window)
	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return current }
	return l, &current
}

func TestMemoryLimiterAllowsUpToLimit(t *testing.T) {
	l, _ := newTestLimiter(5, 15*time.Minute)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		result := l.Consume(ctx, "user@example.com")
		require.True(t, result.Allowed, "attempt %d", i+1)
	}

	result := l.Consume(ctx, "user@example.com")
	assert.False(t, result.Allowed)
	assert.Greater(t, result.RetryAfter, time.Duration(0))
	assert.LessOrEqual(t, result.RetryAfter, 15*time.Minute)
}

func TestMemoryLimiterWindowAnchoredAtFirstAttempt(t *testing.T) {
	l, clock := newTestLimiter(5, 15*time.Minute)
	ctx := context.Background()

	start := *clock
	for i := 0; i < 5; i++ {
		l.Consume(ctx, "a@example.com")
		*clock = clock.Add(time.Minute)
	}

	// Denied while inside the window that began at the first attempt.
	result := l.Consume(ctx, "a@example.com")
	require.False(t, result.Allowed)
	assert.Equal(t, start.Add(15*time.Minute).Sub(*clock), result.RetryAfter)

	// A fresh window opens once 15 minutes have passed since the first attempt.
	*clock = start.Add(15 * time.Minute)
	result = l.Consume(ctx, "a@example.com")
	assert.True(t, result.Allowed)
}

func TestMemoryLimiterResetClearsCounter(t *testing.T) {
	l, _ := newTestLimiter(5, 15*time.Minute)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		l.Consume(ctx, "b@example.com")
	}
	require.False(t, l.Consume(ctx, "b@example.com").Allowed)

	require.NoError(t, l.Reset(ctx, "b@example.com"))
	assert.True(t, l.Consume(ctx, "b@example.com").Allowed)
}

func TestMemoryLimiterKeysAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(2, time.Minute)
	ctx := context.Background()

	l.Consume(ctx, "x@example.com")
	l.Consume(ctx, "x@example.com")
	require.False(t, l.Consume(ctx, "x@example.com").Allowed)

	assert.True(t, l.Consume(ctx, "y@example.com").Allowed)
}

func TestMemoryLimiterNormalizesKeys(t *testing.T) {
	l, _ := newTestLimiter(2, time.Minute)
	ctx := context.Background()

	l.Consume(ctx, "User@Example.com")
	l.Consume(ctx, "  user@example.com ")
	assert.False(t, l.Consume(ctx, "USER@EXAMPLE.COM").Allowed)
}

func TestNormalizeKey(t *testing.T) {
	assert.Equal(t, "user@example.com", NormalizeKey("  User@Example.COM "))
}
