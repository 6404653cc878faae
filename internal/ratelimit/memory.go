package ratelimit

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	count       int
	windowStart time.Time
}

// MemoryLimiter is a process-local fixed-window counter. The window is
// anchored at the first attempt for a key: once the limit is hit, every
// further attempt is denied until that window elapses. State is lost on
// restart, which is acceptable for a single-process deployment; multi-process
// setups should use RedisLimiter behind the same interface.
type MemoryLimiter struct {
	mu       sync.Mutex
	entries  map[string]*entry
	attempts int
	window   time.Duration
	now      func() time.Time
}

func NewMemoryLimiter(attempts int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		entries:  make(map[string]*entry),
		attempts: attempts,
		window:   window,
		now:      time.Now,
	}
}

func (l *MemoryLimiter) Consume(_ context.Context, key string) Result {
	key = NormalizeKey(key)
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.pruneLocked(now)

	e, ok := l.entries[key]
	if !ok || now.Sub(e.windowStart) >= l.window {
		l.entries[key] = &entry{count: 1, windowStart: now}
		return Result{Allowed: true}
	}

	if e.count >= l.attempts {
		return Result{Allowed: false, RetryAfter: e.windowStart.Add(l.window).Sub(now)}
	}

	e.count++
	return Result{Allowed: true}
}

func (l *MemoryLimiter) Reset(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, NormalizeKey(key))
	return nil
}

// pruneLocked drops expired windows so the map does not grow without bound.
func (l *MemoryLimiter) pruneLocked(now time.Time) {
	for key, e := range l.entries {
		if now.Sub(e.windowStart) >= l.window {
			delete(l.entries, key)
		}
	}
}
