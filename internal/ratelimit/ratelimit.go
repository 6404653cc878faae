// Package ratelimit guards the login flow against credential stuffing.
// Limiting is defense in depth, not a correctness requirement: every
// implementation fails open when its backing store misbehaves.
package ratelimit

import (
	"context"
	"strings"
	"time"
)

// Result reports whether an attempt may proceed. RetryAfter is only
// meaningful when Allowed is false.
type Result struct {
	Allowed    bool
	RetryAfter time.Duration
}

type Limiter interface {
	// Consume records one attempt for key and reports whether it is allowed.
	Consume(ctx context.Context, key string) Result
	// Reset clears the counter for key, e.g. after a successful login.
	Reset(ctx context.Context, key string) error
}

// NormalizeKey lowercases and trims a key so "User@Example.com " and
// "user@example.com" share a counter.
func NormalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
