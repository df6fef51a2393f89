// Package limiter provides named fixed-window rate limiters. Each
// protected endpoint owns a limiter with an independent quota and
// window; keys are client IPs or email addresses.
package limiter

import (
	"context"
	"time"
)

// Limiter answers whether one more action is allowed for a key within
// the current window.
type Limiter interface {
	// Allow counts one attempt for key and reports whether it is within
	// quota. The counting errs open: backends failing should not lock
	// users out, callers may log the error.
	Allow(ctx context.Context, key string) (bool, error)
}

// Rule is a fixed-window quota.
type Rule struct {
	Name   string
	Max    int
	Window time.Duration
}
