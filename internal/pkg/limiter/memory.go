package limiter

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter is an in-process fixed-window limiter, used in tests
// and when running without Redis in development.
type MemoryLimiter struct {
	rule Rule
	now  func() time.Time

	mu     sync.Mutex
	counts map[string]int
	bucket int64
}

func NewMemory(rule Rule) *MemoryLimiter {
	return &MemoryLimiter{rule: rule, now: time.Now, counts: make(map[string]int)}
}

func (l *MemoryLimiter) Allow(ctx context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	bucket := l.now().UnixMilli() / l.rule.Window.Milliseconds()
	if bucket != l.bucket {
		l.bucket = bucket
		l.counts = make(map[string]int)
	}
	l.counts[key]++
	return l.counts[key] <= l.rule.Max, nil
}
