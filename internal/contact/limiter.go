package contact

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sbcarpet/showroom/internal/domain"
	"golang.org/x/time/rate"
)

const limiterIdleExpiry = 10 * time.Minute

type memoryBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// MemoryLimiter is an in-process SubmissionLimiter used when no Redis is configured.
// Buckets are kept per key and dropped after a period of inactivity.
type MemoryLimiter struct {
	clock clockwork.Clock
	limit rate.Limit
	burst int

	mu      sync.Mutex
	buckets map[string]*memoryBucket
}

var _ domain.SubmissionLimiter = (*MemoryLimiter)(nil)

// NewMemoryLimiter allows perMinute submissions per key with the given burst.
func NewMemoryLimiter(clock clockwork.Clock, perMinute, burst int) *MemoryLimiter {
	return &MemoryLimiter{
		clock:   clock,
		limit:   rate.Limit(float64(perMinute) / 60),
		burst:   burst,
		buckets: make(map[string]*memoryBucket),
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.evictLocked(now)

	b, ok := l.buckets[key]
	if !ok {
		b = &memoryBucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	return b.limiter.AllowN(now, 1), nil
}

// Len returns the number of tracked keys.
func (l *MemoryLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

func (l *MemoryLimiter) evictLocked(now time.Time) {
	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) > limiterIdleExpiry {
			delete(l.buckets, key)
		}
	}
}
