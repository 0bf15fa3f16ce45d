package httpserver

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"
)

const (
	rateLimiterCleanupInterval = 5 * time.Minute
	rateLimiterIdleTimeout     = 10 * time.Minute
)

// globalSessionLimiter caps concurrent page sessions on this instance.
type globalSessionLimiter struct {
	current atomic.Int64
	max     int64
}

func (l *globalSessionLimiter) acquire() bool {
	for {
		current := l.current.Load()
		if current >= l.max {
			return false
		}
		if l.current.CompareAndSwap(current, current+1) {
			return true
		}
	}
}

func (l *globalSessionLimiter) release() {
	l.current.Add(-1)
}

// ipSessionLimiter caps concurrent page sessions per client IP.
type ipSessionLimiter struct {
	mu     sync.Mutex
	ips    map[string]int
	maxPer int
}

func (l *ipSessionLimiter) acquire(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.ips[ip] >= l.maxPer {
		return false
	}
	l.ips[ip]++
	return true
}

func (l *ipSessionLimiter) release(ip string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if count := l.ips[ip]; count > 1 {
		l.ips[ip] = count - 1
	} else {
		delete(l.ips, ip)
	}
}

func (l *ipSessionLimiter) count(ip string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ips[ip]
}

// sessionRateLimiter limits how fast one IP may open new page sessions.
type sessionRateLimiter struct {
	clock     clockwork.Clock
	rate      rate.Limit
	burst     int
	mu        sync.Mutex
	limiters  map[string]*rateLimiterEntry
	cleanupAt time.Time
}

type rateLimiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func (l *sessionRateLimiter) allow(ip string) bool {
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.After(l.cleanupAt) {
		cutoff := now.Add(-rateLimiterIdleTimeout)
		for key, entry := range l.limiters {
			if entry.lastSeen.Before(cutoff) {
				delete(l.limiters, key)
			}
		}
		l.cleanupAt = now.Add(rateLimiterCleanupInterval)
	}

	entry, ok := l.limiters[ip]
	if !ok {
		entry = &rateLimiterEntry{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.limiters[ip] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}

func (l *sessionRateLimiter) tracked() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

// LimitReason describes why a page session was refused.
type LimitReason string

const (
	LimitReasonGlobal LimitReason = "global_limit"
	LimitReasonPerIP  LimitReason = "per_ip_limit"
	LimitReasonRate   LimitReason = "rate_limit"
)

// ConnectionLimits combines the global, per-IP and per-IP rate limits applied
// before a page session is upgraded.
type ConnectionLimits struct {
	global *globalSessionLimiter
	perIP  *ipSessionLimiter
	rate   *sessionRateLimiter
}

func NewConnectionLimits(clock clockwork.Clock, globalMax int64, perIPMax int, sessionsPerSecond float64, burst int) *ConnectionLimits {
	return &ConnectionLimits{
		global: &globalSessionLimiter{max: globalMax},
		perIP:  &ipSessionLimiter{ips: make(map[string]int), maxPer: perIPMax},
		rate: &sessionRateLimiter{
			clock:     clock,
			rate:      rate.Limit(sessionsPerSecond),
			burst:     burst,
			limiters:  make(map[string]*rateLimiterEntry),
			cleanupAt: clock.Now().Add(rateLimiterCleanupInterval),
		},
	}
}

// Acquire reserves a session slot for ip. On failure it reports which limit was hit.
func (l *ConnectionLimits) Acquire(ip string) (bool, LimitReason) {
	// Rate first: it is the cheapest check and consumes no slot.
	if !l.rate.allow(ip) {
		return false, LimitReasonRate
	}
	if !l.global.acquire() {
		return false, LimitReasonGlobal
	}
	if !l.perIP.acquire(ip) {
		l.global.release()
		return false, LimitReasonPerIP
	}
	return true, ""
}

// Release frees the slot taken by a successful Acquire.
func (l *ConnectionLimits) Release(ip string) {
	l.perIP.release(ip)
	l.global.release()
}

// Current returns the number of sessions holding a slot.
func (l *ConnectionLimits) Current() int64 {
	return l.global.current.Load()
}
