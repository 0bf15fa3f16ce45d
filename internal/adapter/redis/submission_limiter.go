package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sbcarpet/showroom/internal/domain"
)

// takeTokenScript is a token bucket: it refills tokens for the time elapsed since
// the last call, then takes one if available. The key expires once the bucket
// would be full again so idle clients cost nothing.
// ARGV: [1]=now_ms, [2]=capacity, [3]=tokens_per_minute
// Returns 1 if a token was taken, 0 otherwise.
var takeTokenScript = goredis.NewScript(`
local now = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local per_minute = tonumber(ARGV[3])

local tokens = tonumber(redis.call('HGET', KEYS[1], 'tokens'))
local last = tonumber(redis.call('HGET', KEYS[1], 'last_ms'))
if tokens == nil or last == nil then
  tokens = capacity
  last = now
end

local elapsed = math.max(0, now - last)
tokens = math.min(capacity, tokens + elapsed * per_minute / 60000.0)

local allowed = 0
if tokens >= 1 then
  tokens = tokens - 1
  allowed = 1
end

redis.call('HSET', KEYS[1], 'tokens', tostring(tokens), 'last_ms', tostring(now))
local ttl = math.ceil((capacity - tokens) * 60000.0 / per_minute) + 1000
redis.call('PEXPIRE', KEYS[1], ttl)
return allowed
`)

// SubmissionLimiter implements domain.SubmissionLimiter with a token bucket per
// client shared by every instance through Redis.
type SubmissionLimiter struct {
	rdb       goredis.Scripter
	clock     clockwork.Clock
	capacity  int
	perMinute int
}

var _ domain.SubmissionLimiter = (*SubmissionLimiter)(nil)

// NewSubmissionLimiter creates a limiter.
// capacity: maximum burst size (tokens)
// perMinute: sustained rate (tokens per minute)
func NewSubmissionLimiter(rdb goredis.Scripter, clock clockwork.Clock, capacity, perMinute int) *SubmissionLimiter {
	return &SubmissionLimiter{
		rdb:       rdb,
		clock:     clock,
		capacity:  capacity,
		perMinute: perMinute,
	}
}

func submissionKey(client string) string {
	return fmt.Sprintf("rate_limit:contact:%s", client)
}

// Allow reports whether the client may submit now.
// Returns true if allowed (token consumed), false if rate limited.
func (l *SubmissionLimiter) Allow(ctx context.Context, key string) (bool, error) {
	result, err := takeTokenScript.Run(ctx, l.rdb, []string{submissionKey(key)},
		strconv.FormatInt(l.clock.Now().UnixMilli(), 10),
		l.capacity,
		l.perMinute,
	).Int()
	if err != nil {
		return false, fmt.Errorf("rate limit check failed: %w", err)
	}
	return result == 1, nil
}
