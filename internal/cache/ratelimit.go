package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimitResult is the outcome of taking one token from a bucket.
type RateLimitResult struct {
	Allowed    bool
	Remaining  int64
	ResetAt    time.Time
	RetryAfter time.Duration
}

// takeToken refills the bucket for the time elapsed since its last update
// and takes one token if available. Time is in milliseconds.
//
// Returns {allowed, retry_after_ms, tokens_left, full_in_ms}.
var takeToken = redis.NewScript(`
local key        = KEYS[1]
local per_ms     = tonumber(ARGV[1])
local burst      = tonumber(ARGV[2])
local now        = tonumber(ARGV[3])
local ttl_ms     = tonumber(ARGV[4])

local state  = redis.call('HMGET', key, 'tokens', 'ts')
local tokens = tonumber(state[1]) or burst
local ts     = tonumber(state[2]) or now
if now > ts then
	tokens = math.min(burst, tokens + (now - ts) * per_ms)
end

local allowed, retry = 0, 0
if tokens >= 1 then
	tokens = tokens - 1
	allowed = 1
else
	retry = math.ceil((1 - tokens) / per_ms)
end

redis.call('HSET', key, 'tokens', tokens, 'ts', now)
redis.call('PEXPIRE', key, ttl_ms)

return {allowed, retry, math.floor(tokens), math.ceil((burst - tokens) / per_ms)}
`)

// bucket describes one family of token buckets.
type bucket struct {
	prefix string
	perSec float64
	burst  int
}

// ttl keeps idle buckets around long enough to refill completely.
func (b bucket) ttl() time.Duration {
	full := time.Duration(float64(b.burst) / b.perSec * float64(time.Second))
	return full + time.Minute
}

func (c *Cache) take(ctx context.Context, b bucket, id string) (*RateLimitResult, error) {
	now := time.Now()
	res, err := takeToken.Run(ctx, c.client,
		[]string{keyspace + b.prefix + id},
		b.perSec/1000, b.burst, now.UnixMilli(), b.ttl().Milliseconds(),
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("rate limit %s: %w", b.prefix, err)
	}

	retry := time.Duration(res[1]) * time.Millisecond
	return &RateLimitResult{
		Allowed:    res[0] == 1,
		Remaining:  res[2],
		ResetAt:    now.Add(time.Duration(res[3]) * time.Millisecond),
		RetryAfter: roundUpSecond(retry),
	}, nil
}

// CheckAPIRateLimit takes a token for an authenticated caller (API key id or
// "user:<id>"). A zero rate means unlimited and never touches Redis.
func (c *Cache) CheckAPIRateLimit(ctx context.Context, callerKey string, ratePerMinute, burst int) (*RateLimitResult, error) {
	if ratePerMinute == 0 {
		return &RateLimitResult{Allowed: true, Remaining: int64(burst), ResetAt: time.Now()}, nil
	}
	b := bucket{prefix: "rl:caller:", perSec: float64(ratePerMinute) / 60, burst: burst}
	return c.take(ctx, b, callerKey)
}

// CheckIPRateLimit takes a token from the password-attempt bucket of ip.
// The address is stored hashed.
func (c *Cache) CheckIPRateLimit(ctx context.Context, ip string, ratePerSecond, burst int) (*RateLimitResult, error) {
	b := bucket{prefix: "rl:ip:", perSec: float64(ratePerSecond), burst: burst}
	return c.take(ctx, b, hashIP(ip))
}

// roundUpSecond keeps Retry-After honest: clients only see whole seconds.
func roundUpSecond(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return time.Duration(math.Ceil(d.Seconds())) * time.Second
}

func hashIP(ip string) string {
	sum := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(sum[:8])
}
