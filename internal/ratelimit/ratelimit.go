package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// TokenBucket is a Redis-backed token bucket shared by every server
// instance. Buckets are keyed by client and action.
type TokenBucket struct {
	redis    *redis.Client
	capacity int64         // Maximum number of tokens
	refill   int64         // Tokens refilled per window
	window   time.Duration // Refill window
	now      func() time.Time
}

// NewTokenBucket creates a limiter that holds capacity tokens and refills
// refillRate tokens per minute.
func NewTokenBucket(redisClient *redis.Client, capacity, refillRate int64) *TokenBucket {
	return &TokenBucket{
		redis:    redisClient,
		capacity: capacity,
		refill:   refillRate,
		window:   time.Minute,
		now:      time.Now,
	}
}

// Capacity is the bucket size, reported in X-RateLimit-Limit.
func (tb *TokenBucket) Capacity() int64 {
	return tb.capacity
}

// Window is the refill window.
func (tb *TokenBucket) Window() time.Duration {
	return tb.window
}

var takeScript = redis.NewScript(`
	local key = KEYS[1]
	local capacity = tonumber(ARGV[1])
	local refill_rate = tonumber(ARGV[2])
	local window = tonumber(ARGV[3])
	local now = tonumber(ARGV[4])
	local take = tonumber(ARGV[5])

	local bucket = redis.call('HMGET', key, 'tokens', 'last_refill')
	local tokens = tonumber(bucket[1]) or capacity
	local last_refill = tonumber(bucket[2]) or now

	local tokens_to_add = math.floor(((now - last_refill) / window) * refill_rate)
	if tokens_to_add > 0 then
		tokens = math.min(capacity, tokens + tokens_to_add)
		last_refill = now
	end

	local allowed = 0
	if take > 0 and tokens >= take then
		tokens = tokens - take
		allowed = 1
	end

	if take > 0 then
		redis.call('HSET', key, 'tokens', tokens, 'last_refill', last_refill)
		redis.call('EXPIRE', key, window * 2)
	end

	return {allowed, tokens}
`)

func (tb *TokenBucket) run(ctx context.Context, clientID, action string, take int64) (bool, int64, error) {
	key := fmt.Sprintf("rate_limit:%s:%s", clientID, action)

	result, err := takeScript.Run(ctx, tb.redis, []string{key},
		tb.capacity, tb.refill, int64(tb.window.Seconds()), tb.now().Unix(), take).Result()
	if err != nil {
		return false, 0, fmt.Errorf("rate limit check failed: %w", err)
	}

	values, ok := result.([]interface{})
	if !ok || len(values) != 2 {
		return false, 0, fmt.Errorf("unexpected result type from rate limit script")
	}
	allowed, _ := values[0].(int64)
	remaining, _ := values[1].(int64)

	return allowed == 1, remaining, nil
}

// Allow consumes one token. It reports whether the action may proceed
// and how many tokens are left afterwards.
func (tb *TokenBucket) Allow(ctx context.Context, clientID, action string) (bool, int64, error) {
	return tb.run(ctx, clientID, action, 1)
}

// GetRemaining returns the tokens available without consuming one.
func (tb *TokenBucket) GetRemaining(ctx context.Context, clientID, action string) (int64, error) {
	_, remaining, err := tb.run(ctx, clientID, action, 0)
	return remaining, err
}

// Reset clears the bucket for a client action
func (tb *TokenBucket) Reset(ctx context.Context, clientID, action string) error {
	key := fmt.Sprintf("rate_limit:%s:%s", clientID, action)
	return tb.redis.Del(ctx, key).Err()
}
