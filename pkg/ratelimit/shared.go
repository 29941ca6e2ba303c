package ratelimit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultSharedPrefix is the Redis key prefix for shared windows.
const DefaultSharedPrefix = "skyblock:ratelimit"

// consumeScript increments the window counter, starting the window on first use.
// Over-limit increments are rolled back so the counter never exceeds the limit.
//
// KEYS[1] window key, ARGV[1] limit, ARGV[2] window in milliseconds.
// Returns {allowed, uses, pttl}.
var consumeScript = redis.NewScript(`
local current = redis.call('INCR', KEYS[1])
if current == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[2])
end
local ttl = redis.call('PTTL', KEYS[1])
if ttl < 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[2])
	ttl = tonumber(ARGV[2])
end
if current > tonumber(ARGV[1]) then
	redis.call('DECR', KEYS[1])
	return {0, current - 1, ttl}
end
return {1, current, ttl}
`)

// Admission is the outcome of one shared-window consumption.
type Admission struct {
	Allowed bool
	Uses    int64
	ResetIn time.Duration
}

// SharedWindow keeps credential windows in Redis so that several processes
// using the same API keys draw from a single quota.
type SharedWindow struct {
	redis  *redis.Client
	prefix string
}

// NewSharedWindow creates a shared window store. An empty prefix uses
// DefaultSharedPrefix.
func NewSharedWindow(redisClient *redis.Client, prefix string) *SharedWindow {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	if prefix == "" {
		prefix = DefaultSharedPrefix
	}
	return &SharedWindow{
		redis:  redisClient,
		prefix: prefix,
	}
}

// Consume spends one request of the key's shared quota if any is left.
func (w *SharedWindow) Consume(ctx context.Context, key string, limit int, window time.Duration) (Admission, error) {
	res, err := consumeScript.Run(ctx, w.redis, []string{w.windowKey(key)}, limit, window.Milliseconds()).Int64Slice()
	if err != nil {
		return Admission{}, fmt.Errorf("consume shared window: %w", err)
	}
	if len(res) != 3 {
		return Admission{}, fmt.Errorf("consume shared window: unexpected reply of %d values", len(res))
	}

	return Admission{
		Allowed: res[0] == 1,
		Uses:    res[1],
		ResetIn: time.Duration(res[2]) * time.Millisecond,
	}, nil
}

// Uses returns the shared use count of the key's current window.
func (w *SharedWindow) Uses(ctx context.Context, key string) (int64, error) {
	uses, err := w.redis.Get(ctx, w.windowKey(key)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get shared window: %w", err)
	}
	return uses, nil
}

// Reset drops the key's shared window.
func (w *SharedWindow) Reset(ctx context.Context, key string) error {
	if err := w.redis.Del(ctx, w.windowKey(key)).Err(); err != nil {
		return fmt.Errorf("reset shared window: %w", err)
	}
	return nil
}

// windowKey hashes the API key so raw secrets never land in Redis.
func (w *SharedWindow) windowKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return w.prefix + ":" + hex.EncodeToString(sum[:8])
}
