package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// loginAttemptsPrefix is the Redis key prefix of the per-client attempt counters.
const loginAttemptsPrefix = "login_attempts:"

// Attempt is the outcome of counting one login attempt.
type Attempt struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// countAttemptScript increments the counter and starts its window on the
// first attempt. It returns the count and the milliseconds left in the window.
var countAttemptScript = redis.NewScript(`
	local n = redis.call('INCR', KEYS[1])
	if n == 1 then
		redis.call('PEXPIRE', KEYS[1], ARGV[1])
	end
	local ttl = redis.call('PTTL', KEYS[1])
	if ttl < 0 then
		redis.call('PEXPIRE', KEYS[1], ARGV[1])
		ttl = tonumber(ARGV[1])
	end
	return {n, ttl}
`)

// LoginThrottle allows at most limit login attempts per client in each
// window. Clients are stored hashed.
type LoginThrottle struct {
	client *redis.Client
	limit  int
	window time.Duration
}

// LoginThrottle returns a throttle backed by c. A limit of zero or less
// allows every attempt.
func (c *Cache) LoginThrottle(limit int, window time.Duration) *LoginThrottle {
	if window <= 0 {
		window = time.Minute
	}
	return &LoginThrottle{client: c.client, limit: limit, window: window}
}

// Hit counts one attempt from client.
func (l *LoginThrottle) Hit(ctx context.Context, client string) (Attempt, error) {
	if l.limit <= 0 {
		return Attempt{Allowed: true}, nil
	}

	res, err := countAttemptScript.Run(ctx, l.client,
		[]string{loginAttemptsPrefix + hashClient(client)},
		l.window.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return Attempt{}, fmt.Errorf("redis count login attempt failed: %w", err)
	}
	return evaluateAttempt(int(res[0]), l.limit, time.Duration(res[1])*time.Millisecond), nil
}

// evaluateAttempt turns the count of the current window into an Attempt.
func evaluateAttempt(count, limit int, left time.Duration) Attempt {
	if count <= limit {
		return Attempt{Allowed: true, Remaining: limit - count}
	}
	return Attempt{RetryAfter: left}
}

// hashClient keys counters by a truncated SHA-256 of the client address.
func hashClient(client string) string {
	sum := sha256.Sum256([]byte(client))
	return hex.EncodeToString(sum[:8])
}
