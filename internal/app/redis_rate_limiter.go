package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// fixedWindowScript increments the window counter, arms its expiry on the
// first hit, and returns {count, ttl_ms}.
var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
  ttl = tonumber(ARGV[1])
end
return {current, ttl}
`)

// RateLimitDecision is the outcome of one rate-limited hit.
type RateLimitDecision struct {
	Allowed    bool
	Count      int
	RetryAfter time.Duration
}

// RedisRateLimiter limits hits per subject within one scope using a fixed
// window shared by every service instance.
type RedisRateLimiter struct {
	client redis.UniversalClient
	prefix string
	scope  string
	limit  int
	window time.Duration
}

// NewRedisRateLimiter creates a limiter allowing limit hits per window for
// each subject of scope.
func NewRedisRateLimiter(client redis.UniversalClient, prefix, scope string, limit int, window time.Duration) *RedisRateLimiter {
	trimmedPrefix := strings.TrimSuffix(strings.TrimSpace(prefix), ":")
	if trimmedPrefix == "" {
		trimmedPrefix = "assetverse:rate_limit"
	}
	if window < time.Second {
		window = time.Second
	}

	return &RedisRateLimiter{
		client: client,
		prefix: trimmedPrefix,
		scope:  strings.TrimSpace(scope),
		limit:  limit,
		window: window,
	}
}

func (r *RedisRateLimiter) key(subject string) string {
	return fmt.Sprintf("%s:%s:%s", r.prefix, r.scope, subject)
}

// Allow records a hit for subject. A limiter without a client or limit, or
// a blank subject, always allows.
func (r *RedisRateLimiter) Allow(ctx context.Context, subject string) (RateLimitDecision, error) {
	subject = strings.TrimSpace(subject)
	if r == nil || r.client == nil || r.limit <= 0 || subject == "" {
		return RateLimitDecision{Allowed: true}, nil
	}

	windowMs := r.window.Milliseconds()
	raw, err := fixedWindowScript.Run(ctx, r.client, []string{r.key(subject)}, windowMs).Result()
	if err != nil {
		return RateLimitDecision{Allowed: true}, err
	}

	count, ttlMs, err := parseWindowReply(raw)
	if err != nil {
		return RateLimitDecision{Allowed: true}, err
	}
	if ttlMs < 0 {
		ttlMs = windowMs
	}

	retryAfter := time.Duration(ttlMs) * time.Millisecond
	if retryAfter < time.Second {
		retryAfter = time.Second
	}

	return RateLimitDecision{
		Allowed:    count <= int64(r.limit),
		Count:      int(count),
		RetryAfter: retryAfter,
	}, nil
}

func parseWindowReply(raw interface{}) (int64, int64, error) {
	values, ok := raw.([]interface{})
	if !ok || len(values) != 2 {
		return 0, 0, fmt.Errorf("unexpected redis limiter response shape: %T", raw)
	}
	count, ok := values[0].(int64)
	if !ok {
		return 0, 0, fmt.Errorf("unexpected redis limiter count type: %T", values[0])
	}
	ttl, ok := values[1].(int64)
	if !ok {
		return 0, 0, fmt.Errorf("unexpected redis limiter ttl type: %T", values[1])
	}
	return count, ttl, nil
}
