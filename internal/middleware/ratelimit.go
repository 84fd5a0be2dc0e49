package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/ticket-lifecycle/internal/clock"
	"github.com/iliyamo/ticket-lifecycle/internal/config"
)

// bucketScript takes one token from the bucket at KEYS[1], refilling it in
// whole intervals first.  It returns {allowed, remaining, wait_ms}.
var bucketScript = redis.NewScript(`
local now, capacity, refill, interval, ttl =
	tonumber(ARGV[1]), tonumber(ARGV[2]), tonumber(ARGV[3]), tonumber(ARGV[4]), tonumber(ARGV[5])
local b = redis.call('HMGET', KEYS[1], 'tokens', 'ts')
local tokens = tonumber(b[1]) or capacity
local ts = tonumber(b[2]) or now
local steps = math.floor(math.max(0, now - ts) / interval)
if steps > 0 then
	tokens = math.min(capacity, tokens + steps * refill)
	ts = ts + steps * interval
end
local allowed, wait = 0, 0
if tokens >= 1 then
	allowed, tokens = 1, tokens - 1
else
	wait = math.max(0, interval - (now - ts))
end
redis.call('HSET', KEYS[1], 'tokens', tokens, 'ts', ts)
redis.call('PEXPIRE', KEYS[1], ttl)
return {allowed, tokens, wait}
`)

type bucketDecision struct {
	allowed   bool
	remaining int64
	waitMs    int64
}

func parseDecision(v any) (bucketDecision, error) {
	arr, ok := v.([]any)
	if !ok || len(arr) != 3 {
		return bucketDecision{}, fmt.Errorf("unexpected bucket reply %#v", v)
	}
	n := make([]int64, 3)
	for i, x := range arr {
		if n[i], ok = x.(int64); !ok {
			return bucketDecision{}, fmt.Errorf("unexpected bucket reply %#v", v)
		}
	}
	return bucketDecision{allowed: n[0] == 1, remaining: n[1], waitMs: n[2]}, nil
}

// retryAfter rounds a wait up to whole seconds for the Retry-After header.
func (d bucketDecision) retryAfter() int {
	return int((d.waitMs + 999) / 1000)
}

// NewTokenBucket limits requests per key with a Redis token bucket.  It is a
// no-op when disabled or without Redis, and Redis failures let the request
// through.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client, clk clock.Clock) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	if clk == nil {
		clk = clock.NewSystem()
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := rateKey(cfg, c)
			reply, err := bucketScript.Run(c.Request().Context(), rdb, []string{key},
				clk.Now().UnixMilli(), cfg.Capacity, cfg.RefillTokens,
				cfg.RefillInterval.Milliseconds(), cfg.TTL.Milliseconds()).Result()
			if err == nil {
				var d bucketDecision
				if d, err = parseDecision(reply); err == nil {
					return applyDecision(c, cfg, d, next)
				}
			}
			if cfg.Debug {
				slog.WarnContext(c.Request().Context(), "rate limit skipped", "key", key, "error", err)
			}
			return next(c)
		}
	}
}

func applyDecision(c echo.Context, cfg config.RateLimitConfig, d bucketDecision, next echo.HandlerFunc) error {
	h := c.Response().Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
	h.Set("X-RateLimit-Remaining", strconv.FormatInt(d.remaining, 10))
	if d.allowed {
		return next(c)
	}
	h.Set("Retry-After", strconv.Itoa(d.retryAfter()))
	return c.JSON(http.StatusTooManyRequests, map[string]any{
		"error":       "too_many_requests",
		"message":     "rate limit exceeded",
		"retry_after": d.retryAfter(),
	})
}

const defaultKeyStrategy = "ip_user_route"

// rateKey builds the bucket key from the parts named by the key strategy,
// e.g. "user" or "ip_user_route".  Unknown strategies use all three parts.
func rateKey(cfg config.RateLimitConfig, c echo.Context) string {
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	parts := map[string]string{
		"ip":    ip,
		"user":  UserID(c),
		"route": c.Request().Method + " " + c.Path(),
	}
	build := func(strategy string) []string {
		out := []string{cfg.Prefix}
		for _, name := range strings.Split(strategy, "_") {
			if v, ok := parts[name]; ok {
				out = append(out, name, v)
			}
		}
		return out
	}
	out := build(strings.ToLower(cfg.KeyStrategy))
	if len(out) == 1 {
		out = build(defaultKeyStrategy)
	}
	return strings.Join(out, ":")
}
