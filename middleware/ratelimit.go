package middleware

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/ariebrainware/ai-maama/config"
	"github.com/ariebrainware/ai-maama/util"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	defaultRateLimit  = 10
	defaultRateWindow = time.Minute
)

// ErrRateLimited is returned to clients that send too many submissions.
var ErrRateLimited = errors.New("rate limit exceeded")

// RateLimitConfig holds configuration for rate limiting
type RateLimitConfig struct {
	Limit  int
	Window time.Duration
	// Client overrides the process Redis client, mainly for tests.
	Client *redis.Client
}

// SubmitRateLimiter limits submissions per session (or per client IP when no
// session is attached). Without Redis every request passes.
func SubmitRateLimiter(cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.Limit <= 0 {
		cfg.Limit = defaultRateLimit
	}
	if cfg.Window <= 0 {
		cfg.Window = defaultRateWindow
	}

	return func(c *gin.Context) {
		rdb := cfg.Client
		if rdb == nil {
			rdb = config.GetRedisClient()
		}
		if rdb == nil {
			c.Next()
			return
		}

		key := rateLimitKey(c)
		count, err := checkRateLimit(c.Request.Context(), rdb, key, cfg.Window)
		if err != nil {
			// fail open: an unavailable Redis must not block submissions
			util.Log().Warn("rate limit check failed", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}

		remaining := int64(cfg.Limit) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.Limit))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(cfg.Limit) {
			util.Log().Info("submission rate limit exceeded",
				zap.String("key", key),
				zap.String("ip", util.SanitizeLogValue(c.ClientIP())),
			)
			c.Header("Retry-After", strconv.Itoa(int(cfg.Window.Seconds())))
			util.CallTooManyRequests(c, util.APIErrorParams{
				Msg: "Too many submissions. Please try again later.",
				Err: ErrRateLimited,
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

func rateLimitKey(c *gin.Context) string {
	if s, ok := GetSession(c); ok {
		return sessionRateKey(s.ID)
	}
	return fmt.Sprintf("ratelimit:submit:ip:%s", c.ClientIP())
}

// checkRateLimit increments the counter for key and returns its new value.
func checkRateLimit(ctx context.Context, rdb *redis.Client, key string, window time.Duration) (int64, error) {
	pipe := rdb.Pipeline()
	incrCmd := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return 0, fmt.Errorf("failed to check rate limit: %w", err)
	}
	return incrCmd.Val(), nil
}

func sessionRateKey(id string) string {
	return fmt.Sprintf("ratelimit:submit:session:%s", id)
}

// ResetRateLimit clears the submission counter of a closed session. It is a
// no-op without Redis.
func ResetRateLimit(ctx context.Context, sessionID string) error {
	rdb := config.GetRedisClient()
	if rdb == nil {
		return nil
	}
	if err := rdb.Del(ctx, sessionRateKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to reset rate limit: %w", err)
	}
	return nil
}
