package router

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// LoggerMiddleware logs HTTP requests with slog
func LoggerMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		logger.Info("HTTP Request",
			slog.Int("status", c.Writer.Status()),
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.String("ip", c.ClientIP()),
			slog.Duration("latency", time.Since(start)),
			slog.Int("body_size", c.Writer.Size()),
		)

		for _, e := range c.Errors {
			logger.Error("Request error",
				slog.String("error", e.Error()),
			)
		}
	}
}

// CORSMiddleware handles Cross-Origin Resource Sharing
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Authorization, Accept, Origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// windowCounter is the subset of the Redis client the limiter needs
type windowCounter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	TTL(ctx context.Context, key string) *redis.DurationCmd
}

// RateLimitConfig configures the fixed-window limiter
type RateLimitConfig struct {
	Counter   windowCounter
	Limit     int
	Window    time.Duration
	KeyPrefix string
	Logger    *slog.Logger
	OnReject  func(route string)
}

// RateLimitMiddleware allows Limit requests per client IP per Window.
// Redis errors let the request through, including a failure to set the
// window expiry.
func RateLimitMiddleware(cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "video-intake:rl:"
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		key := cfg.KeyPrefix + c.ClientIP()

		count, err := cfg.Counter.Incr(ctx, key).Result()
		if err != nil {
			if cfg.Logger != nil {
				cfg.Logger.Warn("Rate limiter unavailable",
					slog.String("error", err.Error()),
				)
			}
			c.Next()
			return
		}
		ttl, err := cfg.Counter.TTL(ctx, key).Result()
		if err != nil {
			ttl = 0
		}
		// A counter left without an expiry would never reset, so a failed
		// Expire on the first hit is repaired by the next request.
		if count == 1 || (err == nil && ttl < 0) {
			if err := cfg.Counter.Expire(ctx, key, cfg.Window).Err(); err != nil {
				if cfg.Logger != nil {
					cfg.Logger.Warn("Rate limiter window not set",
						slog.String("key", key),
						slog.String("error", err.Error()),
					)
				}
				c.Next()
				return
			}
			ttl = cfg.Window
		}

		reset := 0
		if ttl > 0 {
			reset = int(ttl.Seconds())
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.Limit))
		c.Header("X-RateLimit-Reset", strconv.Itoa(reset))

		if count > int64(cfg.Limit) {
			if cfg.OnReject != nil {
				cfg.OnReject(c.FullPath())
			}
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("Retry-After", strconv.Itoa(reset))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"message": fmt.Sprintf("Rate limit exceeded, retry in %d seconds", reset),
			})
			return
		}

		c.Header("X-RateLimit-Remaining", strconv.Itoa(cfg.Limit-int(count)))
		c.Next()
	}
}
