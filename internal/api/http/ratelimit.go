package http

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/namann16/support-tickets/internal/config"
	"github.com/namann16/support-tickets/internal/persistence"
	apperrors "github.com/namann16/support-tickets/pkg/util"
)

// RateLimiter applies a fixed-window counter per client IP, backed by
// Redis so restarts don't reset windows. When Redis is unreachable the
// limiter fails open.
func RateLimiter(rdb *persistence.Redis, logger *zap.Logger, cfg config.RateLimitConfig) fiber.Handler {
	window := cfg.Window()
	limit := int64(cfg.Requests)
	if limit <= 0 {
		limit = 100
	}

	return func(c *fiber.Ctx) error {
		bucket := time.Now().Unix() / int64(window.Seconds())
		key := fmt.Sprintf("ratelimit:%s:%d", c.IP(), bucket)

		count, err := rdb.Client.Incr(c.Context(), key).Result()
		if err != nil {
			logger.Warn("rate limiter unavailable", zap.Error(err))
			return c.Next()
		}
		if count == 1 {
			rdb.Client.Expire(c.Context(), key, window)
		}
		if count > limit {
			return apperrors.NewRateLimited()
		}
		return c.Next()
	}
}
