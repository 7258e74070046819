package middleware

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	fiberredis "github.com/gofiber/storage/redis/v3"
	"github.com/redis/go-redis/v9"

	"github.com/Alijeyrad/spa_backend/config"
)

// NewLimiter builds a sliding-window limiter. Counters live in Redis when a
// client is available so every instance shares them; otherwise in memory.
func NewLimiter(rdb *redis.Client, cfg config.RateLimit) fiber.Handler {
	lc := limiter.Config{
		Max:               cfg.RequestsPerWindow,
		Expiration:        time.Duration(cfg.WindowSeconds) * time.Second,
		LimiterMiddleware: limiter.SlidingWindow{},
	}
	if lc.Max <= 0 {
		lc.Max = 60
	}
	if lc.Expiration <= 0 {
		lc.Expiration = 30 * time.Second
	}
	if rdb != nil {
		lc.Storage = fiberredis.NewFromConnection(rdb)
	}
	return limiter.New(lc)
}
