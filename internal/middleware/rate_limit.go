package middleware

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/exam-console-api/internal/utils"
)

const rateLimitKeyPrefix = "ratelimit:"

// RateLimitConfig tunes the limiter guarding credential endpoints.
type RateLimitConfig struct {
	Identifier string
	Max        int
	Window     time.Duration
	// Redis shares counters between API nodes. Counters stay in process memory when nil.
	Redis *redis.Client
}

// RateLimit throttles unauthenticated endpoints such as sign-in per client address.
func RateLimit(cfg RateLimitConfig) fiber.Handler {
	if cfg.Max <= 0 {
		cfg.Max = 10
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}

	config := limiter.Config{
		Max:        cfg.Max,
		Expiration: cfg.Window,
		KeyGenerator: func(c *fiber.Ctx) string {
			return cfg.Identifier + ":" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return utils.SendError(c, fiber.StatusTooManyRequests, "too many attempts, try again later")
		},
	}
	if cfg.Redis != nil {
		config.Storage = &redisStorage{client: cfg.Redis, prefix: rateLimitKeyPrefix}
	}

	return limiter.New(config)
}

// redisStorage adapts a go-redis client to fiber.Storage.
type redisStorage struct {
	client *redis.Client
	prefix string
}

func (s *redisStorage) Get(key string) ([]byte, error) {
	if key == "" {
		return nil, nil
	}
	value, err := s.client.Get(context.Background(), s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return value, err
}

func (s *redisStorage) Set(key string, val []byte, exp time.Duration) error {
	if key == "" || len(val) == 0 {
		return nil
	}
	return s.client.Set(context.Background(), s.prefix+key, val, exp).Err()
}

func (s *redisStorage) Delete(key string) error {
	if key == "" {
		return nil
	}
	return s.client.Del(context.Background(), s.prefix+key).Err()
}

func (s *redisStorage) Reset() error {
	ctx := context.Background()
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// Close is a no-op: the client belongs to the caller.
func (s *redisStorage) Close() error {
	return nil
}
