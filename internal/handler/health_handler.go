package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/noah-isme/exam-console-api/internal/config"
	"github.com/noah-isme/exam-console-api/internal/utils"
)

const (
	dependencyUp           = "up"
	dependencyDown         = "down"
	dependencyUnconfigured = "unconfigured"

	healthProbeTimeout = 2 * time.Second
)

// HealthResponse represents the payload returned by the health endpoint.
type HealthResponse struct {
	Status      string            `json:"status"`
	Timestamp   time.Time         `json:"timestamp"`
	Service     string            `json:"service"`
	Environment string            `json:"environment"`
	PublishMode string            `json:"publish_mode"`
	Components  map[string]string `json:"components"`
}

// HealthCheck probes the relational store and, when configured, the cache. A failing
// database makes the service unavailable; a failing cache only degrades it.
func HealthCheck(cfg config.Config, db *gorm.DB, cache *redis.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), healthProbeTimeout)
		defer cancel()

		payload := HealthResponse{
			Status:      "ok",
			Timestamp:   time.Now().UTC(),
			Service:     cfg.AppName,
			Environment: cfg.AppEnv,
			PublishMode: cfg.PublishMode,
			Components: map[string]string{
				"database": probeDatabase(ctx, db),
				"cache":    probeCache(ctx, cache),
			},
		}

		if payload.Components["database"] == dependencyDown {
			payload.Status = "unavailable"
			return c.Status(fiber.StatusServiceUnavailable).JSON(utils.APIResponse{
				Success: false,
				Data:    payload,
				Message: "database unreachable",
			})
		}
		if payload.Components["cache"] == dependencyDown {
			payload.Status = "degraded"
		}

		return utils.SendSuccess(c, "service healthy", payload)
	}
}

func probeDatabase(ctx context.Context, db *gorm.DB) string {
	if db == nil {
		return dependencyUnconfigured
	}
	sqlDB, err := db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		return dependencyDown
	}
	return dependencyUp
}

func probeCache(ctx context.Context, cache *redis.Client) string {
	if cache == nil {
		return dependencyUnconfigured
	}
	if err := cache.Ping(ctx).Err(); err != nil {
		return dependencyDown
	}
	return dependencyUp
}
