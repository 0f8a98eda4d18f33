package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/noah-isme/exam-console-api/internal/config"
	"github.com/noah-isme/exam-console-api/internal/handler"
	"github.com/noah-isme/exam-console-api/internal/middleware"
	"github.com/noah-isme/exam-console-api/internal/observability"
)

// Dependencies carries everything the console routes need. Nil handlers are not mounted.
type Dependencies struct {
	DB                *gorm.DB
	Redis             *redis.Client
	AuthHandler       *handler.AuthHandler
	ExamHandler       *handler.ExamHandler
	SubmissionHandler *handler.SubmissionHandler
	ActivityHandler   *handler.ActivityHandler
	JWTMiddleware     fiber.Handler
	AuthRateLimiter   fiber.Handler
}

type registrar interface {
	Register(router fiber.Router)
}

// Register mounts the metrics endpoint and the versioned console API on app.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", applicationHeader(cfg.AppName))
	api.Get("/health", handler.HealthCheck(cfg, deps.DB, deps.Redis))

	authenticated := deps.JWTMiddleware
	if authenticated == nil {
		authenticated = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.AuthHandler != nil {
		auth := api.Group("/auth")
		deps.AuthHandler.RegisterPublic(auth, deps.AuthRateLimiter)
		deps.AuthHandler.RegisterProtected(auth.Group("", authenticated))
	}

	teacherAPI := map[string]registrar{}
	if deps.ExamHandler != nil {
		teacherAPI["/exams"] = deps.ExamHandler
	}
	if deps.SubmissionHandler != nil {
		teacherAPI["/submissions"] = deps.SubmissionHandler
	}
	if deps.ActivityHandler != nil {
		teacherAPI["/activity"] = deps.ActivityHandler
	}

	teacherOnly := middleware.RequireRole(middleware.AuthRoleTeacher)
	for prefix, routes := range teacherAPI {
		routes.Register(api.Group(prefix, authenticated, teacherOnly))
	}
}

func applicationHeader(name string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("X-Application", name)
		return c.Next()
	}
}
