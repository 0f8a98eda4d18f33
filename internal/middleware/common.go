package middleware

import (
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"
)

// Config customises the middleware registration pipeline.
type Config struct {
	Logger       *zerolog.Logger
	AllowOrigins string
}

// Register installs the middleware shared by every route, outermost first.
func Register(app *fiber.App, cfg Config) {
	requestLogger := zerolog.New(io.Discard)
	if cfg.Logger != nil {
		requestLogger = *cfg.Logger
	}

	origins := cfg.AllowOrigins
	if origins == "" {
		origins = "*"
	}

	app.Use(
		recover.New(recover.Config{EnableStackTrace: cfg.Logger != nil}),
		CorrelationID(),
		Observability(requestLogger),
		helmet.New(helmet.Config{CrossOriginEmbedderPolicy: "unsafe-none"}),
		cors.New(cors.Config{
			AllowOrigins:  origins,
			AllowHeaders:  "Origin, Content-Type, Accept, Authorization, X-Correlation-ID",
			AllowMethods:  "GET,POST,PATCH,DELETE,OPTIONS",
			ExposeHeaders: "Content-Disposition, X-Correlation-ID",
		}),
	)
}
