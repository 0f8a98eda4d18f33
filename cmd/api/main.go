package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	gormlogger "gorm.io/gorm/logger"

	"github.com/noah-isme/exam-console-api/internal/config"
	"github.com/noah-isme/exam-console-api/internal/database"
	"github.com/noah-isme/exam-console-api/internal/export"
	"github.com/noah-isme/exam-console-api/internal/handler"
	"github.com/noah-isme/exam-console-api/internal/middleware"
	"github.com/noah-isme/exam-console-api/internal/repository"
	"github.com/noah-isme/exam-console-api/internal/router"
	"github.com/noah-isme/exam-console-api/internal/service"
)

const sessionRedisChannel = "exam-console:sessions"

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "exam-console",
		Short:        "Teacher console API for multiple-choice exams",
		SilenceUsage: true,
	}

	serve := serveCmd()
	root.AddCommand(serve, migrateCmd(), exportCmd())
	root.RunE = serve.RunE

	return root
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE:  runServe,
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			logger := newLogger(cfg, os.Stdout)

			db, err := database.Connect(cfg.DatabaseURL)
			if err != nil {
				return err
			}
			if err := database.Migrate(db); err != nil {
				return fmt.Errorf("migrate database: %w", err)
			}

			logger.Info().Msg("schema up to date")
			return nil
		},
	}
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a teacher's submissions as CSV",
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.Uint("teacher", 0, "Teacher id whose submissions are exported (required)")
	f.Uint("exam", 0, "Restrict the export to one exam")
	f.String("out", "", "Output file path (- for stdout, empty for the generated filename)")
	_ = cmd.MarkFlagRequired("teacher")

	return cmd
}

func newLogger(cfg config.Config, out io.Writer) zerolog.Logger {
	if cfg.AppEnv == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	}
	return zerolog.New(out).With().Timestamp().Str("service", cfg.AppName).Logger()
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	logger := newLogger(cfg, os.Stdout)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("redis not configured; revocations are kept in memory and stats are not cached")
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			return err
		}
		defer natsConn.Close()
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	revocation := service.NewMemoryRevocationStore()
	if redisClient != nil {
		revocation = service.NewRedisRevocationStore(redisClient)
	}

	sessionBus := service.SessionBus{NATS: natsConn, NATSSubject: cfg.NATSSubject}
	if redisClient != nil {
		sessionBus.Redis = redisClient
		sessionBus.RedisChannel = sessionRedisChannel
	}
	sessions := service.NewSessionService(sessionBus, logger)
	sessions.Start(ctx)

	activityService := service.NewActivityService(repository.NewActivityLogRepository(db), logger)
	authService := service.NewAuthService(
		repository.NewTeacherRepository(db),
		revocation,
		sessions,
		activityService,
		validate,
		service.AuthConfig{Secret: cfg.JWTSecret, TTL: cfg.JWTTTL},
		logger,
	)
	submissionService := service.NewSubmissionService(
		repository.NewSubmissionRepository(db),
		redisClient,
		cfg.StatsCacheTTL,
		export.Options{TimeLayout: cfg.ExportTimeLayout, Location: cfg.ExportTimezone},
		logger,
	)
	examService := service.NewExamService(repository.NewExamRepository(db), validate, activityService, submissionService, cfg.PublishMode, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	authLimiter := middleware.RateLimit(middleware.RateLimitConfig{
		Identifier: "auth",
		Max:        cfg.AuthRateLimit,
		Window:     cfg.AuthRateWindow,
		Redis:      redisClient,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		DB:                db,
		Redis:             redisClient,
		AuthHandler:       handler.NewAuthHandler(authService, sessions, logger),
		ExamHandler:       handler.NewExamHandler(examService, logger),
		SubmissionHandler: handler.NewSubmissionHandler(submissionService, logger),
		ActivityHandler:   handler.NewActivityHandler(activityService, logger),
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret, revocation),
		AuthRateLimiter:   authLimiter,
	})

	listenErr := make(chan error, 1)
	go func() {
		logger.Info().Str("address", cfg.HTTPAddress()).Str("publish_mode", cfg.PublishMode).Msg("starting http server")
		listenErr <- app.Listen(cfg.HTTPAddress())
	}()

	select {
	case err := <-listenErr:
		return fmt.Errorf("start server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
		return err
	}

	logger.Info().Msg("server stopped")
	return nil
}

func runExport(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	// Stdout may carry the CSV itself, so diagnostics go to stderr.
	logger := newLogger(cfg, cmd.ErrOrStderr())

	teacherID, _ := cmd.Flags().GetUint("teacher")
	var examID *uint
	if value, _ := cmd.Flags().GetUint("exam"); value > 0 {
		examID = &value
	}
	output, _ := cmd.Flags().GetString("out")

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	storeLogger := logger.With().Str("component", "gorm").Logger()
	db.Logger = gormlogger.New(&storeLogger, gormlogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  gormlogger.Warn,
		IgnoreRecordNotFoundError: true,
	})

	submissions := service.NewSubmissionService(
		repository.NewSubmissionRepository(db),
		nil,
		0,
		export.Options{TimeLayout: cfg.ExportTimeLayout, Location: cfg.ExportTimezone},
		logger,
	)

	artifact, err := submissions.ExportBatch(cmd.Context(), teacherID, examID)
	if err != nil {
		return fmt.Errorf("export submissions: %w", err)
	}

	switch output {
	case "-":
		_, err = cmd.OutOrStdout().Write(artifact.Body)
		return err
	case "":
		output = artifact.Filename
	}

	if err := os.WriteFile(output, artifact.Body, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}

	logger.Info().Str("path", output).Int("bytes", len(artifact.Body)).Msg("export written")
	return nil
}
