package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Publish modes supported by the exam service.
const (
	PublishModeTransaction = "transaction"
	PublishModeCompensate  = "compensate"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName          string
	AppEnv           string
	AppPort          string
	DatabaseURL      string
	RedisURL         string
	NATSURL          string
	NATSSubject      string
	JWTSecret        string
	JWTTTL           time.Duration
	StatsCacheTTL    time.Duration
	PublishMode      string
	ExportTimeLayout string
	ExportTimezone   *time.Location
	AuthRateLimit    int
	AuthRateWindow   time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("EXAM")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Exam Console API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("database.url", "sqlite:exam-console.db")
	v.SetDefault("nats.subject", "exam-console.sessions")
	v.SetDefault("jwt.ttl", "12h")
	v.SetDefault("stats.cache_ttl", "2m")
	v.SetDefault("exam.publish_mode", PublishModeTransaction)
	v.SetDefault("export.time_layout", "1/2/2006 3:04:05 PM")
	v.SetDefault("export.timezone", "UTC")
	v.SetDefault("auth.rate_limit", 10)
	v.SetDefault("auth.rate_window", "1m")

	return fromViper(v)
}

func fromViper(v *viper.Viper) (Config, error) {
	jwtTTL, err := parseDuration(v.GetString("jwt.ttl"), 12*time.Hour)
	if err != nil {
		return Config{}, fmt.Errorf("invalid jwt ttl: %w", err)
	}

	statsTTL, err := parseDuration(v.GetString("stats.cache_ttl"), 2*time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid stats cache ttl: %w", err)
	}

	rateWindow, err := parseDuration(v.GetString("auth.rate_window"), time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid auth rate window: %w", err)
	}

	location, err := time.LoadLocation(v.GetString("export.timezone"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid export timezone: %w", err)
	}

	cfg := Config{
		AppName:          v.GetString("app.name"),
		AppEnv:           v.GetString("app.env"),
		AppPort:          v.GetString("app.port"),
		DatabaseURL:      v.GetString("database.url"),
		RedisURL:         v.GetString("redis.url"),
		NATSURL:          v.GetString("nats.url"),
		NATSSubject:      v.GetString("nats.subject"),
		JWTSecret:        v.GetString("jwt.secret"),
		JWTTTL:           jwtTTL,
		StatsCacheTTL:    statsTTL,
		PublishMode:      strings.ToLower(strings.TrimSpace(v.GetString("exam.publish_mode"))),
		ExportTimeLayout: v.GetString("export.time_layout"),
		ExportTimezone:   location,
		AuthRateLimit:    v.GetInt("auth.rate_limit"),
		AuthRateWindow:   rateWindow,
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	switch cfg.PublishMode {
	case PublishModeTransaction, PublishModeCompensate:
	default:
		return Config{}, fmt.Errorf("unsupported exam publish mode %q", cfg.PublishMode)
	}

	if cfg.ExportTimeLayout == "" {
		cfg.ExportTimeLayout = "1/2/2006 3:04:05 PM"
	}

	if cfg.AuthRateLimit <= 0 {
		cfg.AuthRateLimit = 10
	}

	return cfg, nil
}

func parseDuration(value string, fallback time.Duration) (time.Duration, error) {
	if strings.TrimSpace(value) == "" {
		return fallback, nil
	}
	return time.ParseDuration(value)
}
