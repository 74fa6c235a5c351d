// internal/config/config.go
package config

import (
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the process configuration shared by the server, worker and
// seeder binaries.
type Config struct {
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`

	DB DBConfig

	AMQPURL string `env:"AMQP_URL"`

	RedisURL        string        `env:"REDIS_URL"`
	ListingCacheTTL time.Duration `env:"LISTING_CACHE_TTL" envDefault:"5m"`

	AIAPIKey  string        `env:"AI_API_KEY"`
	AIModel   string        `env:"AI_MODEL" envDefault:"gemini-2.5-flash"`
	AITimeout time.Duration `env:"AI_TIMEOUT" envDefault:"15s"`

	// ScheduleTimezone is the IANA zone template hours are read in.
	ScheduleTimezone string `env:"SCHEDULE_TIMEZONE" envDefault:"UTC"`
	scheduleLocation *time.Location

	ContentWorkers int   `env:"CONTENT_WORKERS" envDefault:"4"`
	RandomSeed     int64 `env:"RANDOM_SEED"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile  string `env:"LOG_FILE"`
}

type DBConfig struct {
	URL      string `env:"DATABASE_URL"`
	User     string `env:"DB_USER" envDefault:"postgres"`
	Password string `env:"DB_PASSWORD"`
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	Name     string `env:"DB_NAME" envDefault:"listing_campaigns"`
	SSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`
}

// DSN returns DATABASE_URL when set, else a URL built from the parts.
func (c DBConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode,
	)
}

// Load reads an optional .env file and then the environment.
// It reports whether a .env file was found.
func Load() (*Config, bool, error) {
	dotenv := godotenv.Load() == nil

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, dotenv, fmt.Errorf("parse env: %w", err)
	}
	loc, err := time.LoadLocation(cfg.ScheduleTimezone)
	if err != nil {
		return nil, dotenv, fmt.Errorf("SCHEDULE_TIMEZONE: %w", err)
	}
	cfg.scheduleLocation = loc
	if cfg.ContentWorkers < 1 {
		cfg.ContentWorkers = 1
	}
	return &cfg, dotenv, nil
}

// ScheduleLocation is the loaded SCHEDULE_TIMEZONE, UTC when unset.
func (c *Config) ScheduleLocation() *time.Location {
	if c.scheduleLocation == nil {
		return time.UTC
	}
	return c.scheduleLocation
}
