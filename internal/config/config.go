// Package config loads Shelfdesk settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config is the API server configuration.
type Config struct {
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`
	// BaseURL prefixes Location headers, e.g. https://library.example.org.
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:8080"`

	DatabaseURL string `env:"DATABASE_URL,required"`
	RedisURL    string `env:"REDIS_URL,required"`

	Log       Log
	HTTP      HTTP
	RateLimit RateLimit
	Policy    Policy

	BookCacheTTL time.Duration `env:"BOOK_CACHE_TTL" envDefault:"10m"`
}

// Log selects the slog handler.
type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

// HTTP holds listener and request limits.
type HTTP struct {
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
	MaxBodySize     int64         `env:"MAX_REQUEST_BODY_SIZE" envDefault:"1048576"`
	CORSOrigins     []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
}

// RateLimit toggles the per-key buckets and sizes the per-IP password bucket.
type RateLimit struct {
	APIEnabled bool `env:"RATE_LIMIT_API_ENABLED" envDefault:"true"`
	BasicRPS   int  `env:"BASIC_AUTH_RPS" envDefault:"5"`
	BasicBurst int  `env:"BASIC_AUTH_BURST" envDefault:"10"`
}

// Policy holds the borrowing limits.
type Policy struct {
	MaxBooksAtOnce int `env:"MAX_BOOKS_ALLOWED_AT_ONCE" envDefault:"3"`
	MaxViolations  int `env:"MAX_VIOLATIONS" envDefault:"2"`
	MaxBorrowDays  int `env:"MAX_BORROW_DURATION_DAYS" envDefault:"14"`
}

// CLIConfig is what shelfctl needs. RedisURL is optional and only used to
// evict book cache entries after catalog writes.
type CLIConfig struct {
	DatabaseURL string `env:"DATABASE_URL,required"`
	RedisURL    string `env:"REDIS_URL"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"warn"`
}

// IsDevelopment reports whether APP_ENV is development.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// CORSAllowedOrigins returns the configured origins with blanks dropped.
func (c *Config) CORSAllowedOrigins() []string {
	var out []string
	for _, origin := range c.HTTP.CORSOrigins {
		if origin = strings.TrimSpace(origin); origin != "" {
			out = append(out, origin)
		}
	}
	return out
}

// Validate rejects values that would make the service misbehave.
func (c *Config) Validate() error {
	var errs []error
	for _, v := range []struct {
		name  string
		value int
	}{
		{"MAX_BOOKS_ALLOWED_AT_ONCE", c.Policy.MaxBooksAtOnce},
		{"MAX_VIOLATIONS", c.Policy.MaxViolations},
		{"MAX_BORROW_DURATION_DAYS", c.Policy.MaxBorrowDays},
		{"BASIC_AUTH_RPS", c.RateLimit.BasicRPS},
		{"BASIC_AUTH_BURST", c.RateLimit.BasicBurst},
	} {
		if v.value < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative", v.name))
		}
	}
	if c.BookCacheTTL < 0 {
		errs = append(errs, errors.New("BOOK_CACHE_TTL must not be negative"))
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// NewLogger builds the slog logger described by l, writing to w.
func (l Log) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(l.Level, slog.LevelInfo)}
	if l.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// ParseLevel maps debug/info/warn/error to a slog level, case-insensitively.
// Anything else yields fallback.
func ParseLevel(level string, fallback slog.Level) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return fallback
}

// LoadDotEnv loads variables from the given files (".env" when none are
// given) without overriding variables already set. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		err := godotenv.Load(p)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Load parses and validates the server configuration.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadCLI parses the environment for shelfctl.
func LoadCLI() (*CLIConfig, error) {
	cfg := &CLIConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
