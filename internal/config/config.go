// Package config provides application configuration loaded from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Library  LibraryConfig
	App      AppConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           string        `env:"PORT,default=8080"`
	ReadTimeout    time.Duration `env:"SERVER_READ_TIMEOUT,default=15s"`
	WriteTimeout   time.Duration `env:"SERVER_WRITE_TIMEOUT,default=15s"`
	IdleTimeout    time.Duration `env:"SERVER_IDLE_TIMEOUT,default=60s"`
	AllowedOrigins []string      `env:"FRONTEND_URL,default=http://localhost:5173;http://localhost:3000"`
}

// DatabaseConfig holds connection settings. Driver is "postgres" or "sqlite".
type DatabaseConfig struct {
	Driver     string `env:"DB_DRIVER,default=postgres"`
	RawDSN     string `env:"DATABASE_DSN"`
	Host       string `env:"DB_HOST,default=localhost"`
	Port       int    `env:"DB_PORT,default=5432"`
	User       string `env:"DB_USER,default=bookbuddy"`
	Password   string `env:"DB_PASSWORD"`
	DBName     string `env:"DB_NAME,default=book_buddy"`
	SSLMode    string `env:"DB_SSLMODE,default=disable"`
	SQLitePath string `env:"SQLITE_PATH,default=bookbuddy.db"`
	Debug      bool   `env:"DB_DEBUG,default=false"`
	Retries    int    `env:"DB_CONNECT_RETRIES,default=10"`
}

// AuthConfig holds token and access-control settings.
type AuthConfig struct {
	JWTSecret      string        `env:"JWT_SECRET,default=dev-insecure-secret"`
	TokenTTL       time.Duration `env:"JWT_EXPIRES_IN,default=168h"`
	RoleCacheTTL   time.Duration `env:"ROLE_CACHE_TTL,default=1m"`
	LoginPerMinute int           `env:"AUTH_RATE_LIMIT,default=20"`
}

// LibraryConfig holds lending policy. It can be overridden from a YAML file.
type LibraryConfig struct {
	FinePerDay            float64 `env:"FINE_PER_DAY,default=0.5" yaml:"finePerDay"`
	DefaultBorrowingLimit int     `env:"DEFAULT_BORROWING_LIMIT,default=5" yaml:"defaultBorrowingLimit"`
	ReservationHoldDays   int     `env:"RESERVATION_HOLD_DAYS,default=3" yaml:"reservationHoldDays"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Env           string `env:"APP_ENV,default=development"`
	LogLevel      string `env:"LOG_LEVEL,default=info"`
	LogFormat     string `env:"LOG_FORMAT,default=text"`
	Migrations    bool   `env:"MIGRATIONS,default=false"`
	Seed          bool   `env:"DB_SEED,default=false"`
	AdminEmail    string `env:"ADMIN_EMAIL"`
	AdminPassword string `env:"ADMIN_PASSWORD"`
	ConfigFile    string `env:"CONFIG_FILE"`
}

// Dev reports whether the app runs in development mode.
func (a AppConfig) Dev() bool { return strings.EqualFold(a.Env, "development") }

// DSN returns the connection string for the configured driver. DATABASE_DSN
// wins when set.
func (d DatabaseConfig) DSN() string {
	if d.RawDSN != "" {
		return d.RawDSN
	}
	if d.IsSQLite() {
		return fmt.Sprintf("file:%s?_txlock=immediate&_busy_timeout=5000&_foreign_keys=on", d.SQLitePath)
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// IsSQLite reports whether the sqlite driver is selected.
func (d DatabaseConfig) IsSQLite() bool {
	return strings.EqualFold(d.Driver, "sqlite") || strings.EqualFold(d.Driver, "sqlite3")
}

// Load reads configuration from environment variables, then applies the
// optional YAML policy file named by CONFIG_FILE.
func Load() (*Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("decode env: %w", err)
	}
	if cfg.App.ConfigFile != "" {
		if err := cfg.applyFile(cfg.App.ConfigFile); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type fileOverrides struct {
	Library *LibraryConfig `yaml:"library"`
}

func (c *Config) applyFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	over := fileOverrides{Library: &c.Library}
	if err := yaml.Unmarshal(raw, &over); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// Validate rejects settings that would break lending invariants.
func (c *Config) Validate() error {
	var problems []string
	if c.Library.FinePerDay < 0 {
		problems = append(problems, "FINE_PER_DAY must not be negative")
	}
	if c.Library.DefaultBorrowingLimit < 0 {
		problems = append(problems, "DEFAULT_BORROWING_LIMIT must not be negative")
	}
	if c.Library.ReservationHoldDays < 1 {
		problems = append(problems, "RESERVATION_HOLD_DAYS must be at least 1")
	}
	if c.Auth.TokenTTL <= 0 {
		problems = append(problems, "JWT_EXPIRES_IN must be positive")
	}
	if !c.App.Dev() && c.Auth.JWTSecret == "dev-insecure-secret" {
		problems = append(problems, "JWT_SECRET must be set outside development")
	}
	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}
