package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// Config holds application level configuration loaded from environment variables.
type Config struct {
	ServerPort  string `env:"SERVER_PORT, default=8080"`
	Env         string `env:"ENV, default=development"`
	LogLevel    string `env:"LOG_LEVEL, default=info"`
	LogPretty   bool   `env:"LOG_PRETTY, default=false"`
	SwaggerHost string `env:"SWAGGER_HOST"`
	FrontendURL string `env:"FRONTEND_URL, default=http://localhost:3000"`

	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Storage  StorageConfig
	Mail     MailConfig
}

// DatabaseConfig selects the GORM dialect and its DSN.
type DatabaseConfig struct {
	Driver  string `env:"DB_DRIVER, default=mysql"`
	DSN     string `env:"DATABASE_DSN, default=user:password@tcp(localhost:3306)/app?charset=utf8mb4&parseTime=True&loc=UTC"`
	ResetDB bool   `env:"RESET_DB, default=false"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR, default=localhost:6379"`
	DB       int    `env:"REDIS_DB, default=0"`
	Password string `env:"REDIS_PASSWORD"`
}

// AuthConfig covers bearer tokens, reset tokens and the unauthenticated route limiter.
type AuthConfig struct {
	JWTSecret        string        `env:"JWT_SECRET, default=change-me"`
	TokenTTL         time.Duration `env:"TOKEN_TTL, default=720h"`
	PasswordResetTTL time.Duration `env:"PASSWORD_RESET_TTL, default=72h"`
	RateLimit        int           `env:"AUTH_RATE_LIMIT, default=20"`
}

// StorageConfig selects the blob backend used by the file vault and profile photos.
type StorageConfig struct {
	Backend        string `env:"STORAGE_BACKEND, default=local"`
	MediaRoot      string `env:"MEDIA_ROOT, default=./media"`
	MediaURL       string `env:"MEDIA_URL, default=/media"`
	GCSBucket      string `env:"GCS_BUCKET"`
	GCSCredentials string `env:"GCS_CREDENTIALS_FILE"`
	MaxUploadBytes int64  `env:"MAX_UPLOAD_BYTES, default=52428800"`
}

type MailConfig struct {
	SMTPHost     string        `env:"SMTP_HOST"`
	SMTPPort     int           `env:"SMTP_PORT, default=587"`
	SMTPUsername string        `env:"SMTP_USERNAME"`
	SMTPPassword string        `env:"SMTP_PASSWORD"`
	SMTPTimeout  time.Duration `env:"SMTP_TIMEOUT, default=10s"`
	From         string        `env:"MAIL_FROM, default=no-reply@bizdesk.local"`
}

// Load builds Config from the environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load(ctx context.Context) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsProduction reports whether ENV names a production deployment.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	switch c.Storage.Backend {
	case "local":
	case "gcs":
		if c.Storage.GCSBucket == "" {
			return fmt.Errorf("GCS_BUCKET is required when STORAGE_BACKEND=gcs")
		}
	default:
		return fmt.Errorf("unsupported STORAGE_BACKEND %q", c.Storage.Backend)
	}
	if c.IsProduction() && c.Auth.JWTSecret == "change-me" {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	return nil
}
