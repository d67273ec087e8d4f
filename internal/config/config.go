package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	// Server configuration
	HTTP HTTPServer

	// Frontend base URL used in email links and checkout redirects
	FrontendURL string `env:"FRONTEND_URL" envDefault:"http://localhost:5173"`

	Database Database
	Redis    Redis
	Log      Log

	Auth   Auth   `envPrefix:"AUTH_"`
	Stripe Stripe `envPrefix:"STRIPE_"`
	Brevo  Brevo  `envPrefix:"BREVO_"`
	S3     S3     `envPrefix:"AWS_"`

	// Email token configuration
	ConfirmationTokenTTL time.Duration `env:"CONFIRMATION_TOKEN_TTL" envDefault:"24h"`
	PasswordResetTTL     time.Duration `env:"PASSWORD_RESET_TTL" envDefault:"1h"`
	ResendRateLimit      time.Duration `env:"RESEND_RATE_LIMIT" envDefault:"1m"`
	ServiceName          string        `env:"SERVICE_NAME" envDefault:"Jam Jar"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"PORT" envDefault:"8080"`
	Mode string `env:"GIN_MODE" envDefault:"debug"`
}

type Database struct {
	// Empty URL falls back to a local sqlite file
	URL        string `env:"DATABASE_URL"`
	SQLitePath string `env:"SQLITE_PATH" envDefault:"practice-journal.db"`
	LogQueries bool   `env:"DATABASE_LOG_QUERIES" envDefault:"false"`
}

type Redis struct {
	URL string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"console"`
}

type Auth struct {
	JWTSecret       string        `env:"JWT_SECRET"`
	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"15m"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"24h"`
}

type Stripe struct {
	SecretKey     string `env:"SECRET_KEY"`
	WebhookSecret string `env:"WEBHOOK_SECRET"`
	PriceID       string `env:"PRICE_ID"`
	// Allowed clock skew between the signature timestamp and now
	WebhookTolerance time.Duration `env:"WEBHOOK_TOLERANCE" envDefault:"5m"`
	// How long processed event ids stay in the in-process cache
	EventCacheTTL time.Duration `env:"EVENT_CACHE_TTL" envDefault:"72h"`
}

type Brevo struct {
	APIKey    string `env:"API_KEY"`
	FromEmail string `env:"FROM_EMAIL"`
	FromName  string `env:"FROM_NAME" envDefault:"Jam Jar"`
}

type S3 struct {
	Region          string        `env:"S3_REGION_NAME" envDefault:"eu-west-2"`
	Bucket          string        `env:"STORAGE_BUCKET_NAME"`
	AccessKeyID     string        `env:"ACCESS_KEY_ID"`
	SecretAccessKey string        `env:"SECRET_ACCESS_KEY"`
	EndpointURL     string        `env:"S3_ENDPOINT_URL"`
	PresignExpiry   time.Duration `env:"S3_PRESIGN_EXPIRY" envDefault:"1h"`
}

// Load reads an optional .env file and parses the environment into a Config.
func Load() (*Config, error) {
	// A missing .env file is fine outside development
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.FrontendURL = strings.TrimRight(cfg.FrontendURL, "/")
	return cfg, nil
}

// Validate reports settings the server cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if len(c.Auth.JWTSecret) < 16 {
		errs = append(errs, errors.New("AUTH_JWT_SECRET must be at least 16 characters"))
	}
	if c.Stripe.WebhookSecret == "" {
		errs = append(errs, errors.New("STRIPE_WEBHOOK_SECRET is not set"))
	}
	return errors.Join(errs...)
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return c.HTTP.Host + ":" + c.HTTP.Port
}
