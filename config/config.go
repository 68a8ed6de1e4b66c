package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// MinJWTSecretLength is the shortest signing secret accepted at startup.
const MinJWTSecretLength = 32

// placeholderSecrets are values that ship in sample files and tutorials.
var placeholderSecrets = []string{"default_secret_key", "secret", "changeme"}

// This function will Load the ENVIORNMENT VARIABLES from .env if GO_ENV variable is not set.
// A missing .env file is not an error.
func LoadENV() error {
	goEnv := os.Getenv("GO_ENV")

	if goEnv == "" || goEnv == "development" {
		err := godotenv.Load()
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}

	return nil
}

type Config struct {
	GoEnv          string   `env:"GO_ENV" envDefault:"development"`
	Port           int      `env:"PORT" envDefault:"3001"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`
	AppURL         string   `env:"APP_URL" envDefault:"http://localhost:5173"`

	DB        DBConfig       `envPrefix:"DB_"`
	JWT       JWTConfig      `envPrefix:"JWT_"`
	Redis     RedisConfig    `envPrefix:"REDIS_"`
	SMTP      SMTPConfig     `envPrefix:"SMTP_"`
	Spaces    SpacesConfig   `envPrefix:"SPACES_"`
	Log       LogConfig      `envPrefix:"LOG_"`
	Limit     RateLimit      `envPrefix:"RATE_LIMIT_"`
	Bootstrap BootstrapAdmin `envPrefix:"ADMIN_"`

	UploadDir   string `env:"UPLOAD_DIR" envDefault:"uploads"`
	CronEnabled bool   `env:"CRON_ENABLED" envDefault:"true"`
}

type DBConfig struct {
	Host         string        `env:"HOST" envDefault:"localhost"`
	Port         string        `env:"PORT" envDefault:"5432"`
	User         string        `env:"USER_NAME"`
	Password     string        `env:"PASSWORD"`
	Name         string        `env:"NAME"`
	SSLMode      string        `env:"SSL_MODE" envDefault:"disable"`
	MaxOpenConns int           `env:"MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns int           `env:"MAX_IDLE_CONNS" envDefault:"10"`
	ConnLifetime time.Duration `env:"CONN_MAX_LIFETIME" envDefault:"1h"`
}

// DSN renders the lib/pq connection string.
func (d DBConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

type JWTConfig struct {
	Secret string `env:"SECRET"`
	Issuer string `env:"ISSUER" envDefault:"usched-api"`
}

type RedisConfig struct {
	URL      string `env:"URL"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
}

type SMTPConfig struct {
	Host     string `env:"HOST" envDefault:"smtp.gmail.com"`
	Port     int    `env:"PORT" envDefault:"587"`
	Username string `env:"USERNAME"`
	Password string `env:"PASSWORD"`
	From     string `env:"FROM" envDefault:"noreply@usched.local"`
}

// SpacesConfig points at an S3-compatible bucket. Archiving falls back to
// UploadDir when Bucket is empty.
type SpacesConfig struct {
	Bucket    string `env:"BUCKET"`
	Region    string `env:"REGION" envDefault:"us-east-1"`
	Endpoint  string `env:"ENDPOINT"`
	AccessKey string `env:"ACCESS_KEY"`
	SecretKey string `env:"SECRET_KEY"`
}

type LogConfig struct {
	Level      string `env:"LEVEL" envDefault:"info"`
	File       string `env:"FILE"`
	JSON       bool   `env:"JSON" envDefault:"false"`
	MaxSizeMB  int    `env:"MAX_SIZE_MB" envDefault:"50"`
	MaxBackups int    `env:"MAX_BACKUPS" envDefault:"5"`
	MaxAgeDays int    `env:"MAX_AGE_DAYS" envDefault:"28"`
}

type RateLimit struct {
	Requests int           `env:"REQUESTS" envDefault:"100"`
	Window   time.Duration `env:"WINDOW" envDefault:"1m"`
}

// BootstrapAdmin is the optional first admin created by the seeder.
type BootstrapAdmin struct {
	Email     string `env:"EMAIL"`
	Password  string `env:"PASSWORD"`
	FirstName string `env:"FIRST_NAME" envDefault:"System"`
	LastName  string `env:"LAST_NAME" envDefault:"Administrator"`
}

func (c *Config) IsProduction() bool {
	return c.GoEnv == "production"
}

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	var errs []error

	secret := c.JWT.Secret
	switch {
	case strings.TrimSpace(secret) == "":
		errs = append(errs, errors.New("JWT_SECRET is required"))
	case isPlaceholder(secret):
		errs = append(errs, errors.New("JWT_SECRET must not be a well-known placeholder value"))
	case len(secret) < MinJWTSecretLength:
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d bytes", MinJWTSecretLength))
	}

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d is out of range", c.Port))
	}
	if c.IsProduction() && c.DB.Name == "" {
		errs = append(errs, errors.New("DB_NAME is required in production"))
	}
	if c.Limit.Requests <= 0 || c.Limit.Window <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_REQUESTS and RATE_LIMIT_WINDOW must be positive"))
	}

	return errors.Join(errs...)
}

func isPlaceholder(secret string) bool {
	s := strings.ToLower(strings.TrimSpace(secret))
	for _, p := range placeholderSecrets {
		if s == p {
			return true
		}
	}
	return false
}

// Load decodes the process environment and validates it.
func Load() (*Config, error) {
	return parse(env.Options{})
}

func parse(opts env.Options) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}
