package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	JWT          JWTConfig
	CORS         CORSConfig
	Redis        RedisConfig
	S3           S3Config
	Email        EmailConfig
	Subscription SubscriptionConfig
	Analytics    AnalyticsConfig
	Scheduler    SchedulerConfig
	Admin        AdminConfig
	Log          LogConfig
}

type ServerConfig struct {
	Port        string `envconfig:"SERVER_PORT" default:"8080"`
	GinMode     string `envconfig:"GIN_MODE" default:"debug"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	PublicURL   string `envconfig:"PUBLIC_URL" default:"http://localhost:3000"` // dashboard + public menu links
}

type DatabaseConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" default:"admin"`
	Password string `envconfig:"DB_PASSWORD" default:"1234"`
	DBName   string `envconfig:"DB_NAME" default:"tablemenu"`
	SSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
}

type JWTConfig struct {
	Secret             string        `envconfig:"JWT_SECRET" default:"your-secret-key"`
	AccessTokenExpiry  time.Duration `envconfig:"JWT_ACCESS_TOKEN_EXPIRY" default:"15m"`
	RefreshTokenExpiry time.Duration `envconfig:"JWT_REFRESH_TOKEN_EXPIRY" default:"168h"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

// RedisConfig is optional. An empty host disables the token blacklist.
type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST"`
	Port     string `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

type S3Config struct {
	Region          string `envconfig:"AWS_REGION" default:"eu-central-1"`
	Bucket          string `envconfig:"AWS_S3_BUCKET" default:"tablemenu-uploads"`
	AccessKeyID     string `envconfig:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey string `envconfig:"AWS_SECRET_ACCESS_KEY"`
	BaseURL         string `envconfig:"AWS_S3_BASE_URL"` // CloudFront or S3 direct URL
	// UseDefaultCredentials enables uploads without static keys (instance role, AWS_PROFILE).
	UseDefaultCredentials bool `envconfig:"AWS_USE_DEFAULT_CREDENTIALS" default:"false"`
}

type EmailConfig struct {
	ResendAPIKey string        `envconfig:"RESEND_API_KEY"`
	BaseURL      string        `envconfig:"RESEND_BASE_URL" default:"https://api.resend.com"`
	FromAddress  string        `envconfig:"EMAIL_FROM" default:"TableMenu <noreply@tablemenu.app>"`
	Timeout      time.Duration `envconfig:"EMAIL_TIMEOUT" default:"10s"`
}

type SubscriptionConfig struct {
	TrialDays int `envconfig:"TRIAL_DAYS" default:"14"`
}

type AnalyticsConfig struct {
	RefreshInterval time.Duration `envconfig:"ANALYTICS_REFRESH_INTERVAL" default:"30s"`
}

type SchedulerConfig struct {
	Enabled bool `envconfig:"SCHEDULER_ENABLED" default:"true"`
	// Standard 5-field cron expression, server local time.
	TrialSweepSpec string `envconfig:"TRIAL_SWEEP_SPEC" default:"0 6 * * *"`
	// Reminder goes out when this many days of trial are left.
	TrialReminderDays int `envconfig:"TRIAL_REMINDER_DAYS" default:"3"`
}

// AdminConfig seeds the operator account on first boot when both fields are set.
type AdminConfig struct {
	Email    string `envconfig:"ADMIN_EMAIL"`
	Password string `envconfig:"ADMIN_PASSWORD"`
	Name     string `envconfig:"ADMIN_NAME" default:"Administrator"`
}

type LogConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Format string `envconfig:"LOG_FORMAT"` // json | console; empty picks by environment
}

func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}

	if cfg.Subscription.TrialDays < 0 {
		return nil, fmt.Errorf("TRIAL_DAYS must not be negative, got %d", cfg.Subscription.TrialDays)
	}
	if cfg.Analytics.RefreshInterval <= 0 {
		cfg.Analytics.RefreshInterval = 30 * time.Second
	}

	return &cfg, nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func (c *RedisConfig) Enabled() bool {
	return c.Host != ""
}

// Enabled reports whether presigned uploads can be issued.
func (c *S3Config) Enabled() bool {
	if c.Bucket == "" {
		return false
	}
	return c.UseDefaultCredentials || (c.AccessKeyID != "" && c.SecretAccessKey != "")
}

// Enabled reports whether a Resend API key is set.
func (c *EmailConfig) Enabled() bool {
	return c.ResendAPIKey != ""
}

func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// LogFormat returns the configured format, console in development and json otherwise.
func (c *Config) LogFormat() string {
	if c.Log.Format != "" {
		return c.Log.Format
	}
	if c.Server.IsDevelopment() {
		return "console"
	}
	return "json"
}

func (c *ServerConfig) IsDevelopment() bool {
	return c.Environment == "development"
}
