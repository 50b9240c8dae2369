// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Persistence modes for the message pipeline.
const (
	// PersistAfterResponse replies as soon as the provider answers and stores
	// the exchange and debit in the background.
	PersistAfterResponse = "after_response"
	// PersistBeforeResponse stores the exchange and debit before replying.
	PersistBeforeResponse = "before_response"
)

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv    string `env:"APP_ENV" envDefault:"development"`
	AppPort   int    `env:"APP_PORT" envDefault:"3000"`
	AppID     string `env:"APP_ID" envDefault:"intellichat"`
	ClientURL string `env:"CLIENT_URL" envDefault:"http://localhost:5173"`

	// Database (PostgreSQL)
	DatabaseURL   string `env:"DATABASE_URL,required,notEmpty"`
	DBAutoMigrate bool   `env:"DB_AUTO_MIGRATE" envDefault:"true"`

	// Cache (Redis)
	RedisURL string `env:"REDIS_URL,required,notEmpty"`

	// Auth tokens
	JWTSecret string        `env:"JWT_SECRET,required,notEmpty"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"720h"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"120s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Text generation (OpenAI-compatible endpoint)
	GeminiAPIKey      string        `env:"GEMINI_API_KEY"`
	GeminiBaseURL     string        `env:"GEMINI_BASE_URL" envDefault:"https://generativelanguage.googleapis.com/v1beta/openai"`
	GeminiModel       string        `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`
	GenerationTimeout time.Duration `env:"GENERATION_TIMEOUT" envDefault:"90s"`

	// Image generation and hosting
	ImageKitPublicKey   string `env:"IMAGEKIT_PUBLIC_KEY"`
	ImageKitPrivateKey  string `env:"IMAGEKIT_PRIVATE_KEY"`
	ImageKitURLEndpoint string `env:"IMAGEKIT_URL_ENDPOINT"`
	ImageKitFolder      string `env:"IMAGEKIT_FOLDER" envDefault:"intellichat"`

	// Payments
	StripeSecretKey        string        `env:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret    string        `env:"STRIPE_WEBHOOK_SECRET"`
	StripeWebhookTolerance time.Duration `env:"STRIPE_WEBHOOK_TOLERANCE" envDefault:"5m"`

	// Message pipeline
	PersistMode     string        `env:"PERSIST_MODE" envDefault:"after_response"`
	PersistTimeout  time.Duration `env:"PERSIST_TIMEOUT" envDefault:"15s"`
	StartingCredits int           `env:"STARTING_CREDITS" envDefault:"20"`

	// Community gallery cache
	GalleryCacheTTL time.Duration `env:"GALLERY_CACHE_TTL" envDefault:"30s"`

	// Rate limiting
	RateLimitEnabled         bool `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	RateLimitGenerationRPM   int  `env:"RATE_LIMIT_GENERATION_RPM" envDefault:"30"`
	RateLimitGenerationBurst int  `env:"RATE_LIMIT_GENERATION_BURST" envDefault:"5"`
	RateLimitAuthRPS         int  `env:"RATE_LIMIT_AUTH_RPS" envDefault:"5"`
	RateLimitAuthBurst       int  `env:"RATE_LIMIT_AUTH_BURST" envDefault:"10"`

	// CORS configuration
	// Comma-separated list of allowed origins (e.g., "https://example.com,https://app.example.com")
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:""`

	// Request body size limit in bytes (default 1MB)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"1048576"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// PersistBeforeReply reports whether message persistence must finish before replying.
func (c *Config) PersistBeforeReply() bool {
	return c.PersistMode == PersistBeforeResponse
}

// GetCORSAllowedOrigins parses the comma-separated origins string into a slice.
func (c *Config) GetCORSAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}

	origins := strings.Split(c.CORSAllowedOrigins, ",")
	result := make([]string, 0, len(origins))

	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// Validate checks cross-field constraints that struct tags cannot express.
func (c *Config) Validate() error {
	switch c.PersistMode {
	case PersistAfterResponse, PersistBeforeResponse:
	default:
		return fmt.Errorf("invalid PERSIST_MODE %q: want %s or %s", c.PersistMode, PersistAfterResponse, PersistBeforeResponse)
	}

	if c.StartingCredits < 0 {
		return fmt.Errorf("STARTING_CREDITS must not be negative")
	}

	if len(c.JWTSecret) < 16 {
		return fmt.Errorf("JWT_SECRET must be at least 16 characters")
	}

	return nil
}

// Load parses environment variables and returns a Config.
// Returns an error if required variables are missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
