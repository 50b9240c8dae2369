// Package main is the entrypoint for the IntelliChat API server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/intellichat/intellichat/internal/auth"
	"github.com/intellichat/intellichat/internal/cache"
	"github.com/intellichat/intellichat/internal/config"
	"github.com/intellichat/intellichat/internal/handler"
	"github.com/intellichat/intellichat/internal/metrics"
	"github.com/intellichat/intellichat/internal/middleware"
	"github.com/intellichat/intellichat/internal/provider"
	"github.com/intellichat/intellichat/internal/provider/imagekit"
	"github.com/intellichat/intellichat/internal/provider/openai"
	"github.com/intellichat/intellichat/internal/provider/payments"
	"github.com/intellichat/intellichat/internal/repository"
	"github.com/intellichat/intellichat/internal/server"
	"github.com/intellichat/intellichat/internal/service"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	// Schema
	if cfg.DBAutoMigrate {
		if err := repository.Migrate(ctx, cfg.DatabaseURL); err != nil {
			logger.Error("failed to migrate database",
				slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			)
			os.Exit(1)
		}
		logger.Info("database migrations applied")
	}

	// Initialize database
	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	logger.Info("connected to database")

	// Initialize cache
	cacheClient, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		repo.Close()
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		os.Exit(1)
	}
	logger.Info("connected to Redis")

	// External providers
	httpClient := provider.NewHTTPClient(cfg.GenerationTimeout)
	textClient := openai.New(cfg.GeminiBaseURL, cfg.GeminiAPIKey, cfg.GeminiModel, httpClient)
	imageClient := imagekit.New(imagekit.Config{
		PublicKey:   cfg.ImageKitPublicKey,
		PrivateKey:  cfg.ImageKitPrivateKey,
		URLEndpoint: cfg.ImageKitURLEndpoint,
		Folder:      cfg.ImageKitFolder,
	}, httpClient)
	paymentGateway := payments.NewStripe(cfg.StripeSecretKey, nil)

	warnUnconfigured(logger, cfg)

	// Initialize services
	recorder := metrics.NewPrometheus()
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)

	userService := service.NewUserService(repo, repo, cacheClient, tokens, service.UserOptions{
		StartingCredits: cfg.StartingCredits,
		GalleryTTL:      cfg.GalleryCacheTTL,
	}, recorder, logger)
	chatService := service.NewChatService(repo, logger)
	messageService := service.NewMessageService(service.MessageDeps{
		Users:    repo,
		Chats:    repo,
		Text:     textClient,
		Images:   imageClient,
		Uploader: imageClient,
		Gallery:  cacheClient,
	}, service.MessageOptions{
		PersistBeforeReply: cfg.PersistBeforeReply(),
		PersistTimeout:     cfg.PersistTimeout,
	}, recorder, logger)
	billingService := service.NewBillingService(repo, paymentGateway, service.BillingOptions{
		AppID:            cfg.AppID,
		ClientURL:        cfg.ClientURL,
		WebhookSecret:    cfg.StripeWebhookSecret,
		WebhookTolerance: cfg.StripeWebhookTolerance,
	}, recorder, logger)

	// Setup router
	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.GetCORSAllowedOrigins()

	router := handler.NewRouter(handler.RouterConfig{
		Logger:  logger,
		Base:    handler.New(version),
		Health:  handler.NewHealthHandler(map[string]handler.HealthChecker{"postgres": repo, "redis": cacheClient}),
		Users:   handler.NewUserHandler(userService, logger),
		Chats:   handler.NewChatHandler(chatService, logger),
		Message: handler.NewMessageHandler(messageService, logger),
		Credits: handler.NewCreditHandler(billingService, logger),
		Metrics: recorder.Handler(),
		Auth: middleware.AuthConfig{
			Logger:        logger,
			Authenticator: userService,
		},
		RateLimit: middleware.RateLimitConfig{
			Logger:    logger,
			Limiter:   cacheClient,
			Enabled:   cfg.RateLimitEnabled,
			UserRPM:   cfg.RateLimitGenerationRPM,
			UserBurst: cfg.RateLimitGenerationBurst,
			IPRPS:     cfg.RateLimitAuthRPS,
			IPBurst:   cfg.RateLimitAuthBurst,
		},
		CORS:               corsCfg,
		Security:           middleware.SecurityConfig{IsDevelopment: cfg.IsDevelopment()},
		MaxRequestBodySize: cfg.MaxRequestBodySize,
	})

	srv := server.New(router, server.Options{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	// Stores close last; replies still being persisted need them.
	srv.OnShutdown("postgres", func(context.Context) error {
		repo.Close()
		return nil
	})
	srv.OnShutdown("redis", func(context.Context) error {
		return cacheClient.Close()
	})
	srv.OnShutdown("message_persistence", messageService.Drain)

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"version", version,
		"persist_mode", cfg.PersistMode,
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// warnUnconfigured reports providers that will fail every call for lack of credentials.
func warnUnconfigured(logger *slog.Logger, cfg *config.Config) {
	missing := map[string]bool{
		"GEMINI_API_KEY":        cfg.GeminiAPIKey == "",
		"IMAGEKIT_PRIVATE_KEY":  cfg.ImageKitPrivateKey == "",
		"IMAGEKIT_URL_ENDPOINT": cfg.ImageKitURLEndpoint == "",
		"STRIPE_SECRET_KEY":     cfg.StripeSecretKey == "",
		"STRIPE_WEBHOOK_SECRET": cfg.StripeWebhookSecret == "",
	}
	for name, unset := range missing {
		if unset {
			logger.Warn("provider not configured", "env", name)
		}
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	level := parseLogLevel(cfg.LogLevel)

	opts := &slog.HandlerOptions{
		Level: level,
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
