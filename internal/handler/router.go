package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/intellichat/intellichat/internal/middleware"
)

// RouterConfig carries everything the route table needs.
type RouterConfig struct {
	Logger *slog.Logger

	Base    *Handler
	Health  *HealthHandler
	Users   *UserHandler
	Chats   *ChatHandler
	Message *MessageHandler
	Credits *CreditHandler

	// Metrics serves /metrics. Nil leaves the route unregistered.
	Metrics http.Handler

	Auth      middleware.AuthConfig
	RateLimit middleware.RateLimitConfig
	CORS      middleware.CORSConfig
	Security  middleware.SecurityConfig

	MaxRequestBodySize int64
}

// NewRouter builds the chi route table for the API.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(cfg.Logger, "/healthz", "/readyz", "/metrics"))
	r.Use(middleware.Recoverer(cfg.Logger))
	r.Use(middleware.Security(cfg.Security))
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.MaxBodySize(cfg.MaxRequestBodySize))
	r.Use(chimiddleware.CleanPath)

	// Operational endpoints
	r.Get("/", cfg.Base.Hello)
	r.Get("/healthz", cfg.Health.Healthz)
	r.Get("/readyz", cfg.Health.Readyz)
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	protect := middleware.Protect(cfg.Auth)

	r.Route("/api", func(r chi.Router) {
		r.Route("/user", func(r chi.Router) {
			r.With(middleware.RateLimitIP(cfg.RateLimit)).Post("/register", cfg.Users.Register)
			r.With(middleware.RateLimitIP(cfg.RateLimit)).Post("/login", cfg.Users.Login)
			r.With(protect).Get("/data", cfg.Users.Data)
			r.Get("/published-images", cfg.Users.PublishedImages)
		})

		r.Route("/chat", func(r chi.Router) {
			r.Use(protect)
			r.Get("/create", cfg.Chats.Create)
			r.Get("/get", cfg.Chats.List)
			r.Post("/delete", cfg.Chats.Delete)
		})

		r.Route("/message", func(r chi.Router) {
			r.Use(protect)
			r.Use(middleware.RateLimitUser(cfg.RateLimit))
			r.Post("/text", cfg.Message.Text)
			r.Post("/image", cfg.Message.Image)
		})

		r.Route("/credit", func(r chi.Router) {
			r.Get("/plan", cfg.Credits.Plans)
			r.With(protect).Post("/purchase", cfg.Credits.Purchase)
		})

		// Signed by the payment provider; no bearer token.
		r.Post("/stripe", cfg.Credits.Webhook)
	})

	// 404 and 405 handlers
	r.NotFound(cfg.Base.NotFound)
	r.MethodNotAllowed(cfg.Base.MethodNotAllowed)

	return r
}
