package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/intellichat/intellichat/internal/auth"
	"github.com/intellichat/intellichat/internal/model"
	"github.com/intellichat/intellichat/internal/service"
)

// Messages returned on authentication failure.
const (
	msgNoToken      = "Not authorized, no token"
	msgUserNotFound = "Not authorized, user not found"
	msgTokenFailed  = "Not authorized, token failed"
)

// Authenticator resolves a bearer token to the user it was issued for.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.User, error)
}

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger        *slog.Logger
	Authenticator Authenticator
}

// Protect returns a middleware that requires a valid bearer token and
// injects the loaded user into the request context.
func Protect(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				writeError(w, http.StatusUnauthorized, msgNoToken)
				return
			}

			user, err := cfg.Authenticator.Authenticate(r.Context(), token)
			if err != nil {
				reason, message := "token_failed", msgTokenFailed
				if errors.Is(err, service.ErrUserNotFound) {
					reason, message = "user_not_found", msgUserNotFound
				}

				level := slog.LevelWarn
				if !errors.Is(err, service.ErrUnauthorized) && !errors.Is(err, service.ErrUserNotFound) {
					level = slog.LevelError
				}
				cfg.Logger.Log(r.Context(), level, "authentication failed",
					slog.String("reason", reason),
					slog.String("error", err.Error()),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeError(w, http.StatusUnauthorized, message)
				return
			}

			ctx := auth.ContextWithAuth(r.Context(), &model.AuthContext{
				UserID: user.ID,
				User:   user,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractToken reads the Authorization header. Both "Bearer <token>" and a
// bare token are accepted.
func extractToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return ""
	}

	scheme, rest, ok := strings.Cut(header, " ")
	if ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(rest)
	}
	return header
}
