package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/intellichat/intellichat/internal/auth"
	"github.com/intellichat/intellichat/internal/handler/dto"
	"github.com/intellichat/intellichat/internal/model"
	"github.com/intellichat/intellichat/internal/service"
)

// UserService is the account surface used by UserHandler.
type UserService interface {
	Register(ctx context.Context, input service.RegisterInput) (*service.AuthResult, error)
	Login(ctx context.Context, email, password string) (*service.AuthResult, error)
	PublishedImages(ctx context.Context) ([]model.PublishedImage, error)
}

// UserHandler handles account and gallery endpoints.
type UserHandler struct {
	svc    UserService
	logger *slog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(svc UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		svc:    svc,
		logger: logger.With("handler", "user"),
	}
}

// Register handles POST /api/user/register.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.svc.Register(r.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.TokenResponse{Success: true, Token: result.Token})
}

// Login handles POST /api/user/login.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TokenResponse{Success: true, Token: result.Token})
}

// Data handles GET /api/user/data. The user was loaded by the auth middleware.
func (h *UserHandler) Data(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		handleServiceError(w, r, h.logger, service.ErrUserNotFound)
		return
	}

	writeJSON(w, http.StatusOK, dto.UserResponse{Success: true, User: user})
}

// PublishedImages handles GET /api/user/published-images.
func (h *UserHandler) PublishedImages(w http.ResponseWriter, r *http.Request) {
	images, err := h.svc.PublishedImages(r.Context())
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	if images == nil {
		images = []model.PublishedImage{}
	}

	writeJSON(w, http.StatusOK, dto.PublishedImagesResponse{Success: true, Images: images})
}
