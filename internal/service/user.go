package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/intellichat/intellichat/internal/auth"
	"github.com/intellichat/intellichat/internal/metrics"
	"github.com/intellichat/intellichat/internal/model"
	"github.com/intellichat/intellichat/internal/repository"
)

// UserOptions tunes UserService.
type UserOptions struct {
	StartingCredits int
	GalleryTTL      time.Duration
}

// UserService handles accounts, sessions and the public gallery.
type UserService struct {
	users   UserStore
	images  PublishedImageStore
	gallery GalleryCache
	tokens  *auth.TokenManager
	opts    UserOptions
	metrics metrics.Recorder
	logger  *slog.Logger
	now     func() time.Time
}

// NewUserService creates a new UserService. gallery may be nil to disable caching.
func NewUserService(users UserStore, images PublishedImageStore, gallery GalleryCache, tokens *auth.TokenManager, opts UserOptions, recorder metrics.Recorder, logger *slog.Logger) *UserService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if opts.StartingCredits < 0 {
		opts.StartingCredits = model.DefaultStartingCredits
	}
	return &UserService{
		users:   users,
		images:  images,
		gallery: gallery,
		tokens:  tokens,
		opts:    opts,
		metrics: recorder,
		logger:  logger.With("component", "user_service"),
		now:     time.Now,
	}
}

// RegisterInput defines input for registering an account.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// AuthResult is returned on successful registration or login.
type AuthResult struct {
	Token string
	User  *model.User
}

// Register creates an account with the starting balance and signs a token for it.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	name := strings.TrimSpace(input.Name)
	email := model.NormalizeEmail(input.Email)

	if name == "" {
		return nil, invalid("Name is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, invalid("A valid email is required")
	}
	if len(input.Password) < auth.MinPasswordLength {
		return nil, invalid(fmt.Sprintf("Password must be at least %d characters", auth.MinPasswordLength))
	}

	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now().UTC()
	user := &model.User{
		ID:           newID(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Credits:      s.opts.StartingCredits,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered", slog.String("user_id", user.ID))
	return &AuthResult{Token: token, User: user}, nil
}

// Login verifies credentials and signs a token.
func (s *UserService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.GetUserByEmail(ctx, model.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	ok, err := auth.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		s.logger.Error("stored password hash unreadable",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
		return nil, ErrInvalidCredentials
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user}, nil
}

// Authenticate resolves a bearer token to a fresh copy of its user.
func (s *UserService) Authenticate(ctx context.Context, token string) (*model.User, error) {
	userID, err := s.tokens.Parse(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

// PublishedImages returns the gallery newest first, served from cache when possible.
func (s *UserService) PublishedImages(ctx context.Context) ([]model.PublishedImage, error) {
	if s.gallery != nil {
		images, ok, err := s.gallery.GetPublishedImages(ctx)
		if err != nil {
			s.logger.Warn("gallery cache read failed", slog.String("error", err.Error()))
		}
		if ok {
			s.metrics.IncGalleryCacheHit()
			return images, nil
		}
		s.metrics.IncGalleryCacheMiss()
	}

	images, err := s.images.ListPublishedImages(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list published images: %w", err)
	}
	if images == nil {
		images = []model.PublishedImage{}
	}

	if s.gallery != nil && s.opts.GalleryTTL > 0 {
		if err := s.gallery.SetPublishedImages(ctx, images, s.opts.GalleryTTL); err != nil {
			s.logger.Warn("gallery cache write failed", slog.String("error", err.Error()))
		}
	}

	return images, nil
}
