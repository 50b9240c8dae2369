// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/intellichat/intellichat/internal/model"
)

// Service errors.
var (
	ErrValidation           = errors.New("validation failed")
	ErrInsufficientCredits  = errors.New("insufficient credits")
	ErrChatNotFound         = errors.New("chat not found")
	ErrGenerationFailed     = errors.New("generation failed")
	ErrUploadFailed         = errors.New("image upload failed")
	ErrPersistFailed        = errors.New("failed to store reply")
	ErrPlanNotFound         = errors.New("plan not found")
	ErrPaymentGatewayFailed = errors.New("payment gateway failed")
	ErrInvalidSignature     = errors.New("invalid webhook signature")
	ErrUserExists           = errors.New("user already exists")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrUnauthorized         = errors.New("not authorized")
	ErrUserNotFound         = errors.New("user not found")
)

// ValidationError carries a message meant for the caller.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Is makes errors.Is(err, ErrValidation) match any ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(msg string) error {
	return &ValidationError{Message: msg}
}

// UserStore persists accounts and balances.
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	DebitCredits(ctx context.Context, userID string, amount int) (bool, error)
}

// ChatStore persists chats and their embedded messages.
type ChatStore interface {
	CreateChat(ctx context.Context, chat *model.Chat) error
	GetChat(ctx context.Context, id, userID string) (*model.Chat, error)
	ListChats(ctx context.Context, userID string) ([]*model.Chat, error)
	DeleteChat(ctx context.Context, id, userID string) error
	AppendMessages(ctx context.Context, id, userID string, messages ...model.Message) error
}

// PublishedImageStore lists gallery entries.
type PublishedImageStore interface {
	ListPublishedImages(ctx context.Context) ([]model.PublishedImage, error)
}

// TransactionStore persists purchases.
type TransactionStore interface {
	CreateTransaction(ctx context.Context, txn *model.Transaction) error
	// SettleTransaction marks an unpaid transaction paid and grants its
	// credits atomically. applied is false when it was already paid.
	SettleTransaction(ctx context.Context, id string) (txn *model.Transaction, applied bool, err error)
}

// TextGenerator produces a text reply for a prompt.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// ImageGenerator produces PNG bytes for a prompt.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) ([]byte, error)
}

// AssetUploader stores an image and returns its public URL.
type AssetUploader interface {
	Upload(ctx context.Context, data []byte, fileName string) (string, error)
}

// PaymentGateway opens checkout sessions and resolves them from payment intents.
type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, req model.CheckoutRequest) (*model.CheckoutSession, error)
	SessionForPaymentIntent(ctx context.Context, paymentIntentID string) (*model.CheckoutSession, error)
}

// GalleryCache caches the published image list.
type GalleryCache interface {
	GetPublishedImages(ctx context.Context) ([]model.PublishedImage, bool, error)
	SetPublishedImages(ctx context.Context, images []model.PublishedImage, ttl time.Duration) error
	InvalidatePublishedImages(ctx context.Context) error
}

func newID() string {
	return ulid.Make().String()
}
