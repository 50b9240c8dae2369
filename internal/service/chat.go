package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/intellichat/intellichat/internal/model"
	"github.com/intellichat/intellichat/internal/repository"
)

// ChatService manages a user's chat threads.
type ChatService struct {
	chats  ChatStore
	logger *slog.Logger
	now    func() time.Time
}

// NewChatService creates a new ChatService.
func NewChatService(chats ChatStore, logger *slog.Logger) *ChatService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatService{
		chats:  chats,
		logger: logger.With("component", "chat_service"),
		now:    time.Now,
	}
}

// Create opens an empty chat for the user.
func (s *ChatService) Create(ctx context.Context, user *model.User) (*model.Chat, error) {
	now := s.now().UTC()
	chat := &model.Chat{
		ID:        newID(),
		UserID:    user.ID,
		UserName:  user.Name,
		Name:      model.DefaultChatName,
		Messages:  []model.Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.chats.CreateChat(ctx, chat); err != nil {
		return nil, fmt.Errorf("failed to create chat: %w", err)
	}
	return chat, nil
}

// List returns the user's chats, most recently updated first.
func (s *ChatService) List(ctx context.Context, userID string) ([]*model.Chat, error) {
	chats, err := s.chats.ListChats(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chats: %w", err)
	}
	if chats == nil {
		chats = []*model.Chat{}
	}
	return chats, nil
}

// Delete removes a chat the user owns. Chats owned by anyone else are
// reported as not found.
func (s *ChatService) Delete(ctx context.Context, userID, chatID string) error {
	if strings.TrimSpace(chatID) == "" {
		return invalid("Chat ID required")
	}

	if err := s.chats.DeleteChat(ctx, chatID, userID); err != nil {
		if errors.Is(err, repository.ErrChatNotFound) {
			return ErrChatNotFound
		}
		return fmt.Errorf("failed to delete chat: %w", err)
	}

	s.logger.Info("chat deleted", slog.String("chat_id", chatID), slog.String("user_id", userID))
	return nil
}
