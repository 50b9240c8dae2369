package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/intellichat/intellichat/internal/auth"
	"github.com/intellichat/intellichat/internal/handler/dto"
	"github.com/intellichat/intellichat/internal/model"
)

// ChatService is the conversation surface used by ChatHandler.
type ChatService interface {
	Create(ctx context.Context, user *model.User) (*model.Chat, error)
	List(ctx context.Context, userID string) ([]*model.Chat, error)
	Delete(ctx context.Context, userID, chatID string) error
}

// ChatHandler handles chat thread endpoints. All routes require auth.
type ChatHandler struct {
	svc    ChatService
	logger *slog.Logger
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(svc ChatService, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{
		svc:    svc,
		logger: logger.With("handler", "chat"),
	}
}

// Create handles GET /api/chat/create.
func (h *ChatHandler) Create(w http.ResponseWriter, r *http.Request) {
	chat, err := h.svc.Create(r.Context(), auth.UserFromContext(r.Context()))
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	h.logger.Info("chat_created", "chat_id", chat.ID, "user_id", chat.UserID)

	writeJSON(w, http.StatusCreated, dto.Response{Success: true, Message: "Chat created"})
}

// List handles GET /api/chat/get.
func (h *ChatHandler) List(w http.ResponseWriter, r *http.Request) {
	chats, err := h.svc.List(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	if chats == nil {
		chats = []*model.Chat{}
	}

	writeJSON(w, http.StatusOK, dto.ChatsResponse{Success: true, Chats: chats})
}

// Delete handles POST /api/chat/delete.
func (h *ChatHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req dto.DeleteChatRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	userID := auth.UserIDFromContext(r.Context())
	if err := h.svc.Delete(r.Context(), userID, req.ChatID); err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	h.logger.Info("chat_deleted", "chat_id", req.ChatID, "user_id", userID)

	writeJSON(w, http.StatusOK, dto.Response{Success: true, Message: "Chat deleted"})
}
