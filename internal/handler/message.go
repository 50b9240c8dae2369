package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/intellichat/intellichat/internal/auth"
	"github.com/intellichat/intellichat/internal/handler/dto"
	"github.com/intellichat/intellichat/internal/service"
)

// MessageService runs the credit pipeline for one prompt.
type MessageService interface {
	Submit(ctx context.Context, input service.SubmitInput) (*service.SubmitResult, error)
}

// MessageHandler handles the generation endpoints.
type MessageHandler struct {
	svc    MessageService
	logger *slog.Logger
}

// NewMessageHandler creates a new MessageHandler.
func NewMessageHandler(svc MessageService, logger *slog.Logger) *MessageHandler {
	return &MessageHandler{
		svc:    svc,
		logger: logger.With("handler", "message"),
	}
}

// Text handles POST /api/message/text.
func (h *MessageHandler) Text(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, service.ModeText)
}

// Image handles POST /api/message/image.
func (h *MessageHandler) Image(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, service.ModeImage)
}

func (h *MessageHandler) submit(w http.ResponseWriter, r *http.Request, mode service.Mode) {
	var req dto.MessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.svc.Submit(r.Context(), service.SubmitInput{
		User:    auth.UserFromContext(r.Context()),
		ChatID:  req.ChatID,
		Prompt:  req.Prompt,
		Mode:    mode,
		Publish: mode == service.ModeImage && req.IsPublished,
	})
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ReplyResponse{Success: true, Reply: result.Reply})
}
