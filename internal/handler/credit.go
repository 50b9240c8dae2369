package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/intellichat/intellichat/internal/auth"
	"github.com/intellichat/intellichat/internal/handler/dto"
	"github.com/intellichat/intellichat/internal/model"
	"github.com/intellichat/intellichat/internal/service"
	"github.com/intellichat/intellichat/internal/webhook"
)

// BillingService is the credit purchase surface used by CreditHandler.
type BillingService interface {
	Plans() []model.Plan
	Purchase(ctx context.Context, user *model.User, planID, origin string) (*service.PurchaseResult, error)
	HandleWebhook(ctx context.Context, payload []byte, sigHeader string) (*service.WebhookOutcome, error)
}

// CreditHandler handles the plan catalog, checkout and the payment webhook.
type CreditHandler struct {
	svc    BillingService
	logger *slog.Logger
}

// NewCreditHandler creates a new CreditHandler.
func NewCreditHandler(svc BillingService, logger *slog.Logger) *CreditHandler {
	return &CreditHandler{
		svc:    svc,
		logger: logger.With("handler", "credit"),
	}
}

// Plans handles GET /api/credit/plan.
func (h *CreditHandler) Plans(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dto.PlansResponse{Success: true, Plans: h.svc.Plans()})
}

// Purchase handles POST /api/credit/purchase. The browser's Origin header
// decides where checkout returns to.
func (h *CreditHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	var req dto.PurchaseRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.svc.Purchase(r.Context(), auth.UserFromContext(r.Context()), req.PlanID, r.Header.Get("Origin"))
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.PurchaseResponse{Success: true, URL: result.URL})
}

// Webhook handles POST /api/stripe. The body must be read raw so the
// signature can be checked over the exact bytes that were signed.
//
// Status codes drive provider redelivery: 400 for deliveries that will never
// verify, 500 for processing failures worth retrying, 200 for everything that
// was verified, including events that were ignored.
func (h *CreditHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		h.logger.Warn("webhook body unreadable", "error", err, "request_id", requestID(r))
		writeJSON(w, http.StatusBadRequest, dto.WebhookResponse{Received: false, Message: "Unreadable request body"})
		return
	}

	outcome, err := h.svc.HandleWebhook(r.Context(), payload, r.Header.Get(webhook.SignatureHeader))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidSignature):
			h.logger.Warn("webhook rejected", "error", err, "request_id", requestID(r))
			writeJSON(w, http.StatusBadRequest, dto.WebhookResponse{Received: false, Message: "Webhook Error: signature verification failed"})
		case errors.Is(err, service.ErrValidation):
			writeJSON(w, http.StatusBadRequest, dto.WebhookResponse{Received: false, Message: "Webhook Error: malformed event"})
		default:
			h.logger.Error("webhook failed", "error", err, "request_id", requestID(r))
			writeJSON(w, http.StatusInternalServerError, dto.WebhookResponse{Received: false, Message: "Webhook processing failed"})
		}
		return
	}

	writeJSON(w, http.StatusOK, dto.WebhookResponse{Received: true, Message: outcome.Reason})
}
