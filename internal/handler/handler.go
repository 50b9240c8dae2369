// Package handler provides HTTP request handlers.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/intellichat/intellichat/internal/handler/dto"
	"github.com/intellichat/intellichat/internal/middleware"
	"github.com/intellichat/intellichat/internal/service"
)

const msgInternal = "Something went wrong"

// Handler serves the banner and the router fallbacks.
type Handler struct {
	version string
}

// New creates a new Handler instance.
func New(version string) *Handler {
	return &Handler{version: version}
}

// Hello reports that the server is up.
// GET /
func (h *Handler) Hello(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "IntelliChat server is running",
		"version": h.version,
	})
}

// NotFound handles 404 responses.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, dto.Response{Success: false, Message: "Route not found"})
}

// MethodNotAllowed handles 405 responses.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, dto.Response{Success: false, Message: "Method not allowed"})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeFailure writes the {success:false, message} envelope with HTTP 200.
func writeFailure(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusOK, dto.Response{Success: false, Message: message})
}

// decodeJSON decodes the request body into dst. A failure is reported to the
// client as a validation error.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeJSON(w, http.StatusRequestEntityTooLarge, dto.Response{Success: false, Message: "Request body too large"})
			return false
		}
		writeFailure(w, "Invalid request body")
		return false
	}
	return true
}

// handleServiceError maps service errors to the failure envelope. Every
// domain error answers HTTP 200; the message tells the client what happened.
func handleServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var vErr *service.ValidationError

	switch {
	case errors.As(err, &vErr):
		writeFailure(w, vErr.Message)
	case errors.Is(err, service.ErrValidation):
		writeFailure(w, "Invalid request")
	case errors.Is(err, service.ErrInsufficientCredits):
		writeFailure(w, "Insufficient credits")
	case errors.Is(err, service.ErrChatNotFound):
		writeFailure(w, "Chat not found")
	case errors.Is(err, service.ErrPlanNotFound):
		writeFailure(w, "Plan not found")
	case errors.Is(err, service.ErrUserExists):
		writeFailure(w, "User already exists")
	case errors.Is(err, service.ErrInvalidCredentials):
		writeFailure(w, "Invalid email or password")
	case errors.Is(err, service.ErrUserNotFound):
		writeFailure(w, "User not found")
	case errors.Is(err, service.ErrGenerationFailed):
		logger.Warn("generation failed", "error", err, "request_id", requestID(r))
		writeFailure(w, "Failed to generate a response, please try again")
	case errors.Is(err, service.ErrUploadFailed):
		logger.Warn("image upload failed", "error", err, "request_id", requestID(r))
		writeFailure(w, "Failed to store the generated image, please try again")
	case errors.Is(err, service.ErrPersistFailed):
		logger.Error("reply not stored", "error", err, "request_id", requestID(r))
		writeFailure(w, "Failed to save the reply, please try again")
	case errors.Is(err, service.ErrPaymentGatewayFailed):
		logger.Error("payment gateway failed", "error", err, "request_id", requestID(r))
		writeFailure(w, "Payment provider unavailable, please try again later")
	default:
		logger.Error("internal_error", "error", err, "request_id", requestID(r))
		writeFailure(w, msgInternal)
	}
}

func requestID(r *http.Request) string {
	return middleware.GetRequestID(r.Context())
}
