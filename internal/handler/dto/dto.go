// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"github.com/intellichat/intellichat/internal/model"
)

// RegisterRequest is the body of POST /api/user/register.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the body of POST /api/user/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// DeleteChatRequest is the body of POST /api/chat/delete.
type DeleteChatRequest struct {
	ChatID string `json:"chatId"`
}

// MessageRequest is the body of the text and image message endpoints.
// IsPublished is ignored for text.
type MessageRequest struct {
	ChatID      string `json:"chatId"`
	Prompt      string `json:"prompt"`
	IsPublished bool   `json:"isPublished"`
}

// PurchaseRequest is the body of POST /api/credit/purchase.
type PurchaseRequest struct {
	PlanID string `json:"planId"`
}

// Response is the envelope shared by every API endpoint.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// TokenResponse is returned by register and login.
type TokenResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
}

// UserResponse is returned by GET /api/user/data.
type UserResponse struct {
	Success bool        `json:"success"`
	User    *model.User `json:"user"`
}

// PublishedImagesResponse is returned by GET /api/user/published-images.
type PublishedImagesResponse struct {
	Success bool                   `json:"success"`
	Images  []model.PublishedImage `json:"images"`
}

// ChatsResponse is returned by GET /api/chat/get.
type ChatsResponse struct {
	Success bool          `json:"success"`
	Chats   []*model.Chat `json:"chats"`
}

// ReplyResponse is returned by the message endpoints.
type ReplyResponse struct {
	Success bool          `json:"success"`
	Reply   model.Message `json:"reply"`
}

// PlansResponse is returned by GET /api/credit/plan.
type PlansResponse struct {
	Success bool         `json:"success"`
	Plans   []model.Plan `json:"plans"`
}

// PurchaseResponse is returned by POST /api/credit/purchase.
type PurchaseResponse struct {
	Success bool   `json:"success"`
	URL     string `json:"url"`
}

// WebhookResponse acknowledges a payment provider delivery.
type WebhookResponse struct {
	Received bool   `json:"received"`
	Message  string `json:"message,omitempty"`
}
