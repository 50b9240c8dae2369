package model

import "time"

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// DefaultChatName is the title given to a freshly created chat.
const DefaultChatName = "New Chat"

// Message is one entry in a chat's ordered history.
// Messages are append-only; once stored they are never edited or reordered.
type Message struct {
	Role        Role   `json:"role"`
	Content     string `json:"content"`
	Timestamp   int64  `json:"timestamp"` // unix milliseconds
	IsImage     bool   `json:"isImage"`
	IsPublished bool   `json:"isPublished"`
}

// NewMessage builds a message stamped with the given time.
func NewMessage(role Role, content string, at time.Time) Message {
	return Message{
		Role:      role,
		Content:   content,
		Timestamp: at.UnixMilli(),
	}
}

// Chat is a conversation thread owned by exactly one user.
type Chat struct {
	ID        string    `json:"_id"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	Name      string    `json:"name"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsOwnedBy reports whether the chat belongs to the given user.
func (c *Chat) IsOwnedBy(userID string) bool {
	return c.UserID == userID
}

// PublishedImage is a gallery entry derived from a published image message.
type PublishedImage struct {
	ImageURL string `json:"imageUrl"`
	UserName string `json:"userName"`
}
