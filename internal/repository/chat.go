package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/intellichat/intellichat/internal/model"
)

// ErrChatNotFound is returned when a chat does not exist or belongs to another user.
var ErrChatNotFound = errors.New("chat not found")

const chatColumns = `id, user_id, user_name, name, messages, created_at, updated_at`

// CreateChat inserts an empty chat.
func (r *Repository) CreateChat(ctx context.Context, chat *model.Chat) error {
	messages, err := encodeMessages(chat.Messages)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO chats (id, user_id, user_name, name, messages, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7)
	`

	_, err = r.pool.Exec(ctx, query,
		chat.ID,
		chat.UserID,
		chat.UserName,
		chat.Name,
		messages,
		chat.CreatedAt,
		chat.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create chat: %w", err)
	}

	return nil
}

// GetChat retrieves a chat scoped to its owner.
func (r *Repository) GetChat(ctx context.Context, id, userID string) (*model.Chat, error) {
	query := `SELECT ` + chatColumns + ` FROM chats WHERE id = $1 AND user_id = $2`

	chat, err := scanChat(r.pool.QueryRow(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrChatNotFound
		}
		return nil, fmt.Errorf("failed to get chat: %w", err)
	}

	return chat, nil
}

// ListChats returns all chats of a user, most recently updated first.
func (r *Repository) ListChats(ctx context.Context, userID string) ([]*model.Chat, error) {
	query := `
		SELECT ` + chatColumns + `
		FROM chats
		WHERE user_id = $1
		ORDER BY updated_at DESC, id DESC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chats: %w", err)
	}
	defer rows.Close()

	chats := make([]*model.Chat, 0)
	for rows.Next() {
		chat, err := scanChat(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chat: %w", err)
		}
		chats = append(chats, chat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chats: %w", err)
	}

	return chats, nil
}

// DeleteChat removes a chat and its embedded messages if the user owns it.
func (r *Repository) DeleteChat(ctx context.Context, id, userID string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM chats WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete chat: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrChatNotFound
	}

	return nil
}

// AppendMessages adds messages to the end of a chat in one statement.
// The concatenation happens inside the row update, so concurrent appends to
// the same chat serialize on the row lock and neither overwrites the other.
func (r *Repository) AppendMessages(ctx context.Context, id, userID string, messages ...model.Message) error {
	if len(messages) == 0 {
		return nil
	}

	payload, err := encodeMessages(messages)
	if err != nil {
		return err
	}

	query := `
		UPDATE chats
		SET messages = messages || $3::jsonb, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
	`

	result, err := r.pool.Exec(ctx, query, id, userID, payload)
	if err != nil {
		return fmt.Errorf("failed to append messages: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrChatNotFound
	}

	return nil
}

// ListPublishedImages returns every published image message across all chats,
// newest first.
func (r *Repository) ListPublishedImages(ctx context.Context) ([]model.PublishedImage, error) {
	query := `
		SELECT m.value->>'content', c.user_name
		FROM chats c
		CROSS JOIN LATERAL jsonb_array_elements(c.messages) WITH ORDINALITY AS m(value, position)
		WHERE (m.value->>'isImage')::boolean
		  AND (m.value->>'isPublished')::boolean
		ORDER BY (m.value->>'timestamp')::bigint DESC, c.id DESC, m.position DESC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list published images: %w", err)
	}
	defer rows.Close()

	images := make([]model.PublishedImage, 0)
	for rows.Next() {
		var img model.PublishedImage
		if err := rows.Scan(&img.ImageURL, &img.UserName); err != nil {
			return nil, fmt.Errorf("failed to scan published image: %w", err)
		}
		images = append(images, img)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate published images: %w", err)
	}

	return images, nil
}

func scanChat(row pgx.Row) (*model.Chat, error) {
	var (
		chat     model.Chat
		messages []byte
	)

	err := row.Scan(
		&chat.ID,
		&chat.UserID,
		&chat.UserName,
		&chat.Name,
		&messages,
		&chat.CreatedAt,
		&chat.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	chat.Messages = make([]model.Message, 0)
	if len(messages) > 0 {
		if err := json.Unmarshal(messages, &chat.Messages); err != nil {
			return nil, fmt.Errorf("failed to decode messages: %w", err)
		}
	}

	return &chat, nil
}

func encodeMessages(messages []model.Message) (string, error) {
	if messages == nil {
		messages = []model.Message{}
	}
	b, err := json.Marshal(messages)
	if err != nil {
		return "", fmt.Errorf("failed to encode messages: %w", err)
	}
	return string(b), nil
}
