// Package testutil holds helpers shared by integration tests.
package testutil

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"

	"github.com/intellichat/intellichat/internal/model"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 424242

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// TruncateAll empties every application table.
func TruncateAll(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, `TRUNCATE transactions, chats, users CASCADE`); err != nil {
		return fmt.Errorf("truncate tables: %w", err)
	}
	return nil
}

// ============================================================================
// Test Data Factories
// ============================================================================

// NewTestUser creates a user with sensible defaults.
func NewTestUser(t testing.TB, credits int) *model.User {
	t.Helper()
	now := time.Now().UTC()
	id := ulid.Make().String()
	return &model.User{
		ID:           id,
		Name:         "Test User",
		Email:        UniqueEmail("user"),
		PasswordHash: "$argon2id$v=19$m=65536,t=3,p=4$c2FsdA$aGFzaA",
		Credits:      credits,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// NewTestChat creates an empty chat owned by user.
func NewTestChat(t testing.TB, user *model.User) *model.Chat {
	t.Helper()
	now := time.Now().UTC()
	return &model.Chat{
		ID:        ulid.Make().String(),
		UserID:    user.ID,
		UserName:  user.Name,
		Name:      model.DefaultChatName,
		Messages:  []model.Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewTestTransaction creates an unpaid transaction for the given plan.
func NewTestTransaction(t testing.TB, user *model.User, planID string) *model.Transaction {
	t.Helper()
	plan, ok := model.FindPlan(planID)
	if !ok {
		t.Fatalf("unknown plan %q", planID)
	}
	now := time.Now().UTC()
	return &model.Transaction{
		ID:        ulid.Make().String(),
		UserID:    user.ID,
		PlanID:    plan.ID,
		Amount:    plan.Price,
		Credits:   plan.Credits,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// UniqueEmail generates a unique email address for tests.
func UniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%d@example.test", prefix, time.Now().UnixNano())
}
