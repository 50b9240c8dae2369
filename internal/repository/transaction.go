package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/intellichat/intellichat/internal/model"
)

// ErrTransactionNotFound is returned when a transaction ID is unknown.
var ErrTransactionNotFound = errors.New("transaction not found")

// CreateTransaction inserts a pending purchase.
func (r *Repository) CreateTransaction(ctx context.Context, txn *model.Transaction) error {
	query := `
		INSERT INTO transactions (id, user_id, plan_id, amount, credits, is_paid, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.pool.Exec(ctx, query,
		txn.ID,
		txn.UserID,
		txn.PlanID,
		txn.Amount,
		txn.Credits,
		txn.IsPaid,
		txn.CreatedAt,
		txn.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	return nil
}

// GetTransaction retrieves a transaction by ID.
func (r *Repository) GetTransaction(ctx context.Context, id string) (*model.Transaction, error) {
	query := `
		SELECT id, user_id, plan_id, amount, credits, is_paid, created_at, updated_at
		FROM transactions
		WHERE id = $1
	`

	var txn model.Transaction
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&txn.ID,
		&txn.UserID,
		&txn.PlanID,
		&txn.Amount,
		&txn.Credits,
		&txn.IsPaid,
		&txn.CreatedAt,
		&txn.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	return &txn, nil
}

// SettleTransaction marks an unpaid transaction as paid and grants its credits
// to the owner, both in one database transaction.
//
// The unpaid->paid flip is a conditional update, so only one caller can win it
// even under concurrent redelivery. It returns applied=false with a nil error
// when the transaction was already paid.
func (r *Repository) SettleTransaction(ctx context.Context, id string) (*model.Transaction, bool, error) {
	var (
		txn     model.Transaction
		applied bool
	)

	err := r.withTx(ctx, func(tx pgx.Tx) error {
		query := `
			UPDATE transactions
			SET is_paid = TRUE, updated_at = NOW()
			WHERE id = $1 AND is_paid = FALSE
			RETURNING id, user_id, plan_id, amount, credits, is_paid, created_at, updated_at
		`

		err := tx.QueryRow(ctx, query, id).Scan(
			&txn.ID,
			&txn.UserID,
			&txn.PlanID,
			&txn.Amount,
			&txn.Credits,
			&txn.IsPaid,
			&txn.CreatedAt,
			&txn.UpdatedAt,
		)
		if errors.Is(err, pgx.ErrNoRows) {
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM transactions WHERE id = $1)`, id).Scan(&exists); err != nil {
				return fmt.Errorf("failed to check transaction: %w", err)
			}
			if !exists {
				return ErrTransactionNotFound
			}
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to mark transaction paid: %w", err)
		}

		if err := grantCredits(ctx, tx, txn.UserID, txn.Credits); err != nil {
			return err
		}

		applied = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	if !applied {
		return nil, false, nil
	}
	return &txn, true, nil
}
