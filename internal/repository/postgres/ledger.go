package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"buspass/internal/domain"
	"buspass/internal/repository"
)

// LedgerRepository is a PostgreSQL implementation of
// repository.LedgerRepository. Each debit/credit runs in its own transaction
// with a row lock on the user's balance, so two concurrent debits can never
// both observe a stale "sufficient" balance.
type LedgerRepository struct {
	db *sql.DB
}

// NewLedgerRepository creates a new PostgreSQL ledger repository.
func NewLedgerRepository(db *sql.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// Debit atomically decrements the user's balance and appends the transaction
// record. On insufficient balance a failed transaction record is still
// appended and the balance is left untouched.
func (r *LedgerRepository) Debit(ctx context.Context, userID string, amount float64, txn *domain.LedgerTransaction) (float64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var balance float64
	err = tx.QueryRowContext(ctx,
		`SELECT balance FROM users WHERE id = $1 FOR UPDATE`, userID,
	).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		err = repository.ErrNotFound
		return 0, err
	}
	if err != nil {
		return 0, err
	}

	if balance < amount {
		// Record the failed attempt, keep the balance as-is.
		txn.BalanceAfter = balance
		txn.Status = domain.TransactionFailed
		txn.FailureReason = repository.ErrInsufficientBalance.Error()
		if err = insertTransaction(ctx, tx, txn); err != nil {
			return 0, err
		}
		if err = tx.Commit(); err != nil {
			return 0, err
		}
		return balance, repository.ErrInsufficientBalance
	}

	newBalance := balance - amount
	if _, err = tx.ExecContext(ctx,
		`UPDATE users SET balance = $1 WHERE id = $2`, newBalance, userID,
	); err != nil {
		return 0, err
	}

	txn.BalanceAfter = newBalance
	txn.Status = domain.TransactionCompleted
	if err = insertTransaction(ctx, tx, txn); err != nil {
		return 0, err
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return newBalance, nil
}

// Credit atomically increments the user's balance and appends the transaction
// record, creating the balance row at zero when the user has none.
func (r *LedgerRepository) Credit(ctx context.Context, userID string, amount float64, txn *domain.LedgerTransaction) (float64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var balance float64
	err = tx.QueryRowContext(ctx,
		`SELECT balance FROM users WHERE id = $1 FOR UPDATE`, userID,
	).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		// Auto-create the balance record at zero, then apply the credit.
		balance = 0
		_, err = tx.ExecContext(ctx,
			`INSERT INTO users (id, balance) VALUES ($1, 0)`, userID,
		)
	}
	if err != nil {
		return 0, err
	}

	newBalance := balance + amount
	if _, err = tx.ExecContext(ctx,
		`UPDATE users SET balance = $1 WHERE id = $2`, newBalance, userID,
	); err != nil {
		return 0, err
	}

	txn.BalanceAfter = newBalance
	txn.Status = domain.TransactionCompleted
	if err = insertTransaction(ctx, tx, txn); err != nil {
		return 0, err
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return newBalance, nil
}

// GetBalance retrieves the user's current balance.
func (r *LedgerRepository) GetBalance(ctx context.Context, userID string) (float64, error) {
	var balance float64
	err := r.db.QueryRowContext(ctx,
		`SELECT balance FROM users WHERE id = $1`, userID,
	).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, repository.ErrNotFound
	}
	return balance, err
}

// ListTransactions retrieves the user's transactions, newest first.
func (r *LedgerRepository) ListTransactions(ctx context.Context, userID string, limit int) ([]*domain.LedgerTransaction, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT id, user_id, direction, category, amount, balance_after,
		       trip_id, route_id, description, status, failure_reason, created_at
		FROM ledger_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txns []*domain.LedgerTransaction
	for rows.Next() {
		var t domain.LedgerTransaction
		if err := rows.Scan(
			&t.ID, &t.UserID, &t.Direction, &t.Category, &t.Amount, &t.BalanceAfter,
			&t.TripID, &t.RouteID, &t.Description, &t.Status, &t.FailureReason, &t.CreatedAt,
		); err != nil {
			return nil, err
		}
		txns = append(txns, &t)
	}
	return txns, rows.Err()
}

func insertTransaction(ctx context.Context, tx *sql.Tx, txn *domain.LedgerTransaction) error {
	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = time.Now()
	}
	query := `
		INSERT INTO ledger_transactions (
			id, user_id, direction, category, amount, balance_after,
			trip_id, route_id, description, status, failure_reason, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := tx.ExecContext(ctx, query,
		txn.ID, txn.UserID, txn.Direction, txn.Category, txn.Amount, txn.BalanceAfter,
		txn.TripID, txn.RouteID, txn.Description, txn.Status, txn.FailureReason, txn.CreatedAt,
	)
	return err
}

// Ensure LedgerRepository implements repository.LedgerRepository.
var _ repository.LedgerRepository = (*LedgerRepository)(nil)
