package repository

import (
	"context"

	"buspass/internal/domain"
)

// LedgerRepository defines the persistence operations for user balances and
// their transaction log. Debit and Credit are each a single atomic operation:
// the balance mutation and the transaction append either both happen or
// neither, and no concurrent reader observes a partial state.
type LedgerRepository interface {
	// Debit atomically decrements the user's balance and appends the
	// transaction record. Returns ErrNotFound when the user does not exist
	// and ErrInsufficientBalance when balance < amount; in the latter case a
	// failed transaction record is still appended and the balance is
	// untouched. Safe under concurrent invocations for the same user.
	Debit(ctx context.Context, userID string, amount float64, txn *domain.LedgerTransaction) (newBalance float64, err error)

	// Credit atomically increments the user's balance and appends the
	// transaction record. Creates the balance record at zero when the user
	// has none, then applies the credit.
	Credit(ctx context.Context, userID string, amount float64, txn *domain.LedgerTransaction) (newBalance float64, err error)

	// GetBalance retrieves the user's current balance.
	GetBalance(ctx context.Context, userID string) (float64, error)

	// ListTransactions retrieves the user's transactions, newest first.
	ListTransactions(ctx context.Context, userID string, limit int) ([]*domain.LedgerTransaction, error)
}
