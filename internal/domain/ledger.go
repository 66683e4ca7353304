package domain

import "time"

// TransactionDirection indicates whether money entered or left the balance.
type TransactionDirection string

const (
	TransactionCredit TransactionDirection = "credit"
	TransactionDebit  TransactionDirection = "debit"
)

// TransactionCategory classifies a ledger transaction.
type TransactionCategory string

const (
	CategoryRecharge  TransactionCategory = "recharge"
	CategoryTransport TransactionCategory = "transport"
)

// TransactionStatus represents the outcome of a ledger transaction.
type TransactionStatus string

const (
	TransactionCompleted TransactionStatus = "completed"
	TransactionFailed    TransactionStatus = "failed"
)

// LedgerTransaction is an immutable record of a balance mutation. Produced
// only by the fare ledger; never edited after creation.
type LedgerTransaction struct {
	ID            string
	UserID        string
	Direction     TransactionDirection
	Category      TransactionCategory
	Amount        float64
	BalanceAfter  float64
	TripID        string
	RouteID       string
	Description   string
	Status        TransactionStatus
	FailureReason string
	CreatedAt     time.Time
}
