package domain

import "time"

// User represents a rider in the system. Balance is never mutated directly;
// all changes go through the fare ledger.
type User struct {
	ID        string
	Name      string
	Phone     string
	Balance   float64
	CreatedAt time.Time
}
