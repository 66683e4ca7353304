package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrInsufficientBalance is returned when a debit would take a user's
	// balance below zero. The balance is left untouched.
	ErrInsufficientBalance = errors.New("insufficient balance")
)
