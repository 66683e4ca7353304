package service

import "errors"

var (
	// ErrInvalidUserID is returned when a user ID is empty.
	ErrInvalidUserID = errors.New("invalid user id")

	// ErrInvalidRiderID is returned when a rider ID is empty.
	ErrInvalidRiderID = errors.New("invalid rider id")

	// ErrInvalidRouteID is returned when a route ID is empty.
	ErrInvalidRouteID = errors.New("invalid route id")

	// ErrInvalidTripID is returned when a trip ID is empty.
	ErrInvalidTripID = errors.New("invalid trip id")

	// ErrMissingUserDetails is returned when registration lacks a name or phone.
	ErrMissingUserDetails = errors.New("name and phone are required")

	// ErrInvalidAmount is returned when a ledger amount is not positive.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrInvalidFare is returned when a route carries a non-positive fare.
	ErrInvalidFare = errors.New("invalid fare")

	// ErrInvalidCoordinates is returned when coordinates are out of range.
	ErrInvalidCoordinates = errors.New("invalid coordinates")
)
