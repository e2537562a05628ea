package entities

import "errors"

// Caller-facing conditions. None of these are fatal to the process.
var (
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrNotEligible        = errors.New("not eligible to bid on this auction")
	ErrAuctionClosed      = errors.New("auction is closed")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrNotFound           = errors.New("not found")
	ErrInvalidAmount      = errors.New("amount must be positive")
	ErrRateLimited        = errors.New("too many bids, slow down")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ErrInvariantViolation marks a broken aggregate invariant. It indicates a
// synchronization bug and the operation that produced it must be aborted.
var ErrInvariantViolation = errors.New("invariant violation")
