// services/errors.go
package services

import (
	"errors"
)

// Business error taxonomy. Services wrap these with context via
// fmt.Errorf("...: %w", Err...) and handlers discriminate with errors.Is to
// pick the HTTP status and user-facing message. Anything not wrapping one of
// these is an unexpected storage failure (500).
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflicting state")
	ErrInsufficientFunds = errors.New("insufficient funds")
)
