package model

import "errors"

// Errors returned by the item and claim services. Callers match them with
// errors.Is; the wrapped message is safe to show to the requester.
var (
	ErrNotFound         = errors.New("not found")
	ErrUnauthorized     = errors.New("not authorized")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrConflict         = errors.New("conflict")
)
