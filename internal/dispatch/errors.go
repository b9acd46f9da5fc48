package dispatch

import "errors"

// Sentinel errors for work-order operations.
var (
	ErrWorkOrderNotFound = errors.New("work order not found")
	ErrInvalidTransition = errors.New("invalid work order transition")
)
