package booking

import "errors"

// Engine errors. Every admission or transition outcome maps onto exactly one
// of these; the API layer translates them to HTTP codes and the engine never
// logs on its own.
var (
	ErrRuleInactive           = errors.New("pricing rule is inactive")
	ErrSessionNotFound        = errors.New("quest session not found")
	ErrSessionUnavailable     = errors.New("quest session is not available for booking")
	ErrBookingNotFound        = errors.New("booking not found")
	ErrPlayerCountOutOfRange  = errors.New("players count out of allowed range")
	ErrInvalidTransition      = errors.New("booking status transition not allowed")
	ErrInvalidDiscount        = errors.New("manual discount exceeds the snapshot price")
	ErrConcurrentModification = errors.New("booking was modified concurrently")
	ErrPersistence            = errors.New("storage failure")
)

// Retryable reports whether the caller may safely retry the operation.
// Everything else is a rejected request and must go back to the user as is.
func Retryable(err error) bool {
	return errors.Is(err, ErrPersistence) || errors.Is(err, ErrConcurrentModification)
}
