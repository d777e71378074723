package contract

import "errors"

// Failure taxonomy returned by Service operations. Handlers map these to
// HTTP statuses; callers inspect them with errors.Is.
var (
	ErrNotFound          = errors.New("contract not found")
	ErrInvalidTransition = errors.New("status change not allowed in current state")
	ErrInvalidAmount     = errors.New("invalid value")
	ErrValidation        = errors.New("validation failed")
	ErrForbidden         = errors.New("operation not permitted for this user")
	ErrPersistence       = errors.New("store operation failed")
)
