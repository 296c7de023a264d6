package domain

import "errors"

// ErrNotFound is returned by store and service functions when the requested
// resource does not exist, or exists but is not visible to the caller.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned when input fails business rule validation
// (e.g. missing destination, end date before start date).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrNotAuthenticated is returned when an operation needs a current user and
// none is available. Handlers should map this to HTTP 401.
var ErrNotAuthenticated = errors.New("not authenticated")

// ErrStoreUnavailable wraps every store failure other than ErrNotFound
// (connectivity loss, timeouts, driver errors). The operation is retryable.
// Handlers should map this to HTTP 503.
var ErrStoreUnavailable = errors.New("store unavailable")

// ErrSubmitInProgress is returned when a draft is submitted while an earlier
// submission of the same draft is still waiting on the store.
var ErrSubmitInProgress = errors.New("submission already in progress")

// ErrDuplicateSubmission is returned when an idempotency key is reused while
// the first request carrying it has not finished yet.
var ErrDuplicateSubmission = errors.New("duplicate submission")

// ValidationError names the field that failed validation.
// It matches ErrValidation under errors.Is.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError builds a ValidationError for field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	return ErrValidation.Error() + ": " + e.Field + ": " + e.Message
}

// Unwrap lets errors.Is(err, ErrValidation) succeed.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
