// internal/core/domain/errors.go
package domain

import "errors"

// Domain errors. Handlers map these to HTTP status codes with errors.Is.
var (
	ErrNotFound             = errors.New("inventory item not found")
	ErrMissingRequiredField = errors.New("missing required field")
	ErrStorageWrite         = errors.New("storage write failed")
)
