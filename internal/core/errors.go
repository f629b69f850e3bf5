package core

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound means the referenced product does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict means a product with the same name already exists.
	ErrConflict = errors.New("conflict")

	// ErrValidation is wrapped by every *ValidationError.
	ErrValidation = errors.New("validation failed")

	ErrNothingToExport = errors.New("no products to export")

	ErrNoFile       = errors.New("no file uploaded")
	ErrFileTooLarge = errors.New("file too large")
	ErrInvalidFile  = errors.New("invalid import file")

	// ErrTooManyImports is returned when every import slot stayed occupied
	// for the configured wait time. Clients should retry after a short delay.
	ErrTooManyImports = errors.New("too many concurrent imports, please try again later")
)

// ValidationError describes a rejected input field. Field is the JSON name
// of the field, or empty when the error concerns the request as a whole.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + " " + e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// ValidationErrors collects several field errors from one request.
type ValidationErrors []*ValidationError

func (es ValidationErrors) Error() string {
	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = e.Error()
	}
	return strings.Join(parts, "; ")
}

func (es ValidationErrors) Unwrap() error {
	return ErrValidation
}
