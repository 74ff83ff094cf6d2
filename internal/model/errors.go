package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownUser indicates a username that is not in the directory.
	ErrUnknownUser = errors.New("unknown user")
	// ErrForbidden indicates the acting user's role does not allow the operation.
	ErrForbidden = errors.New("operation not allowed for this user")
)

// ValidationError reports required or malformed fields detected before
// anything is written to the store.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: missing or invalid %s", strings.Join(e.Fields, ", "))
}

// IsValidationError reports whether err (or any error in its chain) is a ValidationError.
func IsValidationError(err error) bool {
	var vErr *ValidationError
	return errors.As(err, &vErr)
}
