package tasks

import (
	"errors"
	"fmt"

	"github.com/nhle/taskplanner/internal/conflict"
)

// ConflictError is returned when a write would double-book a participant
// and the caller did not force it.
type ConflictError struct {
	Result conflict.Result
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("task conflicts with %d existing task(s)", len(e.Result.ConflictingTasks))
}

// IsConflictError reports whether err (or any error in its chain) is a ConflictError.
func IsConflictError(err error) bool {
	var cErr *ConflictError
	return errors.As(err, &cErr)
}
