package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the addressed row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrStaleWrite indicates a patch carried an expected version that no
	// longer matches the stored row.
	ErrStaleWrite = errors.New("stale write: version mismatch")
)

// StoreWriteError wraps a failed write. The caller's state is unchanged
// when it is returned.
type StoreWriteError struct {
	Op     string
	TaskID string
	Err    error
}

func (e *StoreWriteError) Error() string {
	if e.TaskID == "" {
		return fmt.Sprintf("store %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("store %s task %s: %v", e.Op, e.TaskID, e.Err)
}

func (e *StoreWriteError) Unwrap() error {
	return e.Err
}

// IsStoreWriteError reports whether err (or any error in its chain) is a StoreWriteError.
func IsStoreWriteError(err error) bool {
	var wErr *StoreWriteError
	return errors.As(err, &wErr)
}

func writeErr(op, taskID string, err error) error {
	return &StoreWriteError{Op: op, TaskID: taskID, Err: err}
}
