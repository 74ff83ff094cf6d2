// Package notify delivers reminder messages to the user through one or more
// channels, behind a permission gate.
package notify

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrPermissionDenied is returned by a gated dispatcher when the user has
// not granted notification permission.
var ErrPermissionDenied = errors.New("notification permission denied")

// Permission is the user's answer to the notification prompt.
type Permission string

const (
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
	// PermissionPrompt means the user has not been asked yet.
	PermissionPrompt Permission = "prompt"
)

// ParsePermission maps a config value to a Permission. Empty means prompt.
func ParsePermission(s string) (Permission, error) {
	switch Permission(s) {
	case "", PermissionPrompt:
		return PermissionPrompt, nil
	case PermissionGranted, PermissionDenied:
		return Permission(s), nil
	}
	return "", fmt.Errorf("unknown notification permission %q", s)
}

// Message is one reminder to deliver.
type Message struct {
	Title  string
	Body   string
	TaskID string
	User   string
	At     time.Time
}

// Gate asks the user for permission to show notifications.
type Gate interface {
	RequestPermission(ctx context.Context) (Permission, error)
}

// Dispatcher fires a message. Delivery is best effort.
type Dispatcher interface {
	Fire(ctx context.Context, msg Message) error
}

// DispatcherFunc adapts a function to Dispatcher.
type DispatcherFunc func(ctx context.Context, msg Message) error

// Fire calls f.
func (f DispatcherFunc) Fire(ctx context.Context, msg Message) error {
	return f(ctx, msg)
}
