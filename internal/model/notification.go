package model

import "time"

// Notification is a reminder that was fired for a user.
type Notification struct {
	ID string `json:"id" db:"id"`

	// TaskID links this notification to the task it reminds about.
	TaskID string `json:"task_id" db:"task_id"`

	// Username is the recipient.
	Username string `json:"username" db:"username"`

	Title string `json:"title" db:"title"`
	Body  string `json:"body" db:"body"`

	// Read indicates whether the user has seen this notification.
	Read bool `json:"read" db:"read"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
