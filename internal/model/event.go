package model

import "time"

// EventKind names a recorded change in a task's lifecycle.
type EventKind string

const (
	EventTaskCreated      EventKind = "task_created"
	EventTaskUpdated      EventKind = "task_updated"
	EventTaskDeleted      EventKind = "task_deleted"
	EventAuditRequested   EventKind = "audit_requested"
	EventAuditApproved    EventKind = "audit_approved"
	EventApprovalCanceled EventKind = "approval_canceled"
	EventTaskReopened     EventKind = "task_reopened"
)

// TaskEvent is one entry in a task's audit trail.
type TaskEvent struct {
	ID     string    `json:"id" db:"id"`
	TaskID string    `json:"task_id" db:"task_id"`
	Kind   EventKind `json:"kind" db:"kind"`
	Actor  string    `json:"actor" db:"actor"`
	At     time.Time `json:"at" db:"at"`
}
