package model

import (
	"strings"
	"time"
)

// Status is the lifecycle state of a task. The values are the labels
// stored in the database and shown to users.
type Status string

const (
	StatusPending       Status = "Beklemede"
	StatusInProgress    Status = "Devam Ediyor"
	StatusAwaitingAudit Status = "Denetim Bekliyor"
	StatusCompleted     Status = "Tamamlandı"
)

// Statuses lists every valid status in lifecycle order.
var Statuses = []Status{
	StatusPending,
	StatusInProgress,
	StatusAwaitingAudit,
	StatusCompleted,
}

// IsValid reports whether s is one of the known statuses.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusAwaitingAudit, StatusCompleted:
		return true
	}
	return false
}

// Label returns a short English name for display next to the stored value.
func (s Status) Label() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusInProgress:
		return "in progress"
	case StatusAwaitingAudit:
		return "awaiting audit"
	case StatusCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Layouts for the wall-clock fields of a task.
const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

// Task is a scheduled unit of work assigned to one or more participants.
type Task struct {
	// ID is assigned by the store on creation and never changes.
	ID string `json:"id"`

	// Date is the calendar day in DateLayout.
	Date string `json:"date"`

	// StartTime and EndTime are same-day wall-clock times in ClockLayout.
	// StartTime may be empty, in which case no reminder can be scheduled.
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`

	// Code, Channel and Type classify the task. Allowed values live in Settings.
	Code    string `json:"code"`
	Channel string `json:"channel"`
	Type    string `json:"type"`

	// Action describes the work to be done.
	Action string `json:"action"`

	// Participants holds the usernames assigned to the task.
	Participants []string `json:"participants"`

	Status Status `json:"status"`

	// Audit sub-state. Empty strings and a nil time mean "unset".
	AuditRequest     bool       `json:"audit_request"`
	AuditRequestedBy string     `json:"audit_requested_by,omitempty"`
	AuditApprovedBy  string     `json:"audit_approved_by,omitempty"`
	AuditApprovedAt  *time.Time `json:"audit_approved_at,omitempty"`

	// Version is bumped by the store on every write.
	Version int64 `json:"version"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasParticipant reports whether user is assigned to the task (exact match).
func (t Task) HasParticipant(user string) bool {
	for _, p := range t.Participants {
		if p == user {
			return true
		}
	}
	return false
}

// SharesParticipant reports whether the two tasks have at least one
// participant in common.
func (t Task) SharesParticipant(other Task) bool {
	for _, p := range t.Participants {
		if other.HasParticipant(p) {
			return true
		}
	}
	return false
}

// Start returns the start instant of the task in loc. It reports false when
// the date or start time is missing or cannot be parsed.
func (t Task) Start(loc *time.Location) (time.Time, bool) {
	return t.at(t.StartTime, loc)
}

// End returns the end instant of the task in loc.
func (t Task) End(loc *time.Location) (time.Time, bool) {
	return t.at(t.EndTime, loc)
}

func (t Task) at(clock string, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.Local
	}
	date := strings.TrimSpace(t.Date)
	clock = strings.TrimSpace(clock)
	if date == "" || clock == "" {
		return time.Time{}, false
	}
	ts, err := time.ParseInLocation(DateLayout+" "+ClockLayout, date+" "+clock, loc)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

// IsApproved reports whether an approver has been recorded.
func (t Task) IsApproved() bool {
	return t.AuditApprovedBy != ""
}

// Validate checks the fields required when a task is created.
func (t Task) Validate() error {
	var missing []string
	if strings.TrimSpace(t.Date) == "" {
		missing = append(missing, "date")
	} else if _, err := time.Parse(DateLayout, t.Date); err != nil {
		missing = append(missing, "date")
	}
	if strings.TrimSpace(t.Code) == "" {
		missing = append(missing, "code")
	}
	if strings.TrimSpace(t.Action) == "" {
		missing = append(missing, "action")
	}
	if strings.TrimSpace(t.Channel) == "" {
		missing = append(missing, "channel")
	}
	if strings.TrimSpace(t.Type) == "" {
		missing = append(missing, "type")
	}
	if len(t.Participants) == 0 {
		missing = append(missing, "participants")
	}
	if t.StartTime != "" {
		if _, err := time.Parse(ClockLayout, t.StartTime); err != nil {
			missing = append(missing, "start_time")
		}
	}
	if t.EndTime != "" {
		if _, err := time.Parse(ClockLayout, t.EndTime); err != nil {
			missing = append(missing, "end_time")
		}
	}
	if t.Status != "" && !t.Status.IsValid() {
		missing = append(missing, "status")
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	return nil
}

// Opt is a patch value for a nullable column: the zero value leaves the
// column untouched, Set writes a value and Clear writes NULL.
type Opt[T any] struct {
	set   bool
	clear bool
	value T
}

// Set returns an Opt that writes v.
func Set[T any](v T) Opt[T] {
	return Opt[T]{set: true, value: v}
}

// Clear returns an Opt that writes NULL.
func Clear[T any]() Opt[T] {
	return Opt[T]{set: true, clear: true}
}

// IsSet reports whether the patch touches the column.
func (o Opt[T]) IsSet() bool { return o.set }

// IsClear reports whether the patch writes NULL.
func (o Opt[T]) IsClear() bool { return o.set && o.clear }

// Value returns the value to write and whether there is one.
func (o Opt[T]) Value() (T, bool) {
	return o.value, o.set && !o.clear
}

// TaskPatch is a partial update: only the named fields are written.
type TaskPatch struct {
	Date         *string
	StartTime    *string
	EndTime      *string
	Code         *string
	Channel      *string
	Type         *string
	Action       *string
	Participants []string
	Status       *Status

	AuditRequest     *bool
	AuditRequestedBy Opt[string]
	AuditApprovedBy  Opt[string]
	AuditApprovedAt  Opt[time.Time]

	// ExpectedVersion rejects the write when the stored version differs.
	ExpectedVersion *int64
}

// IsEmpty reports whether the patch writes nothing.
func (p TaskPatch) IsEmpty() bool {
	return p.Date == nil && p.StartTime == nil && p.EndTime == nil &&
		p.Code == nil && p.Channel == nil && p.Type == nil && p.Action == nil &&
		p.Participants == nil && p.Status == nil && p.AuditRequest == nil &&
		!p.AuditRequestedBy.IsSet() && !p.AuditApprovedBy.IsSet() &&
		!p.AuditApprovedAt.IsSet()
}

// Apply returns a copy of t with the patch applied. It mirrors what the
// store writes and is used by in-memory callers and tests.
func (p TaskPatch) Apply(t Task) Task {
	if p.Date != nil {
		t.Date = *p.Date
	}
	if p.StartTime != nil {
		t.StartTime = *p.StartTime
	}
	if p.EndTime != nil {
		t.EndTime = *p.EndTime
	}
	if p.Code != nil {
		t.Code = *p.Code
	}
	if p.Channel != nil {
		t.Channel = *p.Channel
	}
	if p.Type != nil {
		t.Type = *p.Type
	}
	if p.Action != nil {
		t.Action = *p.Action
	}
	if p.Participants != nil {
		t.Participants = append([]string(nil), p.Participants...)
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.AuditRequest != nil {
		t.AuditRequest = *p.AuditRequest
	}
	if p.AuditRequestedBy.IsSet() {
		t.AuditRequestedBy, _ = p.AuditRequestedBy.Value()
	}
	if p.AuditApprovedBy.IsSet() {
		t.AuditApprovedBy, _ = p.AuditApprovedBy.Value()
	}
	if p.AuditApprovedAt.IsSet() {
		if v, ok := p.AuditApprovedAt.Value(); ok {
			t.AuditApprovedAt = &v
		} else {
			t.AuditApprovedAt = nil
		}
	}
	t.Version++
	return t
}
