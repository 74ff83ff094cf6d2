// Package conflict decides whether a task would double-book any of its
// participants.
package conflict

import (
	"fmt"
	"time"

	"github.com/nhle/taskplanner/internal/model"
)

// Mode selects the overlap rule.
type Mode string

const (
	// ModeSameDay flags any task on the same date that shares a participant.
	ModeSameDay Mode = "day"
	// ModeInterval additionally requires the start/end times to overlap.
	ModeInterval Mode = "interval"
)

// ParseMode maps a config value to a Mode. Empty selects ModeSameDay.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeSameDay:
		return ModeSameDay, nil
	case ModeInterval:
		return ModeInterval, nil
	}
	return "", fmt.Errorf("unknown conflict mode %q", s)
}

// Result lists the existing tasks that conflict with a candidate, in the
// order they were supplied.
type Result struct {
	HasConflict      bool         `json:"has_conflict"`
	ConflictingTasks []model.Task `json:"conflicting_tasks"`
}

// Detector checks candidates against existing tasks.
type Detector struct {
	Mode Mode

	// Location interprets wall-clock times in ModeInterval. Nil means local.
	Location *time.Location
}

// Detect applies the same-day rule.
func Detect(candidate model.Task, existing []model.Task) Result {
	return Detector{Mode: ModeSameDay}.Detect(candidate, existing)
}

// Detect returns every task in existing that conflicts with candidate. A
// task with the candidate's own ID is skipped so edits do not conflict with
// themselves.
func (d Detector) Detect(candidate model.Task, existing []model.Task) Result {
	var out []model.Task
	for _, t := range existing {
		if candidate.ID != "" && t.ID == candidate.ID {
			continue
		}
		if t.Date != candidate.Date || !t.SharesParticipant(candidate) {
			continue
		}
		if d.Mode == ModeInterval && !d.overlaps(candidate, t) {
			continue
		}
		out = append(out, t)
	}
	return Result{HasConflict: len(out) > 0, ConflictingTasks: out}
}

// overlaps compares half-open [start, end) intervals. A task without a
// usable interval is treated as occupying the whole day.
func (d Detector) overlaps(a, b model.Task) bool {
	aStart, aEnd, ok := d.interval(a)
	if !ok {
		return true
	}
	bStart, bEnd, ok := d.interval(b)
	if !ok {
		return true
	}
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

func (d Detector) interval(t model.Task) (time.Time, time.Time, bool) {
	start, ok := t.Start(d.Location)
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	end, ok := t.End(d.Location)
	if !ok || !end.After(start) {
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}
