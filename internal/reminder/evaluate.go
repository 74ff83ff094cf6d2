// Package reminder fires a notification shortly before each task a user
// takes part in is due to start.
package reminder

import (
	"fmt"
	"time"

	"github.com/nhle/taskplanner/internal/model"
	"github.com/nhle/taskplanner/internal/notify"
)

// Title is the heading of every reminder.
const Title = "Yaklaşan Görev Hatırlatması"

// DueTasks returns the tasks of user whose reminder threshold
// (start - minutes) falls in (lastChecked, now]. Tasks without a parseable
// date and start time are ignored.
func DueTasks(
	tasks []model.Task,
	user string,
	minutes int,
	lastChecked, now time.Time,
	loc *time.Location,
) []model.Task {
	lead := time.Duration(minutes) * time.Minute

	var due []model.Task
	for _, t := range tasks {
		if !t.HasParticipant(user) {
			continue
		}
		start, ok := t.Start(loc)
		if !ok {
			continue
		}
		notifyAt := start.Add(-lead)
		if notifyAt.After(lastChecked) && !notifyAt.After(now) {
			due = append(due, t)
		}
	}
	return due
}

// MessageFor builds the reminder for t addressed to user.
func MessageFor(t model.Task, user string, at time.Time) notify.Message {
	return notify.Message{
		Title:  Title,
		Body:   fmt.Sprintf("%s - %s\nBaşlangıç: %s", t.Code, t.Action, t.StartTime),
		TaskID: t.ID,
		User:   user,
		At:     at,
	}
}
