package audit

import (
	"slices"
	"strings"
	"time"

	"github.com/nhle/taskplanner/internal/model"
)

// PendingAudits returns tasks with an open audit request and no approver.
func PendingAudits(tasks []model.Task) []model.Task {
	return filter(tasks, func(t model.Task) bool {
		return t.AuditRequest && !t.IsApproved()
	})
}

// CompletedTasks returns completed tasks, most recent date first.
func CompletedTasks(tasks []model.Task) []model.Task {
	out := filter(tasks, func(t model.Task) bool { return t.Status == model.StatusCompleted })
	slices.SortStableFunc(out, func(a, b model.Task) int { return strings.Compare(b.Date, a.Date) })
	return out
}

// TasksForUser returns tasks where user is a participant, ignoring case.
func TasksForUser(tasks []model.Task, user string) []model.Task {
	return filter(tasks, func(t model.Task) bool {
		return slices.ContainsFunc(t.Participants, func(p string) bool {
			return strings.EqualFold(p, user)
		})
	})
}

// UpcomingTasksForUser returns the user's unfinished tasks dated from the
// day of now through days later, in date order.
func UpcomingTasksForUser(tasks []model.Task, user string, days int, now time.Time) []model.Task {
	from := now.Format(model.DateLayout)
	to := now.AddDate(0, 0, days).Format(model.DateLayout)
	out := filter(tasks, func(t model.Task) bool {
		return t.Date >= from && t.Date <= to &&
			t.HasParticipant(user) &&
			t.Status != model.StatusCompleted
	})
	sortByDate(out)
	return out
}

// TeamCalendar returns every unfinished task in date order.
func TeamCalendar(tasks []model.Task) []model.Task {
	out := filter(tasks, func(t model.Task) bool { return t.Status != model.StatusCompleted })
	sortByDate(out)
	return out
}

func sortByDate(tasks []model.Task) {
	slices.SortStableFunc(tasks, func(a, b model.Task) int { return strings.Compare(a.Date, b.Date) })
}

func filter(tasks []model.Task, keep func(model.Task) bool) []model.Task {
	var out []model.Task
	for _, t := range tasks {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}
