package audit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/nhle/taskplanner/internal/model"
)

func ids(tasks []model.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}

func sample() []model.Task {
	return []model.Task{
		{ID: "a", Date: "2024-03-09", Participants: []string{"hia"}, Status: model.StatusPending},
		{ID: "b", Date: "2024-03-07", Participants: []string{"YCE"}, Status: model.StatusAwaitingAudit,
			AuditRequest: true, AuditRequestedBy: "yce"},
		{ID: "c", Date: "2024-03-01", Participants: []string{"hia"}, Status: model.StatusCompleted,
			AuditRequest: true, AuditApprovedBy: "admin"},
		{ID: "d", Date: "2024-03-05", Participants: []string{"re"}, Status: model.StatusCompleted,
			AuditApprovedBy: "admin"},
		{ID: "e", Date: "2024-03-20", Participants: []string{"hia", "re"}, Status: model.StatusInProgress},
	}
}

func TestPendingAudits(t *testing.T) {
	assert.Equal(t, []string{"b"}, ids(PendingAudits(sample())))
}

func TestCompletedTasksNewestFirst(t *testing.T) {
	assert.Equal(t, []string{"d", "c"}, ids(CompletedTasks(sample())))
}

func TestTasksForUserIgnoresCase(t *testing.T) {
	assert.Equal(t, []string{"b"}, ids(TasksForUser(sample(), "yce")))
	assert.Equal(t, []string{"a", "c", "e"}, ids(TasksForUser(sample(), "HIA")))
}

func TestUpcomingTasksForUser(t *testing.T) {
	now := time.Date(2024, 3, 7, 8, 0, 0, 0, time.Local)

	assert.Equal(t, []string{"a"}, ids(UpcomingTasksForUser(sample(), "hia", 7, now)))
	assert.Equal(t, []string{"a", "e"}, ids(UpcomingTasksForUser(sample(), "hia", 14, now)))
	assert.Empty(t, UpcomingTasksForUser(sample(), "re", 7, now))
}

func TestTeamCalendar(t *testing.T) {
	assert.Equal(t, []string{"b", "a", "e"}, ids(TeamCalendar(sample())))
}
