package conflict

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskplanner/internal/model"
)

func task(id, date string, participants ...string) model.Task {
	return model.Task{ID: id, Date: date, StartTime: "10:00", EndTime: "11:00", Participants: participants}
}

func TestDetectSharedParticipantSameDay(t *testing.T) {
	existing := []model.Task{task("t1", "2024-03-07", "B", "C")}
	candidate := task("", "2024-03-07", "A", "B")

	res := Detect(candidate, existing)
	require.True(t, res.HasConflict)
	require.Len(t, res.ConflictingTasks, 1)
	assert.Equal(t, "t1", res.ConflictingTasks[0].ID)
}

func TestDetectIsSymmetric(t *testing.T) {
	a := task("a", "2024-03-07", "A", "B")
	b := task("b", "2024-03-07", "B", "C")

	assert.Equal(t, Detect(a, []model.Task{b}).HasConflict, Detect(b, []model.Task{a}).HasConflict)

	c := task("c", "2024-03-07", "D")
	assert.False(t, Detect(a, []model.Task{c}).HasConflict)
	assert.False(t, Detect(c, []model.Task{a}).HasConflict)
}

func TestDetectNoConflict(t *testing.T) {
	tests := []struct {
		name     string
		existing []model.Task
	}{
		{name: "empty store"},
		{name: "different date", existing: []model.Task{task("t1", "2024-03-08", "A")}},
		{name: "disjoint participants", existing: []model.Task{task("t1", "2024-03-07", "X", "Y")}},
		{name: "participant match is case sensitive", existing: []model.Task{task("t1", "2024-03-07", "a")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Detect(task("", "2024-03-07", "A"), tt.existing)
			assert.False(t, res.HasConflict)
			assert.Empty(t, res.ConflictingTasks)
		})
	}
}

func TestDetectKeepsInputOrder(t *testing.T) {
	existing := []model.Task{
		task("t3", "2024-03-07", "A"),
		task("t1", "2024-03-07", "A"),
		task("t2", "2024-03-08", "A"),
		task("t4", "2024-03-07", "B", "A"),
	}

	res := Detect(task("", "2024-03-07", "A"), existing)
	require.Len(t, res.ConflictingTasks, 3)
	assert.Equal(t, "t3", res.ConflictingTasks[0].ID)
	assert.Equal(t, "t1", res.ConflictingTasks[1].ID)
	assert.Equal(t, "t4", res.ConflictingTasks[2].ID)
}

func TestDetectSkipsSelf(t *testing.T) {
	self := task("t1", "2024-03-07", "A")
	assert.False(t, Detect(self, []model.Task{self}).HasConflict)
}

func TestIntervalMode(t *testing.T) {
	d := Detector{Mode: ModeInterval}

	morning := task("m", "2024-03-07", "A")
	afternoon := task("a", "2024-03-07", "A")
	afternoon.StartTime, afternoon.EndTime = "14:00", "15:00"
	adjacent := task("adj", "2024-03-07", "A")
	adjacent.StartTime, adjacent.EndTime = "11:00", "12:00"
	overlapping := task("o", "2024-03-07", "A")
	overlapping.StartTime, overlapping.EndTime = "10:30", "12:00"
	untimed := task("u", "2024-03-07", "A")
	untimed.StartTime, untimed.EndTime = "", ""

	assert.False(t, d.Detect(morning, []model.Task{afternoon}).HasConflict)
	assert.False(t, d.Detect(morning, []model.Task{adjacent}).HasConflict)
	assert.True(t, d.Detect(morning, []model.Task{overlapping}).HasConflict)
	assert.True(t, d.Detect(morning, []model.Task{untimed}).HasConflict)

	// Same-day mode flags all of them.
	assert.True(t, Detect(morning, []model.Task{afternoon}).HasConflict)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeSameDay, m)

	m, err = ParseMode("interval")
	require.NoError(t, err)
	assert.Equal(t, ModeInterval, m)

	_, err = ParseMode("week")
	assert.Error(t, err)
}
