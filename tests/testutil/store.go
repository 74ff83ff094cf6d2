package testutil

import (
	"testing"

	"github.com/nhle/taskplanner/internal/model"
	"github.com/nhle/taskplanner/internal/store"
)

// NewTestStore creates an in-memory SQLiteStore with all migrations applied.
// It automatically closes the store when the test completes.
func NewTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

// NewTask returns a valid task on date for participants using the default
// settings values. Callers override fields as needed.
func NewTask(date string, participants ...string) model.Task {
	def := model.DefaultSettings()
	return model.Task{
		Date:         date,
		StartTime:    "10:00",
		EndTime:      "11:00",
		Code:         def.Codes[0],
		Channel:      def.Channels[0],
		Type:         def.Types[0],
		Action:       "site visit",
		Participants: participants,
		Status:       model.StatusPending,
	}
}
