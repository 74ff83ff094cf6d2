package sync

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskplanner/internal/notify"
	"github.com/nhle/taskplanner/tests/testutil"
)

func recv(t *testing.T, cmd tea.Cmd) tea.Msg {
	t.Helper()
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for bridge message")
		return nil
	}
}

// until reads messages until match accepts one.
func until(t *testing.T, b *Bridge, first tea.Cmd, match func(tea.Msg) bool) tea.Msg {
	t.Helper()
	cmd := first
	for i := 0; i < 10; i++ {
		msg := recv(t, cmd)
		if match(msg) {
			return msg
		}
		cmd = b.Next()
	}
	t.Fatal("expected message never arrived")
	return nil
}

func TestBridgeDeliversFeedsAndReminders(t *testing.T) {
	s := testutil.NewTestStore(t)
	reminders := notify.NewChannelDispatcher(4)
	b := New(s, reminders.C(), nil)

	wait, err := b.Start(context.Background())
	require.NoError(t, err)
	t.Cleanup(b.Stop)

	seen := map[string]bool{}
	until(t, b, wait, func(msg tea.Msg) bool {
		switch msg.(type) {
		case TasksChangedMsg:
			seen["tasks"] = true
		case SettingsChangedMsg:
			seen["settings"] = true
		}
		return seen["tasks"] && seen["settings"]
	})

	_, err = s.CreateTask(context.Background(), testutil.NewTask("2024-03-07", "hia"))
	require.NoError(t, err)
	msg := until(t, b, b.Next(), func(msg tea.Msg) bool {
		tc, ok := msg.(TasksChangedMsg)
		return ok && len(tc.Tasks) == 1
	})
	assert.Equal(t, "hia", msg.(TasksChangedMsg).Tasks[0].Participants[0])

	require.NoError(t, reminders.Fire(context.Background(), notify.Message{Title: "Görev Hatırlatması", User: "hia"}))
	msg = until(t, b, b.Next(), func(msg tea.Msg) bool {
		_, ok := msg.(ReminderMsg)
		return ok
	})
	assert.Equal(t, "hia", msg.(ReminderMsg).Message.User)
}

func TestBridgeStop(t *testing.T) {
	s := testutil.NewTestStore(t)
	b := New(s, nil, nil)

	_, err := b.Start(context.Background())
	require.NoError(t, err)

	_, err = b.Start(context.Background())
	assert.Error(t, err, "second start is rejected")

	b.Stop()
	b.Stop()

	msg := until(t, b, b.Next(), func(msg tea.Msg) bool {
		_, ok := msg.(FeedClosedMsg)
		return ok
	})
	assert.IsType(t, FeedClosedMsg{}, msg)
}
