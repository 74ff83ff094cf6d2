package mailbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskplanner/internal/notify"
)

type fakeAppender struct {
	mailbox string
	raw     []byte
	at      time.Time
	err     error
}

func (f *fakeAppender) Append(_ context.Context, mailbox string, raw []byte, at time.Time) error {
	f.mailbox, f.raw, f.at = mailbox, raw, at
	return f.err
}

func TestComposeParse(t *testing.T) {
	at := time.Date(2025, 3, 14, 8, 45, 0, 0, time.UTC)
	raw, err := Compose(notify.Message{
		Title:  "Yaklaşan görev: Haftalık rapor",
		Body:   "2025-03-14 09:00 · PRJ-1",
		TaskID: "task-1",
		User:   "ayşe",
		At:     at,
	}, "planner@example.com", "ayse@example.com")
	require.NoError(t, err)
	assert.Regexp(t, "(?i)message-id:", string(raw))

	r, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "Yaklaşan görev: Haftalık rapor", r.Subject)
	assert.Equal(t, []string{"ayse@example.com"}, r.To)
	assert.Equal(t, "task-1", r.TaskID)
	assert.Equal(t, "2025-03-14 09:00 · PRJ-1", r.Body)
}

func TestDispatcherFire(t *testing.T) {
	app := &fakeAppender{}
	d := Dispatcher{
		Appender: app,
		From:     "planner@example.com",
		Address:  DomainAddress("example.com"),
	}
	at := time.Date(2025, 3, 14, 8, 45, 0, 0, time.UTC)

	require.NoError(t, d.Fire(context.Background(), notify.Message{Title: "t", User: "mehmet", At: at}))
	assert.Equal(t, "INBOX", app.mailbox)
	assert.Equal(t, at, app.at)

	r, err := Parse(app.raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"mehmet@example.com"}, r.To)
}

func TestDispatcherFireError(t *testing.T) {
	boom := errors.New("boom")
	d := Dispatcher{Appender: &fakeAppender{err: boom}, Mailbox: "Reminders", From: "p@example.com"}
	err := d.Fire(context.Background(), notify.Message{Title: "t", User: "a@example.com"})
	assert.ErrorIs(t, err, boom)
}

func TestDomainAddress(t *testing.T) {
	f := DomainAddress("example.com")
	assert.Equal(t, "hia@example.com", f("hia"))
	assert.Equal(t, "x@y.org", f("x@y.org"))
	assert.Equal(t, "hia", DomainAddress("")("hia"))
}
