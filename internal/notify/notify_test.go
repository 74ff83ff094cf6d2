package notify

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskplanner/internal/model"
)

type recorder struct {
	msgs []Message
	err  error
}

func (r *recorder) Fire(_ context.Context, msg Message) error {
	r.msgs = append(r.msgs, msg)
	return r.err
}

type fakeNotifications struct {
	created []model.Notification
}

func (f *fakeNotifications) CreateNotification(_ context.Context, n model.Notification) error {
	f.created = append(f.created, n)
	return nil
}

func testMessage() Message {
	return Message{
		Title:  "Görev Hatırlatması",
		Body:   "KK18 - site visit\nBaşlangıç: 10:00",
		TaskID: "t1",
		User:   "hia",
		At:     time.Date(2024, 3, 7, 9, 45, 0, 0, time.UTC),
	}
}

func TestGatedForwardsOnlyWhenGranted(t *testing.T) {
	ctx := context.Background()

	next := &recorder{}
	require.NoError(t, Gated{Gate: StaticGate(PermissionGranted), Next: next}.Fire(ctx, testMessage()))
	assert.Len(t, next.msgs, 1)

	denied := &recorder{}
	err := Gated{Gate: StaticGate(PermissionDenied), Next: denied}.Fire(ctx, testMessage())
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.Empty(t, denied.msgs)
}

func TestPromptGateAsksOnce(t *testing.T) {
	calls := 0
	g := NewPromptGateFunc(func(context.Context) (bool, error) {
		calls++
		return true, nil
	})

	for i := 0; i < 3; i++ {
		p, err := g.RequestPermission(context.Background())
		require.NoError(t, err)
		assert.Equal(t, PermissionGranted, p)
	}
	assert.Equal(t, 1, calls)
}

func TestPromptGateRetriesAfterError(t *testing.T) {
	calls := 0
	g := NewPromptGateFunc(func(context.Context) (bool, error) {
		calls++
		if calls == 1 {
			return false, errors.New("no tty")
		}
		return false, nil
	})

	p, err := g.RequestPermission(context.Background())
	require.Error(t, err)
	assert.Equal(t, PermissionPrompt, p)

	p, err = g.RequestPermission(context.Background())
	require.NoError(t, err)
	assert.Equal(t, PermissionDenied, p)
}

func TestMultiCallsEveryDispatcher(t *testing.T) {
	failing := &recorder{err: errors.New("boom")}
	ok := &recorder{}

	err := Multi{failing, ok}.Fire(context.Background(), testMessage())
	require.Error(t, err)
	assert.Len(t, failing.msgs, 1)
	assert.Len(t, ok.msgs, 1)
}

func TestTerminalDispatcher(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewTerminalDispatcher(&buf).Fire(context.Background(), testMessage()))

	out := buf.String()
	assert.Contains(t, out, "\a")
	assert.Contains(t, out, "Görev Hatırlatması")
	assert.Contains(t, out, "Başlangıç: 10:00")
}

func TestStoreDispatcher(t *testing.T) {
	s := &fakeNotifications{}
	require.NoError(t, StoreDispatcher{Store: s}.Fire(context.Background(), testMessage()))

	require.Len(t, s.created, 1)
	assert.Equal(t, "t1", s.created[0].TaskID)
	assert.Equal(t, "hia", s.created[0].Username)
	assert.Equal(t, "Görev Hatırlatması", s.created[0].Title)
}

func TestChannelDispatcherDropsWhenFull(t *testing.T) {
	d := NewChannelDispatcher(1)
	require.NoError(t, d.Fire(context.Background(), testMessage()))
	require.NoError(t, d.Fire(context.Background(), testMessage()))

	assert.Len(t, d.C(), 1)
}

func TestBuild(t *testing.T) {
	var buf bytes.Buffer
	m, err := Build([]string{"terminal", "store", "log"}, Deps{Out: &buf, Store: &fakeNotifications{}})
	require.NoError(t, err)
	assert.Len(t, m, 3)

	_, err = Build([]string{"pager"}, Deps{})
	assert.Error(t, err)

	_, err = Build([]string{"store"}, Deps{})
	assert.Error(t, err)

	_, err = Build([]string{"email"}, Deps{})
	assert.Error(t, err)

	mail := &recorder{}
	m, err = Build([]string{"email"}, Deps{Mail: mail})
	require.NoError(t, err)
	require.NoError(t, m.Fire(context.Background(), testMessage()))
	assert.Len(t, mail.msgs, 1)

	m, err = Build(nil, Deps{})
	require.NoError(t, err)
	assert.Len(t, m, 1)
}

func TestNewGate(t *testing.T) {
	g, err := NewGate("granted")
	require.NoError(t, err)
	assert.Equal(t, StaticGate(PermissionGranted), g)

	g, err = NewGate("")
	require.NoError(t, err)
	assert.IsType(t, &PromptGate{}, g)

	_, err = NewGate("maybe")
	assert.Error(t, err)
}

func TestSwitchGate(t *testing.T) {
	ctx := context.Background()
	g := NewSwitchGate(PermissionPrompt)
	next := &recorder{}
	d := Gated{Gate: g, Next: next}

	assert.ErrorIs(t, d.Fire(ctx, testMessage()), ErrPermissionDenied)

	g.Set(PermissionGranted)
	require.NoError(t, d.Fire(ctx, testMessage()))

	g.Set(PermissionDenied)
	assert.ErrorIs(t, d.Fire(ctx, testMessage()), ErrPermissionDenied)
	assert.Len(t, next.msgs, 1)
}
