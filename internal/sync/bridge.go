// Package sync carries store feeds and fired reminders into the Bubble Tea
// runtime.
package sync

import (
	"context"
	"fmt"
	"log/slog"
	gosync "sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/taskplanner/internal/model"
	"github.com/nhle/taskplanner/internal/notify"
)

// TasksChangedMsg carries the full task list after a committed write.
type TasksChangedMsg struct {
	Tasks []model.Task
}

// SettingsChangedMsg carries the allowed value lists after a change.
type SettingsChangedMsg struct {
	Settings model.Settings
}

// ReminderMsg carries a reminder that was just fired for the user.
type ReminderMsg struct {
	Message notify.Message
}

// FeedClosedMsg is sent once when every feed has closed.
type FeedClosedMsg struct{}

// Feeds is the subset of the store the bridge subscribes to.
type Feeds interface {
	SubscribeTasks(ctx context.Context) (<-chan []model.Task, error)
	SubscribeSettings(ctx context.Context) (<-chan model.Settings, error)
}

// Bridge merges the task feed, the settings feed and an optional reminder
// channel into a single stream of tea.Msgs. Consumers call Next after
// handling each message to keep listening.
type Bridge struct {
	feeds     Feeds
	reminders <-chan notify.Message
	logger    *slog.Logger

	out    chan tea.Msg
	cancel context.CancelFunc
	wg     gosync.WaitGroup
	mu     gosync.Mutex
}

// New creates a bridge. reminders may be nil.
func New(feeds Feeds, reminders <-chan notify.Message, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{
		feeds:     feeds,
		reminders: reminders,
		logger:    logger,
		out:       make(chan tea.Msg, 16),
	}
}

// Start subscribes to the feeds and returns the first wait command.
func (b *Bridge) Start(ctx context.Context) (tea.Cmd, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cancel != nil {
		return nil, fmt.Errorf("bridge already started")
	}

	ctx, cancel := context.WithCancel(ctx)
	tasks, err := b.feeds.SubscribeTasks(ctx)
	if err != nil {
		cancel()
		return nil, err
	}
	settings, err := b.feeds.SubscribeSettings(ctx)
	if err != nil {
		cancel()
		return nil, err
	}
	b.cancel = cancel

	forward(b, ctx, tasks, func(ts []model.Task) tea.Msg { return TasksChangedMsg{Tasks: ts} })
	forward(b, ctx, settings, func(s model.Settings) tea.Msg { return SettingsChangedMsg{Settings: s} })
	if b.reminders != nil {
		forward(b, ctx, b.reminders, func(m notify.Message) tea.Msg { return ReminderMsg{Message: m} })
	}

	go func() {
		b.wg.Wait()
		close(b.out)
	}()

	return b.Next(), nil
}

// forward copies values from in to the output until in closes or ctx ends.
func forward[T any](b *Bridge, ctx context.Context, in <-chan T, wrap func(T) tea.Msg) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case v, ok := <-in:
				if !ok {
					return
				}
				select {
				case b.out <- wrap(v):
				case <-ctx.Done():
					return
				}
			}
		}
	}()
}

// Next returns a command that waits for the next message.
func (b *Bridge) Next() tea.Cmd {
	out := b.out
	return func() tea.Msg {
		msg, ok := <-out
		if !ok {
			return FeedClosedMsg{}
		}
		return msg
	}
}

// Stop cancels the subscriptions. It is safe to call more than once.
func (b *Bridge) Stop() {
	b.mu.Lock()
	cancel := b.cancel
	b.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	b.wg.Wait()
	b.logger.Debug("feed bridge stopped")
}
