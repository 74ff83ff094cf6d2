package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskplanner/internal/model"
)

// LogDispatcher writes messages to a structured logger.
type LogDispatcher struct {
	Logger *slog.Logger
}

// Fire logs msg at info level.
func (d LogDispatcher) Fire(_ context.Context, msg Message) error {
	l := d.Logger
	if l == nil {
		l = slog.Default()
	}
	l.Info("reminder", "user", msg.User, "task_id", msg.TaskID, "title", msg.Title, "body", msg.Body)
	return nil
}

var (
	reminderTitle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F59E0B"))
	reminderBody  = lipgloss.NewStyle().Foreground(lipgloss.Color("#D1D5DB"))
)

// TerminalDispatcher rings the bell and prints the message to a writer.
type TerminalDispatcher struct {
	mu  sync.Mutex
	out io.Writer
}

// NewTerminalDispatcher returns a dispatcher writing to out.
func NewTerminalDispatcher(out io.Writer) *TerminalDispatcher {
	return &TerminalDispatcher{out: out}
}

// Fire prints msg.
func (d *TerminalDispatcher) Fire(_ context.Context, msg Message) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	line := "\a" + reminderTitle.Render(msg.Title) + "  " + reminderBody.Render(msg.Body) + "\n"
	if _, err := io.WriteString(d.out, line); err != nil {
		return fmt.Errorf("writing reminder: %w", err)
	}
	return nil
}

// NotificationCreator persists notifications.
type NotificationCreator interface {
	CreateNotification(ctx context.Context, n model.Notification) error
}

// StoreDispatcher records messages as notifications.
type StoreDispatcher struct {
	Store NotificationCreator
}

// Fire persists msg.
func (d StoreDispatcher) Fire(ctx context.Context, msg Message) error {
	return d.Store.CreateNotification(ctx, model.Notification{
		TaskID:    msg.TaskID,
		Username:  msg.User,
		Title:     msg.Title,
		Body:      msg.Body,
		CreatedAt: msg.At,
	})
}

// ChannelDispatcher hands messages to a consumer such as the TUI. Messages
// are dropped when the buffer is full.
type ChannelDispatcher struct {
	ch chan Message
}

// NewChannelDispatcher returns a dispatcher with the given buffer size.
func NewChannelDispatcher(size int) *ChannelDispatcher {
	if size < 1 {
		size = 1
	}
	return &ChannelDispatcher{ch: make(chan Message, size)}
}

// C returns the receive side.
func (d *ChannelDispatcher) C() <-chan Message {
	return d.ch
}

// Fire enqueues msg without blocking.
func (d *ChannelDispatcher) Fire(_ context.Context, msg Message) error {
	select {
	case d.ch <- msg:
	default:
	}
	return nil
}

// Multi fans a message out to every dispatcher and joins their errors.
type Multi []Dispatcher

// Fire calls every dispatcher even when an earlier one fails.
func (m Multi) Fire(ctx context.Context, msg Message) error {
	var errs []error
	for _, d := range m {
		if err := d.Fire(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Gated forwards messages only while the gate grants permission.
type Gated struct {
	Gate Gate
	Next Dispatcher
}

// Fire asks the gate and forwards msg when permission is granted.
func (g Gated) Fire(ctx context.Context, msg Message) error {
	p, err := g.Gate.RequestPermission(ctx)
	if err != nil {
		return err
	}
	if p != PermissionGranted {
		return ErrPermissionDenied
	}
	return g.Next.Fire(ctx, msg)
}

// Deps supplies the sinks that named channels resolve to.
type Deps struct {
	Logger  *slog.Logger
	Out     io.Writer
	Store   NotificationCreator
	Channel *ChannelDispatcher
	Mail    Dispatcher
}

// Build returns a Multi with one dispatcher per channel name: "log",
// "terminal", "store", "tui" or "email".
func Build(names []string, deps Deps) (Multi, error) {
	var m Multi
	for _, name := range names {
		switch name {
		case "log":
			m = append(m, LogDispatcher{Logger: deps.Logger})
		case "terminal":
			if deps.Out == nil {
				return nil, fmt.Errorf("notification channel %q needs an output", name)
			}
			m = append(m, NewTerminalDispatcher(deps.Out))
		case "store":
			if deps.Store == nil {
				return nil, fmt.Errorf("notification channel %q needs a store", name)
			}
			m = append(m, StoreDispatcher{Store: deps.Store})
		case "tui":
			if deps.Channel == nil {
				return nil, fmt.Errorf("notification channel %q needs a channel", name)
			}
			m = append(m, deps.Channel)
		case "email":
			if deps.Mail == nil {
				return nil, fmt.Errorf("notification channel %q needs a mailbox", name)
			}
			m = append(m, deps.Mail)
		default:
			return nil, fmt.Errorf("unknown notification channel %q", name)
		}
	}
	if len(m) == 0 {
		m = append(m, LogDispatcher{Logger: deps.Logger})
	}
	return m, nil
}
