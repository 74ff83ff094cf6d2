package inbox

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskplanner/internal/keys"
	"github.com/nhle/taskplanner/internal/model"
	"github.com/nhle/taskplanner/internal/theme"
)

// CloseMsg signals the parent to close the inbox.
type CloseMsg struct{}

// OpenTaskMsg asks the parent to show the task a notification is about.
type OpenTaskMsg struct {
	TaskID string
}

// UnreadCountMsg reports the number of unread notifications.
type UnreadCountMsg struct {
	Count int
}

// Store reads and acknowledges a user's notifications.
type Store interface {
	GetNotifications(ctx context.Context, user string, unreadOnly bool) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error
}

type loadedMsg struct {
	items []model.Notification
	err   error
}

type markedMsg struct {
	err error
}

// Model lists the user's notifications, newest first.
type Model struct {
	store       Store
	user        string
	keys        *keys.KeyMap
	items       []model.Notification
	unreadOnly  bool
	selectedIdx int
	statusMsg   string
	width       int
	height      int
}

// New creates an inbox for user.
func New(s Store, user string, k *keys.KeyMap, width, height int) Model {
	return Model{store: s, user: user, keys: k, width: width, height: height}
}

// Init loads the notifications.
func (m Model) Init() tea.Cmd {
	return m.Reload()
}

// Reload re-reads the notifications from the store.
func (m Model) Reload() tea.Cmd {
	s, user, unreadOnly := m.store, m.user, m.unreadOnly
	return func() tea.Msg {
		items, err := s.GetNotifications(context.Background(), user, unreadOnly)
		return loadedMsg{items: items, err: err}
	}
}

// CountUnread returns a command producing an UnreadCountMsg.
func CountUnread(s Store, user string) tea.Cmd {
	return func() tea.Msg {
		items, err := s.GetNotifications(context.Background(), user, true)
		if err != nil {
			return UnreadCountMsg{}
		}
		return UnreadCountMsg{Count: len(items)}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}
		m.items = msg.items
		if m.selectedIdx >= len(m.items) {
			m.selectedIdx = max(0, len(m.items)-1)
		}
		return m, nil

	case markedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
		}
		return m, tea.Batch(m.Reload(), CountUnread(m.store, m.user))

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return CloseMsg{} }

	case key.Matches(msg, m.keys.Down):
		if len(m.items) > 0 {
			m.selectedIdx = (m.selectedIdx + 1) % len(m.items)
		}

	case key.Matches(msg, m.keys.Up):
		if len(m.items) > 0 {
			m.selectedIdx = (m.selectedIdx + len(m.items) - 1) % len(m.items)
		}

	case msg.String() == "u":
		m.unreadOnly = !m.unreadOnly
		m.selectedIdx = 0
		return m, m.Reload()

	case msg.String() == "x":
		if n, ok := m.selected(); ok && !n.Read {
			return m, m.markRead(n.ID)
		}

	case key.Matches(msg, m.keys.Select):
		n, ok := m.selected()
		if !ok {
			return m, nil
		}
		cmds := []tea.Cmd{func() tea.Msg { return OpenTaskMsg{TaskID: n.TaskID} }}
		if !n.Read {
			cmds = append(cmds, m.markRead(n.ID))
		}
		return m, tea.Batch(cmds...)
	}
	return m, nil
}

func (m Model) selected() (model.Notification, bool) {
	if m.selectedIdx < 0 || m.selectedIdx >= len(m.items) {
		return model.Notification{}, false
	}
	return m.items[m.selectedIdx], true
}

func (m Model) markRead(id string) tea.Cmd {
	s := m.store
	return func() tea.Msg {
		return markedMsg{err: s.MarkNotificationRead(context.Background(), id)}
	}
}

// View renders the inbox.
func (m Model) View() string {
	var b strings.Builder

	title := "Notifications"
	if m.unreadOnly {
		title += " (unread)"
	}
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).MarginBottom(1)
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n\n")

	if len(m.items) == 0 {
		emptyStyle := lipgloss.NewStyle().Foreground(theme.ColorGray).Italic(true)
		b.WriteString(emptyStyle.Render("Nothing here. Reminders you receive show up in this list."))
	}

	timeStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	for i, n := range m.items {
		mark := "  "
		if !n.Read {
			mark = lipgloss.NewStyle().Foreground(theme.ColorYellow).Render("● ")
		}
		line := fmt.Sprintf("%s%s  %s", mark, timeStyle.Render(n.CreatedAt.Local().Format("01-02 15:04")), n.Title)
		if n.Body != "" {
			line += timeStyle.Render("  " + n.Body)
		}
		if i == m.selectedIdx {
			b.WriteString(theme.SelectedItemStyle.Render(line))
		} else {
			b.WriteString(theme.ListItemStyle.Render(line))
		}
		b.WriteString("\n")
	}

	if m.statusMsg != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorYellow).Italic(true).Render(m.statusMsg))
	}

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height).Render(b.String())
}

// Hints returns the key hints for the status bar.
func (m Model) Hints() string {
	return "enter open | x mark read | u unread only | esc back"
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
