package help

import (
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskplanner/internal/keys"
	"github.com/nhle/taskplanner/internal/model"
	"github.com/nhle/taskplanner/internal/theme"
)

// Model is the help overlay view.
type Model struct {
	keys   *keys.KeyMap
	help   help.Model
	user   model.User
	width  int
	height int
}

// New creates a new help view model for user.
func New(keys *keys.KeyMap, user model.User, width, height int) Model {
	h := help.New()
	h.Width = width
	return Model{
		keys:   keys,
		help:   h,
		user:   user,
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the help view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

// View renders the help overlay.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	title := titleStyle.Render("Keyboard Shortcuts")

	m.help.Width = m.width - 4
	m.help.ShowAll = true
	helpText := m.help.View(m.keys)

	role := fmt.Sprintf("Signed in as %s (%s).", m.user.DisplayName, m.user.Role)
	if !m.user.IsAdmin() {
		role += " Creating, editing, deleting, approving and settings need an admin."
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		title,
		helpText,
		"",
		theme.HelpStyle.Render(role),
		theme.HelpStyle.Render("Commands: new, settings, reminders, notifications, board <name>, quit"),
	)

	return theme.PanelStyle.
		Width(m.width - 4).
		Height(m.height - 4).
		Render(content)
}

// SetSize updates the help view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width - 4
}
