// Package prefs is the reminder preference screen. Turning reminders on
// asks for notification permission in the same form.
package prefs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskplanner/internal/model"
	"github.com/nhle/taskplanner/internal/notify"
	"github.com/nhle/taskplanner/internal/reminder"
	"github.com/nhle/taskplanner/internal/theme"
)

// CloseMsg signals the parent to close the view.
type CloseMsg struct{}

// SavedMsg reports a stored preference. Asked is set when the form asked
// for notification permission; Permission then holds the answer.
type SavedMsg struct {
	Preference model.NotificationPreference
	Asked      bool
	Permission notify.Permission
	Err        error
}

type loadedMsg struct {
	pref model.NotificationPreference
	ok   bool
	err  error
}

type mode int

const (
	modeLoading mode = iota
	modeForm
	modeSaving
)

type formBindings struct {
	enabled bool
	minutes int
	allow   bool
}

// Model is the Bubble Tea model for the reminder preference form.
type Model struct {
	mode       mode
	store      reminder.PreferenceStore
	logger     *slog.Logger
	user       string
	current    model.NotificationPreference
	hasCurrent bool
	form       *huh.Form
	fb         *formBindings
	spinner    spinner.Model
	err        error
	width      int
	height     int
}

// New returns the preference screen for user.
func New(store reminder.PreferenceStore, user string, logger *slog.Logger, width, height int) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return Model{
		store:   store,
		logger:  logger,
		user:    user,
		fb:      &formBindings{},
		spinner: sp,
		width:   width,
		height:  height,
	}
}

// Init loads the stored preference.
func (m Model) Init() tea.Cmd {
	store, user := m.store, m.user
	return func() tea.Msg {
		pref, ok, err := reminder.NewPreferences(store, nil, nil).Get(context.Background(), user)
		return loadedMsg{pref: pref, ok: ok, err: err}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.current, m.hasCurrent = msg.pref, msg.ok
		*m.fb = formBindings{enabled: msg.pref.Enabled, minutes: msg.pref.ReminderMinutes}
		if !msg.ok {
			m.fb.minutes = model.DefaultReminderMinutes
		}
		m.form = m.buildForm()
		m.mode = modeForm
		return m, m.form.Init()

	case SavedMsg:
		m.mode = modeForm
		if msg.Err != nil {
			m.err = msg.Err
			m.form = m.buildForm()
			return m, m.form.Init()
		}
		m.current, m.hasCurrent = msg.Preference, true
		return m, func() tea.Msg { return CloseMsg{} }

	case spinner.TickMsg:
		if m.mode != modeSaving {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if m.mode != modeForm || m.form == nil {
		if k, ok := msg.(tea.KeyMsg); ok && k.String() == "esc" {
			return m, func() tea.Msg { return CloseMsg{} }
		}
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}
	switch m.form.State {
	case huh.StateCompleted:
		m.mode = modeSaving
		m.err = nil
		return m, tea.Batch(m.spinner.Tick, m.save())
	case huh.StateAborted:
		return m, func() tea.Msg { return CloseMsg{} }
	}
	return m, cmd
}

// turningOn reports whether the form would enable reminders that are
// currently off or missing, which is when permission is asked.
func (m Model) turningOn() bool {
	return m.fb.enabled && (!m.hasCurrent || !m.current.Enabled)
}

func (m *Model) buildForm() *huh.Form {
	choices := append([]int(nil), model.ReminderChoices...)
	found := false
	for _, c := range choices {
		if c == m.fb.minutes {
			found = true
		}
	}
	if !found {
		choices = append(choices, m.fb.minutes)
	}
	opts := make([]huh.Option[int], len(choices))
	for i, c := range choices {
		opts[i] = huh.NewOption(fmt.Sprintf("%d minutes before", c), c)
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Task reminders").
				Affirmative("On").
				Negative("Off").
				Value(&m.fb.enabled),
			huh.NewSelect[int]().
				Title("Remind me").
				Options(opts...).
				Value(&m.fb.minutes),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Allow notifications?").
				Description("Reminders are only shown when notifications are allowed.").
				Affirmative("Allow").
				Negative("Not now").
				Value(&m.fb.allow),
		).WithHideFunc(func() bool { return !m.turningOn() }),
	).WithWidth(min(max(m.width-4, 40), 80))
}

func (m Model) save() tea.Cmd {
	perm := notify.PermissionDenied
	if m.fb.allow {
		perm = notify.PermissionGranted
	}
	pref := model.NotificationPreference{Enabled: m.fb.enabled, ReminderMinutes: m.fb.minutes}
	asked := m.turningOn()
	store, user, logger := m.store, m.user, m.logger
	return func() tea.Msg {
		svc := reminder.NewPreferences(store, notify.StaticGate(perm), logger)
		granted, err := svc.Save(context.Background(), user, pref)
		return SavedMsg{Preference: pref, Asked: asked, Permission: granted, Err: err}
	}
}

// View renders the form.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).MarginBottom(1)
	parts := []string{titleStyle.Render("Reminders")}

	switch m.mode {
	case modeLoading:
		parts = append(parts, theme.DimmedStyle.Render("Loading..."))
	case modeSaving:
		parts = append(parts, m.spinner.View()+" Saving...")
	default:
		if m.form != nil {
			parts = append(parts, m.form.View())
		}
	}
	if m.err != nil {
		parts = append(parts, "", theme.ErrorStyle.Render(m.err.Error()))
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
