package taskform

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskplanner/internal/conflict"
	"github.com/nhle/taskplanner/internal/model"
	"github.com/nhle/taskplanner/internal/theme"
)

// SubmitMsg is dispatched when the form is completed. EditID is empty for
// a new task. Force is set when the user confirmed saving over conflicts.
type SubmitMsg struct {
	Task   model.Task
	EditID string
	Force  bool
}

// CancelMsg is dispatched when the user cancels the form.
type CancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	date         string
	start        string
	end          string
	code         string
	channel      string
	kind         string
	action       string
	participants []string
	status       model.Status
	force        bool
}

// Model is the Bubble Tea model for the task create/edit form.
type Model struct {
	form      *huh.Form
	fb        *formBindings
	editMode  bool
	editID    string
	conflicts []model.Task
	settings  model.Settings
	users     []string
	width     int
	height    int
}

// New creates a new task form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{status: model.StatusPending},
		width:  width,
		height: height,
	}
}

// SetOptions sets the allowed classification values and the roster.
func (m *Model) SetOptions(s model.Settings, users []string) {
	m.settings = s
	m.users = users
}

// StartCreate initializes the form for a new task on date.
func (m *Model) StartCreate(date time.Time) tea.Cmd {
	m.editMode = false
	m.editID = ""
	m.conflicts = nil
	*m.fb = formBindings{
		date:   date.Format(model.DateLayout),
		status: model.StatusPending,
	}
	if len(m.settings.Codes) > 0 {
		m.fb.code = m.settings.Codes[0]
	}
	if len(m.settings.Channels) > 0 {
		m.fb.channel = m.settings.Channels[0]
	}
	if len(m.settings.Types) > 0 {
		m.fb.kind = m.settings.Types[0]
	}
	m.form = m.buildForm()
	return m.form.Init()
}

// StartEdit initializes the form for editing t.
func (m *Model) StartEdit(t model.Task) tea.Cmd {
	m.editMode = true
	m.editID = t.ID
	m.conflicts = nil
	*m.fb = formBindings{
		date:         t.Date,
		start:        t.StartTime,
		end:          t.EndTime,
		code:         t.Code,
		channel:      t.Channel,
		kind:         t.Type,
		action:       t.Action,
		participants: append([]string(nil), t.Participants...),
		status:       t.Status,
	}
	m.form = m.buildForm()
	return m.form.Init()
}

// ShowConflicts switches the form to a confirmation step listing the
// conflicting tasks. Confirming resubmits with Force set.
func (m *Model) ShowConflicts(res conflict.Result) tea.Cmd {
	m.conflicts = res.ConflictingTasks
	m.fb.force = false
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save anyway?").
				Description(fmt.Sprintf("A participant already has %d task(s) then.", len(res.ConflictingTasks))).
				Affirmative("Save").
				Negative("Go back").
				Value(&m.fb.force),
		),
	).WithWidth(m.formWidth())
	return m.form.Init()
}

// Update handles messages for the task form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		if m.conflicts != nil && !m.fb.force {
			// Back to the fields with the values kept.
			m.conflicts = nil
			m.form = m.buildForm()
			return m, m.form.Init()
		}
		return m, m.submit()
	case huh.StateAborted:
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

// View renders the task form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleText := "New Task"
	if m.editMode {
		titleText = "Edit Task"
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	parts := []string{titleStyle.Render(titleText)}
	if len(m.conflicts) > 0 {
		parts = append(parts, theme.WarningStyle.Render("Conflicts with:"))
		for _, t := range m.conflicts {
			parts = append(parts, fmt.Sprintf("  %s %s %s  %s",
				t.Date, t.StartTime, t.Action, strings.Join(t.Participants, ",")))
		}
		parts = append(parts, "")
	}
	parts = append(parts, m.form.View())

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	fields := []huh.Field{
		huh.NewInput().
			Title("Date").
			Placeholder("YYYY-MM-DD").
			Value(&m.fb.date).
			Validate(validateDate),
		huh.NewInput().
			Title("Start").
			Placeholder("HH:MM (optional)").
			Value(&m.fb.start).
			Validate(validateOptionalClock),
		huh.NewInput().
			Title("End").
			Placeholder("HH:MM (optional)").
			Value(&m.fb.end).
			Validate(validateOptionalClock),
		selectField("Code", m.settings.Codes, &m.fb.code),
		selectField("Channel", m.settings.Channels, &m.fb.channel),
		selectField("Type", m.settings.Types, &m.fb.kind),
		huh.NewText().
			Title("Action").
			Placeholder("What has to be done?").
			Value(&m.fb.action).
			Validate(validateRequired("Action")),
		m.participantField(),
	}

	return huh.NewForm(
		huh.NewGroup(fields...),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

// selectField offers the allowed values. A current value that is no longer
// allowed stays selectable so editing an old task does not lose it.
func selectField(title string, allowed []string, value *string) huh.Field {
	values := append([]string(nil), allowed...)
	if *value != "" && !contains(values, *value) {
		values = append(values, *value)
	}
	opts := make([]huh.Option[string], len(values))
	for i, v := range values {
		opts[i] = huh.NewOption(v, v)
	}
	return huh.NewSelect[string]().
		Title(title).
		Options(opts...).
		Value(value).
		Validate(validateRequired(title))
}

func (m *Model) participantField() huh.Field {
	opts := make([]huh.Option[string], 0, len(m.users))
	for _, u := range m.users {
		opts = append(opts, huh.NewOption(u, u))
	}
	for _, p := range m.fb.participants {
		if !contains(m.users, p) {
			opts = append(opts, huh.NewOption(p, p))
		}
	}
	return huh.NewMultiSelect[string]().
		Title("Participants").
		Options(opts...).
		Value(&m.fb.participants).
		Validate(func(v []string) error {
			if len(v) == 0 {
				return fmt.Errorf("pick at least one participant")
			}
			return nil
		})
}

func (m Model) submit() tea.Cmd {
	t := model.Task{
		Date:         strings.TrimSpace(m.fb.date),
		StartTime:    strings.TrimSpace(m.fb.start),
		EndTime:      strings.TrimSpace(m.fb.end),
		Code:         m.fb.code,
		Channel:      m.fb.channel,
		Type:         m.fb.kind,
		Action:       strings.TrimSpace(m.fb.action),
		Participants: append([]string(nil), m.fb.participants...),
		Status:       m.fb.status,
	}
	msg := SubmitMsg{Task: t, Force: m.fb.force}
	if m.editMode {
		msg.EditID = m.editID
		msg.Task.ID = m.editID
	}
	return func() tea.Msg { return msg }
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func (m Model) formHeight() int {
	h := m.height - 4
	if h < 10 {
		h = 10
	}
	return h
}

func contains(xs []string, v string) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validateDate(s string) error {
	if _, err := time.Parse(model.DateLayout, strings.TrimSpace(s)); err != nil {
		return fmt.Errorf("use YYYY-MM-DD")
	}
	return nil
}

func validateOptionalClock(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if _, err := time.Parse(model.ClockLayout, s); err != nil {
		return fmt.Errorf("use HH:MM")
	}
	return nil
}
