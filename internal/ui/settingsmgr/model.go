package settingsmgr

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskplanner/internal/keys"
	"github.com/nhle/taskplanner/internal/model"
	"github.com/nhle/taskplanner/internal/theme"
)

// CloseMsg signals the parent to close the settings view.
type CloseMsg struct{}

// Service edits the allowed value lists.
type Service interface {
	Get(ctx context.Context) (model.Settings, error)
	Add(ctx context.Context, actor model.User, kind model.SettingsKind, value string) (model.Settings, error)
	Remove(ctx context.Context, actor model.User, kind model.SettingsKind, value string) (model.Settings, error)
}

type mode int

const (
	modeList mode = iota
	modeForm
	modeConfirmDelete
)

var kinds = []model.SettingsKind{model.SettingsCodes, model.SettingsChannels, model.SettingsTypes}

type formBindings struct {
	value   string
	confirm bool
}

type loadedMsg struct {
	settings model.Settings
	err      error
}

type savedMsg struct {
	settings model.Settings
	status   string
	err      error
}

// Model is the Bubble Tea model for managing codes, channels and types.
type Model struct {
	mode        mode
	svc         Service
	actor       model.User
	keys        *keys.KeyMap
	settings    model.Settings
	kindIdx     int
	selectedIdx int
	form        *huh.Form
	confirmForm *huh.Form
	fb          *formBindings
	statusMsg   string
	width       int
	height      int
}

// New creates a settings manager acting as actor.
func New(svc Service, actor model.User, k *keys.KeyMap, width, height int) Model {
	return Model{
		mode:  modeList,
		svc:   svc,
		actor: actor,
		keys:  k,
		fb:    &formBindings{},
		width: width, height: height,
	}
}

// Init loads the settings.
func (m Model) Init() tea.Cmd {
	return m.load()
}

// SetSettings replaces the displayed lists, e.g. after a feed update.
func (m *Model) SetSettings(s model.Settings) {
	m.settings = s
	m.clampSelection()
}

func (m Model) kind() model.SettingsKind {
	return kinds[m.kindIdx]
}

func (m Model) values() []string {
	return m.settings.List(m.kind())
}

func (m *Model) clampSelection() {
	n := len(m.values())
	if m.selectedIdx >= n {
		m.selectedIdx = max(0, n-1)
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
		m.SetSettings(msg.settings)
		return m, nil

	case savedMsg:
		m.mode = modeList
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}
		m.statusMsg = msg.status
		m.SetSettings(msg.settings)
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case modeList:
			return m.handleListKey(msg)
		case modeForm:
			return m.updateForm(msg)
		case modeConfirmDelete:
			return m.updateConfirm(msg)
		}
		return m, nil
	}

	switch m.mode {
	case modeForm:
		return m.updateForm(msg)
	case modeConfirmDelete:
		return m.updateConfirm(msg)
	}
	return m, nil
}

func (m Model) handleListKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	values := m.values()
	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return CloseMsg{} }

	case key.Matches(msg, m.keys.NextBoard), msg.String() == "right", msg.String() == "l":
		m.kindIdx = (m.kindIdx + 1) % len(kinds)
		m.selectedIdx = 0
		return m, nil

	case key.Matches(msg, m.keys.PrevBoard), msg.String() == "left", msg.String() == "h":
		m.kindIdx = (m.kindIdx + len(kinds) - 1) % len(kinds)
		m.selectedIdx = 0
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if len(values) > 0 {
			m.selectedIdx = (m.selectedIdx + 1) % len(values)
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if len(values) > 0 {
			m.selectedIdx = (m.selectedIdx + len(values) - 1) % len(values)
		}
		return m, nil

	case key.Matches(msg, m.keys.New):
		if !m.actor.IsAdmin() {
			m.statusMsg = "Only admins can change settings"
			return m, nil
		}
		m.fb.value = ""
		m.form = m.buildForm()
		m.mode = modeForm
		return m, m.form.Init()

	case key.Matches(msg, m.keys.Delete):
		if len(values) == 0 {
			return m, nil
		}
		if !m.actor.IsAdmin() {
			m.statusMsg = "Only admins can change settings"
			return m, nil
		}
		m.fb.confirm = false
		m.confirmForm = m.buildConfirmForm(values[m.selectedIdx])
		m.mode = modeConfirmDelete
		return m, m.confirmForm.Init()
	}
	return m, nil
}

func (m Model) buildForm() *huh.Form {
	existing := m.values()
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(fmt.Sprintf("New %s value", singular(m.kind()))).
				Value(&m.fb.value).
				Validate(func(s string) error {
					s = strings.TrimSpace(s)
					if s == "" {
						return fmt.Errorf("value is required")
					}
					for _, v := range existing {
						if v == s {
							return fmt.Errorf("%q is already allowed", s)
						}
					}
					return nil
				}),
		),
	).WithWidth(m.formWidth())
}

func (m Model) buildConfirmForm(value string) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Remove %s %q?", singular(m.kind()), value)).
				Description("Existing tasks keep the value; new tasks can no longer use it.").
				Affirmative("Remove").
				Negative("Cancel").
				Value(&m.fb.confirm),
		),
	).WithWidth(m.formWidth())
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}
	switch m.form.State {
	case huh.StateCompleted:
		return m, m.save(m.svc.Add, strings.TrimSpace(m.fb.value), "Added")
	case huh.StateAborted:
		m.mode = modeList
		return m, nil
	}
	return m, cmd
}

func (m Model) updateConfirm(msg tea.Msg) (Model, tea.Cmd) {
	if m.confirmForm == nil {
		return m, nil
	}
	mdl, cmd := m.confirmForm.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.confirmForm = f
	}
	switch m.confirmForm.State {
	case huh.StateCompleted:
		values := m.values()
		if !m.fb.confirm || m.selectedIdx >= len(values) {
			m.mode = modeList
			return m, nil
		}
		return m, m.save(m.svc.Remove, values[m.selectedIdx], "Removed")
	case huh.StateAborted:
		m.mode = modeList
		return m, nil
	}
	return m, cmd
}

// View renders the settings manager.
func (m Model) View() string {
	switch m.mode {
	case modeForm:
		return m.viewForm(m.form)
	case modeConfirmDelete:
		return m.viewForm(m.confirmForm)
	default:
		return m.viewList()
	}
}

func (m Model) viewList() string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).MarginBottom(1)
	b.WriteString(titleStyle.Render("Settings"))
	b.WriteString("\n\n")

	tabs := make([]string, len(kinds))
	for i, k := range kinds {
		label := fmt.Sprintf(" %s (%d) ", k, len(m.settings.List(k)))
		if i == m.kindIdx {
			tabs[i] = theme.HeaderStyle.Render(label)
		} else {
			tabs[i] = theme.DimmedStyle.Render(label)
		}
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tabs...))
	b.WriteString("\n\n")

	values := m.values()
	if len(values) == 0 {
		emptyStyle := lipgloss.NewStyle().Foreground(theme.ColorGray).Italic(true)
		b.WriteString(emptyStyle.Render("Nothing allowed yet. Press 'n' to add a value."))
	}
	for i, v := range values {
		if i == m.selectedIdx {
			b.WriteString(theme.SelectedItemStyle.Render(v))
		} else {
			b.WriteString(theme.ListItemStyle.Render(v))
		}
		b.WriteString("\n")
	}

	if m.statusMsg != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorYellow).Italic(true).Render(m.statusMsg))
	}

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height).Render(b.String())
}

// Editing reports whether a form has keyboard focus.
func (m Model) Editing() bool {
	return m.mode != modeList
}

// Hints returns the key hints for the status bar.
func (m Model) Hints() string {
	if m.mode != modeList {
		return "enter confirm | esc cancel"
	}
	if m.actor.IsAdmin() {
		return "tab switch list | n add | d remove | esc back"
	}
	return "tab switch list | esc back"
}

func (m Model) viewForm(f *huh.Form) string {
	if f == nil {
		return ""
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(f.View())
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
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

func (m Model) load() tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		s, err := svc.Get(context.Background())
		return loadedMsg{settings: s, err: err}
	}
}

type editFunc func(ctx context.Context, actor model.User, kind model.SettingsKind, value string) (model.Settings, error)

func (m Model) save(edit editFunc, value, verb string) tea.Cmd {
	actor := m.actor
	kind := m.kind()
	return func() tea.Msg {
		s, err := edit(context.Background(), actor, kind, value)
		return savedMsg{settings: s, status: fmt.Sprintf("%s %q", verb, value), err: err}
	}
}

func singular(k model.SettingsKind) string {
	switch k {
	case model.SettingsCodes:
		return "code"
	case model.SettingsChannels:
		return "channel"
	case model.SettingsTypes:
		return "type"
	}
	return string(k)
}
