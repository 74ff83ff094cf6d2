package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskplanner/internal/keys"
	"github.com/nhle/taskplanner/internal/model"
	"github.com/nhle/taskplanner/internal/notify"
	"github.com/nhle/taskplanner/internal/reminder"
	"github.com/nhle/taskplanner/internal/settings"
	appsync "github.com/nhle/taskplanner/internal/sync"
	"github.com/nhle/taskplanner/internal/tasks"
	"github.com/nhle/taskplanner/internal/theme"
	"github.com/nhle/taskplanner/internal/ui"
	"github.com/nhle/taskplanner/internal/ui/command"
	"github.com/nhle/taskplanner/internal/ui/detail"
	helpview "github.com/nhle/taskplanner/internal/ui/help"
	"github.com/nhle/taskplanner/internal/ui/inbox"
	"github.com/nhle/taskplanner/internal/ui/prefs"
	"github.com/nhle/taskplanner/internal/ui/settingsmgr"
	"github.com/nhle/taskplanner/internal/ui/taskform"
	"github.com/nhle/taskplanner/internal/ui/tasklist"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewList ViewState = iota
	ViewDetail
	ViewHelp
	ViewCommand
	ViewTaskCreate
	ViewTaskEdit
	ViewSettings
	ViewPrefs
	ViewInbox
)

// Deps are the services the terminal UI works against.
type Deps struct {
	Tasks         *tasks.Service
	Settings      *settings.Service
	Preferences   reminder.PreferenceStore
	Notifications inbox.Store
	Feeds         appsync.Feeds

	// Reminders receives messages fired by the user's scheduler. May be nil.
	Reminders <-chan notify.Message

	// Gate guards the scheduler's dispatcher. Permission answers given in
	// the preference form are applied to it. May be nil.
	Gate *notify.SwitchGate

	User   model.User
	Users  *model.Directory
	Logger *slog.Logger
}

// Model is the root Bubble Tea model that manages view routing and layout
// and runs task operations against the services.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	keys         *keys.KeyMap

	tasks         *tasks.Service
	settings      *settings.Service
	preferences   reminder.PreferenceStore
	notifications inbox.Store
	bridge        *appsync.Bridge
	gate          *notify.SwitchGate
	user          model.User
	users         *model.Directory
	logger        *slog.Logger

	taskList     tasklist.Model
	detail       detail.Model
	helpView     helpview.Model
	commandView  command.Model
	taskForm     taskform.Model
	settingsView settingsmgr.Model
	prefsView    prefs.Model
	inboxView    inbox.Model

	snapshot      []model.Task
	allowed       model.Settings
	pendingDelete string
	toast         string
	toastStyle    lipgloss.Style
	unreadCount   int
	ready         bool
}

// New creates the root model. The feed bridge starts in Init.
func New(d Deps) Model {
	k := keys.DefaultKeyMap()
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return Model{
		currentView:   ViewList,
		keys:          k,
		tasks:         d.Tasks,
		settings:      d.Settings,
		preferences:   d.Preferences,
		notifications: d.Notifications,
		bridge:        appsync.New(d.Feeds, d.Reminders, logger),
		gate:          d.Gate,
		user:          d.User,
		users:         d.Users,
		logger:        logger,
		taskList:      tasklist.New(k, d.User.Username, 80, 24),
		detail:        detail.New(k, d.User, 80, 24),
		helpView:      helpview.New(k, d.User, 80, 24),
		commandView:   command.New(80, 24),
		taskForm:      taskform.New(80, 24),
		settingsView:  settingsmgr.New(d.Settings, d.User, k, 80, 24),
		prefsView:     prefs.New(d.Preferences, d.User.Username, logger, 80, 24),
		inboxView:     inbox.New(d.Notifications, d.User.Username, k, 80, 24),
		toastStyle:    theme.ToastStyle,
	}
}

// Init subscribes to the store feeds and counts unread notifications.
func (m Model) Init() tea.Cmd {
	wait, err := m.bridge.Start(context.Background())
	if err != nil {
		return func() tea.Msg { return errMsg{err: fmt.Errorf("subscribing to updates: %w", err)} }
	}
	return tea.Batch(wait, inbox.CountUnread(m.notifications, m.user.Username))
}

// Stop releases the feed subscriptions.
func (m Model) Stop() {
	m.bridge.Stop()
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w, h := m.layout.ContentWidth(), m.layout.ContentHeight()
		m.taskList.SetSize(w, h)
		m.detail.SetSize(w, h)
		m.helpView.SetSize(w, h)
		m.commandView.SetSize(w, h)
		m.taskForm.SetSize(w, h)
		m.settingsView.SetSize(w, h)
		m.prefsView.SetSize(w, h)
		m.inboxView.SetSize(w, h)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case appsync.TasksChangedMsg:
		m.snapshot = msg.Tasks
		cmds := []tea.Cmd{m.taskList.SetTasks(msg.Tasks), m.bridge.Next()}
		if m.currentView == ViewDetail && m.detail.TaskID() != "" {
			cmds = append(cmds, m.loadDetail(m.detail.TaskID()))
		}
		return m, tea.Batch(cmds...)

	case appsync.SettingsChangedMsg:
		m.allowed = msg.Settings
		m.settingsView.SetSettings(msg.Settings)
		m.taskForm.SetOptions(msg.Settings, m.users.Usernames())
		return m, m.bridge.Next()

	case appsync.ReminderMsg:
		m.showToast(reminderText(msg.Message), theme.ToastStyle)
		cmds := []tea.Cmd{m.bridge.Next(), inbox.CountUnread(m.notifications, m.user.Username)}
		if m.currentView == ViewInbox {
			cmds = append(cmds, m.inboxView.Reload())
		}
		return m, tea.Batch(cmds...)

	case appsync.FeedClosedMsg:
		return m, nil

	case inbox.UnreadCountMsg:
		m.unreadCount = msg.Count
		return m, nil

	case errMsg:
		m.showToast(msg.err.Error(), theme.ErrorStyle)
		return m, nil

	case tasklist.SelectedTaskMsg:
		return m, m.openDetail(msg.TaskID)

	case inbox.OpenTaskMsg:
		if msg.TaskID == "" {
			return m, nil
		}
		return m, m.openDetail(msg.TaskID)

	case detail.DetailLoadedMsg:
		var cmd tea.Cmd
		m.detail, cmd = m.detail.Update(msg)
		return m, cmd

	case detail.BackMsg:
		m.pendingDelete = ""
		m.currentView = ViewList
		return m, nil

	case detail.ActionMsg:
		return m, m.handleAction(msg.Action, msg.TaskID)

	case taskActionMsg:
		switch {
		case msg.err != nil:
			m.showToast(msg.err.Error(), theme.ErrorStyle)
		case !msg.changed:
			m.showToast("Task no longer exists; nothing changed", theme.WarningStyle)
		default:
			m.showToast(actionDone(msg.action), theme.ToastStyle)
		}
		if msg.action == detail.ActionDelete && msg.err == nil && m.currentView == ViewDetail {
			m.currentView = ViewList
		}
		return m, nil

	case taskform.SubmitMsg:
		return m, m.saveTask(msg)

	case taskSavedMsg:
		if ce, ok := conflictResult(msg.err); ok {
			return m, m.taskForm.ShowConflicts(ce.Result)
		}
		if msg.err != nil {
			m.showToast(msg.err.Error(), theme.ErrorStyle)
			m.currentView = m.previousView
			return m, nil
		}
		m.showToast(fmt.Sprintf("Saved %s", msg.task.Action), theme.ToastStyle)
		return m, m.openDetail(msg.task.ID)

	case taskform.CancelMsg:
		m.currentView = m.previousView
		return m, nil

	case settingsmgr.CloseMsg, inbox.CloseMsg, prefs.CloseMsg:
		m.currentView = ViewList
		return m, nil

	case prefs.SavedMsg:
		if msg.Err == nil {
			if msg.Asked && m.gate != nil {
				m.gate.Set(msg.Permission)
			}
			m.showToast(prefsSummary(msg), theme.ToastStyle)
		}
		var cmd tea.Cmd
		m.prefsView, cmd = m.prefsView.Update(msg)
		return m, cmd

	case command.CommandMsg:
		m.currentView = m.previousView
		return m, m.executeCommand(string(msg))

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, m.quit()
		}
		if !m.capturesText() {
			m.toast = ""
			if mdl, cmd, ok := m.handleGlobalKey(msg); ok {
				return mdl, cmd
			}
		}
	}

	// Delegate to active sub-view
	return m.updateActiveView(msg)
}

// capturesText reports whether the active view owns every key press.
func (m Model) capturesText() bool {
	switch m.currentView {
	case ViewTaskCreate, ViewTaskEdit, ViewPrefs, ViewCommand:
		return true
	case ViewSettings:
		return m.settingsView.Editing()
	case ViewList:
		return m.taskList.Filtering()
	}
	return false
}

func (m Model) handleGlobalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.Help):
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return m, nil, true
		}
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return m, nil, true

	case key.Matches(msg, m.keys.Command):
		m.previousView = m.currentView
		m.currentView = ViewCommand
		return m, m.commandView.Focus(), true
	}

	switch m.currentView {
	case ViewHelp:
		if key.Matches(msg, m.keys.Back) {
			m.currentView = m.previousView
			return m, nil, true
		}
	case ViewList:
		return m.handleListKey(msg)
	}
	return m, nil, false
}

func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, m.quit(), true
	case key.Matches(msg, m.keys.New):
		return m, m.startCreate(), true
	case key.Matches(msg, m.keys.Settings):
		return m, m.open(ViewSettings, m.settingsView.Init()), true
	case key.Matches(msg, m.keys.Preferences):
		m.prefsView = prefs.New(m.preferences, m.user.Username, m.logger, m.layout.ContentWidth(), m.layout.ContentHeight())
		return m, m.open(ViewPrefs, m.prefsView.Init()), true
	case key.Matches(msg, m.keys.Notifications):
		return m, m.open(ViewInbox, m.inboxView.Init()), true
	}

	t, ok := m.taskList.SelectedTask()
	if !ok {
		return m, nil, false
	}
	for _, a := range []struct {
		b      key.Binding
		action detail.Action
	}{
		{m.keys.Edit, detail.ActionEdit},
		{m.keys.Delete, detail.ActionDelete},
		{m.keys.RequestAudit, detail.ActionRequestAudit},
		{m.keys.Approve, detail.ActionApprove},
		{m.keys.CancelApproval, detail.ActionCancelApproval},
		{m.keys.Reopen, detail.ActionReopen},
	} {
		if key.Matches(msg, a.b) {
			return m, m.handleAction(a.action, t.ID), true
		}
	}
	return m, nil, false
}

// handleAction routes a task action. Deleting asks for the key twice.
func (m *Model) handleAction(a detail.Action, id string) tea.Cmd {
	if a != detail.ActionDelete {
		m.pendingDelete = ""
	}
	switch a {
	case detail.ActionEdit:
		t, ok := m.findTask(id)
		if !ok {
			m.showToast("Task no longer exists", theme.WarningStyle)
			return nil
		}
		m.previousView = m.currentView
		m.currentView = ViewTaskEdit
		m.taskForm.SetOptions(m.allowed, m.users.Usernames())
		return m.taskForm.StartEdit(t)

	case detail.ActionDelete:
		if m.pendingDelete != id {
			m.pendingDelete = id
			m.showToast("Press d again to delete this task", theme.WarningStyle)
			return nil
		}
		m.pendingDelete = ""
	}
	return m.runAction(a, id)
}

func (m *Model) startCreate() tea.Cmd {
	m.previousView = m.currentView
	m.currentView = ViewTaskCreate
	m.taskForm.SetOptions(m.allowed, m.users.Usernames())
	return m.taskForm.StartCreate(time.Now())
}

func (m *Model) openDetail(id string) tea.Cmd {
	m.pendingDelete = ""
	if m.currentView != ViewDetail {
		m.previousView = m.currentView
	}
	m.currentView = ViewDetail
	m.detail.Show(id)
	return m.loadDetail(id)
}

func (m *Model) open(v ViewState, init tea.Cmd) tea.Cmd {
	m.previousView = m.currentView
	m.currentView = v
	return init
}

func (m Model) findTask(id string) (model.Task, bool) {
	for _, t := range m.snapshot {
		if t.ID == id {
			return t, true
		}
	}
	return model.Task{}, false
}

func (m *Model) showToast(text string, style lipgloss.Style) {
	m.toast = text
	m.toastStyle = style
}

func (m Model) quit() tea.Cmd {
	m.bridge.Stop()
	return tea.Quit
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewList:
		m.taskList, cmd = m.taskList.Update(msg)
	case ViewDetail:
		m.detail, cmd = m.detail.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		if k, ok := msg.(tea.KeyMsg); ok && key.Matches(k, m.keys.Back) {
			m.currentView = m.previousView
			return m, nil
		}
		m.commandView, cmd = m.commandView.Update(msg)
	case ViewTaskCreate, ViewTaskEdit:
		m.taskForm, cmd = m.taskForm.Update(msg)
	case ViewSettings:
		m.settingsView, cmd = m.settingsView.Update(msg)
	case ViewPrefs:
		m.prefsView, cmd = m.prefsView.Update(msg)
	case ViewInbox:
		m.inboxView, cmd = m.inboxView.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	title := fmt.Sprintf("Task Planner · %s", m.user.Username)
	if m.user.IsAdmin() {
		title += " (admin)"
	}
	right := ""
	if m.unreadCount > 0 {
		right = fmt.Sprintf("%d unread", m.unreadCount)
	}

	header := m.layout.RenderHeader(title, right)
	toast := m.layout.RenderToast(m.toast, m.toastStyle)
	statusBar := m.layout.RenderStatusBar(m.keyHints())
	return m.layout.RenderWithFrame(header, m.renderContent(), toast, statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewList:
		return m.taskList.View()
	case ViewDetail:
		return m.detail.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	case ViewTaskCreate, ViewTaskEdit:
		return m.taskForm.View()
	case ViewSettings:
		return m.settingsView.View()
	case ViewPrefs:
		return m.prefsView.View()
	case ViewInbox:
		return m.inboxView.View()
	default:
		return ""
	}
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return "enter execute | tab complete | esc back"
	case ViewDetail:
		return m.detail.Hints()
	case ViewTaskCreate, ViewTaskEdit, ViewPrefs:
		return "enter next | shift+tab previous | esc cancel"
	case ViewSettings:
		return m.settingsView.Hints()
	case ViewInbox:
		return m.inboxView.Hints()
	default:
		return "q quit | ? help | : command | tab board | n new | / search | N inbox"
	}
}

// executeCommand handles a command string from the command palette.
func (m *Model) executeCommand(cmd string) tea.Cmd {
	fields := strings.Fields(strings.ToLower(cmd))
	if len(fields) == 0 {
		return nil
	}
	switch fields[0] {
	case "quit", "q":
		return m.quit()
	case "new":
		return m.startCreate()
	case "settings":
		return m.open(ViewSettings, m.settingsView.Init())
	case "reminders", "prefs":
		m.prefsView = prefs.New(m.preferences, m.user.Username, m.logger, m.layout.ContentWidth(), m.layout.ContentHeight())
		return m.open(ViewPrefs, m.prefsView.Init())
	case "notifications", "inbox":
		return m.open(ViewInbox, m.inboxView.Init())
	case "help":
		return m.open(ViewHelp, nil)
	case "board":
		if len(fields) < 2 {
			m.showToast("usage: board <all|mine|upcoming|pending|completed|calendar>", theme.WarningStyle)
			return nil
		}
		b, ok := tasklist.ParseBoard(fields[1])
		if !ok {
			m.showToast(fmt.Sprintf("unknown board %q", fields[1]), theme.WarningStyle)
			return nil
		}
		m.currentView = ViewList
		return m.taskList.SetBoard(b)
	}
	m.showToast(fmt.Sprintf("unknown command %q", cmd), theme.WarningStyle)
	return nil
}

func reminderText(msg notify.Message) string {
	if msg.Body == "" {
		return "⏰ " + msg.Title
	}
	return fmt.Sprintf("⏰ %s: %s", msg.Title, msg.Body)
}

func prefsSummary(msg prefs.SavedMsg) string {
	if !msg.Preference.Enabled {
		return "Reminders off"
	}
	if msg.Asked && msg.Permission != notify.PermissionGranted {
		return "Reminders saved, but notifications are not allowed"
	}
	return fmt.Sprintf("Reminders on, %d minutes before", msg.Preference.ReminderMinutes)
}
