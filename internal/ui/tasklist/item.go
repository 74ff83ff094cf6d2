package tasklist

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskplanner/internal/model"
	"github.com/nhle/taskplanner/internal/theme"
)

// TaskItem wraps a model.Task so it can be used in a bubbles/list.
type TaskItem struct {
	Task model.Task
}

// FilterValue returns the string used for fuzzy filtering.
func (i TaskItem) FilterValue() string {
	t := i.Task
	return strings.Join([]string{t.Code, t.Action, t.Channel, t.Type, strings.Join(t.Participants, " ")}, " ")
}

// Title returns the action line for the list.
func (i TaskItem) Title() string { return i.Task.Action }

// Description returns a short summary line for the list.
func (i TaskItem) Description() string {
	return strings.Join([]string{i.Task.Date, timeRange(i.Task), i.Task.Code, string(i.Task.Status)}, " | ")
}

// ItemDelegate implements list.ItemDelegate for rendering task lines.
type ItemDelegate struct{}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single task line.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ti, ok := item.(TaskItem)
	if !ok {
		return
	}
	t := ti.Task

	date := lipgloss.NewStyle().Foreground(theme.ColorGray).Render(t.Date)
	clock := lipgloss.NewStyle().Foreground(theme.ColorGray).Width(11).Render(timeRange(t))
	code := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorBlue).Render(t.Code)
	status := theme.StatusStyle(t.Status).Render(string(t.Status))
	people := lipgloss.NewStyle().Foreground(theme.ColorMagenta).Render(strings.Join(t.Participants, ","))

	line := fmt.Sprintf("%s %s %s %s %s  %s", date, clock, code, t.Action, status, people)
	if badge := theme.AuditBadge(t); badge != "" {
		line += "  " + badge
	}

	if t.Status == model.StatusCompleted {
		line = theme.DimmedStyle.Render(line)
	}

	if index == m.Index() {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

func timeRange(t model.Task) string {
	switch {
	case t.StartTime == "":
		return "--:--"
	case t.EndTime == "":
		return t.StartTime
	}
	return t.StartTime + "-" + t.EndTime
}
