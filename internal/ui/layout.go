package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskplanner/internal/theme"
)

// Layout splits the terminal into header, content, an optional toast line
// and the status bar.
type Layout struct {
	Width           int
	Height          int
	HeaderHeight    int
	StatusBarHeight int
	ToastHeight     int
}

// NewLayout creates a Layout with one-line header, toast and status bar.
func NewLayout(width, height int) Layout {
	return Layout{
		Width:           width,
		Height:          height,
		HeaderHeight:    1,
		StatusBarHeight: 1,
		ToastHeight:     1,
	}
}

// ContentWidth returns the full available width.
func (l Layout) ContentWidth() int {
	return l.Width
}

// ContentHeight returns the rows left for the active view.
func (l Layout) ContentHeight() int {
	h := l.Height - l.HeaderHeight - l.StatusBarHeight - l.ToastHeight
	if h < 1 {
		return 1
	}
	return h
}

// RenderHeader renders the title on the left and right on the right, on a
// full-width bar.
func (l Layout) RenderHeader(title, right string) string {
	return l.bar(theme.HeaderStyle, theme.HeaderStyle.Render(title), theme.HeaderStyle.Render(right))
}

// RenderStatusBar renders the bottom bar with key hints.
func (l Layout) RenderStatusBar(hints string) string {
	return l.bar(theme.StatusBarStyle, theme.StatusBarStyle.Render(hints), "")
}

// RenderToast renders a one-line message, or a blank line when msg is empty.
func (l Layout) RenderToast(msg string, style lipgloss.Style) string {
	if msg == "" {
		return lipgloss.NewStyle().Width(l.Width).Render("")
	}
	return lipgloss.NewStyle().MaxWidth(l.Width).Render(style.Render(msg))
}

func (l Layout) bar(style lipgloss.Style, left, right string) string {
	gap := l.Width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}
	filler := lipgloss.NewStyle().
		Width(gap).
		Background(style.GetBackground()).
		Render("")
	return lipgloss.JoinHorizontal(lipgloss.Top, left, filler, right)
}

// RenderWithFrame stacks the header, content, toast and status bar.
func (l Layout) RenderWithFrame(header, content, toast, statusBar string) string {
	content = lipgloss.NewStyle().Height(l.ContentHeight()).MaxHeight(l.ContentHeight()).Render(content)
	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		content,
		toast,
		statusBar,
	)
}
