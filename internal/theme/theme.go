package theme

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskplanner/internal/model"
)

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue    = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen   = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow  = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed     = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorMagenta = lipgloss.AdaptiveColor{Dark: "#CC5DE8", Light: "#805AD5"}
	ColorGray    = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite   = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// Accent is the color of headers and the selection marker. Use swaps it.
var Accent lipgloss.TerminalColor = ColorBlue

// Styles shared by the views. They are rebuilt by Use.
var (
	HeaderStyle       lipgloss.Style
	StatusBarStyle    lipgloss.Style
	PanelStyle        lipgloss.Style
	ListItemStyle     lipgloss.Style
	SelectedItemStyle lipgloss.Style
	HelpStyle         lipgloss.Style
	DimmedStyle       lipgloss.Style
	ToastStyle        lipgloss.Style
	WarningStyle      lipgloss.Style
	ErrorStyle        lipgloss.Style
)

func init() {
	build()
}

// Use selects a named theme: "default" or "high-contrast".
func Use(name string) error {
	switch name {
	case "", "default":
		Accent = ColorBlue
	case "high-contrast":
		Accent = lipgloss.AdaptiveColor{Dark: "#FFFFFF", Light: "#000000"}
	default:
		return fmt.Errorf("unknown theme %q", name)
	}
	build()
	return nil
}

func build() {
	HeaderStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorWhite).
		Background(Accent).
		Padding(0, 1)

	StatusBarStyle = lipgloss.NewStyle().
		Foreground(ColorWhite).
		Background(ColorSubtle).
		Padding(0, 1)

	PanelStyle = lipgloss.NewStyle().
		Padding(1, 2).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder)

	ListItemStyle = lipgloss.NewStyle().PaddingLeft(2)

	SelectedItemStyle = lipgloss.NewStyle().
		PaddingLeft(1).
		Bold(true).
		Foreground(Accent).
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(Accent)

	HelpStyle = lipgloss.NewStyle().Foreground(ColorGray).Italic(true)
	DimmedStyle = lipgloss.NewStyle().Foreground(ColorGray)

	ToastStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorWhite).
		Background(ColorMagenta).
		Padding(0, 1)

	WarningStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorYellow)
	ErrorStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorRed)
}

// StatusStyle returns a color-coded badge style for a task status.
func StatusStyle(s model.Status) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1)

	switch s {
	case model.StatusPending:
		return base.Foreground(ColorBlue)
	case model.StatusInProgress:
		return base.Foreground(ColorYellow)
	case model.StatusAwaitingAudit:
		return base.Foreground(ColorMagenta)
	case model.StatusCompleted:
		return base.Foreground(ColorGreen)
	default:
		return base.Foreground(ColorGray)
	}
}

// AuditBadge renders the audit sub-state of t, or "" when there is none.
func AuditBadge(t model.Task) string {
	switch {
	case t.IsApproved():
		return lipgloss.NewStyle().Foreground(ColorGreen).Render("✓ " + t.AuditApprovedBy)
	case t.AuditRequest:
		return lipgloss.NewStyle().Foreground(ColorMagenta).Render("? audit")
	}
	return ""
}
