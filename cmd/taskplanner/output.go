package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/nhle/taskplanner/internal/conflict"
	"github.com/nhle/taskplanner/internal/model"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	warningStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func taskTable(ts []model.Task) *table.Table {
	rows := make([][]string, 0, len(ts))
	for _, t := range ts {
		rows = append(rows, []string{
			shortID(t.ID),
			t.Date,
			timeRange(t),
			t.Code,
			t.Channel,
			t.Type,
			truncate(t.Action, 32),
			strings.Join(t.Participants, ","),
			string(t.Status),
			auditMark(t),
		})
	}
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Headers("ID", "DATE", "TIME", "CODE", "CHANNEL", "TYPE", "ACTION", "PARTICIPANTS", "STATUS", "AUDIT").
		Rows(rows...)
}

func printTasks(w io.Writer, ts []model.Task) {
	if len(ts) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No tasks."))
		return
	}
	fmt.Fprintln(w, taskTable(ts))
}

func printTask(w io.Writer, t model.Task, events []model.TaskEvent) {
	field := func(name, value string) {
		if value == "" {
			value = mutedStyle.Render("-")
		}
		fmt.Fprintf(w, "%s %s\n", headerStyle.Render(fmt.Sprintf("%-14s", name)), value)
	}
	field("ID", t.ID)
	field("Date", t.Date)
	field("Time", timeRange(t))
	field("Code", t.Code)
	field("Channel", t.Channel)
	field("Type", t.Type)
	field("Action", t.Action)
	field("Participants", strings.Join(t.Participants, ", "))
	field("Status", fmt.Sprintf("%s (%s)", t.Status, t.Status.Label()))
	field("Audit", auditSummary(t))
	field("Version", fmt.Sprintf("%d", t.Version))

	if len(events) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, headerStyle.Render("History"))
	for _, e := range events {
		fmt.Fprintf(w, "  %s  %-18s %s\n", e.At.Local().Format("2006-01-02 15:04"), e.Kind, e.Actor)
	}
}

func printConflicts(w io.Writer, res conflict.Result) {
	if !res.HasConflict {
		fmt.Fprintln(w, "No conflicts.")
		return
	}
	fmt.Fprintln(w, warningStyle.Render(fmt.Sprintf("%d conflicting task(s):", len(res.ConflictingTasks))))
	printTasks(w, res.ConflictingTasks)
}

func timeRange(t model.Task) string {
	switch {
	case t.StartTime == "" && t.EndTime == "":
		return ""
	case t.EndTime == "":
		return t.StartTime
	}
	return t.StartTime + "-" + t.EndTime
}

func auditMark(t model.Task) string {
	switch {
	case t.IsApproved():
		return "approved"
	case t.AuditRequest:
		return "requested"
	}
	return ""
}

func auditSummary(t model.Task) string {
	switch {
	case t.IsApproved():
		s := "approved by " + t.AuditApprovedBy
		if t.AuditApprovedAt != nil {
			s += " at " + t.AuditApprovedAt.Local().Format("2006-01-02 15:04")
		}
		return s
	case t.AuditRequest:
		return "requested by " + t.AuditRequestedBy
	}
	return ""
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
