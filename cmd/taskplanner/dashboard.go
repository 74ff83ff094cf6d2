package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nhle/taskplanner/internal/audit"
	"github.com/nhle/taskplanner/internal/model"
	"github.com/nhle/taskplanner/internal/store"
)

func dashboardCmd(opts *globalOptions) *cobra.Command {
	var (
		days   int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "dashboard [pending|completed|upcoming|calendar|mine]",
		Short: "Show task dashboards",
		Long: `Show one dashboard, or all of them when no name is given.

  pending    tasks waiting for an audit approval
  completed  approved tasks, newest first
  upcoming   your tasks in the next --days days
  calendar   every open task by date
  mine       every task you take part in`,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"pending", "completed", "upcoming", "calendar", "mine"},
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(opts)
			if err != nil {
				return err
			}
			defer e.Close()

			all, err := e.tasks.List(cmd.Context(), store.TaskFilter{})
			if err != nil {
				return err
			}

			views := []string{"pending", "upcoming", "calendar", "completed"}
			if len(args) == 1 {
				views = args[:1]
			}

			var user model.User
			for _, v := range views {
				if v == "upcoming" || v == "mine" {
					if user, err = e.currentUser(); err != nil {
						return err
					}
					break
				}
			}

			boards := make(map[string][]model.Task, len(views))
			for _, v := range views {
				switch v {
				case "pending":
					boards[v] = audit.PendingAudits(all)
				case "completed":
					boards[v] = audit.CompletedTasks(all)
				case "upcoming":
					boards[v] = audit.UpcomingTasksForUser(all, user.Username, days, time.Now())
				case "calendar":
					boards[v] = audit.TeamCalendar(all)
				case "mine":
					boards[v] = audit.TasksForUser(all, user.Username)
				default:
					return fmt.Errorf("unknown dashboard %q", v)
				}
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), boards)
			}
			out := cmd.OutOrStdout()
			for i, v := range views {
				if i > 0 {
					fmt.Fprintln(out)
				}
				fmt.Fprintln(out, headerStyle.Render(dashboardTitle(v, days)))
				printTasks(out, boards[v])
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 7, "how far ahead the upcoming board looks")
	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "output as JSON")
	return cmd
}

func dashboardTitle(name string, days int) string {
	switch name {
	case "pending":
		return "Pending audits"
	case "completed":
		return "Completed"
	case "upcoming":
		return fmt.Sprintf("Upcoming (next %d days)", days)
	case "calendar":
		return "Team calendar"
	case "mine":
		return "My tasks"
	}
	return name
}
