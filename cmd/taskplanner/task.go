package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/taskplanner/internal/model"
	"github.com/nhle/taskplanner/internal/store"
	"github.com/nhle/taskplanner/internal/tasks"
)

func taskCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Create, list, edit and delete tasks",
	}
	cmd.AddCommand(taskAddCmd(opts))
	cmd.AddCommand(taskListCmd(opts))
	cmd.AddCommand(taskShowCmd(opts))
	cmd.AddCommand(taskEditCmd(opts))
	cmd.AddCommand(taskDeleteCmd(opts))
	return cmd
}

// taskFields are the flags shared by add, edit and conflicts.
type taskFields struct {
	date, start, end    string
	code, channel, kind string
	action, status      string
	participants        []string
}

func (f *taskFields) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.date, "date", "d", "", "date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.start, "start", "", "start time (HH:MM)")
	cmd.Flags().StringVar(&f.end, "end", "", "end time (HH:MM)")
	cmd.Flags().StringVar(&f.code, "code", "", "task code")
	cmd.Flags().StringVar(&f.channel, "channel", "", "channel")
	cmd.Flags().StringVar(&f.kind, "type", "", "task type")
	cmd.Flags().StringVarP(&f.action, "action", "a", "", "what has to be done")
	cmd.Flags().StringSliceVarP(&f.participants, "participants", "p", nil, "participant usernames")
}

func (f *taskFields) task() (model.Task, error) {
	t := model.Task{
		Date:         f.date,
		StartTime:    f.start,
		EndTime:      f.end,
		Code:         f.code,
		Channel:      f.channel,
		Type:         f.kind,
		Action:       f.action,
		Participants: f.participants,
	}
	if f.status != "" {
		s, err := parseStatus(f.status)
		if err != nil {
			return model.Task{}, err
		}
		t.Status = s
	}
	return t, nil
}

// patch builds a TaskPatch from the flags the user actually passed. The
// status is not editable here; the audit commands own it.
func (f *taskFields) patch(cmd *cobra.Command) (model.TaskPatch, error) {
	var p model.TaskPatch
	changed := cmd.Flags().Changed
	str := func(name, v string) *string {
		if !changed(name) {
			return nil
		}
		return &v
	}
	p.Date = str("date", f.date)
	p.StartTime = str("start", f.start)
	p.EndTime = str("end", f.end)
	p.Code = str("code", f.code)
	p.Channel = str("channel", f.channel)
	p.Type = str("type", f.kind)
	p.Action = str("action", f.action)
	if changed("participants") {
		p.Participants = append([]string{}, f.participants...)
	}
	return p, nil
}

// parseStatus accepts either the stored value or its short English label,
// with dashes or spaces.
func parseStatus(s string) (model.Status, error) {
	norm := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "-", " "))
	for _, st := range model.Statuses {
		if norm == strings.ToLower(string(st)) || norm == st.Label() {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown status %q", s)
}

func taskAddCmd(opts *globalOptions) *cobra.Command {
	var (
		f     taskFields
		force bool
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a task (admin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(opts)
			if err != nil {
				return err
			}
			defer e.Close()

			actor, err := e.currentUser()
			if err != nil {
				return err
			}
			t, err := f.task()
			if err != nil {
				return err
			}
			created, err := e.tasks.Create(cmd.Context(), actor, t, force)
			if err != nil {
				return explainConflict(cmd, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created task %s\n", created.ID)
			return nil
		},
	}
	f.register(cmd)
	cmd.Flags().StringVar(&f.status, "status", "", "initial status (default pending; later changes go through audit)")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "save even when the task conflicts")
	return cmd
}

func taskListCmd(opts *globalOptions) *cobra.Command {
	var (
		from, to, participant string
		code, channel, kind   string
		status                string
		mine, asJSON          bool
		limit                 int
	)
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(opts)
			if err != nil {
				return err
			}
			defer e.Close()

			filter := store.TaskFilter{Limit: limit}
			set := func(name string, v string) *string {
				if !cmd.Flags().Changed(name) {
					return nil
				}
				return &v
			}
			filter.DateFrom = set("from", from)
			filter.DateTo = set("to", to)
			filter.Participant = set("participant", participant)
			filter.Code = set("code", code)
			filter.Channel = set("channel", channel)
			filter.Type = set("type", kind)
			if status != "" {
				s, err := parseStatus(status)
				if err != nil {
					return err
				}
				filter.Status = &s
			}
			if mine {
				u, err := e.currentUser()
				if err != nil {
					return err
				}
				filter.Participant = &u.Username
			}

			ts, err := e.tasks.List(cmd.Context(), filter)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), ts)
			}
			printTasks(cmd.OutOrStdout(), ts)
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "first date (inclusive)")
	cmd.Flags().StringVar(&to, "to", "", "last date (inclusive)")
	cmd.Flags().StringVar(&participant, "participant", "", "only tasks with this participant")
	cmd.Flags().StringVar(&code, "code", "", "filter by code")
	cmd.Flags().StringVar(&channel, "channel", "", "filter by channel")
	cmd.Flags().StringVar(&kind, "type", "", "filter by type")
	cmd.Flags().StringVar(&status, "status", "", "filter by status")
	cmd.Flags().BoolVar(&mine, "mine", false, "only tasks assigned to the acting user")
	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "output as JSON")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum results (0 for all)")
	return cmd
}

func taskShowCmd(opts *globalOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a task and its history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(opts)
			if err != nil {
				return err
			}
			defer e.Close()

			id, err := resolveTaskID(cmd.Context(), e, args[0])
			if err != nil {
				return err
			}
			t, err := e.tasks.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			events, err := e.tasks.Events(cmd.Context(), id)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), struct {
					Task   *model.Task       `json:"task"`
					Events []model.TaskEvent `json:"events"`
				}{t, events})
			}
			printTask(cmd.OutOrStdout(), *t, events)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "output as JSON")
	return cmd
}

func taskEditCmd(opts *globalOptions) *cobra.Command {
	var (
		f     taskFields
		force bool
	)
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of a task (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := f.patch(cmd)
			if err != nil {
				return err
			}
			if p.IsEmpty() {
				return fmt.Errorf("nothing to change: pass at least one field flag")
			}

			e, err := openEnv(opts)
			if err != nil {
				return err
			}
			defer e.Close()

			actor, err := e.currentUser()
			if err != nil {
				return err
			}
			id, err := resolveTaskID(cmd.Context(), e, args[0])
			if err != nil {
				return err
			}
			updated, err := e.tasks.Update(cmd.Context(), actor, id, p, force)
			if err != nil {
				return explainConflict(cmd, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated task %s (version %d)\n", updated.ID, updated.Version)
			return nil
		},
	}
	f.register(cmd)
	cmd.Flags().BoolVarP(&force, "force", "f", false, "save even when the task conflicts")
	return cmd
}

func taskDeleteCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a task (admin)",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(opts)
			if err != nil {
				return err
			}
			defer e.Close()

			actor, err := e.currentUser()
			if err != nil {
				return err
			}
			id, err := resolveTaskID(cmd.Context(), e, args[0])
			if err != nil {
				return err
			}
			if err := e.tasks.Delete(cmd.Context(), actor, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted task %s\n", id)
			return nil
		},
	}
}

func conflictsCmd(opts *globalOptions) *cobra.Command {
	var (
		f      taskFields
		id     string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "conflicts",
		Short: "Check a prospective task against the schedule",
		Long: `Check whether a task would conflict with existing ones.

Examples:
  taskplanner conflicts --date 2025-01-10 -p ayşe,mehmet
  taskplanner conflicts --date 2025-01-10 --start 09:00 --end 10:00 -p ayşe --id 3f2a`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(opts)
			if err != nil {
				return err
			}
			defer e.Close()

			candidate, err := f.task()
			if err != nil {
				return err
			}
			if id != "" {
				if candidate.ID, err = resolveTaskID(cmd.Context(), e, id); err != nil {
					return err
				}
			}
			res, err := e.tasks.CheckConflicts(cmd.Context(), candidate)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			printConflicts(cmd.OutOrStdout(), res)
			return nil
		},
	}
	f.register(cmd)
	cmd.Flags().StringVar(&id, "id", "", "ID of the task being edited, so it is not reported against itself")
	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "output as JSON")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

// explainConflict prints the conflicting tasks before returning err.
func explainConflict(cmd *cobra.Command, err error) error {
	var ce *tasks.ConflictError
	if errors.As(err, &ce) {
		printConflicts(cmd.ErrOrStderr(), ce.Result)
		return fmt.Errorf("%w (pass --force to save anyway)", err)
	}
	return err
}

// resolveTaskID expands a unique ID prefix to the full task ID.
func resolveTaskID(ctx context.Context, e *env, prefix string) (string, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return "", fmt.Errorf("task id is required")
	}
	if t, err := e.store.GetTaskByID(ctx, prefix); err == nil {
		return t.ID, nil
	}
	all, err := e.store.GetTasks(ctx, store.TaskFilter{})
	if err != nil {
		return "", err
	}
	var matches []string
	for _, t := range all {
		if strings.HasPrefix(t.ID, prefix) {
			matches = append(matches, t.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("task %s: %w", prefix, store.ErrNotFound)
	case 1:
		return matches[0], nil
	}
	return "", fmt.Errorf("task id %q is ambiguous (%d matches)", prefix, len(matches))
}
