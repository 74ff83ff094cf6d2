package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/spf13/cobra"

	"github.com/nhle/taskplanner/internal/notify"
	"github.com/nhle/taskplanner/internal/reminder"
	"github.com/nhle/taskplanner/internal/store"
)

const shutdownTimeout = 15 * time.Second

func remindCmd(opts *globalOptions) *cobra.Command {
	var (
		users    []string
		channels []string
		once     bool
	)
	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Run the reminder daemon",
		Long: `Watch the task list and fire a reminder when a task's start time minus
the user's lead time passes.

Examples:
  taskplanner remind
  taskplanner remind --users ayşe,mehmet --channels terminal
  taskplanner remind --once`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(opts)
			if err != nil {
				return err
			}

			names, err := e.reminderUsers(users)
			if err != nil {
				e.Close()
				return err
			}
			if len(channels) == 0 {
				channels = e.cfg.Notifications.Channels
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			gate, err := e.daemonGate(ctx, cmd.ErrOrStderr())
			if err != nil {
				e.Close()
				return err
			}
			dispatcher, err := e.reminderDispatcher(channels, cmd.OutOrStdout(), nil, gate)
			if err != nil {
				e.Close()
				return err
			}

			group := reminder.NewGroup(names, dispatcher,
				reminder.WithInterval(e.reminderInterval()),
				reminder.WithLogger(e.logger),
				reminder.WithLocation(time.Local),
			)

			if once {
				defer e.Close()
				return runOnce(cmd, e, group)
			}

			ctx, cancel := context.WithCancel(ctx)
			if err := group.Start(ctx, e.store); err != nil {
				cancel()
				e.Close()
				return err
			}
			e.logger.Info("reminder daemon running", "users", strings.Join(names, ","), "channels", strings.Join(channels, ","))

			wait := gfshutdown.GracefulShutdown(
				context.Background(),
				shutdownTimeout,
				map[string]gfshutdown.Operation{
					"reminders": func(ctx context.Context) error {
						e.logger.Info("stopping reminder daemon")
						cancel()
						group.Stop()
						return e.Close()
					},
				},
			)
			if code := <-wait; code != 0 {
				os.Exit(code)
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&users, "users", nil, "users to remind (default: reminder.users from config, or everyone)")
	cmd.Flags().StringSliceVar(&channels, "channels", nil, "notification channels: terminal, store, log, email")
	cmd.Flags().BoolVar(&once, "once", false, "evaluate the last interval once and exit (for cron)")
	return cmd
}

// runOnce evaluates a single interval ending now, for cron-style use.
func runOnce(cmd *cobra.Command, e *env, group *reminder.Group) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	tasks, err := e.store.GetTasks(ctx, store.TaskFilter{})
	if err != nil {
		return err
	}
	prefs, err := e.store.GetPreferences(ctx)
	if err != nil {
		return err
	}
	now := time.Now()
	group.SetSnapshot(tasks, prefs)
	group.SetCheckpoint(now.Add(-e.reminderInterval()))
	fired := group.Tick(ctx, now)
	fmt.Fprintf(cmd.OutOrStdout(), "%d reminder(s) sent\n", fired)
	return nil
}

// errNoPermission stops the daemon when reminders may not be shown.
var errNoPermission = errors.New("notification permission not granted")

// daemonGate settles a "prompt" permission before any scheduler starts, so
// the tick loop never waits on a question. Without a terminal the prompt
// counts as denied.
func (e *env) daemonGate(ctx context.Context, stderr io.Writer) (notify.Gate, error) {
	perm, err := notify.ParsePermission(e.cfg.Notifications.Permission)
	if err != nil {
		return nil, err
	}
	if perm != notify.PermissionPrompt {
		return notify.StaticGate(perm), nil
	}
	if !e.opts.isInteractive() {
		fmt.Fprintln(stderr, "No terminal to ask for notification permission, treating it as denied.")
		fmt.Fprintln(stderr, "Set notifications.permission to granted to run reminders unattended.")
		return nil, errNoPermission
	}
	answer, err := notify.NewPromptGate().RequestPermission(ctx)
	if err != nil {
		fmt.Fprintln(stderr, "Could not ask for notification permission, treating it as denied.")
		return nil, fmt.Errorf("%w: %w", errNoPermission, err)
	}
	if answer != notify.PermissionGranted {
		fmt.Fprintln(stderr, "Reminders blocked.")
		return nil, errNoPermission
	}
	return notify.StaticGate(answer), nil
}

// reminderDispatcher fans reminders out to the named channels behind gate.
func (e *env) reminderDispatcher(
	channels []string,
	out io.Writer,
	ch *notify.ChannelDispatcher,
	gate notify.Gate,
) (notify.Dispatcher, error) {
	deps := notify.Deps{
		Logger:  e.logger,
		Out:     out,
		Store:   e.store,
		Channel: ch,
	}
	if slices.Contains(channels, "email") {
		mail, err := e.mailDispatcher()
		if err != nil {
			return nil, err
		}
		deps.Mail = mail
	}
	multi, err := notify.Build(channels, deps)
	if err != nil {
		return nil, err
	}
	return notify.Gated{Gate: gate, Next: multi}, nil
}
