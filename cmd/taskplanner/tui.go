package main

import (
	"context"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/nhle/taskplanner/internal/app"
	"github.com/nhle/taskplanner/internal/model"
	"github.com/nhle/taskplanner/internal/notify"
	"github.com/nhle/taskplanner/internal/reminder"
	"github.com/nhle/taskplanner/internal/theme"
)

// tuiReminderBuffer bounds reminders waiting for the UI to pick them up.
const tuiReminderBuffer = 16

func tuiCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive terminal UI",
		Long: `Open the full-screen planner. Reminders for the logged-in user fire
while it runs and show up in the notification inbox.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			// The screen belongs to the UI; logs go to a file.
			if cfg.Log.File == "" {
				cfg.Log.File = filepath.Join(filepath.Dir(model.DefaultDatabasePath()), "taskplanner.log")
			}
			if err := theme.Use(cfg.Display.Theme); err != nil {
				return err
			}

			e, err := openEnvWithConfig(opts, cfg)
			if err != nil {
				return err
			}
			defer e.Close()

			user, err := e.currentUser()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			gate, err := e.tuiGate(ctx, user.Username)
			if err != nil {
				return err
			}
			ch := notify.NewChannelDispatcher(tuiReminderBuffer)
			// Store first so the inbox already holds the notification when
			// the UI receives it.
			dispatcher := notify.Gated{Gate: gate, Next: notify.Multi{notify.StoreDispatcher{Store: e.store}, ch}}
			sched := reminder.New(user.Username, dispatcher,
				reminder.WithInterval(e.reminderInterval()),
				reminder.WithLogger(e.logger),
				reminder.WithLocation(time.Local),
			)
			if err := sched.Start(ctx, e.store); err != nil {
				return err
			}
			defer sched.Stop()

			root := app.New(app.Deps{
				Tasks:         e.tasks,
				Settings:      e.settings,
				Preferences:   e.store,
				Notifications: e.store,
				Feeds:         e.store,
				Reminders:     ch.C(),
				Gate:          gate,
				User:          user,
				Users:         e.users,
				Logger:        e.logger,
			})
			defer root.Stop()

			e.logger.Info("tui started", "user", user.Username)
			_, err = tea.NewProgram(root, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
			return err
		},
	}
}

// tuiGate starts from the configured permission. A "prompt" setting counts
// as granted for a user who already has reminders on, since turning them on
// is where the question is asked.
func (e *env) tuiGate(ctx context.Context, user string) (*notify.SwitchGate, error) {
	perm, err := notify.ParsePermission(e.cfg.Notifications.Permission)
	if err != nil {
		return nil, err
	}
	if perm == notify.PermissionPrompt {
		pref, ok, err := reminder.NewPreferences(e.store, nil, e.logger).Get(ctx, user)
		if err != nil {
			return nil, err
		}
		if ok && pref.Enabled {
			perm = notify.PermissionGranted
		}
	}
	return notify.NewSwitchGate(perm), nil
}
