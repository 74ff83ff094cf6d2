package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/spf13/cobra"

	"github.com/nhle/taskplanner/internal/api"
	"github.com/nhle/taskplanner/internal/reminder"
)

func serveCmd(opts *globalOptions) *cobra.Command {
	var (
		addr      string
		reminders bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long: `Serve the task API over HTTP. Callers name themselves with the X-User header.

Examples:
  taskplanner serve --addr :8080
  taskplanner serve --reminders`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(opts)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = e.cfg.API.Addr
			}

			prefs, err := e.preferences(true)
			if err != nil {
				e.Close()
				return err
			}
			srv := api.NewServer(api.Deps{
				Tasks:         e.tasks,
				Settings:      e.settings,
				Preferences:   prefs,
				Notifications: e.store,
				Users:         e.users,
				Logger:        e.logger,
			})
			httpServer := &http.Server{
				Addr:              addr,
				Handler:           srv.Router(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			var group *reminder.Group
			ctx, cancel := context.WithCancel(context.Background())
			if reminders {
				names, err := e.reminderUsers(nil)
				if err != nil {
					cancel()
					e.Close()
					return err
				}
				// Nobody watches the server's terminal, so reminders are stored.
				gate, err := e.gate(true)
				if err != nil {
					cancel()
					e.Close()
					return err
				}
				dispatcher, err := e.reminderDispatcher([]string{"store", "log"}, cmd.OutOrStdout(), nil, gate)
				if err != nil {
					cancel()
					e.Close()
					return err
				}
				group = reminder.NewGroup(names, dispatcher,
					reminder.WithInterval(e.reminderInterval()),
					reminder.WithLogger(e.logger),
				)
				if err := group.Start(ctx, e.store); err != nil {
					cancel()
					e.Close()
					return err
				}
			}

			go func() {
				e.logger.Info("http server listening", "addr", addr)
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					e.logger.Error("http server failed", "error", err)
					fmt.Fprintln(os.Stderr, err)
					os.Exit(1)
				}
			}()

			wait := gfshutdown.GracefulShutdown(
				context.Background(),
				shutdownTimeout,
				map[string]gfshutdown.Operation{
					"http": func(ctx context.Context) error {
						e.logger.Info("graceful shutdown initiated")
						err := httpServer.Shutdown(ctx)
						cancel()
						if group != nil {
							group.Stop()
						}
						return errors.Join(err, e.Close())
					},
				},
			)
			if code := <-wait; code != 0 {
				os.Exit(code)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default api.addr from config)")
	cmd.Flags().BoolVar(&reminders, "reminders", false, "also run the reminder scheduler for every user")
	return cmd
}
