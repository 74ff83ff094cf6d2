package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	if err := newRootCmd(&globalOptions{}).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(opts *globalOptions) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "taskplanner",
		Short:         "Team task planner with conflict checks, audits and reminders",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default ~/.config/taskplanner/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&opts.dbPath, "db", "", "database path (overrides config)")
	rootCmd.PersistentFlags().StringVarP(&opts.user, "user", "u", "", "act as this user instead of the logged-in one")

	rootCmd.AddCommand(loginCmd(opts))
	rootCmd.AddCommand(logoutCmd(opts))
	rootCmd.AddCommand(whoamiCmd(opts))
	rootCmd.AddCommand(usersCmd(opts))
	rootCmd.AddCommand(taskCmd(opts))
	rootCmd.AddCommand(conflictsCmd(opts))
	rootCmd.AddCommand(auditCmd(opts))
	rootCmd.AddCommand(dashboardCmd(opts))
	rootCmd.AddCommand(settingsCmd(opts))
	rootCmd.AddCommand(prefsCmd(opts))
	rootCmd.AddCommand(notificationsCmd(opts))
	rootCmd.AddCommand(remindCmd(opts))
	rootCmd.AddCommand(mailCmd(opts))
	rootCmd.AddCommand(serveCmd(opts))
	rootCmd.AddCommand(tuiCmd(opts))
	rootCmd.AddCommand(configCmd(opts))

	return rootCmd
}
