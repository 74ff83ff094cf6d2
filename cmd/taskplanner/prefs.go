package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/taskplanner/internal/model"
	"github.com/nhle/taskplanner/internal/notify"
)

func prefsCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Show or change your reminder preferences",
	}
	cmd.AddCommand(prefsShowCmd(opts))
	cmd.AddCommand(prefsSetCmd(opts))
	cmd.AddCommand(prefsEnableCmd(opts))
	return cmd
}

func prefsShowCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show your reminder preference",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(opts)
			if err != nil {
				return err
			}
			defer e.Close()

			u, err := e.currentUser()
			if err != nil {
				return err
			}
			prefs, err := e.preferences(false)
			if err != nil {
				return err
			}
			pref, ok, err := prefs.Get(cmd.Context(), u.Username)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "Reminders are not set up. Run \"taskplanner prefs enable\".")
				return nil
			}
			printPreference(cmd.OutOrStdout(), pref)
			return nil
		},
	}
}

func prefsSetCmd(opts *globalOptions) *cobra.Command {
	var (
		enabled bool
		minutes int
	)
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change your reminder preference",
		Long: fmt.Sprintf(`Change whether reminders fire and how many minutes before a task starts.

Suggested lead times: %s minutes.`, joinInts(model.ReminderChoices)),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("enabled") && !cmd.Flags().Changed("minutes") {
				return fmt.Errorf("nothing to change: pass --enabled and/or --minutes")
			}

			e, err := openEnv(opts)
			if err != nil {
				return err
			}
			defer e.Close()

			u, err := e.currentUser()
			if err != nil {
				return err
			}
			prefs, err := e.preferences(false)
			if err != nil {
				return err
			}
			pref, ok, err := prefs.Get(cmd.Context(), u.Username)
			if err != nil {
				return err
			}
			if !ok {
				pref = model.DefaultPreference()
				pref.Enabled = false
			}
			if cmd.Flags().Changed("enabled") {
				pref.Enabled = enabled
			}
			if cmd.Flags().Changed("minutes") {
				pref.ReminderMinutes = minutes
			}

			perm, err := prefs.Save(cmd.Context(), u.Username, pref)
			if err != nil {
				return err
			}
			printPreference(cmd.OutOrStdout(), pref)
			if pref.Enabled && perm != notify.PermissionGranted {
				fmt.Fprintln(cmd.OutOrStdout(), warningStyle.Render("Notifications are not allowed, so reminders will not be shown."))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&enabled, "enabled", true, "turn reminders on or off")
	cmd.Flags().IntVarP(&minutes, "minutes", "m", model.DefaultReminderMinutes, "minutes before the start time")
	return cmd
}

func prefsEnableCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "enable",
		Short: "Allow notifications and turn on the default reminder",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(opts)
			if err != nil {
				return err
			}
			defer e.Close()

			u, err := e.currentUser()
			if err != nil {
				return err
			}
			prefs, err := e.preferences(false)
			if err != nil {
				return err
			}
			perm, err := prefs.Enable(cmd.Context(), u.Username)
			if err != nil {
				return err
			}
			if perm != notify.PermissionGranted {
				fmt.Fprintf(cmd.OutOrStdout(), "Notification permission is %s; preferences unchanged.\n", perm)
				return nil
			}
			printPreference(cmd.OutOrStdout(), model.DefaultPreference())
			return nil
		},
	}
}

func printPreference(w io.Writer, p model.NotificationPreference) {
	state := "off"
	if p.Enabled {
		state = "on"
	}
	fmt.Fprintf(w, "Reminders %s, %d minutes before start\n", state, p.ReminderMinutes)
}

func joinInts(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = fmt.Sprint(x)
	}
	return strings.Join(parts, ", ")
}
