package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func notificationsCmd(opts *globalOptions) *cobra.Command {
	var (
		unread bool
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "notifications",
		Short: "List reminders delivered to you",
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
			ns, err := e.store.GetNotifications(cmd.Context(), u.Username, unread)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), ns)
			}
			out := cmd.OutOrStdout()
			if len(ns) == 0 {
				fmt.Fprintln(out, mutedStyle.Render("No notifications."))
				return nil
			}
			for _, n := range ns {
				mark := " "
				if !n.Read {
					mark = warningStyle.Render("•")
				}
				fmt.Fprintf(out, "%s %s  %s  %s\n", mark, shortID(n.ID),
					n.CreatedAt.Local().Format("2006-01-02 15:04"), headerStyle.Render(n.Title))
				fmt.Fprintf(out, "    %s\n", n.Body)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&unread, "unread", false, "only unread notifications")
	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "output as JSON")
	cmd.AddCommand(notificationsReadCmd(opts))
	return cmd
}

func notificationsReadCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "read <id>",
		Short: "Mark a notification as read",
		Args:  cobra.ExactArgs(1),
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
			ns, err := e.store.GetNotifications(cmd.Context(), u.Username, false)
			if err != nil {
				return err
			}
			for _, n := range ns {
				if n.ID == args[0] || shortID(n.ID) == args[0] {
					if err := e.store.MarkNotificationRead(cmd.Context(), n.ID); err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), "Marked as read")
					return nil
				}
			}
			return fmt.Errorf("notification %s not found", args[0])
		},
	}
}
