package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nhle/taskplanner/internal/model"
)

func loginCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "login <username>",
		Short: "Remember which user you act as",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			u, err := model.NewDirectory(cfg.Users).Lookup(args[0])
			if err != nil {
				return err
			}
			sess, err := opts.session()
			if err != nil {
				return err
			}
			if err := sess.Save(u.Username); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s)\n", u.DisplayName, u.Role)
			return nil
		},
	}
}

func logoutCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the logged-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := opts.session()
			if err != nil {
				return err
			}
			if err := sess.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func whoamiCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the acting user",
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
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s, %s)\n", u.Username, u.DisplayName, u.Role)
			return nil
		},
	}
}

func usersCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List the user roster",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, u := range model.NewDirectory(cfg.Users).Users() {
				role := string(u.Role)
				if u.IsAdmin() {
					role = headerStyle.Render(role)
				}
				fmt.Fprintf(out, "%-10s %-12s %s\n", u.Username, u.DisplayName, role)
			}
			return nil
		},
	}
}
