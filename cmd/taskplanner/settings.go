package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/taskplanner/internal/model"
)

func settingsCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Manage the allowed codes, channels and types",
	}
	cmd.AddCommand(settingsListCmd(opts))
	cmd.AddCommand(settingsEditCmd(opts, "add", "Allow a new value (admin)"))
	cmd.AddCommand(settingsEditCmd(opts, "remove", "Disallow a value (admin)"))
	return cmd
}

func settingsListCmd(opts *globalOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show the allowed values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(opts)
			if err != nil {
				return err
			}
			defer e.Close()

			s, err := e.settings.Get(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), s)
			}
			out := cmd.OutOrStdout()
			for _, k := range []model.SettingsKind{model.SettingsCodes, model.SettingsChannels, model.SettingsTypes} {
				fmt.Fprintf(out, "%s %s\n", headerStyle.Render(fmt.Sprintf("%-9s", k)), strings.Join(s.List(k), ", "))
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "output as JSON")
	return cmd
}

func settingsEditCmd(opts *globalOptions, verb, short string) *cobra.Command {
	return &cobra.Command{
		Use:       verb + " <codes|channels|types> <value>",
		Short:     short,
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"codes", "channels", "types"},
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
			kind := model.SettingsKind(args[0])
			edit := e.settings.Add
			if verb == "remove" {
				edit = e.settings.Remove
			}
			s, err := edit(cmd.Context(), actor, kind, args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", kind, strings.Join(s.List(kind), ", "))
			return nil
		},
	}
}
