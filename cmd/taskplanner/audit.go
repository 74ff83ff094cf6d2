package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nhle/taskplanner/internal/model"
)

type auditAction struct {
	use, short string
	done       string
	run        func(e *env, ctx context.Context, actor model.User, id string) (bool, error)
}

var auditActions = []auditAction{
	{
		use:   "request <id>",
		short: "Ask an admin to audit a task you take part in",
		done:  "Audit requested",
		run: func(e *env, ctx context.Context, actor model.User, id string) (bool, error) {
			return e.tasks.RequestAudit(ctx, actor, id)
		},
	},
	{
		use:   "approve <id>",
		short: "Approve a task and mark it completed (admin)",
		done:  "Task approved",
		run: func(e *env, ctx context.Context, actor model.User, id string) (bool, error) {
			return e.tasks.ApproveAudit(ctx, actor, id)
		},
	},
	{
		use:   "cancel <id>",
		short: "Withdraw an approval (admin)",
		done:  "Approval canceled",
		run: func(e *env, ctx context.Context, actor model.User, id string) (bool, error) {
			return e.tasks.CancelApproval(ctx, actor, id)
		},
	},
	{
		use:   "reopen <id>",
		short: "Move a task back in progress and clear its audit state (admin)",
		done:  "Task reopened",
		run: func(e *env, ctx context.Context, actor model.User, id string) (bool, error) {
			return e.tasks.ReopenTask(ctx, actor, id)
		},
	},
}

func auditCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Request, approve, cancel or reopen task audits",
	}
	for _, a := range auditActions {
		cmd.AddCommand(auditActionCmd(opts, a))
	}
	return cmd
}

func auditActionCmd(opts *globalOptions, a auditAction) *cobra.Command {
	return &cobra.Command{
		Use:   a.use,
		Short: a.short,
		Args:  cobra.ExactArgs(1),
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
			changed, err := a.run(e, cmd.Context(), actor, id)
			if err != nil {
				return err
			}
			if !changed {
				fmt.Fprintln(cmd.OutOrStdout(), "Task no longer exists; nothing changed")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", a.done, id)
			return nil
		},
	}
}
