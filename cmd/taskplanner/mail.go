package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/nhle/taskplanner/internal/credential"
	"github.com/nhle/taskplanner/internal/mailbox"
	"github.com/nhle/taskplanner/internal/notify"
)

const mailPasswordSecret = "mail-password"

func mailCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mail",
		Short: "Configure the email reminder channel",
		Long: `Reminders on the "email" channel are appended to the IMAP mailbox in
notifications.mail. The account password is kept in the system keyring.`,
	}
	cmd.AddCommand(mailLoginCmd(opts), mailCheckCmd(opts), mailTestCmd(opts))
	return cmd
}

func mailLoginCmd(opts *globalOptions) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store the mailbox password in the keyring",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if cfg.Notifications.Mail.Username == "" {
				return fmt.Errorf("notifications.mail.username is not set")
			}
			if password == "" {
				err := huh.NewInput().
					Title(fmt.Sprintf("Password for %s", cfg.Notifications.Mail.Username)).
					EchoMode(huh.EchoModePassword).
					Value(&password).
					Run()
				if err != nil {
					return err
				}
			}
			if strings.TrimSpace(password) == "" {
				return fmt.Errorf("empty password")
			}
			sess, err := opts.session()
			if err != nil {
				return err
			}
			if err := sess.SaveSecret(mailPasswordSecret, password); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Mailbox password saved")
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "password (prompted when omitted)")
	return cmd
}

func mailCheckCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Log in to the mailbox and report its size",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(opts)
			if err != nil {
				return err
			}
			defer e.Close()

			client, err := e.mailClient()
			if err != nil {
				return err
			}
			box := e.cfg.Notifications.Mail.Mailbox
			n, err := client.Check(cmd.Context(), box)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d message(s)\n", box, n)
			return nil
		},
	}
}

func mailTestCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "test <username>",
		Short: "Send a test reminder to a user's address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(opts)
			if err != nil {
				return err
			}
			defer e.Close()

			u, err := e.users.Lookup(args[0])
			if err != nil {
				return err
			}
			d, err := e.mailDispatcher()
			if err != nil {
				return err
			}
			err = d.Fire(cmd.Context(), notify.Message{
				Title: "Test reminder",
				Body:  "The email reminder channel works.",
				User:  u.Username,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Test reminder sent to %s\n", d.Address(u.Username))
			return nil
		},
	}
}

// mailClient builds the IMAP client from config and the keyring password.
func (e *env) mailClient() (*mailbox.Client, error) {
	mc := e.cfg.Notifications.Mail
	if mc.Host == "" || mc.Username == "" {
		return nil, fmt.Errorf("email channel needs notifications.mail.host and notifications.mail.username")
	}
	sess, err := e.opts.session()
	if err != nil {
		return nil, err
	}
	password, err := sess.LoadSecret(mailPasswordSecret)
	if errors.Is(err, credential.ErrNoSecret) {
		return nil, fmt.Errorf("no mailbox password: run \"taskplanner mail login\"")
	}
	if err != nil {
		return nil, err
	}
	return mailbox.NewClient(mc.Host, mc.Port, mc.Username, password, mc.TLS), nil
}

func (e *env) mailDispatcher() (mailbox.Dispatcher, error) {
	client, err := e.mailClient()
	if err != nil {
		return mailbox.Dispatcher{}, err
	}
	mc := e.cfg.Notifications.Mail
	from := mc.From
	if from == "" {
		from = mc.Username
	}
	return mailbox.Dispatcher{
		Appender: client,
		Mailbox:  mc.Mailbox,
		From:     from,
		Address:  mailbox.DomainAddress(mc.Domain),
	}, nil
}
