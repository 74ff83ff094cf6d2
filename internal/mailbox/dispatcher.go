package mailbox

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nhle/taskplanner/internal/notify"
)

// Appender stores a raw message in a mailbox.
type Appender interface {
	Append(ctx context.Context, mailbox string, raw []byte, at time.Time) error
}

// Dispatcher delivers reminders by appending them to a mailbox.
type Dispatcher struct {
	Appender Appender
	Mailbox  string
	From     string

	// Address maps a username to the recipient address.
	Address func(user string) string
}

// Fire composes msg and appends it.
func (d Dispatcher) Fire(ctx context.Context, msg notify.Message) error {
	to := msg.User
	if d.Address != nil {
		to = d.Address(msg.User)
	}
	raw, err := Compose(msg, d.From, to)
	if err != nil {
		return err
	}
	at := msg.At
	if at.IsZero() {
		at = time.Now()
	}
	if err := d.Appender.Append(ctx, d.mailbox(), raw, at); err != nil {
		return fmt.Errorf("mailing reminder to %s: %w", to, err)
	}
	return nil
}

func (d Dispatcher) mailbox() string {
	if d.Mailbox == "" {
		return "INBOX"
	}
	return d.Mailbox
}

// DomainAddress returns an Address func that appends @domain to usernames
// that are not already addresses.
func DomainAddress(domain string) func(string) string {
	return func(user string) string {
		if strings.Contains(user, "@") || domain == "" {
			return user
		}
		return user + "@" + domain
	}
}
