package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/jordan-wright/email"
	"github.com/pkg/errors"

	"github.com/stablemail/go-relay/internal/config"
	"github.com/stablemail/go-relay/internal/transaction"
	"github.com/stablemail/go-relay/internal/util"
)

// Mailer sends transaction notifications over SMTP.
type Mailer struct {
	cfg  config.SMTP
	send func(e *email.Email, addr string, auth smtp.Auth) error
}

// New creates an SMTP-backed mailer.
func New(cfg config.SMTP) *Mailer {
	return &Mailer{
		cfg: cfg,
		send: func(e *email.Email, addr string, auth smtp.Auth) error {
			return e.Send(addr, auth)
		},
	}
}

// Notify emails all recipients of a completed transaction. The message body
// carries the subject/message the sender composed plus the transfer summary.
func (m *Mailer) Notify(ctx context.Context, tx *transaction.Transaction) error {
	to := recipientEmails(tx.ToRecipients)
	if len(to) == 0 {
		return errors.New("transaction has no recipient email addresses")
	}

	e := email.NewEmail()
	e.From = m.cfg.From
	e.To = to
	e.Cc = recipientEmails(tx.CcRecipients)
	e.Bcc = recipientEmails(tx.BccRecipients)

	e.Subject = tx.Subject
	if e.Subject == "" {
		e.Subject = fmt.Sprintf("You received %s %s", tx.Amount, tx.TokenType)
	}

	var body strings.Builder
	if tx.Message != "" {
		body.WriteString(tx.Message)
		body.WriteString("\n\n")
	}
	fmt.Fprintf(&body, "%s %s was sent to you on %s.\n", tx.Amount, tx.TokenType, tx.Network)
	if tx.TxHash != "" {
		fmt.Fprintf(&body, "Transaction hash: %s\n", tx.TxHash)
	}
	e.Text = []byte(body.String())

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	if err := m.send(e, addr, auth); err != nil {
		return errors.Wrap(err, "failed to send notification email")
	}

	util.LogFromContext(ctx).Debug().
		Str("transaction_id", tx.ID).
		Int("recipients", len(to)).
		Msg("Completion notification sent")

	return nil
}

func recipientEmails(recipients []transaction.Recipient) []string {
	var out []string
	for _, r := range recipients {
		if r.Email != "" {
			out = append(out, r.Email)
		}
	}

	return out
}
