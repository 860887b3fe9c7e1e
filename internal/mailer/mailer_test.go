package mailer

import (
	"net/smtp"
	"testing"

	"github.com/jordan-wright/email"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stablemail/go-relay/internal/config"
	"github.com/stablemail/go-relay/internal/transaction"
)

func newCapturingMailer(captured **email.Email, capturedAddr *string) *Mailer {
	m := New(config.SMTP{
		Host: "smtp.example.com",
		Port: 587,
		From: "no-reply@stablemail.io",
	})

	m.send = func(e *email.Email, addr string, _ smtp.Auth) error {
		*captured = e
		*capturedAddr = addr
		return nil
	}

	return m
}

func TestNotify(t *testing.T) {
	var captured *email.Email
	var addr string

	m := newCapturingMailer(&captured, &addr)

	err := m.Notify(t.Context(), &transaction.Transaction{
		ID:      "tx-1",
		Subject: "Lunch",
		Message: "Thanks for lunch!",
		Amount:  "12.50",
		ToRecipients: []transaction.Recipient{
			{Name: "Bob", Email: "bob@example.com"},
		},
		CcRecipients: []transaction.Recipient{
			{Name: "Carol", Email: "carol@example.com"},
		},
		TokenType: "PYUSD",
		Network:   "Ethereum Sepolia",
		TxHash:    "0xabc",
	})
	require.NoError(t, err)

	require.NotNil(t, captured)
	assert.Equal(t, "smtp.example.com:587", addr)
	assert.Equal(t, "no-reply@stablemail.io", captured.From)
	assert.Equal(t, []string{"bob@example.com"}, captured.To)
	assert.Equal(t, []string{"carol@example.com"}, captured.Cc)
	assert.Equal(t, "Lunch", captured.Subject)
	assert.Contains(t, string(captured.Text), "Thanks for lunch!")
	assert.Contains(t, string(captured.Text), "12.50 PYUSD")
	assert.Contains(t, string(captured.Text), "0xabc")
}

func TestNotifyDefaultSubject(t *testing.T) {
	var captured *email.Email
	var addr string

	m := newCapturingMailer(&captured, &addr)

	err := m.Notify(t.Context(), &transaction.Transaction{
		ID:           "tx-2",
		Amount:       "5",
		TokenType:    "PYUSD",
		ToRecipients: []transaction.Recipient{{Email: "bob@example.com"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "You received 5 PYUSD", captured.Subject)
}

func TestNotifyRequiresRecipientEmails(t *testing.T) {
	var captured *email.Email
	var addr string

	m := newCapturingMailer(&captured, &addr)

	err := m.Notify(t.Context(), &transaction.Transaction{
		ID:           "tx-3",
		ToRecipients: []transaction.Recipient{{Address: "0x2222222222222222222222222222222222222222"}},
	})
	require.Error(t, err)
	assert.Nil(t, captured)
}
