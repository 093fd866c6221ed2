package notify

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/wolfman30/renovation-leads/pkg/logging"
)

const defaultFromName = "Website Leads"

// ErrNoRecipient is returned when a message has no usable To address.
var ErrNoRecipient = errors.New("notify: message has no recipient")

// EmailSender delivers one message. SendGrid, SES and the log sender all
// satisfy it.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// EmailMessage is one outbound email. ReplyTo is set to the visitor's address
// on new-lead alerts so the owner can answer from their inbox.
type EmailMessage struct {
	To          string
	ToName      string
	ReplyTo     string
	ReplyToName string
	Subject     string
	Body        string // plain text
	HTML        string // optional
}

func (m EmailMessage) validate() error {
	if strings.TrimSpace(m.To) == "" {
		return ErrNoRecipient
	}
	return nil
}

// replyTo returns the reply address when it parses as an email address.
func (m EmailMessage) replyTo() (string, bool) {
	addr := strings.TrimSpace(m.ReplyTo)
	if addr == "" {
		return "", false
	}
	if _, err := mail.ParseAddress(addr); err != nil {
		return "", false
	}
	return addr, true
}

// DeliveryError reports a provider that answered but refused the message.
type DeliveryError struct {
	Provider string
	Status   int
	Detail   string
}

func (e *DeliveryError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("notify: %s rejected message (status %d)", e.Provider, e.Status)
	}
	return fmt.Sprintf("notify: %s rejected message (status %d): %s", e.Provider, e.Status, e.Detail)
}

// Sender identifies the From line shared by every provider.
type Sender struct {
	Email string
	Name  string
}

func (s Sender) withDefaults() Sender {
	s.Email = strings.TrimSpace(s.Email)
	if strings.TrimSpace(s.Name) == "" {
		s.Name = defaultFromName
	}
	return s
}

// LogSender writes messages to the log instead of delivering them. It backs
// EMAIL_PROVIDER=log for local development.
type LogSender struct {
	logger *logging.Logger
}

func NewLogSender(logger *logging.Logger) *LogSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, msg EmailMessage) error {
	if err := msg.validate(); err != nil {
		return err
	}
	s.logger.Info("email not delivered (log sender)",
		"to", msg.To,
		"reply_to", msg.ReplyTo,
		"subject", msg.Subject,
		"body_bytes", len(msg.Body),
	)
	return nil
}
