package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wolfman30/renovation-leads/internal/leads"
	"github.com/wolfman30/renovation-leads/pkg/logging"
)

// NewLead is the summary the submission pipeline hands to the notifier once
// every sink has been attempted.
type NewLead struct {
	ID         string
	Payload    leads.Payload
	SyncErrors []string
	ReceivedAt time.Time
}

// LeadNotifier emails the site owner whenever a lead is captured.
type LeadNotifier struct {
	email     EmailSender
	recipient string
	siteName  string
	logger    *logging.Logger
}

// NewLeadNotifier returns nil when no sender or recipient is configured so
// callers can treat a nil notifier as disabled.
func NewLeadNotifier(email EmailSender, recipient, siteName string, logger *logging.Logger) *LeadNotifier {
	if email == nil || strings.TrimSpace(recipient) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if siteName == "" {
		siteName = "Website"
	}
	return &LeadNotifier{
		email:     email,
		recipient: strings.TrimSpace(recipient),
		siteName:  siteName,
		logger:    logger,
	}
}

// NotifyNewLead sends the new-lead email. A nil notifier is a no-op.
func (n *LeadNotifier) NotifyNewLead(ctx context.Context, lead NewLead) error {
	if n == nil {
		return nil
	}

	msg := EmailMessage{
		To:          n.recipient,
		ReplyTo:     lead.Payload.Email,
		ReplyToName: lead.Payload.Name,
		Subject:     leadSubject(n.siteName, lead.Payload),
		Body:        leadBody(lead),
	}
	if err := n.email.Send(ctx, msg); err != nil {
		n.logger.Warn("new lead notification failed", "lead_id", lead.ID, "error", err)
		return fmt.Errorf("notify: new lead email: %w", err)
	}
	n.logger.Info("new lead notification sent", "lead_id", lead.ID, "form_source", lead.Payload.FormSource)
	return nil
}

func leadSubject(siteName string, p leads.Payload) string {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		name = "Unknown"
	}
	source := p.FormSource
	if source == "" {
		source = "website"
	}
	return fmt.Sprintf("[%s] New %s lead - %s", siteName, source, name)
}

func leadBody(lead NewLead) string {
	p := lead.Payload
	var b strings.Builder

	b.WriteString("A new lead was submitted.\n\n")
	line := func(label, value string) {
		if strings.TrimSpace(value) == "" {
			return
		}
		fmt.Fprintf(&b, "%s: %s\n", label, value)
	}

	line("Lead ID", lead.ID)
	line("Name", p.Name)
	line("Email", p.Email)
	line("Phone", p.Phone)
	line("Form", p.FormSource)
	line("Project Type", p.ProjectType)
	line("City", p.City)
	line("Timeline", p.Timeline)
	line("Budget", p.EstimatedBudget)
	line("Company", p.CompanyName)
	line("Business Type", p.BusinessType)
	line("Square Footage", p.SquareFootage)
	if !lead.ReceivedAt.IsZero() {
		line("Received", lead.ReceivedAt.UTC().Format(time.RFC1123))
	}
	if msg := strings.TrimSpace(p.Message); msg != "" {
		b.WriteString("\nMessage:\n")
		b.WriteString(truncate(msg, 1000))
		b.WriteString("\n")
	}
	if len(lead.SyncErrors) > 0 {
		b.WriteString("\nSync issues:\n")
		for _, e := range lead.SyncErrors {
			fmt.Fprintf(&b, "- %s\n", e)
		}
	}
	return b.String()
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
