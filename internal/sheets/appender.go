package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/wolfman30/renovation-leads/internal/leads"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

// ErrNotConfigured is returned when service account or sheet settings are missing.
var ErrNotConfigured = errors.New("sheets: google sheets credentials not configured")

// Header is the fixed column order of the leads sheet.
var Header = []string{
	"Timestamp", "Name", "Email", "Phone", "Project Type", "City", "Timeline",
	"Message", "Estimated Budget", "Company", "Business Type", "Square Footage", "Form Source",
}

// Config holds the spreadsheet target and credentials.
type Config struct {
	ServiceAccount ServiceAccount
	SpreadsheetID  string
	Range          string
	// Endpoint overrides the Sheets API base URL (tests, proxies).
	Endpoint string
	Timeout  time.Duration
}

// Appender appends one row per lead to a Google Sheet.
type Appender struct {
	svc           *gsheets.Service
	spreadsheetID string
	rng           string
	initErr       error
	now           func() time.Time
}

// NewAppender builds an appender. Configuration problems do not fail
// construction; they are returned from every AppendLead call so each
// submission records them.
func NewAppender(ctx context.Context, cfg Config) *Appender {
	a := &Appender{spreadsheetID: cfg.SpreadsheetID, rng: cfg.Range, now: time.Now}
	if a.rng == "" {
		a.rng = "Leads!A:M"
	}
	if cfg.ServiceAccount.Email == "" || cfg.ServiceAccount.PrivateKey == "" || cfg.SpreadsheetID == "" {
		a.initErr = ErrNotConfigured
		return a
	}
	if cfg.ServiceAccount.TokenURI == "" {
		cfg.ServiceAccount.TokenURI = "https://oauth2.googleapis.com/token"
	}

	pemKey, err := ParsePrivateKey(cfg.ServiceAccount.PrivateKey)
	if err != nil {
		a.initErr = err
		return a
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	ts := newTokenSource(cfg.ServiceAccount, pemKey, &http.Client{Timeout: timeout})

	opts := []option.ClientOption{option.WithTokenSource(ts)}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	svc, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		a.initErr = fmt.Errorf("sheets: failed to create service: %w", err)
		return a
	}
	a.svc = svc
	return a
}

// BuildRow renders a lead in the sheet's column order.
func BuildRow(p *leads.Payload, at time.Time) []interface{} {
	return []interface{}{
		at.UTC().Format(time.RFC3339),
		p.Name,
		p.Email,
		p.Phone,
		p.ProjectType,
		p.City,
		p.Timeline,
		p.Message,
		p.EstimatedBudget,
		p.CompanyName,
		p.BusinessType,
		p.SquareFootage,
		p.FormSource,
	}
}

// AppendLead appends the lead as a new row.
func (a *Appender) AppendLead(ctx context.Context, p *leads.Payload) error {
	if a.initErr != nil {
		return a.initErr
	}

	vr := &gsheets.ValueRange{Values: [][]interface{}{BuildRow(p, a.now())}}
	_, err := a.svc.Spreadsheets.Values.Append(a.spreadsheetID, a.rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("sheets: append failed: %w", err)
	}
	return nil
}
