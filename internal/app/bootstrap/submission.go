package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/prometheus/client_golang/prometheus"

	appconfig "github.com/wolfman30/renovation-leads/internal/config"
	"github.com/wolfman30/renovation-leads/internal/crm"
	"github.com/wolfman30/renovation-leads/internal/notify"
	"github.com/wolfman30/renovation-leads/internal/observability/metrics"
	"github.com/wolfman30/renovation-leads/internal/sheets"
	"github.com/wolfman30/renovation-leads/internal/submission"
	"github.com/wolfman30/renovation-leads/pkg/logging"
)

// BuildEmailSender picks the notification transport from EMAIL_PROVIDER.
// It returns nil when the chosen provider is not configured.
func BuildEmailSender(cfg *appconfig.Config, ses *sesv2.Client, logger *logging.Logger) notify.EmailSender {
	if cfg == nil {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}

	switch strings.ToLower(strings.TrimSpace(cfg.EmailProvider)) {
	case "ses":
		if ses == nil {
			logger.Warn("EMAIL_PROVIDER=ses but no SES client; notifications disabled")
			return nil
		}
		if sender := notify.NewSESSender(ses, notify.Sender{
			Email: cfg.SESFromEmail,
			Name:  cfg.EmailFromName,
		}, logger); sender != nil {
			return sender
		}
		logger.Warn("SES_FROM_EMAIL not set; notifications disabled")
		return nil
	case "log", "stub":
		return notify.NewLogSender(logger)
	case "", "sendgrid":
		if sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey: cfg.SendGridAPIKey,
			From:   notify.Sender{Email: cfg.SendGridFromEmail, Name: cfg.EmailFromName},
		}, logger); sender != nil {
			return sender
		}
		logger.Warn("SENDGRID_API_KEY not set; notifications disabled")
		return nil
	default:
		logger.Warn("unknown EMAIL_PROVIDER; notifications disabled", "provider", cfg.EmailProvider)
		return nil
	}
}

// SubmissionDeps carries the already-built collaborators of the fan-out.
type SubmissionDeps struct {
	Repo     submission.LeadRepository
	Email    notify.EmailSender
	Registry prometheus.Registerer
}

// BuildSubmissionService wires the spreadsheet and CRM sinks from config.
// Unconfigured sinks are still constructed so every submission records why
// they were skipped.
func BuildSubmissionService(ctx context.Context, cfg *appconfig.Config, deps SubmissionDeps, logger *logging.Logger) (*submission.Service, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if deps.Repo == nil {
		return nil, fmt.Errorf("bootstrap: lead repository is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if !cfg.SheetsConfigured() {
		logger.Warn("google sheets credentials missing; sheet sync will be recorded as failed")
	}
	appender := sheets.NewAppender(ctx, sheets.Config{
		ServiceAccount: sheets.ServiceAccount{
			Email:      cfg.GoogleServiceAccountEmail,
			PrivateKey: cfg.GooglePrivateKey,
			TokenURI:   cfg.GoogleTokenURI,
		},
		SpreadsheetID: cfg.GoogleSheetID,
		Range:         cfg.GoogleSheetRange,
		Endpoint:      cfg.GoogleSheetsEndpoint,
	})

	if !cfg.CRMConfigured() {
		logger.Warn("gohighlevel credentials missing; CRM sync will be recorded as failed")
	}
	crmClient := crm.New(crm.Config{
		BaseURL:    cfg.GHLBaseURL,
		APIKey:     cfg.GHLAPIKey,
		LocationID: cfg.GHLLocationID,
		Version:    cfg.GHLAPIVersion,
		Timeout:    cfg.GHLTimeout,
	})

	opts := []submission.Option{}
	if deps.Registry != nil {
		opts = append(opts, submission.WithMetrics(metrics.NewSubmissionMetrics(deps.Registry)))
	}
	if notifier := notify.NewLeadNotifier(deps.Email, cfg.NotifyEmailTo, cfg.SiteName, logger); notifier != nil {
		opts = append(opts, submission.WithNotifier(notifier))
	}

	return submission.NewService(deps.Repo, appender, crmClient, logger, opts...), nil
}
