package submission

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wolfman30/renovation-leads/internal/leads"
	"github.com/wolfman30/renovation-leads/internal/notify"
	"github.com/wolfman30/renovation-leads/internal/observability/metrics"
	"github.com/wolfman30/renovation-leads/pkg/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Sink names used in error strings, metrics labels and span names.
const (
	SinkDatabase     = "database"
	SinkGoogleSheets = "google_sheets"
	SinkGoHighLevel  = "gohighlevel"
)

// packagePrefixes are the error prefixes of the packages behind each sink;
// the sink label replaces them in reported messages.
var packagePrefixes = map[string]string{
	SinkDatabase:     "leads: ",
	SinkGoogleSheets: "sheets: ",
	SinkGoHighLevel:  "gohighlevel: ",
}

// LeadRepository is the system of record.
type LeadRepository interface {
	Create(ctx context.Context, p *leads.Payload) (*leads.Lead, error)
	UpdateSyncStatus(ctx context.Context, id string, upd leads.SyncUpdate) error
}

// SheetAppender writes the human-readable backup row.
type SheetAppender interface {
	AppendLead(ctx context.Context, p *leads.Payload) error
}

// CRMClient pushes the lead into the CRM and returns its contact id.
type CRMClient interface {
	UpsertContact(ctx context.Context, p *leads.Payload) (string, error)
}

// Notifier is told about every captured lead after the sinks ran.
type Notifier interface {
	NotifyNewLead(ctx context.Context, lead notify.NewLead) error
}

// SyncStatus reports which sinks accepted the lead.
type SyncStatus struct {
	Database     bool `json:"database"`
	GoogleSheets bool `json:"googleSheets"`
	GoHighLevel  bool `json:"goHighLevel"`
}

// Result is the aggregate outcome of one submission.
type Result struct {
	Success      bool
	LeadID       string
	GHLContactID string
	SyncStatus   SyncStatus
	Errors       []string
}

// sinkOutcome is a sink call turned into a value.
type sinkOutcome struct {
	sink     string
	ok       bool
	err      error
	duration time.Duration
}

func (o sinkOutcome) message() string {
	if o.err == nil {
		return ""
	}
	msg := strings.TrimPrefix(o.err.Error(), packagePrefixes[o.sink])
	msg = strings.TrimPrefix(msg, o.sink+": ")
	return o.sink + ": " + msg
}

// Service fans a validated lead out to the database, the spreadsheet and the
// CRM, in that order. No sink failure stops the next sink from running.
type Service struct {
	repo     LeadRepository
	sheets   SheetAppender
	crm      CRMClient
	notifier Notifier
	metrics  *metrics.SubmissionMetrics
	tracer   trace.Tracer
	logger   *logging.Logger
	now      func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithNotifier sets the best-effort new-lead notifier.
func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

// WithMetrics sets the Prometheus collectors.
func WithMetrics(m *metrics.SubmissionMetrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithTracer overrides the global tracer.
func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithClock overrides time.Now, used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService wires the three sinks. A nil sink is treated as unavailable and
// recorded as a failure on every submission.
func NewService(repo LeadRepository, sheets SheetAppender, crm CRMClient, logger *logging.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	s := &Service{
		repo:   repo,
		sheets: sheets,
		crm:    crm,
		tracer: otel.Tracer("renovation.internal.submission"),
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var errSinkUnavailable = errors.New("not configured")

// Submit validates the payload and runs the fan-out. The only error returned
// is a *leads.ValidationError; sink failures are reported through Result.
func (s *Service) Submit(ctx context.Context, payload *leads.Payload) (*Result, error) {
	ctx, span := s.tracer.Start(ctx, "submission.submit")
	defer span.End()

	if payload != nil {
		payload.Normalize()
	}
	if err := leads.ValidatePayload(payload); err != nil {
		var source string
		if payload != nil {
			source = payload.FormSource
		}
		s.metrics.ObserveSubmission(source, "validation_error")
		span.SetStatus(codes.Error, "validation failed")
		return nil, err
	}
	span.SetAttributes(attribute.String("lead.form_source", payload.FormSource))

	result := &Result{}
	var syncErrors []string

	var lead *leads.Lead
	dbOutcome := s.run(ctx, SinkDatabase, func(ctx context.Context) error {
		if s.repo == nil {
			return errSinkUnavailable
		}
		created, err := s.repo.Create(ctx, payload)
		if err != nil {
			return err
		}
		lead = created
		return nil
	})
	result.SyncStatus.Database = dbOutcome.ok
	if lead != nil {
		result.LeadID = lead.ID
		span.SetAttributes(attribute.String("lead.id", lead.ID))
	}

	sheetsOutcome := s.run(ctx, SinkGoogleSheets, func(ctx context.Context) error {
		if s.sheets == nil {
			return errSinkUnavailable
		}
		return s.sheets.AppendLead(ctx, payload)
	})
	result.SyncStatus.GoogleSheets = sheetsOutcome.ok

	var contactID string
	crmOutcome := s.run(ctx, SinkGoHighLevel, func(ctx context.Context) error {
		if s.crm == nil {
			return errSinkUnavailable
		}
		id, err := s.crm.UpsertContact(ctx, payload)
		if err != nil {
			return err
		}
		contactID = id
		return nil
	})
	result.SyncStatus.GoHighLevel = crmOutcome.ok
	result.GHLContactID = contactID

	for _, o := range []sinkOutcome{dbOutcome, sheetsOutcome, crmOutcome} {
		if msg := o.message(); msg != "" {
			result.Errors = append(result.Errors, msg)
		}
	}
	// The record only carries the downstream sync errors.
	for _, o := range []sinkOutcome{sheetsOutcome, crmOutcome} {
		if msg := o.message(); msg != "" {
			syncErrors = append(syncErrors, msg)
		}
	}

	if lead != nil {
		upd := leads.SyncUpdate{
			SyncedToSheets: sheetsOutcome.ok,
			SyncedToGHL:    crmOutcome.ok,
			GHLContactID:   contactID,
			SyncErrors:     syncErrors,
		}
		if err := s.repo.UpdateSyncStatus(ctx, lead.ID, upd); err != nil {
			s.logger.Error("failed to record lead sync status", "lead_id", lead.ID, "error", err)
		}
	}

	result.Success = dbOutcome.ok || sheetsOutcome.ok
	if result.Success {
		s.metrics.ObserveSubmission(payload.FormSource, "success")
		s.logger.Info("lead captured",
			"lead_id", result.LeadID,
			"form_source", payload.FormSource,
			"database", result.SyncStatus.Database,
			"google_sheets", result.SyncStatus.GoogleSheets,
			"gohighlevel", result.SyncStatus.GoHighLevel,
		)
		s.notify(ctx, result, payload, syncErrors)
	} else {
		s.metrics.ObserveSubmission(payload.FormSource, "failed")
		span.SetStatus(codes.Error, "all sinks failed")
		s.logger.Error("lead capture failed on every sink", "form_source", payload.FormSource, "errors", result.Errors)
	}
	return result, nil
}

// run executes one sink call and converts its outcome into a value.
func (s *Service) run(ctx context.Context, sink string, fn func(context.Context) error) sinkOutcome {
	ctx, span := s.tracer.Start(ctx, "submission.sink."+sink)
	defer span.End()

	start := s.now()
	err := fn(ctx)
	out := sinkOutcome{sink: sink, ok: err == nil, err: err, duration: s.now().Sub(start)}

	span.SetAttributes(attribute.String("sink", sink), attribute.Bool("sink.ok", out.ok))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Warn("lead sink failed", "sink", sink, "error", err)
	}
	s.metrics.ObserveSink(sink, out.ok, out.duration.Seconds())
	return out
}

func (s *Service) notify(ctx context.Context, result *Result, payload *leads.Payload, syncErrors []string) {
	if s.notifier == nil {
		return
	}
	issues := make([]string, 0, len(syncErrors)+1)
	issues = append(issues, databaseError(result)...)
	issues = append(issues, syncErrors...)
	err := s.notifier.NotifyNewLead(ctx, notify.NewLead{
		ID:         result.LeadID,
		Payload:    *payload,
		SyncErrors: issues,
		ReceivedAt: s.now(),
	})
	if err != nil {
		s.logger.Warn("new lead notification failed", "lead_id", result.LeadID, "error", err)
	}
}

func databaseError(result *Result) []string {
	if result.SyncStatus.Database {
		return nil
	}
	for _, e := range result.Errors {
		if strings.HasPrefix(e, SinkDatabase+":") {
			return []string{e}
		}
	}
	return []string{fmt.Sprintf("%s: lead was not stored", SinkDatabase)}
}
