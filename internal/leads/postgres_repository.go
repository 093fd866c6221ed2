package leads

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores leads in the relational database.
type PostgresRepository struct {
	db db
}

// NewPostgresRepository initializes a repo backed by a pgx pool.
func NewPostgresRepository(pool db) *PostgresRepository {
	if pool == nil {
		panic("leads: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

const leadColumns = `id, name, email, phone, project_type, city, timeline, message,
	company_name, business_type, square_footage, estimated_budget, form_source,
	sms_consent_transactional, sms_consent_marketing, consent_timestamp,
	synced_to_sheets, synced_to_ghl, ghl_contact_id, sync_errors, created_at, updated_at`

// Create inserts a new row with the sync flags false.
func (r *PostgresRepository) Create(ctx context.Context, p *Payload) (*Lead, error) {
	id := uuid.New()
	query := `
		INSERT INTO leads (id, name, email, phone, project_type, city, timeline, message,
			company_name, business_type, square_footage, estimated_budget, form_source,
			sms_consent_transactional, sms_consent_marketing, consent_timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING created_at
	`
	var createdAt time.Time
	if err := r.db.QueryRow(ctx, query,
		id,
		p.Name,
		p.Email,
		p.Phone,
		p.ProjectType,
		p.City,
		p.Timeline,
		p.Message,
		p.CompanyName,
		p.BusinessType,
		p.SquareFootage,
		p.EstimatedBudget,
		p.FormSource,
		p.SMSConsentTransactional,
		p.SMSConsentMarketing,
		p.ConsentTimestamp,
	).Scan(&createdAt); err != nil {
		return nil, fmt.Errorf("leads: insert failed: %w", err)
	}

	return &Lead{
		Payload:    *p,
		ID:         id.String(),
		SyncErrors: []string{},
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	}, nil
}

// UpdateSyncStatus writes the fan-out outcome once; sync_recorded_at guards
// against a second write.
func (r *PostgresRepository) UpdateSyncStatus(ctx context.Context, id string, upd SyncUpdate) error {
	errs := upd.SyncErrors
	if errs == nil {
		errs = []string{}
	}
	var contactID *string
	if upd.GHLContactID != "" {
		contactID = &upd.GHLContactID
	}

	query := `
		UPDATE leads
		SET synced_to_sheets = $2,
			synced_to_ghl = $3,
			ghl_contact_id = $4,
			sync_errors = $5,
			sync_recorded_at = NOW(),
			updated_at = NOW()
		WHERE id = $1 AND sync_recorded_at IS NULL
	`
	tag, err := r.db.Exec(ctx, query, id, upd.SyncedToSheets, upd.SyncedToGHL, contactID, errs)
	if err != nil {
		return fmt.Errorf("leads: update sync status failed: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM leads WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("leads: lookup failed: %w", err)
	}
	if !exists {
		return ErrLeadNotFound
	}
	return ErrSyncAlreadyRecorded
}

// GetByID fetches a single lead.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Lead, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrLeadNotFound
	}
	query := `SELECT ` + leadColumns + ` FROM leads WHERE id = $1`
	lead, err := scanLead(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("leads: select failed: %w", err)
	}
	return lead, nil
}

// List returns leads newest first, optionally restricted to a form source or
// to leads still missing a downstream sync.
func (r *PostgresRepository) List(ctx context.Context, filter ListFilter) ([]*Lead, error) {
	var (
		where []string
		args  []any
	)
	if filter.FormSource != "" {
		args = append(args, filter.FormSource)
		where = append(where, fmt.Sprintf("form_source = $%d", len(args)))
	}
	if filter.Unsynced {
		where = append(where, "(synced_to_sheets = FALSE OR synced_to_ghl = FALSE)")
	}

	query := `SELECT ` + leadColumns + ` FROM leads`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit, filter.Offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("leads: list failed: %w", err)
	}
	defer rows.Close()

	out := []*Lead{}
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("leads: scan failed: %w", err)
		}
		out = append(out, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("leads: list failed: %w", err)
	}
	return out, nil
}

func scanLead(row pgx.Row) (*Lead, error) {
	var (
		lead             Lead
		consentTxn       pgtype.Bool
		consentMarketing pgtype.Bool
		consentTimestamp pgtype.Timestamptz
		ghlContactID     pgtype.Text
	)
	if err := row.Scan(
		&lead.ID,
		&lead.Name,
		&lead.Email,
		&lead.Phone,
		&lead.ProjectType,
		&lead.City,
		&lead.Timeline,
		&lead.Message,
		&lead.CompanyName,
		&lead.BusinessType,
		&lead.SquareFootage,
		&lead.EstimatedBudget,
		&lead.FormSource,
		&consentTxn,
		&consentMarketing,
		&consentTimestamp,
		&lead.SyncedToSheets,
		&lead.SyncedToGHL,
		&ghlContactID,
		&lead.SyncErrors,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if consentTxn.Valid {
		v := consentTxn.Bool
		lead.SMSConsentTransactional = &v
	}
	if consentMarketing.Valid {
		v := consentMarketing.Bool
		lead.SMSConsentMarketing = &v
	}
	if consentTimestamp.Valid {
		v := consentTimestamp.Time
		lead.ConsentTimestamp = &v
	}
	if ghlContactID.Valid {
		v := ghlContactID.String
		lead.GHLContactID = &v
	}
	if lead.SyncErrors == nil {
		lead.SyncErrors = []string{}
	}
	return &lead, nil
}
