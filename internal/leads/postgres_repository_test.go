package leads

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

var leadRowColumns = []string{
	"id", "name", "email", "phone", "project_type", "city", "timeline", "message",
	"company_name", "business_type", "square_footage", "estimated_budget", "form_source",
	"sms_consent_transactional", "sms_consent_marketing", "consent_timestamp",
	"synced_to_sheets", "synced_to_ghl", "ghl_contact_id", "sync_errors", "created_at", "updated_at",
}

func TestPostgresRepository_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	createdAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := validPayload()
	p.ProjectType = "kitchen"

	mock.ExpectQuery("INSERT INTO leads").
		WithArgs(pgxmock.AnyArg(), "Jane Doe", "jane@example.com", "4045550100", "kitchen", "", "", "",
			"", "", "", "", SourceResidential, pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(createdAt))

	repo := NewPostgresRepository(mock)
	lead, err := repo.Create(context.Background(), p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := uuid.Parse(lead.ID); err != nil {
		t.Fatalf("expected uuid id, got %q", lead.ID)
	}
	if !lead.CreatedAt.Equal(createdAt) {
		t.Fatalf("expected created_at from db, got %s", lead.CreatedAt)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresRepository_CreateError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery("INSERT INTO leads").WillReturnError(errors.New("connection refused"))

	repo := NewPostgresRepository(mock)
	if _, err := repo.Create(context.Background(), validPayload()); err == nil {
		t.Fatal("expected insert error")
	}
}

func TestPostgresRepository_UpdateSyncStatus(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	id := uuid.NewString()
	mock.ExpectExec("UPDATE leads").
		WithArgs(id, true, false, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	repo := NewPostgresRepository(mock)
	err = repo.UpdateSyncStatus(context.Background(), id, SyncUpdate{
		SyncedToSheets: true,
		SyncErrors:     []string{"gohighlevel: status 503"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresRepository_UpdateSyncStatusAlreadyRecorded(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	id := uuid.NewString()
	mock.ExpectExec("UPDATE leads").WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectQuery("SELECT EXISTS").WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	repo := NewPostgresRepository(mock)
	err = repo.UpdateSyncStatus(context.Background(), id, SyncUpdate{})
	if !errors.Is(err, ErrSyncAlreadyRecorded) {
		t.Fatalf("expected ErrSyncAlreadyRecorded, got %v", err)
	}
}

func TestPostgresRepository_UpdateSyncStatusMissing(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	id := uuid.NewString()
	mock.ExpectExec("UPDATE leads").WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectQuery("SELECT EXISTS").WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

	repo := NewPostgresRepository(mock)
	if err := repo.UpdateSyncStatus(context.Background(), id, SyncUpdate{}); !errors.Is(err, ErrLeadNotFound) {
		t.Fatalf("expected ErrLeadNotFound, got %v", err)
	}
}

func TestPostgresRepository_GetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	id := uuid.NewString()
	now := time.Now().UTC()
	mock.ExpectQuery("FROM leads WHERE id = ").WithArgs(id).
		WillReturnRows(pgxmock.NewRows(leadRowColumns).AddRow(
			id, "Jane Doe", "jane@example.com", "4045550100", "kitchen", "Atlanta", "asap", "Need a remodel",
			"", "", "", "", SourceResidential,
			pgtype.Bool{Bool: true, Valid: true}, pgtype.Bool{}, pgtype.Timestamptz{Time: now, Valid: true},
			true, true, pgtype.Text{String: "ghl-1", Valid: true}, []string{}, now, now,
		))

	repo := NewPostgresRepository(mock)
	lead, err := repo.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lead.City != "Atlanta" || !lead.SyncedToGHL {
		t.Fatalf("unexpected lead %+v", lead)
	}
	if lead.GHLContactID == nil || *lead.GHLContactID != "ghl-1" {
		t.Fatalf("expected ghl contact id, got %v", lead.GHLContactID)
	}
	if lead.SMSConsentTransactional == nil || !*lead.SMSConsentTransactional {
		t.Fatalf("expected transactional consent")
	}
	if lead.SMSConsentMarketing != nil {
		t.Fatalf("expected marketing consent unset")
	}
	if lead.ConsentTimestamp == nil {
		t.Fatalf("expected consent timestamp")
	}
}

func TestPostgresRepository_GetByIDNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	id := uuid.NewString()
	mock.ExpectQuery("FROM leads WHERE id = ").WithArgs(id).WillReturnError(pgx.ErrNoRows)

	repo := NewPostgresRepository(mock)
	if _, err := repo.GetByID(context.Background(), id); !errors.Is(err, ErrLeadNotFound) {
		t.Fatalf("expected ErrLeadNotFound, got %v", err)
	}
	if _, err := repo.GetByID(context.Background(), "not-a-uuid"); !errors.Is(err, ErrLeadNotFound) {
		t.Fatalf("expected ErrLeadNotFound for malformed id, got %v", err)
	}
}

func TestPostgresRepository_ListUnsynced(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	now := time.Now().UTC()
	mock.ExpectQuery("synced_to_sheets = FALSE OR synced_to_ghl = FALSE").
		WithArgs(SourceCommercial, 10, 0).
		WillReturnRows(pgxmock.NewRows(leadRowColumns).AddRow(
			uuid.NewString(), "Acme", "ops@acme.test", "", "retail", "", "", "",
			"Acme LLC", "retail", "5000", "$250k", SourceCommercial,
			pgtype.Bool{}, pgtype.Bool{}, pgtype.Timestamptz{},
			true, false, pgtype.Text{}, []string{"gohighlevel: status 500"}, now, now,
		))

	repo := NewPostgresRepository(mock)
	leads, err := repo.List(context.Background(), ListFilter{Limit: 10, FormSource: SourceCommercial, Unsynced: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(leads) != 1 || leads[0].CompanyName != "Acme LLC" {
		t.Fatalf("unexpected leads %+v", leads)
	}
	if leads[0].GHLContactID != nil {
		t.Fatalf("expected nil contact id")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
