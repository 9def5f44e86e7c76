package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/VeeCC-T/ShieldHer/internal/codes"
	"github.com/VeeCC-T/ShieldHer/internal/database"
	"github.com/VeeCC-T/ShieldHer/internal/fieldcrypt"
	"github.com/VeeCC-T/ShieldHer/internal/models"
	"github.com/jackc/pgx/v5"
)

// ErrPlaintextDescription is returned by Create when the description has not
// been encrypted.
var ErrPlaintextDescription = errors.New("report description must be encrypted before storage")

// ReportRepository handles persistence of anonymous incident reports.
//
// Reports are write-once: there is intentionally no Update or Delete method,
// and the reports_immutable trigger rejects both at the database level.
// The description column only ever receives ciphertext from the caller.
type ReportRepository struct{}

// NewReportRepository creates a new instance of ReportRepository.
func NewReportRepository() *ReportRepository {
	return &ReportRepository{}
}

// ReportFilter narrows an admin report listing. Zero values are ignored.
type ReportFilter struct {
	IncidentType     string
	RedactionApplied *bool
}

const reportColumns = `id, confirmation_code, incident_type, description, timestamp,
	location_free_text, evidence_links, consent_for_followup, redaction_applied, created_at, updated_at`

func scanReport(row pgx.Row) (*models.Report, error) {
	var (
		report   models.Report
		evidence []byte
	)
	err := row.Scan(
		&report.ID, &report.ConfirmationCode, &report.IncidentType, &report.Description, &report.Timestamp,
		&report.LocationFreeText, &evidence, &report.ConsentForFollowup, &report.RedactionApplied,
		&report.CreatedAt, &report.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	report.EvidenceLinks = []string{}
	if len(evidence) > 0 {
		if err := json.Unmarshal(evidence, &report.EvidenceLinks); err != nil {
			return nil, fmt.Errorf("report %d: failed to decode evidence links: %w", report.ID, err)
		}
	}
	return &report, nil
}

// Create inserts a report whose ConfirmationCode and ciphertext Description
// are already set.
//
// Returns:
//   - error: codes.ErrCollision if the confirmation code already exists, so
//     codes.Generator.Issue can retry with a fresh code; database error otherwise
//
// Side Effects: Populates report.ID, CreatedAt and UpdatedAt
//
// Example:
//
//	code, err := gen.Issue(ctx, codes.PrefixReport, func(code string) error {
//	    report.ConfirmationCode = code
//	    return repo.Create(ctx, report)
//	})
func (r *ReportRepository) Create(ctx context.Context, report *models.Report) error {
	if !fieldcrypt.IsCiphertext(report.Description) {
		return ErrPlaintextDescription
	}

	links := report.EvidenceLinks
	if links == nil {
		links = []string{}
	}
	evidence, err := json.Marshal(links)
	if err != nil {
		return fmt.Errorf("failed to encode evidence links: %w", err)
	}

	query := `
		INSERT INTO reports (confirmation_code, incident_type, description, timestamp,
			location_free_text, evidence_links, consent_for_followup, redaction_applied)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`

	err = database.DB.QueryRow(ctx, query,
		report.ConfirmationCode, report.IncidentType, report.Description, report.Timestamp,
		report.LocationFreeText, evidence, report.ConsentForFollowup, report.RedactionApplied,
	).Scan(&report.ID, &report.CreatedAt, &report.UpdatedAt)
	if database.IsUniqueViolation(err, "reports_confirmation_code_key") {
		return codes.ErrCollision
	}
	return err
}

// FindByID retrieves a report by primary key. Description is still ciphertext.
func (r *ReportRepository) FindByID(ctx context.Context, id int) (*models.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports WHERE id = $1`
	return scanReport(database.DB.QueryRow(ctx, query, id))
}

// FindByCode retrieves a report by confirmation code. Description is still ciphertext.
func (r *ReportRepository) FindByCode(ctx context.Context, code string) (*models.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports WHERE confirmation_code = $1`
	return scanReport(database.DB.QueryRow(ctx, query, code))
}

// List returns one page of reports, newest first.
func (r *ReportRepository) List(ctx context.Context, filter ReportFilter, page models.PageRequest) (models.Page[models.Report], error) {
	f := newFilterQuery()
	if filter.IncidentType != "" {
		f.eq("incident_type", filter.IncidentType)
	}
	if filter.RedactionApplied != nil {
		f.eq("redaction_applied", *filter.RedactionApplied)
	}
	return listPage(ctx, "reports", reportColumns, "created_at DESC, id DESC", f, page, scanReport)
}
