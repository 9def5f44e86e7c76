package services

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/VeeCC-T/ShieldHer/internal/codes"
	"github.com/VeeCC-T/ShieldHer/internal/fieldcrypt"
	"github.com/VeeCC-T/ShieldHer/internal/models"
	"github.com/VeeCC-T/ShieldHer/internal/repository"
	"github.com/VeeCC-T/ShieldHer/internal/security"
)

// Description status values returned with an admin report view.
const (
	DescriptionOK            = "ok"
	DescriptionDecryptFailed = "decrypt_failed"
)

// statsMonths is the length of the trailing per-month breakdown.
const statsMonths = 12

// SubmitResult is returned to the anonymous submitter.
type SubmitResult struct {
	ConfirmationCode   string
	RedactionApplied   bool
	RedactedCategories []string
}

// ReportView is a report with its description decrypted for an admin.
// Description is nil when DescriptionStatus is "decrypt_failed".
type ReportView struct {
	models.Report
	Description       *string `json:"description"`
	DescriptionStatus string  `json:"description_status"`
}

// ReportStats is the admin statistics payload.
type ReportStats struct {
	TotalReports   int            `json:"total_reports"`
	ReportsByType  map[string]int `json:"reports_by_type"`
	ReportsByMonth map[string]int `json:"reports_by_month"`
	RedactionRate  float64        `json:"redaction_rate"`
}

// ReportService implements anonymous submission and audited admin retrieval.
//
// Submission path: validate and redact, encrypt the description, then insert
// under a freshly issued confirmation code (regenerated on collision).
// Nothing that could identify the submitter is accepted or logged.
type ReportService struct {
	reports   *repository.ReportRepository
	stats     *repository.StatsRepository
	audit     *repository.AuditRepository
	validator *security.SubmissionValidator
	cipher    *fieldcrypt.Cipher
	codes     *codes.Generator
	monitor   *security.SecurityMonitor
	logger    *security.Logger
	now       func() time.Time
}

// NewReportService creates a report service.
func NewReportService(
	cipher *fieldcrypt.Cipher,
	validator *security.SubmissionValidator,
	monitor *security.SecurityMonitor,
	logger *security.Logger,
) *ReportService {
	return &ReportService{
		reports:   repository.NewReportRepository(),
		stats:     repository.NewStatsRepository(),
		audit:     repository.NewAuditRepository(),
		validator: validator,
		cipher:    cipher,
		codes:     codes.NewGenerator(),
		monitor:   monitor,
		logger:    logger,
		now:       time.Now,
	}
}

// Submit validates, redacts, encrypts and stores an anonymous report.
//
// Returns:
//   - *SubmitResult: The confirmation code and redaction outcome
//   - error: security.FieldErrors for invalid input; wrapped storage errors otherwise
func (s *ReportService) Submit(ctx context.Context, sub *models.ReportSubmission) (*SubmitResult, error) {
	validated, err := s.validator.Validate(sub)
	if err != nil {
		return nil, err
	}

	ciphertext, err := s.cipher.Encrypt(validated.Description)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt report: %w", err)
	}

	report := &models.Report{
		IncidentType:       validated.IncidentType,
		Description:        ciphertext,
		Timestamp:          validated.Timestamp,
		LocationFreeText:   validated.LocationFreeText,
		EvidenceLinks:      validated.EvidenceLinks,
		ConsentForFollowup: validated.ConsentForFollowup,
		RedactionApplied:   validated.RedactionApplied,
	}

	code, err := s.codes.Issue(ctx, codes.PrefixReport, func(code string) error {
		report.ConfirmationCode = code
		return s.reports.Create(ctx, report)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store report: %w", err)
	}
	reportsSubmitted.Inc()

	s.logger.SecurityEvent(security.EventReportSubmit, nil, "", "", "", map[string]interface{}{
		"incident_type":       report.IncidentType,
		"redaction_applied":   report.RedactionApplied,
		"redacted_categories": validated.RedactedCategories,
	})

	return &SubmitResult{
		ConfirmationCode:   code,
		RedactionApplied:   validated.RedactionApplied,
		RedactedCategories: validated.RedactedCategories,
	}, nil
}

// List returns one page of reports without descriptions.
func (s *ReportService) List(ctx context.Context, filter repository.ReportFilter, page models.PageRequest) (models.Page[models.Report], error) {
	return s.reports.List(ctx, filter, page)
}

// View decrypts a report for an admin and records the access.
//
// A description that cannot be decrypted is not an error for the caller: the
// view is returned with DescriptionStatus "decrypt_failed", the failure is
// counted and alerted, and the audit entry is marked unsuccessful.
//
// Returns:
//   - error: repository.ErrNotFound; or a wrapped error if the audit entry
//     could not be written, in which case no description is returned
func (s *ReportService) View(ctx context.Context, actor models.Actor, id int) (*ReportView, error) {
	report, err := s.reports.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	view := &ReportView{Report: *report, DescriptionStatus: DescriptionOK}
	plaintext, decryptErr := s.cipher.Decrypt(report.Description)
	if decryptErr != nil {
		view.DescriptionStatus = DescriptionDecryptFailed
		s.monitor.MonitorDecryptFailure("report", report.ConfirmationCode, decryptErr)
		s.logger.SecurityEvent(security.EventReportDecryptFailure, &actor.UserID, actor.Username, "", "", map[string]interface{}{
			"report_id": report.ID,
		})
	} else {
		view.Description = &plaintext
	}

	entry := &models.AuditLog{
		AdminUserID:  &actor.UserID,
		Action:       models.ActionView,
		ResourceType: "report",
		ResourceID:   strconv.Itoa(report.ID),
		Details: map[string]interface{}{
			"confirmation_code":  report.ConfirmationCode,
			"description_status": view.DescriptionStatus,
		},
		Success: decryptErr == nil,
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to audit report view: %w", err)
	}

	s.logger.SecurityEvent(security.EventReportView, &actor.UserID, actor.Username, "", "", map[string]interface{}{
		"report_id":          report.ID,
		"description_status": view.DescriptionStatus,
	})
	return view, nil
}

// Stats aggregates report counts for the trailing twelve calendar months.
// Months without reports are present with a zero count.
func (s *ReportService) Stats(ctx context.Context, actor models.Actor) (*ReportStats, error) {
	now := s.now().UTC()
	months := trailingMonths(now, statsMonths)
	since, _ := time.Parse("2006-01", months[0])

	raw, err := s.stats.GetReportStats(ctx, since)
	if err != nil {
		return nil, err
	}

	result := &ReportStats{
		TotalReports:   raw.Total,
		ReportsByType:  make(map[string]int, len(models.IncidentTypes)),
		ReportsByMonth: make(map[string]int, statsMonths),
	}
	for _, t := range models.IncidentTypes {
		result.ReportsByType[t.Value] = raw.ByType[t.Value]
	}
	for _, m := range months {
		result.ReportsByMonth[m] = raw.ByMonth[m]
	}
	if raw.Total > 0 {
		result.RedactionRate = math.Round(float64(raw.Redacted)/float64(raw.Total)*100*100) / 100
	}

	if err := s.audit.Record(ctx, &models.AuditLog{
		AdminUserID:  &actor.UserID,
		Action:       models.ActionView,
		ResourceType: "report_stats",
		Success:      true,
	}); err != nil {
		return nil, fmt.Errorf("failed to audit stats view: %w", err)
	}
	s.logger.SecurityEvent(security.EventReportStatsView, &actor.UserID, actor.Username, "", "", nil)

	return result, nil
}

// trailingMonths returns n "YYYY-MM" keys ending with the month of now, oldest first.
func trailingMonths(now time.Time, n int) []string {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = first.AddDate(0, i-(n-1), 0).Format("2006-01")
	}
	return out
}
