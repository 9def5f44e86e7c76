package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/VeeCC-T/ShieldHer/internal/database"
	"github.com/VeeCC-T/ShieldHer/internal/models"
)

// StatsRepository handles aggregate queries for the admin statistics endpoints.
// Aggregates never touch encrypted columns.
type StatsRepository struct{}

// NewStatsRepository creates a new instance of StatsRepository.
//
// Returns:
//   - *StatsRepository: Initialized repository instance
func NewStatsRepository() *StatsRepository {
	return &StatsRepository{}
}

// ReportStats represents aggregated report counts.
type ReportStats struct {
	Total    int            // All reports
	Redacted int            // Reports with redaction_applied
	ByType   map[string]int // incident_type -> count
	ByMonth  map[string]int // "YYYY-MM" -> count, only months since the query cutoff that have reports
}

// DonationStats represents aggregates over completed donations.
type DonationStats struct {
	TotalAmount models.Cents
	TotalCount  int
}

// GetReportStats retrieves report counts.
//
// Parameters:
//   - ctx: Context for cancellation and timeout control
//   - since: Lower bound (inclusive) for the per-month breakdown
//
// Returns:
//   - *ReportStats: Aggregates, nil if error
//   - error: Database error if any query fails
//
// Database: Three aggregate queries; months are bucketed in UTC
func (r *StatsRepository) GetReportStats(ctx context.Context, since time.Time) (*ReportStats, error) {
	stats := &ReportStats{
		ByType:  map[string]int{},
		ByMonth: map[string]int{},
	}

	query := `SELECT COUNT(*), COUNT(*) FILTER (WHERE redaction_applied) FROM reports`
	if err := database.DB.QueryRow(ctx, query).Scan(&stats.Total, &stats.Redacted); err != nil {
		return nil, fmt.Errorf("failed to count reports: %w", err)
	}

	if err := r.countBy(ctx, stats.ByType,
		`SELECT incident_type, COUNT(*) FROM reports GROUP BY incident_type`); err != nil {
		return nil, fmt.Errorf("failed to count reports by type: %w", err)
	}

	if err := r.countBy(ctx, stats.ByMonth, `
		SELECT to_char(date_trunc('month', created_at AT TIME ZONE 'UTC'), 'YYYY-MM') AS month, COUNT(*)
		FROM reports
		WHERE created_at >= $1
		GROUP BY month`, since); err != nil {
		return nil, fmt.Errorf("failed to count reports by month: %w", err)
	}

	return stats, nil
}

func (r *StatsRepository) countBy(ctx context.Context, into map[string]int, query string, args ...interface{}) error {
	rows, err := database.DB.Query(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			key   string
			count int
		)
		if err := rows.Scan(&key, &count); err != nil {
			return err
		}
		into[key] = count
	}
	return rows.Err()
}

// GetDonationStats retrieves totals over completed donations only.
func (r *StatsRepository) GetDonationStats(ctx context.Context) (*DonationStats, error) {
	query := `
		SELECT COALESCE(SUM(amount * 100), 0)::bigint, COUNT(*)
		FROM donations
		WHERE status = 'completed'
	`

	var (
		stats = &DonationStats{}
		cents int64
	)
	if err := database.DB.QueryRow(ctx, query).Scan(&cents, &stats.TotalCount); err != nil {
		return nil, err
	}
	stats.TotalAmount = models.Cents(cents)
	return stats, nil
}
