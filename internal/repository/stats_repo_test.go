package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/VeeCC-T/ShieldHer/internal/models"
	"github.com/VeeCC-T/ShieldHer/internal/repository"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestStatsRepository_GetReportStats verifies report aggregation.
//
// Query Details:
//   - Totals and redacted count in one row
//   - Per-type and per-month breakdowns as key/count rows
func TestStatsRepository_GetReportStats(t *testing.T) {
	// Arrange
	mock := newMockDB(t)
	since := time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT COUNT\(\*\), COUNT\(\*\) FILTER`).
		WillReturnRows(pgxmock.NewRows([]string{"count", "redacted"}).AddRow(10, 4))
	mock.ExpectQuery("SELECT incident_type, COUNT").
		WillReturnRows(pgxmock.NewRows([]string{"incident_type", "count"}).
			AddRow("harassment", 7).
			AddRow("threats", 3))
	mock.ExpectQuery("SELECT to_char").
		WithArgs(since).
		WillReturnRows(pgxmock.NewRows([]string{"month", "count"}).
			AddRow("2025-09", 6).
			AddRow("2025-10", 4))

	// Act
	stats, err := repository.NewStatsRepository().GetReportStats(context.Background(), since)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 10, stats.Total)
	assert.Equal(t, 4, stats.Redacted)
	assert.Equal(t, map[string]int{"harassment": 7, "threats": 3}, stats.ByType)
	assert.Equal(t, 6, stats.ByMonth["2025-09"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestStatsRepository_GetReportStats_Error verifies query errors propagate.
func TestStatsRepository_GetReportStats_Error(t *testing.T) {
	mock := newMockDB(t)
	mock.ExpectQuery("SELECT COUNT").WillReturnError(errors.New("connection reset"))

	stats, err := repository.NewStatsRepository().GetReportStats(context.Background(), time.Now())

	assert.Error(t, err)
	assert.Nil(t, stats)
}

// TestStatsRepository_GetDonationStats verifies completed-only donation totals.
func TestStatsRepository_GetDonationStats(t *testing.T) {
	mock := newMockDB(t)
	mock.ExpectQuery("SELECT COALESCE(.+) FROM donations WHERE status = 'completed'").
		WillReturnRows(pgxmock.NewRows([]string{"sum", "count"}).AddRow(int64(15000), 3))

	stats, err := repository.NewStatsRepository().GetDonationStats(context.Background())

	require.NoError(t, err)
	assert.Equal(t, models.Cents(15000), stats.TotalAmount)
	assert.Equal(t, 3, stats.TotalCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}
