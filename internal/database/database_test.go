// Package database provides unit tests for database connection management.
// Tests run without a PostgreSQL server: the pool is replaced by pgxmock and
// migrations are checked as embedded files only.
//
// Note: Applying migrations against a real database belongs to the
// integration suite.
package database

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDefaultConfig verifies pool sizing defaults.
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("postgres://localhost/shieldher")

	assert.Equal(t, "postgres://localhost/shieldher", cfg.URL)
	assert.Equal(t, int32(25), cfg.MaxConns)
	assert.Equal(t, int32(5), cfg.MinConns)
}

// TestConnect_NoURL verifies a missing URL fails before dialing.
func TestConnect_NoURL(t *testing.T) {
	assert.Error(t, Connect(context.Background(), nil))
	assert.Error(t, Connect(context.Background(), &Config{}))
}

// TestIsConnected verifies the connectivity check used by /api/health/.
//
// Test Cases:
//   - nil pool reports disconnected
//   - successful ping reports connected
//   - failed ping reports disconnected
func TestIsConnected(t *testing.T) {
	oldDB := DB
	defer func() { DB = oldDB }()

	DB = nil
	assert.False(t, IsConnected(context.Background()))

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	DB = mock

	mock.ExpectPing()
	assert.True(t, IsConnected(context.Background()))

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	assert.False(t, IsConnected(context.Background()))

	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestIsUniqueViolation verifies SQLSTATE and constraint matching.
func TestIsUniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "reports_confirmation_code_key"}
	wrapped := fmt.Errorf("insert report: %w", pgErr)

	assert.True(t, IsUniqueViolation(wrapped, ""))
	assert.True(t, IsUniqueViolation(wrapped, "reports_confirmation_code_key"))
	assert.False(t, IsUniqueViolation(wrapped, "donations_payment_intent_id_key"))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}, ""))
	assert.False(t, IsUniqueViolation(errors.New("boom"), ""))
	assert.False(t, IsUniqueViolation(nil, ""))
}

// TestEmbeddedMigrations verifies every up migration has a matching down
// migration and that the append-only triggers are installed.
func TestEmbeddedMigrations(t *testing.T) {
	entries, err := fs.ReadDir(migrationFiles, "migrations")
	require.NoError(t, err)

	ups := map[string]bool{}
	downs := map[string]bool{}
	var all strings.Builder
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		}
		b, err := fs.ReadFile(migrationFiles, "migrations/"+name)
		require.NoError(t, err)
		all.Write(b)
	}

	assert.NotEmpty(t, ups)
	assert.Equal(t, ups, downs)

	sql := all.String()
	assert.Contains(t, sql, "CREATE TRIGGER reports_immutable")
	assert.Contains(t, sql, "CREATE TRIGGER audit_logs_immutable")
	assert.Contains(t, sql, "reports_confirmation_code_key")
	assert.Contains(t, sql, "donations_payment_intent_id_key")
}

// TestNewMigrator_NoURL verifies migration helpers reject a missing URL.
func TestNewMigrator_NoURL(t *testing.T) {
	err := RunMigrations("", t.Logf)
	assert.Error(t, err)

	_, _, err = GetMigrationVersion("")
	assert.Error(t, err)

	assert.Error(t, RollbackMigration(""))
}
