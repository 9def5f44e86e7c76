package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/VeeCC-T/ShieldHer/internal/database"
	"github.com/VeeCC-T/ShieldHer/internal/models"
	"github.com/jackc/pgx/v5"
)

// AuditRepository handles all database operations related to audit logging.
// It provides methods for creating and retrieving audit trail entries.
//
// Purpose:
//   - Record every admin view of a decrypted report
//   - Record content mutations and donation refunds/deletions
//   - Give administrators a read-only trail for review
//
// Immutability Note:
//
//	Audit logs are never modified or deleted once created. This repository
//	exposes no update or delete method, and a database trigger rejects both.
type AuditRepository struct{}

// NewAuditRepository creates and returns a new AuditRepository instance.
//
// Example:
//
//	repo := repository.NewAuditRepository()
//	err := repo.Record(ctx, entry)
func NewAuditRepository() *AuditRepository {
	return &AuditRepository{}
}

// AuditFilter narrows an audit log listing. Zero values are ignored.
type AuditFilter struct {
	AdminUserID  int
	Action       models.Action
	ResourceType string
}

// Record appends an audit entry.
//
// The call is synchronous: callers that must not proceed without a trail
// (report views) check the error.
//
// Parameters:
//   - ctx: Context for cancellation and timeout control
//   - entry: Entry to store (Action and ResourceType required)
//
// Side Effects:
//   - Sets entry.ID and entry.CreatedAt from the database
//
// Example:
//
//	entry := &models.AuditLog{
//	    AdminUserID:  &actor.UserID,
//	    Action:       models.ActionView,
//	    ResourceType: "report",
//	    ResourceID:   report.ConfirmationCode,
//	    Details:      map[string]interface{}{"description_status": "ok"},
//	    Success:      true,
//	}
//	err := repo.Record(ctx, entry)
func (r *AuditRepository) Record(ctx context.Context, entry *models.AuditLog) error {
	details := entry.Details
	if details == nil {
		details = map[string]interface{}{}
	}
	payload, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("failed to encode audit details: %w", err)
	}

	query := `
        INSERT INTO audit_logs (admin_user_id, action, resource_type, resource_id, details, success)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at
    `

	return database.DB.QueryRow(ctx, query,
		entry.AdminUserID, string(entry.Action), entry.ResourceType, entry.ResourceID, payload, entry.Success,
	).Scan(&entry.ID, &entry.CreatedAt)
}

const auditColumns = `id, admin_user_id, action, resource_type, resource_id, details, success, created_at`

func scanAuditLog(row pgx.Row) (*models.AuditLog, error) {
	var (
		entry   models.AuditLog
		action  string
		details []byte
	)
	if err := row.Scan(
		&entry.ID,
		&entry.AdminUserID, // Nullable - NULL once the admin is deleted
		&action,
		&entry.ResourceType,
		&entry.ResourceID,
		&details,
		&entry.Success,
		&entry.CreatedAt,
	); err != nil {
		return nil, err
	}
	entry.Action = models.Action(action)
	if len(details) > 0 {
		if err := json.Unmarshal(details, &entry.Details); err != nil {
			return nil, fmt.Errorf("failed to decode audit details: %w", err)
		}
	}
	return &entry, nil
}

// List returns one page of audit entries, newest first.
//
// Returns:
//   - models.Page[models.AuditLog]: Entries plus the total match count
//   - error: Database error if a query fails
func (r *AuditRepository) List(ctx context.Context, filter AuditFilter, page models.PageRequest) (models.Page[models.AuditLog], error) {
	f := newFilterQuery()
	if filter.AdminUserID != 0 {
		f.eq("admin_user_id", filter.AdminUserID)
	}
	if filter.Action != "" {
		f.eq("action", string(filter.Action))
	}
	if filter.ResourceType != "" {
		f.eq("resource_type", filter.ResourceType)
	}
	return listPage(ctx, "audit_logs", auditColumns, "created_at DESC, id DESC", f, page, scanAuditLog)
}
