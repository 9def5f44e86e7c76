// Package models defines the data structures persisted by the ShieldHer backend.
// Each struct maps directly to a PostgreSQL table created by the embedded migrations.
package models

import (
	"encoding/json"
	"time"
)

// Choice is a value/label pair served by the taxonomy endpoints
// (incident types, lesson categories, helpline categories, ...).
type Choice struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// ChoiceValues returns the raw values of a choice list.
func ChoiceValues(choices []Choice) []string {
	out := make([]string, 0, len(choices))
	for _, c := range choices {
		out = append(out, c.Value)
	}
	return out
}

// HasChoice reports whether value is one of the choice values.
func HasChoice(choices []Choice, value string) bool {
	for _, c := range choices {
		if c.Value == value {
			return true
		}
	}
	return false
}

// IncidentTypes lists the report incident categories.
var IncidentTypes = []Choice{
	{Value: "harassment", Label: "Harassment"},
	{Value: "stalking", Label: "Stalking"},
	{Value: "impersonation", Label: "Impersonation"},
	{Value: "threats", Label: "Threats"},
	{Value: "other", Label: "Other"},
}

// Report is an anonymous incident submission.
//
// There is deliberately no column that could identify the submitter: no name,
// email, phone, IP address, session or user id. Description always holds
// ciphertext once persisted.
//
// Reports are created once and never updated or deleted.
type Report struct {
	ID                 int       `json:"id"`
	ConfirmationCode   string    `json:"confirmation_code"`
	IncidentType       string    `json:"incident_type"`
	Description        string    `json:"-"` // ciphertext, never serialized
	Timestamp          time.Time `json:"timestamp"`
	LocationFreeText   string    `json:"location_free_text"`
	EvidenceLinks      []string  `json:"evidence_links"`
	ConsentForFollowup bool      `json:"consent_for_followup"`
	RedactionApplied   bool      `json:"redaction_applied"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// ReportSubmission is the public request body for POST /api/reports/.
// EvidenceLinks stays raw so that non-list and non-string values can be
// reported as field errors instead of decode failures.
type ReportSubmission struct {
	IncidentType       string          `json:"incident_type"`
	Description        string          `json:"description"`
	Timestamp          string          `json:"timestamp"`
	LocationFreeText   string          `json:"location_free_text"`
	EvidenceLinks      json.RawMessage `json:"evidence_links"`
	ConsentForFollowup bool            `json:"consent_for_followup"`
}

// ValidatedReport is the output of the submission validator: every field has
// passed its checks and Description is already redacted.
type ValidatedReport struct {
	IncidentType       string
	Description        string
	Timestamp          time.Time
	LocationFreeText   string
	EvidenceLinks      []string
	ConsentForFollowup bool
	RedactionApplied   bool
	RedactedCategories []string
}

// DonationStatus is the lifecycle state of a donation.
type DonationStatus string

const (
	DonationPending   DonationStatus = "pending"
	DonationCompleted DonationStatus = "completed"
	DonationFailed    DonationStatus = "failed"
	DonationRefunded  DonationStatus = "refunded"
)

// CanTransitionTo reports whether a donation in status s may move to next.
func (s DonationStatus) CanTransitionTo(next DonationStatus) bool {
	switch s {
	case DonationPending:
		return next == DonationCompleted || next == DonationFailed
	case DonationCompleted:
		return next == DonationRefunded
	}
	return false
}

// Donation is a payment record with optional donor identity.
// When IsAnonymous is true DonorEmail is always empty.
type Donation struct {
	ID               int            `json:"id"`
	ConfirmationCode string         `json:"confirmation_code"`
	Amount           Cents          `json:"amount"`
	Currency         string         `json:"currency"`
	DonorEmail       string         `json:"-"`
	IsAnonymous      bool           `json:"is_anonymous"`
	Status           DonationStatus `json:"status"`
	PaymentIntentID  string         `json:"-"`
	Message          string         `json:"message"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// DonationRequest is the public request body for POST /api/donations/.
// Amount keeps the literal decimal text so it can be checked exactly.
type DonationRequest struct {
	Amount      json.Number `json:"amount"`
	Currency    string      `json:"currency" validate:"omitempty,len=3,alpha"`
	DonorEmail  string      `json:"donor_email" validate:"omitempty,email,max=254"`
	IsAnonymous bool        `json:"is_anonymous"`
	Message     string      `json:"message" validate:"max=1000"`
}

// Action is the kind of privileged operation recorded in the audit log.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionView   Action = "view"
)

// AuditLog is an immutable record of a privileged action.
// AdminUserID is a weak reference: deleting the admin keeps the row and nulls the id.
type AuditLog struct {
	ID           int                    `json:"id"`
	AdminUserID  *int                   `json:"admin_user_id"`
	Action       Action                 `json:"action"`
	ResourceType string                 `json:"resource_type"`
	ResourceID   string                 `json:"resource_id"`
	Details      map[string]interface{} `json:"details"`
	Success      bool                   `json:"success"`
	CreatedAt    time.Time              `json:"created_at"`
}

// AdminUser is a staff account allowed to use the admin API.
type AdminUser struct {
	ID           int        `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Role         Role       `json:"role"`
	IsActive     bool       `json:"is_active"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLoginAt  *time.Time `json:"last_login_at"`
}

// LoginRequest is the body of POST /api/auth/login/.
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=150"`
	Password string `json:"password" validate:"required,max=128"`
}

// RefreshRequest is the body of POST /api/auth/refresh/.
type RefreshRequest struct {
	Refresh string `json:"refresh" validate:"required"`
}
