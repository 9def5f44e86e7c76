package security

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/VeeCC-T/ShieldHer/internal/models"
	"github.com/VeeCC-T/ShieldHer/internal/privacy"
)

// addressKeywords are rejected in location_free_text. The field is meant for
// platform or context names, so a physical location is refused rather than redacted.
var addressKeywords = []string{"street", "avenue", "road", "apt", "apartment", "house number"}

const (
	msgRequired         = "This field is required."
	msgDescriptionEmpty = "Description cannot be empty"
	msgLocationAddress  = "Please do not include physical addresses. Use platform names or general context instead (e.g., 'Facebook', 'Instagram DM')."
	msgEvidenceNotList  = "Evidence links must be a list of URLs"
	msgEvidenceNotStr   = "Each evidence link must be a string URL"
	msgTimestampFormat  = "Datetime has wrong format. Use one of these formats instead: YYYY-MM-DDThh:mm[:ss[.uuuuuu]][+HH:MM|-HH:MM|Z]."
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
}

// SubmissionValidator checks anonymous report submissions and produces the
// redacted, storable form of the description.
type SubmissionValidator struct {
	config   *SecurityConfig
	pipeline *privacy.Pipeline
}

// NewSubmissionValidator binds a validator to the report-scope redaction pipeline.
//
// Example:
//
//	reg := privacy.MustDefaultRegistry()
//	sv := security.NewSubmissionValidator(cfg, privacy.NewPipeline(reg, privacy.ScopeReport))
func NewSubmissionValidator(config *SecurityConfig, pipeline *privacy.Pipeline) *SubmissionValidator {
	return &SubmissionValidator{config: config, pipeline: pipeline}
}

// Validate checks every field of sub and collects all violations.
//
// On success the returned report carries the redacted description, the
// redaction flag (stored text differs from the raw input) and the detected
// categories. On failure it returns FieldErrors and a nil report.
func (sv *SubmissionValidator) Validate(sub *models.ReportSubmission) (*models.ValidatedReport, error) {
	fe := FieldErrors{}
	out := &models.ValidatedReport{
		IncidentType:       sub.IncidentType,
		LocationFreeText:   sub.LocationFreeText,
		ConsentForFollowup: sub.ConsentForFollowup,
	}

	switch {
	case sub.IncidentType == "":
		fe.Add("incident_type", msgRequired)
	case !models.HasChoice(models.IncidentTypes, sub.IncidentType):
		fe.Add("incident_type", fmt.Sprintf("%q is not a valid choice.", sub.IncidentType))
	}

	if msg := sv.checkDescription(sub.Description); msg != "" {
		fe.Add("description", msg)
	} else {
		res := sv.pipeline.Process(sub.Description)
		out.Description = res.Text
		out.RedactionApplied = res.Text != sub.Description
		for _, c := range res.Categories {
			out.RedactedCategories = append(out.RedactedCategories, string(c))
		}
	}

	if sub.Timestamp == "" {
		fe.Add("timestamp", msgRequired)
	} else if ts, ok := parseTimestamp(sub.Timestamp); ok {
		out.Timestamp = ts
	} else {
		fe.Add("timestamp", msgTimestampFormat)
	}

	if msg := sv.CheckLocation(sub.LocationFreeText); msg != "" {
		fe.Add("location_free_text", msg)
	}

	links, msg := sv.CheckEvidenceLinks(sub.EvidenceLinks)
	if msg != "" {
		fe.Add("evidence_links", msg)
	}
	out.EvidenceLinks = links

	if err := fe.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (sv *SubmissionValidator) checkDescription(desc string) string {
	if strings.TrimSpace(desc) == "" {
		return msgDescriptionEmpty
	}
	if utf8.RuneCountInString(desc) > sv.config.MaxReportDescriptionLength {
		return fmt.Sprintf("Description is too long (max %d characters)", sv.config.MaxReportDescriptionLength)
	}
	return ""
}

// CheckLocation returns the rejection message for a location, or "" if acceptable.
func (sv *SubmissionValidator) CheckLocation(loc string) string {
	if loc == "" {
		return ""
	}
	if utf8.RuneCountInString(loc) > sv.config.MaxLocationLength {
		return fmt.Sprintf("Location description is too long (max %d characters)", sv.config.MaxLocationLength)
	}

	lower := strings.ToLower(loc)
	for _, kw := range addressKeywords {
		if strings.Contains(lower, kw) {
			return msgLocationAddress
		}
	}
	return ""
}

// CheckEvidenceLinks decodes and checks the raw evidence_links value.
// A missing or null value is an empty list.
func (sv *SubmissionValidator) CheckEvidenceLinks(raw json.RawMessage) ([]string, string) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []string{}, ""
	}

	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, msgEvidenceNotList
	}
	if len(items) > sv.config.MaxEvidenceLinks {
		return nil, fmt.Sprintf("Maximum %d evidence links allowed", sv.config.MaxEvidenceLinks)
	}

	links := make([]string, 0, len(items))
	for _, item := range items {
		var link string
		if err := json.Unmarshal(item, &link); err != nil {
			return nil, msgEvidenceNotStr
		}
		if !strings.HasPrefix(link, "http://") && !strings.HasPrefix(link, "https://") {
			return nil, fmt.Sprintf("Invalid URL: %s", link)
		}
		links = append(links, link)
	}
	return links, ""
}

func parseTimestamp(s string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
