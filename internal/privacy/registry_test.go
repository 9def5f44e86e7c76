package privacy_test

import (
	"testing"

	"github.com/VeeCC-T/ShieldHer/internal/privacy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDefaultRegistry_Scopes verifies which categories each call site sees.
//
// Test Cases:
//   - Reports redact names and street addresses but never IPs
//   - Donation messages only scan contact and payment data
//   - Logs only redact emails and IPs
func TestDefaultRegistry_Scopes(t *testing.T) {
	r, err := privacy.DefaultRegistry()
	require.NoError(t, err)

	assert.Equal(t, []privacy.Category{
		"email", "credit_card", "ssn", "phone", "full_name", "street_address",
	}, r.Categories(privacy.ScopeReport))

	assert.Equal(t, []privacy.Category{
		"email", "credit_card", "ssn", "phone",
	}, r.Categories(privacy.ScopeDonationMessage))

	assert.Equal(t, []privacy.Category{
		"email", "ip_address",
	}, r.Categories(privacy.ScopeLog))
}

// TestRegistry_Detect verifies detection returns categories in priority order
// and an empty result for clean text.
func TestRegistry_Detect(t *testing.T) {
	r := privacy.MustDefaultRegistry()

	tests := []struct {
		name     string
		scope    privacy.Scope
		text     string
		expected []privacy.Category
	}{
		{"email", privacy.ScopeReport, "write to jane.doe@example.com", []privacy.Category{"email"}},
		{"phone with parens", privacy.ScopeReport, "call (555) 123-4567", []privacy.Category{"phone"}},
		{"phone with country code", privacy.ScopeReport, "call +1 555.123.4567", []privacy.Category{"phone"}},
		{"ssn", privacy.ScopeReport, "ssn 123-45-6789", []privacy.Category{"ssn"}},
		{"card", privacy.ScopeDonationMessage, "card 4111 1111 1111 1111", []privacy.Category{"credit_card"}},
		{"name", privacy.ScopeReport, "My name is Jane Doe", []privacy.Category{"full_name"}},
		{"address", privacy.ScopeReport, "lives at 42 Elm Street", []privacy.Category{"street_address"}},
		{"ip only in logs", privacy.ScopeLog, "from 10.0.0.1", []privacy.Category{"ip_address"}},
		{"ip ignored in reports", privacy.ScopeReport, "from 10.0.0.1", nil},
		{"name ignored in donations", privacy.ScopeDonationMessage, "I am Jane Doe", nil},
		{"mixed", privacy.ScopeReport, "jane@x.org or 555-123-4567", []privacy.Category{"email", "phone"}},
		{"clean", privacy.ScopeReport, "He keeps messaging me on Instagram", nil},
		{"empty", privacy.ScopeReport, "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, r.Detect(tt.scope, tt.text))
		})
	}
}

// TestRegistry_FullNameTriggerOnly verifies only the trigger phrase is
// case-insensitive; the two name words must still be capitalized.
func TestRegistry_FullNameTriggerOnly(t *testing.T) {
	r := privacy.MustDefaultRegistry()

	assert.Equal(t, []privacy.Category{"full_name"}, r.Detect(privacy.ScopeReport, "MY NAME IS Jane Doe"))
	assert.Empty(t, r.Detect(privacy.ScopeReport, "i am very tired"))
	assert.Empty(t, r.Detect(privacy.ScopeReport, "i am so scared"))
}

// TestLoadRegistry_Invalid verifies malformed tables are rejected at load time.
func TestLoadRegistry_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty table", "detectors: []"},
		{"not yaml", "detectors: [:"},
		{"missing name", "detectors:\n  - pattern: 'x'\n    scopes: [report]\n"},
		{"bad regex", "detectors:\n  - name: bad\n    pattern: '('\n    scopes: [report]\n"},
		{"unknown scope", "detectors:\n  - name: a\n    pattern: 'x'\n    scopes: [chat]\n"},
		{"duplicate", "detectors:\n  - name: a\n    pattern: 'x'\n  - name: a\n    pattern: 'y'\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := privacy.LoadRegistry([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

// TestLoadRegistry_PriorityOrder verifies detectors are ordered by priority,
// not by their position in the file.
func TestLoadRegistry_PriorityOrder(t *testing.T) {
	data := `
detectors:
  - name: late
    priority: 90
    pattern: 'b'
    replacement: '[B]'
    scopes: [log]
  - name: early
    priority: 5
    pattern: 'a'
    replacement: '[A]'
    scopes: [log]
`
	r, err := privacy.LoadRegistry([]byte(data))
	require.NoError(t, err)

	assert.Equal(t, []privacy.Category{"early", "late"}, r.Categories(privacy.ScopeLog))
	assert.Empty(t, r.Categories(privacy.ScopeReport))
}
