package privacy_test

import (
	"testing"

	"github.com/VeeCC-T/ShieldHer/internal/privacy"
	"github.com/stretchr/testify/assert"
)

// TestPipeline_Process verifies placeholders and the applied flag.
//
// Test Cases:
//   - Email is replaced in place
//   - Self-identifying phrase is kept, the name is replaced
//   - Several categories in one text are all replaced
//   - Card numbers are replaced before the phone detector runs
//   - Clean text is returned unchanged with Applied=false
func TestPipeline_Process(t *testing.T) {
	p := privacy.NewPipeline(privacy.MustDefaultRegistry(), privacy.ScopeReport)

	tests := []struct {
		name       string
		input      string
		expected   string
		applied    bool
		categories []privacy.Category
	}{
		{
			name:       "email",
			input:      "Contact me at jane@example.com",
			expected:   "Contact me at [EMAIL_REDACTED]",
			applied:    true,
			categories: []privacy.Category{"email"},
		},
		{
			name:       "name keeps trigger phrase",
			input:      "Hello, my name is Jane Doe and he follows me",
			expected:   "Hello, my name is [NAME_REDACTED] and he follows me",
			applied:    true,
			categories: []privacy.Category{"full_name"},
		},
		{
			name:       "multiple categories",
			input:      "Reach me on 555-123-4567 or at 12 Oak Avenue",
			expected:   "Reach me on [PHONE_REDACTED] or at [ADDRESS_REDACTED]",
			applied:    true,
			categories: []privacy.Category{"phone", "street_address"},
		},
		{
			name:       "card before phone",
			input:      "He used my card 4111-1111-1111-1111",
			expected:   "He used my card [CREDIT_CARD_REDACTED]",
			applied:    true,
			categories: []privacy.Category{"credit_card"},
		},
		{
			name:     "clean",
			input:    "He sends threatening messages every night",
			expected: "He sends threatening messages every night",
			applied:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			res := p.Process(tt.input)

			// Assert
			assert.Equal(t, tt.expected, res.Text)
			assert.Equal(t, tt.applied, res.Applied)
			assert.Equal(t, tt.categories, res.Categories)
		})
	}
}

// TestPipeline_EmptyInput verifies empty text passes through untouched.
func TestPipeline_EmptyInput(t *testing.T) {
	p := privacy.NewPipeline(privacy.MustDefaultRegistry(), privacy.ScopeReport)

	res := p.Process("")

	assert.Equal(t, "", res.Text)
	assert.False(t, res.Applied)
	assert.Empty(t, res.Categories)
}

// TestPipeline_Idempotent verifies redacting an already redacted text changes nothing.
func TestPipeline_Idempotent(t *testing.T) {
	p := privacy.NewPipeline(privacy.MustDefaultRegistry(), privacy.ScopeReport)
	input := "I'm Maria Lopez, email maria@mail.com, phone (555) 987-6543, SSN 123-45-6789, 7 Pine Road"

	once := p.Redact(input)
	twice := p.Process(once)

	assert.Equal(t, once, twice.Text)
	assert.False(t, twice.Applied, "placeholders must not be detected as PII")
}

// TestPipeline_Deterministic verifies repeated runs give identical output.
func TestPipeline_Deterministic(t *testing.T) {
	p := privacy.NewPipeline(privacy.MustDefaultRegistry(), privacy.ScopeReport)
	input := "called John Smith at john@smith.io and 555 123 4567"

	first := p.Process(input)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, p.Process(input))
	}
}

// TestPipeline_NoPassthrough verifies that after redaction no in-scope
// detector still matches the output.
func TestPipeline_NoPassthrough(t *testing.T) {
	r := privacy.MustDefaultRegistry()
	inputs := []string{
		"jane@example.com and bob.smith+tag@mail.co.uk",
		"4111 1111 1111 1111 then 5500-0000-0000-0004",
		"123-45-6789",
		"(555) 123-4567, 555.123.4567, +44 555 123 4567",
		"My name is Jane Doe. I am Ann Lee. They called Tom Hardy",
		"1600 Pennsylvania Avenue and 221 Baker Street",
	}

	for _, scope := range []privacy.Scope{privacy.ScopeReport, privacy.ScopeDonationMessage, privacy.ScopeLog} {
		p := privacy.NewPipeline(r, scope)
		for _, in := range inputs {
			out := p.Redact(in)
			assert.Empty(t, r.Detect(scope, out), "scope %s left PII in %q", scope, out)
		}
	}
}

// TestPipeline_LogScope verifies the log scope only touches emails and IPs.
func TestPipeline_LogScope(t *testing.T) {
	p := privacy.NewPipeline(privacy.MustDefaultRegistry(), privacy.ScopeLog)

	out := p.Redact("login failed for admin@shieldher.org from 192.168.1.20 (call 555-123-4567)")

	assert.Equal(t, "login failed for [EMAIL_REDACTED] from [IP_REDACTED] (call 555-123-4567)", out)
	assert.Equal(t, privacy.ScopeLog, p.Scope())
}

// TestPipeline_Scan verifies scanning reports without altering input.
func TestPipeline_Scan(t *testing.T) {
	p := privacy.NewPipeline(privacy.MustDefaultRegistry(), privacy.ScopeDonationMessage)
	msg := "Receipt to donor@example.com please"

	assert.Equal(t, []privacy.Category{"email"}, p.Scan(msg))
	assert.Equal(t, "Receipt to donor@example.com please", msg)
}
