package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestTrailingMonths verifies the window crosses year boundaries.
func TestTrailingMonths(t *testing.T) {
	now := time.Date(2025, 3, 31, 23, 0, 0, 0, time.UTC)

	months := trailingMonths(now, 12)

	assert.Len(t, months, 12)
	assert.Equal(t, "2024-04", months[0])
	assert.Equal(t, "2025-03", months[11])
	assert.Contains(t, months, "2024-12")
}
