package codes_test

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/VeeCC-T/ShieldHer/internal/codes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var codeShape = regexp.MustCompile(`^SH-\d{4}-[0-9A-F]{6}$`)

// TestGenerate_Shape verifies the PREFIX-YYYY-XXXXXX format.
func TestGenerate_Shape(t *testing.T) {
	g := codes.NewGeneratorWithClock(func() time.Time {
		return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	})

	code := g.Generate(codes.PrefixReport)

	assert.Regexp(t, codeShape, code)
	assert.Contains(t, code, "-2026-")
	assert.Regexp(t, `^DON-2026-[0-9A-F]{6}$`, g.Generate(codes.PrefixDonation))
}

// TestGenerate_Unique verifies 10,000 consecutive codes do not collide.
func TestGenerate_Unique(t *testing.T) {
	g := codes.NewGenerator()
	seen := make(map[string]bool, 10000)

	for i := 0; i < 10000; i++ {
		code := g.Generate(codes.PrefixReport)
		require.Regexp(t, codeShape, code)
		seen[code] = true
	}

	// 10k draws from 2^24 values average about three collisions; the unique
	// constraint plus Issue handles those.
	assert.GreaterOrEqual(t, len(seen), 9980)
}

// TestIssue_RetriesOnCollision verifies collisions regenerate the code.
func TestIssue_RetriesOnCollision(t *testing.T) {
	g := codes.NewGenerator()
	var tried []string

	code, err := g.Issue(context.Background(), codes.PrefixReport, func(c string) error {
		tried = append(tried, c)
		if len(tried) < 3 {
			return fmt.Errorf("insert report: %w", codes.ErrCollision)
		}
		return nil
	})

	require.NoError(t, err)
	assert.Len(t, tried, 3)
	assert.Equal(t, tried[2], code)
}

// TestIssue_Exhausted verifies the loop stops after MaxAttempts collisions.
func TestIssue_Exhausted(t *testing.T) {
	g := codes.NewGenerator()
	calls := 0

	_, err := g.Issue(context.Background(), codes.PrefixDonation, func(string) error {
		calls++
		return codes.ErrCollision
	})

	assert.ErrorIs(t, err, codes.ErrExhausted)
	assert.Equal(t, codes.MaxAttempts, calls)
}

// TestIssue_OtherErrorAborts verifies non-collision errors are not retried.
func TestIssue_OtherErrorAborts(t *testing.T) {
	g := codes.NewGenerator()
	boom := errors.New("connection reset")
	calls := 0

	_, err := g.Issue(context.Background(), codes.PrefixReport, func(string) error {
		calls++
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

// TestIssue_CanceledContext verifies a canceled context stops before inserting.
func TestIssue_CanceledContext(t *testing.T) {
	g := codes.NewGenerator()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.Issue(ctx, codes.PrefixReport, func(string) error {
		t.Fatal("insert must not be called")
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
}
