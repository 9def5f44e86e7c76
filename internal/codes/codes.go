// Package codes issues the human-readable confirmation codes that identify
// anonymous reports and donations in place of user accounts.
package codes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// PrefixReport is used for anonymous incident reports.
	PrefixReport = "SH"
	// PrefixDonation is used for donations.
	PrefixDonation = "DON"

	// MaxAttempts bounds the regenerate-on-collision loop in Issue.
	MaxAttempts = 5
)

var (
	// ErrCollision must be returned (or wrapped) by an insert callback when the
	// code violated its unique constraint.
	ErrCollision = errors.New("confirmation code already exists")

	// ErrExhausted is returned when every attempt collided.
	ErrExhausted = errors.New("could not issue a unique confirmation code")
)

// Generator produces codes of the form PREFIX-YYYY-XXXXXX where XXXXXX is six
// uppercase hex digits taken from a random UUID.
type Generator struct {
	now func() time.Time
}

// NewGenerator returns a Generator using the wall clock (UTC).
func NewGenerator() *Generator {
	return &Generator{now: func() time.Time { return time.Now().UTC() }}
}

// NewGeneratorWithClock is NewGenerator with an injectable clock.
func NewGeneratorWithClock(now func() time.Time) *Generator {
	return &Generator{now: now}
}

// Generate returns a new code. Uniqueness is probabilistic (2^24 values per
// prefix and year) and is enforced by the storage layer.
func (g *Generator) Generate(prefix string) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("%s-%d-%s", prefix, g.now().Year(), strings.ToUpper(id[:6]))
}

// Issue generates a code and hands it to insert, regenerating when insert
// reports ErrCollision. Any other error aborts immediately. After MaxAttempts
// collisions it returns ErrExhausted.
//
// Example:
//
//	code, err := gen.Issue(ctx, codes.PrefixReport, func(code string) error {
//	    report.ConfirmationCode = code
//	    return repo.Create(ctx, report)
//	})
func (g *Generator) Issue(ctx context.Context, prefix string, insert func(code string) error) (string, error) {
	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		code := g.Generate(prefix)
		err := insert(code)
		if err == nil {
			return code, nil
		}
		if !errors.Is(err, ErrCollision) {
			return "", err
		}
	}
	return "", fmt.Errorf("%w after %d attempts", ErrExhausted, MaxAttempts)
}
