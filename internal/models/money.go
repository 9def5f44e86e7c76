package models

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

var (
	// ErrInvalidAmount is returned for text that is not a decimal number.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrTooPrecise is returned when an amount has fractional cents.
	ErrTooPrecise = errors.New("amount has more than 2 decimal places")
	// ErrAmountRange is returned when an amount does not fit in an int64 of cents.
	ErrAmountRange = errors.New("amount out of range")
)

// Cents is a monetary amount in minor units. Money never passes through
// a float so rounding cannot drift between the request, the gateway and
// the database.
type Cents int64

var hundred = big.NewInt(100)

// ParseCents converts a decimal string such as "25", "25.5" or "25.50"
// into cents. Exponent notation is accepted as long as the value is a
// whole number of cents.
func ParseCents(s string) (Cents, error) {
	r, ok := new(big.Rat).SetString(strings.TrimSpace(s))
	if !ok || strings.Contains(s, "/") {
		return 0, ErrInvalidAmount
	}
	r.Mul(r, new(big.Rat).SetInt(hundred))
	if !r.IsInt() {
		return 0, ErrTooPrecise
	}
	n := r.Num()
	if !n.IsInt64() {
		return 0, ErrAmountRange
	}
	return Cents(n.Int64()), nil
}

// Rat returns the amount in major units as an exact rational.
func (c Cents) Rat() *big.Rat {
	return big.NewRat(int64(c), 100)
}

// String formats the amount with exactly two decimals.
func (c Cents) String() string {
	sign := ""
	v := int64(c)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// MarshalJSON writes the amount as a JSON number in major units (2500 -> 25.00).
func (c Cents) MarshalJSON() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string.
func (c *Cents) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := ParseCents(s)
	if err != nil {
		return fmt.Errorf("amount %q: %w", s, err)
	}
	*c = parsed
	return nil
}

// AverageCents divides total by count, rounding half away from zero.
// A zero count yields zero.
func AverageCents(total Cents, count int64) Cents {
	if count <= 0 {
		return 0
	}
	t := int64(total)
	if t < 0 {
		return -Cents((-t + count/2) / count)
	}
	return Cents((t + count/2) / count)
}
