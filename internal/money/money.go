package money

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrInvalidAmount occurs when a textual amount cannot be parsed or a
	// negative value is supplied where only non-negative money is allowed.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrNegativeResult occurs when a subtraction would drop below zero.
	ErrNegativeResult = errors.New("amount would become negative")
)

// Money is a non-negative monetary value held in minor units (cents).
// All arithmetic preserves the non-negative invariant.
type Money struct {
	cents int64
}

// FromCents builds a Money value from minor units. Negative inputs are rejected.
func FromCents(cents int64) (Money, error) {
	if cents < 0 {
		return Money{}, ErrInvalidAmount
	}
	return Money{cents: cents}, nil
}

// MustFromCents is a constructor for values known to be valid, such as
// configuration defaults. It panics on negative input.
func MustFromCents(cents int64) Money {
	m, err := FromCents(cents)
	if err != nil {
		panic(err)
	}
	return m
}

// Parse converts a decimal string such as "123.45" into Money.
// At most two fractional digits are accepted.
func Parse(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	whole := s
	frac := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
	}
	if whole == "" || len(frac) > 2 {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	// ParseInt accepts a leading sign, so the fractional digits must be
	// checked by hand: "1.-5" is malformed, not 0.95.
	for _, r := range frac {
		if r < '0' || r > '9' {
			return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
		}
	}
	for len(frac) < 2 {
		frac += "0"
	}

	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	// Bound units so units*100+cents cannot wrap around int64.
	if units > (math.MaxInt64-99)/100 {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	cents, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return Money{cents: units*100 + cents}, nil
}

// Cents exposes the raw minor-unit value, e.g. for persistence.
func (m Money) Cents() int64 { return m.cents }

// IsPositive reports whether the value is strictly greater than zero.
func (m Money) IsPositive() bool { return m.cents > 0 }

// IsZero reports whether the value is exactly zero.
func (m Money) IsZero() bool { return m.cents == 0 }

// LessThan reports m < other.
func (m Money) LessThan(other Money) bool { return m.cents < other.cents }

// GreaterThan reports m > other.
func (m Money) GreaterThan(other Money) bool { return m.cents > other.cents }

// Add returns m + other.
func (m Money) Add(other Money) Money {
	return Money{cents: m.cents + other.cents}
}

// Sub returns m - other, failing when the result would be negative.
func (m Money) Sub(other Money) (Money, error) {
	if other.cents > m.cents {
		return Money{}, ErrNegativeResult
	}
	return Money{cents: m.cents - other.cents}, nil
}

// String renders the value with a fixed two-decimal scale, e.g. "1234.56".
func (m Money) String() string {
	return fmt.Sprintf("%d.%02d", m.cents/100, m.cents%100)
}
