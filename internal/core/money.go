// Package core holds the domain model: entities, money and date handling,
// and the failure taxonomy shared by all services.
package core

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Money is an exact fixed-point amount in cents. All arithmetic happens on
// cents so repeated balance adjustments never drift the way binary floats do.
type Money struct {
	Cents int64
}

// Add returns m + other.
func (m Money) Add(other Money) Money {
	return Money{Cents: m.Cents + other.Cents}
}

// Sub returns m - other.
func (m Money) Sub(other Money) Money {
	return Money{Cents: m.Cents - other.Cents}
}

// String renders the amount as a decimal with two digits, e.g. "45.99" or
// "-0.50". This is the wire representation for amounts and balances.
func (m Money) String() string {
	cents := m.Cents
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// MarshalJSON emits the decimal string so amounts stay interchangeable with
// the existing DECIMAL(10,2) API contract.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(m.String())), nil
}

// ParseAmount converts a positive decimal string to cents, accepting both dot
// and comma separators and rounding half-up on the third decimal digit.
// Signed values and zero are rejected: transaction amounts are always
// positive magnitudes, the sign comes from the transaction type.
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return Money{}, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return Money{}, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart + fracPart {
		if !unicode.IsDigit(r) {
			return Money{}, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	const maxSafe = (1<<63 - 1) / 100
	if iv > maxSafe {
		return Money{}, ErrInvalidAmount
	}
	// First two fractional digits are cents; the third rounds half-up.
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	cents := iv*100 + fracCents
	if cents <= 0 {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: cents}, nil
}

// ParseSignedAmount is ParseAmount with an optional leading minus and with
// zero allowed, used for account opening balances which may legitimately be
// negative (credit lines) or zero.
func ParseSignedAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	normalized := strings.ReplaceAll(s, ",", ".")
	if isZeroDecimal(normalized) {
		return Money{}, nil
	}
	m, err := ParseAmount(s)
	if err != nil {
		return Money{}, err
	}
	if neg {
		m.Cents = -m.Cents
	}
	return m, nil
}

func isZeroDecimal(s string) bool {
	if s == "" {
		return false
	}
	dots := 0
	for _, r := range s {
		switch {
		case r == '.':
			dots++
			if dots > 1 {
				return false
			}
		case r != '0':
			return false
		}
	}
	return true
}
