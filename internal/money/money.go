// Package money converts between stored minor units and presented major
// units, and renders amounts for display.
package money

import (
	"fmt"
	"strings"
	"sync"

	gomoney "github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is the platform settlement currency.
const DefaultCurrency = "MAD"

var (
	mu       sync.RWMutex
	code     = DefaultCurrency
	fraction = 2

	million  = decimal.NewFromInt(1_000_000)
	thousand = decimal.NewFromInt(1_000)
)

// SetCurrency changes the display currency. Unknown ISO codes are rejected.
func SetCurrency(c string) error {
	cur := gomoney.GetCurrency(strings.ToUpper(c))
	if cur == nil {
		return fmt.Errorf("unknown currency %q", c)
	}
	mu.Lock()
	defer mu.Unlock()
	code = cur.Code
	fraction = cur.Fraction
	return nil
}

// Currency returns the active display currency code.
func Currency() string {
	mu.RLock()
	defer mu.RUnlock()
	return code
}

func active() (string, int) {
	mu.RLock()
	defer mu.RUnlock()
	return code, fraction
}

// ToMajor converts minor units to a major-unit decimal (15050 -> 150.50).
func ToMajor(minor int64) decimal.Decimal {
	_, frac := active()
	return decimal.New(minor, -int32(frac))
}

// ToMinor converts a major-unit decimal to minor units, rounding half away from zero.
func ToMinor(major decimal.Decimal) int64 {
	_, frac := active()
	return major.Shift(int32(frac)).Round(0).IntPart()
}

// Format renders minor units with grouping and the currency code, e.g. "1,500.00 MAD".
func Format(minor int64) string {
	c, frac := active()
	return gomoney.NewFormatter(frac, ".", ",", c, "1 $").Format(minor)
}

// FormatShort renders a major-unit amount compactly: "1.5M MAD", "2.5K MAD", "750 MAD".
func FormatShort(major decimal.Decimal) string {
	c, _ := active()
	// Pick the suffix after rounding so 999.5 reads "1.0K", not "1000".
	if major.Abs().Round(0).LessThan(thousand) {
		return major.StringFixed(0) + " " + c
	}
	if k := major.Div(thousand).Round(1); k.Abs().LessThan(thousand) {
		return k.StringFixed(1) + "K " + c
	}
	return major.Div(million).StringFixed(1) + "M " + c
}

// ParseShort reads back a FormatShort string. The result matches the
// original amount to the precision FormatShort kept.
func ParseShort(s string) (decimal.Decimal, error) {
	c, _ := active()
	raw := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), c))

	multiplier := decimal.NewFromInt(1)
	switch {
	case strings.HasSuffix(raw, "M"):
		multiplier = million
		raw = strings.TrimSuffix(raw, "M")
	case strings.HasSuffix(raw, "K"):
		multiplier = thousand
		raw = strings.TrimSuffix(raw, "K")
	}

	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return d.Mul(multiplier), nil
}
