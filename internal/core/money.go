// Package core provides the ledger domain types, money parsing and the entry validator.
//
// Amounts are carried as decimal.Decimal end to end. Only presentation rounds,
// and it always rounds to two places.
package core

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned when a string is not a decimal number.
var ErrInvalidAmount = errors.New("invalid amount")

var hundred = decimal.NewFromInt(100)

// ParseAmount converts user input to a decimal.
//
// Surrounding spaces, a leading rupee sign and comma digit grouping are ignored,
// so "₹ 1,25,000.50" and "125000.5" parse to the same value. An empty string is zero.
// Signs are kept: range checks belong to the validator so it can report the offending value.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "₹")
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	s = strings.ReplaceAll(s, ",", "")
	if strings.ContainsAny(s, "eE") {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// ChargeFor returns amount × pct / 100.
func ChargeFor(amount, pct decimal.Decimal) decimal.Decimal {
	return amount.Mul(pct).Div(hundred)
}

// Round2 rounds half away from zero to two decimal places.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// FormatAmount renders d with two decimals and comma thousands grouping, e.g. 1,234,567.50.
func FormatAmount(d decimal.Decimal) string {
	s := d.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	lead := len(intPart) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(intPart[:lead])
	for i := lead; i < len(intPart); i += 3 {
		b.WriteByte(',')
		b.WriteString(intPart[i : i+3])
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}

// FormatRupees is FormatAmount with the currency sign.
func FormatRupees(d decimal.Decimal) string {
	return "₹" + FormatAmount(d)
}
