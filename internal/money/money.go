// Package money keeps currency in integer minor units so repeated sums never drift.
package money

import (
	"errors"
	"math"
	"math/bits"
	"strings"

	"github.com/shopspring/decimal"
)

// Symbol prefixes every formatted amount.
const Symbol = "₹"

// Cents is an amount in minor units (paise).
type Cents int64

// MaxPrice caps a single menu price at ₹1,00,00,000.00.
const MaxPrice Cents = 1_000_000_000

var (
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrNegativeAmount = errors.New("amount must not be negative")
	ErrTooPrecise     = errors.New("amount has more than 2 decimal places")
	ErrOverflow       = errors.New("amount out of range")
)

var maxMinor = decimal.NewFromInt(math.MaxInt64)

// Parse reads a decimal string such as "149.5" into minor units.
func Parse(s string) (Cents, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if d.IsNegative() {
		return 0, ErrNegativeAmount
	}
	minor := d.Shift(2)
	if !minor.IsInteger() {
		return 0, ErrTooPrecise
	}
	if minor.GreaterThan(maxMinor) {
		return 0, ErrInvalidAmount
	}
	return Cents(minor.IntPart()), nil
}

func (c Cents) Mul(qty int) Cents { return c * Cents(qty) }

// MulChecked is Mul for non-negative operands, failing instead of wrapping.
func (c Cents) MulChecked(qty int) (Cents, error) {
	if c < 0 || qty < 0 {
		return 0, ErrNegativeAmount
	}
	hi, lo := bits.Mul64(uint64(c), uint64(qty))
	if hi != 0 || lo > math.MaxInt64 {
		return 0, ErrOverflow
	}
	return Cents(lo), nil
}

// AddChecked sums non-negative amounts, failing instead of wrapping.
func (c Cents) AddChecked(d Cents) (Cents, error) {
	if c < 0 || d < 0 {
		return 0, ErrNegativeAmount
	}
	sum, carry := bits.Add64(uint64(c), uint64(d), 0)
	if carry != 0 || sum > math.MaxInt64 {
		return 0, ErrOverflow
	}
	return Cents(sum), nil
}

func (c Cents) Decimal() decimal.Decimal { return decimal.New(int64(c), -2) }

// Plain renders the amount with exactly two decimals and no symbol.
func (c Cents) Plain() string { return c.Decimal().StringFixed(2) }

func (c Cents) String() string { return Format(c) }

// Format renders "₹1234.50".
func Format(c Cents) string { return Symbol + c.Plain() }
