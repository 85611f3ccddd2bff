package primitives

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrDivisionByZero indicates attempted division by zero.
	ErrDivisionByZero = errors.New("division by zero")
	// ErrInvalidDecimal indicates an invalid decimal value.
	ErrInvalidDecimal = errors.New("invalid decimal value")
)

// Decimal wraps shopspring/decimal.Decimal for precise ratio arithmetic at
// the config/display boundary (APR, loan-to-value, utilization targets).
// Pool geometry never goes through Decimal — see u128.go's package doc.
type Decimal struct {
	value decimal.Decimal
}

// NewDecimal creates a Decimal from an int64 value.
func NewDecimal(value int64) Decimal {
	return Decimal{value: decimal.NewFromInt(value)}
}

// NewDecimalFromFloat creates a Decimal from a float64 value.
func NewDecimalFromFloat(value float64) Decimal {
	return Decimal{value: decimal.NewFromFloat(value)}
}

// NewDecimalFromString creates a Decimal from a string representation.
func NewDecimalFromString(value string) (Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return Decimal{}, fmt.Errorf("%w: %s", ErrInvalidDecimal, err)
	}
	return Decimal{value: d}, nil
}

// MustDecimalFromString creates a Decimal from a string, panicking on error.
// Only use for known-valid constants in initialization.
func MustDecimalFromString(value string) Decimal {
	d, err := NewDecimalFromString(value)
	if err != nil {
		panic(err)
	}
	return d
}

// Mul returns the product of two Decimals.
func (d Decimal) Mul(other Decimal) Decimal {
	return Decimal{value: d.value.Mul(other.value)}
}

// Div returns the quotient of two Decimals.
func (d Decimal) Div(other Decimal) (Decimal, error) {
	if other.value.IsZero() {
		return Decimal{}, ErrDivisionByZero
	}
	return Decimal{value: d.value.Div(other.value)}, nil
}

// Float64 returns the float64 representation of the Decimal.
func (d Decimal) Float64() float64 {
	f, _ := d.value.Float64()
	return f
}

// String returns the string representation of the Decimal.
func (d Decimal) String() string {
	return d.value.String()
}

// BasisPoints interprets the Decimal as a basis-point ratio (value/10000).
func (d Decimal) BasisPoints() uint16 {
	bp, _ := d.value.Float64()
	return uint16(bp)
}
