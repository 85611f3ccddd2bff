// Package primitives provides type-safe numeric primitives used across the
// engine. Token amounts are stored as unsigned 128-bit integers on
// the wire (decimal strings) and as math/big.Int internally; pool geometry
// keeps using plain float64 (see pool's own package docs) so the sqrt-price
// formulas stay bit-identical to the reference implementation.
package primitives

import (
	"errors"
	"fmt"
	"math/big"
)

var (
	// ErrNegativeAmount indicates an attempt to construct a negative U128.
	ErrNegativeAmount = errors.New("amount cannot be negative")
	// ErrInvalidU128 indicates a malformed decimal string on the wire.
	ErrInvalidU128 = errors.New("invalid u128 decimal string")
	// ErrU128Overflow indicates a value exceeding the 128-bit range.
	ErrU128Overflow = errors.New("u128 value overflows 128 bits")
)

var maxU128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))

// U128 wraps math/big.Int to represent an unsigned 128-bit token amount.
// The zero value is a valid representation of zero.
type U128 struct {
	v *big.Int
}

// Zero returns a U128 representing zero.
func Zero() U128 {
	return U128{v: big.NewInt(0)}
}

// NewU128FromUint64 constructs a U128 from a uint64.
func NewU128FromUint64(value uint64) U128 {
	return U128{v: new(big.Int).SetUint64(value)}
}

// NewU128FromBigInt constructs a U128 from a big.Int, copying it. Returns
// ErrNegativeAmount or ErrU128Overflow if out of range.
func NewU128FromBigInt(value *big.Int) (U128, error) {
	if value == nil {
		return Zero(), nil
	}
	if value.Sign() < 0 {
		return U128{}, ErrNegativeAmount
	}
	if value.Cmp(maxU128) > 0 {
		return U128{}, ErrU128Overflow
	}
	return U128{v: new(big.Int).Set(value)}, nil
}

// NewU128FromString parses a decimal string (the wire format per the engine's
// external interface) into a U128.
func NewU128FromString(s string) (U128, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return U128{}, fmt.Errorf("%w: %q", ErrInvalidU128, s)
	}
	return NewU128FromBigInt(v)
}

// MustU128FromUint64 is a convenience constructor for known-valid constants.
func MustU128FromUint64(value uint64) U128 {
	return NewU128FromUint64(value)
}

func (u U128) big() *big.Int {
	if u.v == nil {
		return big.NewInt(0)
	}
	return u.v
}

// Add returns u+other.
func (u U128) Add(other U128) U128 {
	return U128{v: new(big.Int).Add(u.big(), other.big())}
}

// Sub returns u-other. Returns ErrNegativeAmount if the result would be
// negative.
func (u U128) Sub(other U128) (U128, error) {
	r := new(big.Int).Sub(u.big(), other.big())
	if r.Sign() < 0 {
		return U128{}, ErrNegativeAmount
	}
	return U128{v: r}, nil
}

// SatSub returns u-other, saturating at zero instead of erroring. Used where
// the spec calls for clamped subtraction (e.g. residual computations during
// liquidation).
func (u U128) SatSub(other U128) U128 {
	r := new(big.Int).Sub(u.big(), other.big())
	if r.Sign() < 0 {
		return Zero()
	}
	return U128{v: r}
}

// Mul returns u*other.
func (u U128) Mul(other U128) U128 {
	return U128{v: new(big.Int).Mul(u.big(), other.big())}
}

// MulUint64 returns u*scalar.
func (u U128) MulUint64(scalar uint64) U128 {
	return U128{v: new(big.Int).Mul(u.big(), new(big.Int).SetUint64(scalar))}
}

// DivUint64 returns floor(u/scalar). Panics on division by zero, matching the
// panic-on-programmer-error convention used throughout the engine for
// invariant violations rather than user input.
func (u U128) DivUint64(scalar uint64) U128 {
	if scalar == 0 {
		panic("primitives: division by zero")
	}
	return U128{v: new(big.Int).Div(u.big(), new(big.Int).SetUint64(scalar))}
}

// Cmp compares u to other: -1, 0, or 1.
func (u U128) Cmp(other U128) int {
	return u.big().Cmp(other.big())
}

// LessThan returns true if u < other.
func (u U128) LessThan(other U128) bool {
	return u.Cmp(other) < 0
}

// GreaterThan returns true if u > other.
func (u U128) GreaterThan(other U128) bool {
	return u.Cmp(other) > 0
}

// IsZero returns true if u is zero.
func (u U128) IsZero() bool {
	return u.big().Sign() == 0
}

// Min returns the smaller of u and other.
func Min(a, b U128) U128 {
	if a.Cmp(b) <= 0 {
		return a
	}
	return b
}

// Float64 converts u to a float64. Used only at the boundary with the
// float64-based pool geometry (see pkg/implementations/concentrated_liquidity);
// never for balance accounting.
func (u U128) Float64() float64 {
	f := new(big.Float).SetInt(u.big())
	result, _ := f.Float64()
	return result
}

// RoundFloat64 converts a non-negative float64 to a U128 using round-half-up,
// matching the engine's §5 rounding rule at integer/float boundaries.
func RoundFloat64(f float64) U128 {
	if f <= 0 {
		return Zero()
	}
	bf := big.NewFloat(f + 0.5)
	i, _ := bf.Int(nil)
	return U128{v: i}
}

// String returns the decimal string representation, the wire format for
// u128 values.
func (u U128) String() string {
	return u.big().String()
}

// BigInt returns a copy of the underlying big.Int.
func (u U128) BigInt() *big.Int {
	return new(big.Int).Set(u.big())
}

// MarshalJSON renders the U128 as a JSON string, matching the "u128 as
// decimal strings" wire format.
func (u U128) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", u.String())), nil
}

// UnmarshalJSON parses a JSON string into the U128.
func (u *U128) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	parsed, err := NewU128FromString(s)
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}
