package concentrated_liquidity

import (
	"clamm/pkg/account"
	"clamm/pkg/enginerr"
	"clamm/pkg/primitives"
)

// Side names which of a pool's two tokens a caller is anchoring a liquidity
// operation on.
type Side int

const (
	Token0 Side = iota
	Token1
)

// Position is a single concentrated-liquidity range owned by one account. Its
// bounds are continuous sqrt-price values (not tick-quantized) so a caller can
// pick an arbitrary range; the pool quantizes each bound to the largest tick
// at or below it (ticks.SqrtPriceToTick) only for its own liquidity-crossing
// bookkeeping (see Tick).
type Position struct {
	ID        uint64
	Owner     account.Address
	Liquidity float64 // L
	SqrtLower float64
	SqrtUpper float64

	Token0Locked float64
	Token1Locked float64
	// TotalLocked expresses both locked amounts in token1 units, valued at
	// the sqrt-price last passed to refresh.
	TotalLocked float64

	FeesEarnedToken0 primitives.U128
	FeesEarnedToken1 primitives.U128

	// IsActive is true while the position's range covers the pool's current
	// sqrt-price (closed interval: an exact-boundary price still counts).
	IsActive bool
}

// newPosition derives L from a single anchored side and the three reference
// sqrt-prices, then seeds the resulting locked amounts via refresh. It panics
// with SEND_TOKEN1_INSTEAD / SEND_TOKEN0_INSTEAD if the caller anchored on the
// side that the current price has pushed to zero.
func newPosition(id uint64, owner account.Address, anchorSide Side, anchorAmount, sqrtLower, sqrtUpper, currentSqrtPrice float64) *Position {
	if sqrtLower >= sqrtUpper {
		enginerr.Panicf("invalid position range: lower bound must be below upper bound")
	}
	if anchorAmount <= 0 {
		enginerr.Panicf("anchor amount must be positive")
	}

	var liquidity float64
	switch {
	case currentSqrtPrice >= sqrtUpper:
		// Only token1 is locked above the range; token0 would be zero.
		if anchorSide == Token0 {
			enginerr.Panic(enginerr.ErrSendToken1Instead)
		}
		liquidity = anchorAmount / (sqrtUpper - sqrtLower)
	case currentSqrtPrice <= sqrtLower:
		// Only token0 is locked below the range; token1 would be zero.
		if anchorSide == Token1 {
			enginerr.Panic(enginerr.ErrSendToken0Instead)
		}
		liquidity = anchorAmount * sqrtLower * sqrtUpper / (sqrtUpper - sqrtLower)
	default:
		if anchorSide == Token0 {
			liquidity = anchorAmount * currentSqrtPrice * sqrtUpper / (sqrtUpper - currentSqrtPrice)
		} else {
			liquidity = anchorAmount / (currentSqrtPrice - sqrtLower)
		}
	}

	p := &Position{
		ID:               id,
		Owner:            owner,
		Liquidity:        liquidity,
		SqrtLower:        sqrtLower,
		SqrtUpper:        sqrtUpper,
		FeesEarnedToken0: primitives.Zero(),
		FeesEarnedToken1: primitives.Zero(),
	}
	p.refresh(currentSqrtPrice)
	return p
}

// refresh recomputes the position's locked amounts, active flag, and
// token1-denominated total against the given pool sqrt-price. The in-range
// formula is continuous at both boundaries, so treating the closed interval
// [SqrtLower, SqrtUpper] as "in range" here agrees exactly with the pinned
// out-of-range formulas at the two endpoints.
func (p *Position) refresh(sqrtPrice float64) {
	switch {
	case sqrtPrice > p.SqrtUpper:
		p.Token0Locked = 0
		p.Token1Locked = p.Liquidity * (p.SqrtUpper - p.SqrtLower)
		p.IsActive = false
	case sqrtPrice < p.SqrtLower:
		p.Token0Locked = p.Liquidity * (p.SqrtUpper - p.SqrtLower) / (p.SqrtLower * p.SqrtUpper)
		p.Token1Locked = 0
		p.IsActive = false
	default:
		p.Token0Locked = p.Liquidity * (p.SqrtUpper - sqrtPrice) / (sqrtPrice * p.SqrtUpper)
		p.Token1Locked = p.Liquidity * (sqrtPrice - p.SqrtLower)
		p.IsActive = true
	}
	referencePrice := sqrtPrice * sqrtPrice
	p.TotalLocked = p.Token1Locked + p.Token0Locked*referencePrice
}
