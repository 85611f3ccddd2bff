// Package ticks implements the tick-space price encoding shared by every pool:
// sqrt-price <-> tick conversions, and tick-spacing lookups reused from the
// Uniswap V3 SDK's fee-tier table for alignment validation. All arithmetic is
// plain float64 — see pool's package doc for why this engine does not route
// pool geometry through a decimal type.
package ticks

import (
	"math"

	"github.com/daoleno/uniswapv3-sdk/constants"
)

// tickBase is 1.0001^0.5, the per-tick sqrt-price growth factor: sqrt(P(t)) =
// tickBase^t.
var (
	tickBase    = math.Pow(1.0001, 0.5)
	logTickBase = math.Log(tickBase)
)

// SqrtPriceToTick returns floor(log(sqrtPrice)/log(1.0001^0.5)), the largest
// tick whose sqrt-price does not exceed sqrtPrice.
func SqrtPriceToTick(sqrtPrice float64) int32 {
	return int32(math.Floor(math.Log(sqrtPrice) / logTickBase))
}

// TickToSqrtPrice returns 1.0001^(tick/2).
func TickToSqrtPrice(tick int32) float64 {
	return math.Pow(1.0001, float64(tick)/2.0)
}

// PriceToSqrtPrice converts a plain price ratio (token1/token0) to its
// sqrt-price representation.
func PriceToSqrtPrice(price float64) float64 {
	return math.Sqrt(price)
}

// FeeTierSpacing returns the canonical tick spacing for a Uniswap-V3-style
// fee tier (in hundredths of a basis point), reused here purely as an
// alignment sanity check for pools that choose to align their bounds to a
// fee-tier grid; the engine itself does not require bounds to be aligned —
// any integer tick is a valid position boundary per the spec.
func FeeTierSpacing(feeHundredthsBps int) (int, bool) {
	spacing, ok := constants.TickSpacings[constants.FeeAmount(feeHundredthsBps)]
	return spacing, ok
}
