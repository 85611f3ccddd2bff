package concentrated_liquidity

import (
	"math"

	"clamm/pkg/enginerr"
	"clamm/pkg/ticks"
)

// swapCursor carries the three pieces of pool state a tick walk mutates
// (liquidity, sqrt-price, tick), separated from Pool itself so the exact same
// walk can run either committed (Swap) or disposably (GetExpense/
// GetExpenseFor) against the same TicksRange map without Pool ever observing
// a quote's intermediate state.
type swapCursor struct {
	liquidity  float64
	sqrtPrice  float64
	tick       int32
	ticksRange map[int32]*Tick
}

// nextInitializedTick returns the nearest tick with a registered boundary
// strictly on the far side of the cursor's current tick in the walk
// direction: below current for movingDown, above for moving up. A linear
// scan is fine here — pools are not expected to carry enough distinct
// position boundaries to make this a bottleneck.
func (c *swapCursor) nextInitializedTick(movingDown bool) (int32, bool) {
	found := false
	var best int32
	for idx := range c.ticksRange {
		if movingDown {
			if idx < c.tick && (!found || idx > best) {
				best, found = idx, true
			}
		} else {
			if idx > c.tick && (!found || idx < best) {
				best, found = idx, true
			}
		}
	}
	return best, found
}

// crossTick applies a tick's signed liquidity_net to the cursor's active
// liquidity. LiquidityNet is defined for an upward crossing; a downward
// crossing applies its negation.
func (c *swapCursor) crossTick(idx int32, movingDown bool) {
	t, ok := c.ticksRange[idx]
	if !ok {
		return
	}
	if movingDown {
		c.liquidity -= t.LiquidityNet
	} else {
		c.liquidity += t.LiquidityNet
	}
}

// walkExactIn consumes amountInNet (already net of fees) and returns the
// resulting amount_out, advancing the cursor's liquidity/sqrt-price/tick
// across as many tick boundaries as the trade size requires. Panics with
// NOT_ENOUGH_LIQUIDITY if the price would have to move past the last
// registered boundary in the trade's direction with zero active liquidity.
func (c *swapCursor) walkExactIn(sellingToken0 bool, amountInNet float64) float64 {
	remaining := amountInNet
	amountOut := 0.0

	for remaining > 1e-9 {
		if c.liquidity <= 0 {
			nextTick, found := c.nextInitializedTick(sellingToken0)
			if !found {
				enginerr.Panic(enginerr.ErrNotEnoughLiquidity)
			}
			c.tick = nextTick
			c.sqrtPrice = ticks.TickToSqrtPrice(nextTick)
			c.crossTick(nextTick, sellingToken0)
			continue
		}

		nextTick, found := c.nextInitializedTick(sellingToken0)
		var boundary float64
		if found {
			boundary = ticks.TickToSqrtPrice(nextTick)
		}

		if sellingToken0 {
			var inToBoundary, outToBoundary float64
			if found {
				inToBoundary = (1.0/boundary - 1.0/c.sqrtPrice) * c.liquidity
				outToBoundary = (c.sqrtPrice - boundary) * c.liquidity
			}
			if !found || remaining < inToBoundary {
				deltaReversed := remaining / c.liquidity
				newSqrtPrice := c.sqrtPrice / (deltaReversed*c.sqrtPrice + 1.0)
				amountOut += math.Abs((newSqrtPrice - c.sqrtPrice) * c.liquidity)
				c.sqrtPrice = newSqrtPrice
				c.tick = ticks.SqrtPriceToTick(newSqrtPrice)
				remaining = 0
			} else {
				amountOut += math.Abs(outToBoundary)
				remaining -= inToBoundary
				c.sqrtPrice = boundary
				c.tick = nextTick
				c.crossTick(nextTick, true)
			}
		} else {
			var inToBoundary, outToBoundary float64
			if found {
				inToBoundary = (boundary - c.sqrtPrice) * c.liquidity
				outToBoundary = (1.0/boundary - 1.0/c.sqrtPrice) * c.liquidity
			}
			if !found || remaining < inToBoundary {
				deltaSqrtPrice := remaining / c.liquidity
				newSqrtPrice := c.sqrtPrice + deltaSqrtPrice
				amountOut += math.Abs((1.0/newSqrtPrice - 1.0/c.sqrtPrice) * c.liquidity)
				c.sqrtPrice = newSqrtPrice
				c.tick = ticks.SqrtPriceToTick(newSqrtPrice)
				remaining = 0
			} else {
				amountOut += math.Abs(outToBoundary)
				remaining -= inToBoundary
				c.sqrtPrice = boundary
				c.tick = nextTick
				c.crossTick(nextTick, false)
			}
		}
	}

	return amountOut
}

// walkExactOut is the inverse of walkExactIn: given a desired amount_out of
// the token named by tokenOutIsToken1, it returns the amount_in required,
// advancing the cursor the same way. Used only by GetExpenseFor's read-only
// quote (the cursor is always discarded after, never committed).
func (c *swapCursor) walkExactOut(tokenOutIsToken1 bool, amountOutWanted float64) float64 {
	remaining := amountOutWanted
	amountIn := 0.0

	for remaining > 1e-9 {
		if c.liquidity <= 0 {
			nextTick, found := c.nextInitializedTick(tokenOutIsToken1)
			if !found {
				enginerr.Panic(enginerr.ErrNotEnoughLiquidity)
			}
			c.tick = nextTick
			c.sqrtPrice = ticks.TickToSqrtPrice(nextTick)
			c.crossTick(nextTick, tokenOutIsToken1)
			continue
		}

		nextTick, found := c.nextInitializedTick(tokenOutIsToken1)
		var boundary float64
		if found {
			boundary = ticks.TickToSqrtPrice(nextTick)
		}

		if tokenOutIsToken1 {
			var outToBoundary float64
			if found {
				outToBoundary = math.Abs((c.sqrtPrice - boundary) * c.liquidity)
			}
			if !found || remaining < outToBoundary {
				newSqrtPrice := c.sqrtPrice - remaining/c.liquidity
				amountIn += math.Abs((1.0/newSqrtPrice - 1.0/c.sqrtPrice) * c.liquidity)
				c.sqrtPrice = newSqrtPrice
				c.tick = ticks.SqrtPriceToTick(newSqrtPrice)
				remaining = 0
			} else {
				amountIn += math.Abs((1.0/boundary - 1.0/c.sqrtPrice) * c.liquidity)
				remaining -= outToBoundary
				c.sqrtPrice = boundary
				c.tick = nextTick
				c.crossTick(nextTick, true)
			}
		} else {
			var outToBoundary float64
			if found {
				outToBoundary = math.Abs((1.0/boundary - 1.0/c.sqrtPrice) * c.liquidity)
			}
			if !found || remaining < outToBoundary {
				deltaReversed := remaining / c.liquidity
				newSqrtPrice := c.sqrtPrice / (1.0 - deltaReversed*c.sqrtPrice)
				amountIn += math.Abs(newSqrtPrice-c.sqrtPrice) * c.liquidity
				c.sqrtPrice = newSqrtPrice
				c.tick = ticks.SqrtPriceToTick(newSqrtPrice)
				remaining = 0
			} else {
				amountIn += math.Abs(boundary-c.sqrtPrice) * c.liquidity
				remaining -= outToBoundary
				c.sqrtPrice = boundary
				c.tick = nextTick
				c.crossTick(nextTick, false)
			}
		}
	}

	return amountIn
}
