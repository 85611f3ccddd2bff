package concentrated_liquidity

// Tick stores the liquidity change registered at a discrete price index. Each
// open Position contributes to the two ticks nearest its sqrt-price bounds:
// LiquidityNet carries the signed delta applied to Pool.Liquidity when price
// crosses the tick moving upward (crossing downward applies the negation),
// LiquidityGross is the unsigned total used to know whether a tick still has
// any registered boundary at all.
type Tick struct {
	LiquidityNet   float64
	LiquidityGross float64
}
