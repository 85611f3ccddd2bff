package concentrated_liquidity

import (
	"context"

	"clamm/pkg/account"
	"clamm/pkg/mechanisms"
	"clamm/pkg/primitives"
)

// Adapter exposes a Pool through the generic mechanisms.LiquidityPool
// contract, so callers that dispatch over that interface (rather than the
// pool's own richer API) can drive a concentrated-liquidity pool the same
// way they'd drive any other AMM mechanism the package defines.
type Adapter struct {
	pool *Pool
}

// NewAdapter wraps an existing pool.
func NewAdapter(pool *Pool) *Adapter {
	return &Adapter{pool: pool}
}

func (a *Adapter) Mechanism() mechanisms.MechanismType {
	return mechanisms.MechanismTypeLiquidityPool
}

func (a *Adapter) Venue() string {
	return "concentrated-liquidity"
}

// Calculate returns the pool's current state; it performs no mutation.
func (a *Adapter) Calculate(ctx context.Context, params mechanisms.PoolParams) (mechanisms.PoolState, error) {
	if err := ctx.Err(); err != nil {
		return mechanisms.PoolState{}, err
	}
	price := a.pool.SqrtPrice * a.pool.SqrtPrice
	return mechanisms.PoolState{
		SpotPrice:          primitives.NewDecimalFromFloat(price),
		Liquidity:          primitives.NewDecimalFromFloat(a.pool.Liquidity),
		EffectiveLiquidity: primitives.NewDecimalFromFloat(a.pool.Liquidity),
		AccumulatedFeesA:   primitives.NewDecimalFromFloat(a.pool.ProtocolFeeToken0.Float64()),
		AccumulatedFeesB:   primitives.NewDecimalFromFloat(a.pool.ProtocolFeeToken1.Float64()),
		Metadata: map[string]interface{}{
			"tick":      a.pool.Tick,
			"sqrtPrice": a.pool.SqrtPrice,
		},
	}, nil
}

// AddLiquidity opens a position anchored on token0 and sized by
// amounts.AmountA (AmountB is ignored), owned by the zero address. The
// generic interface carries no range, so the bounds are fixed at +/-0.5% of
// the current sqrt-price (about +/-1% in price). Callers that need an
// explicit range should use Pool.OpenPosition directly.
func (a *Adapter) AddLiquidity(ctx context.Context, amounts mechanisms.TokenAmounts) (mechanisms.PoolPosition, error) {
	if err := ctx.Err(); err != nil {
		return mechanisms.PoolPosition{}, err
	}
	sqrtLower := a.pool.SqrtPrice * 0.995
	sqrtUpper := a.pool.SqrtPrice * 1.005
	amount := primitives.RoundFloat64(amounts.AmountA.Float64())
	id, t0, t1 := a.pool.OpenPosition(account.Zero, Token0, amount, sqrtLower, sqrtUpper)
	pos, _ := a.pool.GetPosition(id)
	return mechanisms.PoolPosition{
		PoolID:    decimalPoolID(a.pool.ID),
		Liquidity: primitives.NewDecimalFromFloat(pos.Liquidity),
		TokensDeposited: mechanisms.TokenAmounts{
			AmountA: primitives.NewDecimalFromFloat(t0.Float64()),
			AmountB: primitives.NewDecimalFromFloat(t1.Float64()),
		},
		Metadata: map[string]interface{}{"position_id": id},
	}, nil
}

// RemoveLiquidity closes the position named in position.Metadata["position_id"].
func (a *Adapter) RemoveLiquidity(ctx context.Context, position mechanisms.PoolPosition) (mechanisms.TokenAmounts, error) {
	if err := ctx.Err(); err != nil {
		return mechanisms.TokenAmounts{}, err
	}
	positionID, _ := position.Metadata["position_id"].(uint64)
	_, t0, t1, _, _, err := a.pool.ClosePosition(positionID)
	if err != nil {
		return mechanisms.TokenAmounts{}, err
	}
	return mechanisms.TokenAmounts{
		AmountA: primitives.NewDecimalFromFloat(t0.Float64()),
		AmountB: primitives.NewDecimalFromFloat(t1.Float64()),
	}, nil
}

func decimalPoolID(id uint64) string {
	return primitives.NewDecimalFromFloat(float64(id)).String()
}
