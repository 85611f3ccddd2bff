package concentrated_liquidity

import (
	"testing"

	"clamm/pkg/account"
	"clamm/pkg/enginerr"
	"clamm/pkg/primitives"
	"clamm/pkg/ticks"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

var (
	tokenA = account.FromHex("0x0000000000000000000000000000000000000A")
	tokenB = account.FromHex("0x0000000000000000000000000000000000000B")
	alice  = account.FromHex("0x000000000000000000000000000000000000A1")
)

func newTestPool(price float64, protocolFeeBps, lpFeeBps uint16) *Pool {
	return New(1, tokenA, tokenB, price, protocolFeeBps, lpFeeBps, zerolog.Nop())
}

func TestOpenPositionInRangeDerivesLiquidity(t *testing.T) {
	pool := newTestPool(100.0, 0, 30)
	require.InDelta(t, 10.0, pool.SqrtPrice, 1e-9)
	require.Equal(t, int32(46054), pool.Tick)

	amount := primitives.NewU128FromUint64(100000)
	_, token0Real, token1Real := pool.OpenPosition(alice, Token0, amount, 9.0, 11.0)

	// L = amount0 * sqrtPrice * sqrtUpper / (sqrtUpper - sqrtPrice)
	expectedL := 100000.0 * 10.0 * 11.0 / (11.0 - 10.0)
	require.InDelta(t, expectedL, pool.Liquidity, 1e-6)
	require.Equal(t, "100000", token0Real.String())
	// token1 = L*(sqrtPrice-sqrtLower) = L*(10-9) = L
	require.InDelta(t, expectedL, token1Real.Float64(), 1.0)
}

func TestOpenPositionBelowRangeRejectsToken1Anchor(t *testing.T) {
	pool := newTestPool(4.0, 0, 30) // sqrt_price = 2, below [9,11]
	amount := primitives.NewU128FromUint64(1000)

	require.PanicsWithValue(t, "SEND_TOKEN0_INSTEAD", func() {
		pool.OpenPosition(alice, Token1, amount, 9.0, 11.0)
	})
}

func TestOpenPositionAboveRangeRejectsToken0Anchor(t *testing.T) {
	pool := newTestPool(400.0, 0, 30) // sqrt_price = 20, above [9,11]
	amount := primitives.NewU128FromUint64(1000)

	require.PanicsWithValue(t, "SEND_TOKEN1_INSTEAD", func() {
		pool.OpenPosition(alice, Token0, amount, 9.0, 11.0)
	})
}

func TestOpenPositionBelowRangeAcceptsToken0Anchor(t *testing.T) {
	pool := newTestPool(4.0, 0, 30)
	amount := primitives.NewU128FromUint64(1000)

	id, token0Real, token1Real := pool.OpenPosition(alice, Token0, amount, 9.0, 11.0)
	pos, err := pool.GetPosition(id)
	require.NoError(t, err)
	require.False(t, pos.IsActive)
	require.True(t, token1Real.IsZero())
	require.Equal(t, "1000", token0Real.String())
	// below-range position contributes nothing to active pool liquidity.
	require.Equal(t, 0.0, pool.Liquidity)
}

func TestSwapWithinSingleSegmentNoTickCrossing(t *testing.T) {
	pool := newTestPool(100.0, 0, 0)
	amount := primitives.NewU128FromUint64(1_000_000)
	pool.OpenPosition(alice, Token0, amount, 9.0, 11.0)

	startSqrtPrice := pool.SqrtPrice
	amountIn := primitives.NewU128FromUint64(1000)
	amountOut, protocolFee, err := pool.Swap(tokenA, tokenB, amountIn)
	require.NoError(t, err)
	require.True(t, protocolFee.IsZero())
	require.True(t, amountOut.GreaterThan(primitives.Zero()))
	// Selling token0 pushes the price down.
	require.Less(t, pool.SqrtPrice, startSqrtPrice)
}

func TestSwapWithNoLiquidityPanics(t *testing.T) {
	pool := newTestPool(100.0, 0, 30)
	amountIn := primitives.NewU128FromUint64(1000)

	require.PanicsWithValue(t, "NOT_ENOUGH_LIQUIDITY", func() {
		pool.Swap(tokenA, tokenB, amountIn)
	})
}

func TestSwapRejectsIncorrectTokenPair(t *testing.T) {
	pool := newTestPool(100.0, 0, 30)
	other := account.FromHex("0x00000000000000000000000000000000000099")
	_, _, err := pool.Swap(tokenA, other, primitives.NewU128FromUint64(100))
	require.ErrorContains(t, err, "INCORRECT_TOKEN")
}

func TestGetExpenseMatchesSwapOutputWhenUncommitted(t *testing.T) {
	pool := newTestPool(100.0, 10, 20)
	pool.OpenPosition(alice, Token0, primitives.NewU128FromUint64(1_000_000), 9.0, 11.0)

	amountIn := primitives.NewU128FromUint64(5000)
	quoted, err := pool.GetExpense(tokenA, tokenB, amountIn)
	require.NoError(t, err)

	actual, _, err := pool.Swap(tokenA, tokenB, amountIn)
	require.NoError(t, err)
	require.Equal(t, quoted.String(), actual.String())
}

func TestClosePositionReturnsLockedAmountsAndFees(t *testing.T) {
	pool := newTestPool(100.0, 0, 100) // 1% LP fee
	id, _, _ := pool.OpenPosition(alice, Token0, primitives.NewU128FromUint64(1_000_000), 9.0, 11.0)

	_, _, err := pool.Swap(tokenB, tokenA, primitives.NewU128FromUint64(10000))
	require.NoError(t, err)

	owner, t0, t1, fee0, fee1, err := pool.ClosePosition(id)
	require.NoError(t, err)
	require.True(t, owner.Equal(alice))
	require.True(t, t0.GreaterThan(primitives.Zero()))
	require.True(t, t1.GreaterThan(primitives.Zero()))
	// The only LP in the pool collects the whole fee (token1 was sold in).
	require.True(t, fee1.GreaterThan(primitives.Zero()))
	require.True(t, fee0.IsZero())

	_, err = pool.GetPosition(id)
	require.ErrorIs(t, err, enginerr.ErrPositionNotFound)
}

func TestRemoveLiquidityBeyondLockedPanics(t *testing.T) {
	pool := newTestPool(100.0, 0, 30)
	id, t0, _ := pool.OpenPosition(alice, Token0, primitives.NewU128FromUint64(1_000_000), 9.0, 11.0)

	tooMuch := t0.Add(primitives.NewU128FromUint64(1))
	require.PanicsWithValue(t, "NOT_ENOUGH_LIQUIDITY", func() {
		pool.RemoveLiquidity(id, Token0, tooMuch)
	})
}

func TestAddLiquidityIncreasesBothLockedSides(t *testing.T) {
	pool := newTestPool(100.0, 0, 30)
	id, t0Before, t1Before := pool.OpenPosition(alice, Token0, primitives.NewU128FromUint64(1_000_000), 9.0, 11.0)

	d0, d1, err := pool.AddLiquidity(id, Token0, primitives.NewU128FromUint64(500_000))
	require.NoError(t, err)
	require.True(t, d0.GreaterThan(primitives.Zero()))
	require.True(t, d1.GreaterThan(primitives.Zero()))

	pos, err := pool.GetPosition(id)
	require.NoError(t, err)
	require.Greater(t, pos.Token0Locked, t0Before.Float64())
	require.Greater(t, pos.Token1Locked, t1Before.Float64())
}

func TestGetExpenseForIsApproximateInverseOfGetExpense(t *testing.T) {
	pool := newTestPool(100.0, 0, 0)
	pool.OpenPosition(alice, Token0, primitives.NewU128FromUint64(1_000_000), 9.0, 11.0)

	amountIn := primitives.NewU128FromUint64(2000)
	amountOut, err := pool.GetExpense(tokenA, tokenB, amountIn)
	require.NoError(t, err)
	require.True(t, amountOut.GreaterThan(primitives.Zero()))

	impliedIn, err := pool.GetExpenseFor(tokenA, tokenB, amountOut)
	require.NoError(t, err)
	// Rounding on both the forward and inverse quote keeps this within a
	// handful of integer units, not bit-exact.
	require.InDelta(t, amountIn.Float64(), impliedIn.Float64(), 5)
}

func TestTickToSqrtPriceConsistencyWithPoolBounds(t *testing.T) {
	require.Equal(t, ticks.SqrtPriceToTick(9.0), ticks.SqrtPriceToTick(ticks.TickToSqrtPrice(ticks.SqrtPriceToTick(9.0))))
}
