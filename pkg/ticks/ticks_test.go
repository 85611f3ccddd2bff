package ticks

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTickSqrtPriceRoundTrip(t *testing.T) {
	for _, tick := range []int32{-46054, -1000, 0, 1, 46054, 100000} {
		sp := TickToSqrtPrice(tick)
		got := SqrtPriceToTick(sp)
		require.InDelta(t, float64(tick), float64(got), 1.0)
	}
}

func TestSqrtPriceToTickKnownValue(t *testing.T) {
	// price=100 -> sqrt_price=10 -> tick=46054 (scenario 1 in the spec).
	sqrtPrice := PriceToSqrtPrice(100.0)
	require.InDelta(t, 10.0, sqrtPrice, 1e-9)
	tick := SqrtPriceToTick(sqrtPrice)
	require.Equal(t, int32(46054), tick)
}

func TestTickToSqrtPriceMonotone(t *testing.T) {
	prev := TickToSqrtPrice(-10)
	for tick := int32(-9); tick <= 10; tick++ {
		cur := TickToSqrtPrice(tick)
		require.Greater(t, cur, prev)
		prev = cur
	}
}

func TestFeeTierSpacingKnownTiers(t *testing.T) {
	spacing, ok := FeeTierSpacing(3000)
	require.True(t, ok)
	require.Equal(t, 60, spacing)

	_, ok = FeeTierSpacing(42)
	require.False(t, ok)
}

func TestSqrtPriceToTickIsFloor(t *testing.T) {
	sp := TickToSqrtPrice(5) * math.Nextafter(1.0, 2.0)
	require.Equal(t, int32(5), SqrtPriceToTick(sp))
}
