package lending

import (
	"testing"

	"clamm/pkg/primitives"

	"github.com/stretchr/testify/require"
)

func TestBorrowFeesAccrueWithMultiplicativeCoefficient(t *testing.T) {
	b := &Borrow{
		Borrowed:            primitives.NewU128FromUint64(100),
		LastUpdateTimestamp: 0,
		APRBps:              500,
		Fees:                primitives.Zero(),
	}
	b.RefreshFees(MsInYear)
	// coefficient = 1.0 * (1 + 0.05) = 1.05 -> fees = 105, distinct from the
	// deposit side's plain-rate 5.
	require.Equal(t, "105", b.Fees.String())
}

func TestBorrowTotalOwedIncludesFees(t *testing.T) {
	b := &Borrow{
		Borrowed: primitives.NewU128FromUint64(80),
		Fees:     primitives.NewU128FromUint64(4),
	}
	require.Equal(t, "84", b.TotalOwed().String())
}

func TestBorrowIsLeveraged(t *testing.T) {
	simple := &Borrow{}
	require.False(t, simple.IsLeveraged())

	lev := 2.0
	leveraged := &Borrow{Leverage: &lev}
	require.True(t, leveraged.IsLeveraged())
}
