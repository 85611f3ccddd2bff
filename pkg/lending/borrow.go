package lending

import (
	"clamm/pkg/account"
	"clamm/pkg/primitives"
)

// Borrow is a simple or leveraged loan drawn against a concentrated-liquidity
// Position used as collateral. Collateral and Borrowed are both denominated
// in the position's total_locked units (the pool's token1); Asset is the
// reserve the borrow draws on and is not checked against the pool's token1.
type Borrow struct {
	ID                  uint64
	Owner               account.Address
	Asset               account.Address
	Borrowed            primitives.U128
	Collateral          primitives.U128
	PositionID          uint64
	PoolID              uint64
	LastUpdateTimestamp uint64
	APRBps              uint16
	// Leverage is nil for a simple (1x) borrow; set for a leveraged one.
	Leverage *float64
	Fees     primitives.U128
	// LiquidationPrice is the [lower, upper] price range of the backing
	// position (its sqrt-price bounds squared), snapshotted at origination.
	// It is recorded only; health checks do not read it.
	LiquidationPrice [2]float64
}

// calculateFees returns the fee accrued between LastUpdateTimestamp and now,
// using the borrow's own (1 + apr/10000) multiplicative-on-linear-time
// coefficient — not the deposit side's plain apr/10000. This asymmetry is
// deliberate: preserved exactly for bit-parity with the reference scenarios.
func (b *Borrow) calculateFees(now uint64) primitives.U128 {
	elapsed := now - b.LastUpdateTimestamp
	coefficient := (float64(elapsed) / float64(MsInYear)) * (1.0 + float64(b.APRBps)/float64(BasisPointBase))
	fees := b.Borrowed.Float64() * coefficient
	return primitives.RoundFloat64(fees)
}

// RefreshFees accrues fees up to now and advances LastUpdateTimestamp.
func (b *Borrow) RefreshFees(now uint64) {
	b.Fees = b.Fees.Add(b.calculateFees(now))
	b.LastUpdateTimestamp = now
}

// TotalOwed returns Borrowed+Fees, the amount required to fully repay.
func (b *Borrow) TotalOwed() primitives.U128 {
	return b.Borrowed.Add(b.Fees)
}

// IsLeveraged reports whether this borrow was opened with leverage.
func (b *Borrow) IsLeveraged() bool {
	return b.Leverage != nil
}
