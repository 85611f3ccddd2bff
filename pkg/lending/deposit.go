package lending

import (
	"clamm/pkg/account"
	"clamm/pkg/primitives"
)

// Deposit is a user's interest-accruing claim against a Reserve.
type Deposit struct {
	ID                  uint64
	Owner               account.Address
	Asset               account.Address
	Amount              primitives.U128
	Timestamp           uint64
	LastUpdateTimestamp uint64
	APRBps              uint16
	Growth              primitives.U128
}

// NewDeposit creates a deposit for amount of asset at the given block
// timestamp (milliseconds), using aprBps for its accrual rate.
func NewDeposit(id uint64, owner, asset account.Address, amount primitives.U128, now uint64, aprBps uint16) *Deposit {
	return &Deposit{
		ID:                  id,
		Owner:               owner,
		Asset:               asset,
		Amount:              amount,
		Timestamp:           now,
		LastUpdateTimestamp: now,
		APRBps:              aprBps,
		Growth:              primitives.Zero(),
	}
}

// timestampDifferenceToCoefficient converts an elapsed-millisecond span and
// an APR (basis points) into the fractional-year*rate coefficient linear
// accrual multiplies the principal by.
func timestampDifferenceToCoefficient(elapsedMs uint64, aprBps uint16) float64 {
	return (float64(elapsedMs) / float64(MsInYear)) * (float64(aprBps) / float64(BasisPointBase))
}

// calculateGrowth returns the growth accrued between LastUpdateTimestamp and
// now, rounded to the nearest integer token unit.
func (d *Deposit) calculateGrowth(now uint64) primitives.U128 {
	elapsed := now - d.LastUpdateTimestamp
	growth := d.Amount.Float64() * timestampDifferenceToCoefficient(elapsed, d.APRBps)
	return primitives.RoundFloat64(growth)
}

// RefreshGrowth accrues growth up to now and advances LastUpdateTimestamp.
func (d *Deposit) RefreshGrowth(now uint64) {
	d.Growth = d.Growth.Add(d.calculateGrowth(now))
	d.LastUpdateTimestamp = now
}

// TakeGrowth transfers min(amount, Growth) out of Growth and returns it.
// Idempotent once Growth reaches zero: a second call with no intervening
// RefreshGrowth returns zero.
func (d *Deposit) TakeGrowth(amount primitives.U128) primitives.U128 {
	if amount.GreaterThan(d.Growth) {
		taken := d.Growth
		d.Growth = primitives.Zero()
		return taken
	}
	d.Growth = d.Growth.SatSub(amount)
	return amount
}
