package lending

import (
	"clamm/pkg/account"
	"clamm/pkg/primitives"
)

// Reserve is a passive per-asset liquidity pool that deposits fund and
// borrows draw down.
type Reserve struct {
	Asset                 account.Address
	Deposited             primitives.U128
	Borrowed              primitives.U128
	UtilizationRate       float64
	TargetUtilizationRate float64
	LoanToValue           float64
	LiquidationThreshold  float64
}

// NewReserve creates a zeroed reserve for asset using cfg's defaults.
func NewReserve(asset account.Address, cfg Config) *Reserve {
	return &Reserve{
		Asset:                 asset,
		Deposited:             primitives.Zero(),
		Borrowed:              primitives.Zero(),
		TargetUtilizationRate: cfg.DefaultTargetUtilizationRate,
		LoanToValue:           cfg.DefaultLoanToValue,
		LiquidationThreshold:  cfg.DefaultLiquidationThreshold,
	}
}

// TotalLiquidity returns the reserve's deposited amount, the external name
// the spec's data model gives this same field.
func (r *Reserve) TotalLiquidity() primitives.U128 {
	return r.Deposited
}

// Available returns deposited-borrowed, the amount still free to lend.
func (r *Reserve) Available() primitives.U128 {
	return r.Deposited.SatSub(r.Borrowed)
}

// IncreaseDeposit adds amount to Deposited and refreshes utilization.
func (r *Reserve) IncreaseDeposit(amount primitives.U128) {
	r.Deposited = r.Deposited.Add(amount)
	r.refreshUtilizationRate()
}

// DecreaseDeposit subtracts amount from Deposited and refreshes utilization.
func (r *Reserve) DecreaseDeposit(amount primitives.U128) {
	r.Deposited = r.Deposited.SatSub(amount)
	r.refreshUtilizationRate()
}

// IncreaseBorrowed adds amount to Borrowed and refreshes utilization.
func (r *Reserve) IncreaseBorrowed(amount primitives.U128) {
	r.Borrowed = r.Borrowed.Add(amount)
	r.refreshUtilizationRate()
}

// DecreaseBorrowed subtracts amount from Borrowed and refreshes utilization.
func (r *Reserve) DecreaseBorrowed(amount primitives.U128) {
	r.Borrowed = r.Borrowed.SatSub(amount)
	r.refreshUtilizationRate()
}

func (r *Reserve) refreshUtilizationRate() {
	if r.Deposited.IsZero() {
		r.UtilizationRate = 0
		return
	}
	r.UtilizationRate = r.Borrowed.Float64() / r.Deposited.Float64()
}
