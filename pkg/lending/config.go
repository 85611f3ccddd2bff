// Package lending implements the margin overlay: passive per-asset reserves,
// interest-accruing deposits, and collateralized borrows drawn against
// concentrated-liquidity positions.
package lending

// MsInYear is the number of milliseconds the engine treats as one year for
// linear interest accrual.
const MsInYear uint64 = 31536000000

// BasisPointBase is the basis-point denominator (1/10000ths).
const BasisPointBase uint16 = 10000

// Config holds the engine-wide lending defaults. A single Config is shared by
// every Reserve created through the engine; CreateReserve takes no
// per-reserve overrides, so each reserve starts from these values.
type Config struct {
	// DefaultDepositAPRBps is the APR new deposits accrue at, in basis points.
	DefaultDepositAPRBps uint16 `yaml:"default_deposit_apr_bps"`
	// DefaultBorrowAPRBps is the APR new borrows accrue fees at.
	DefaultBorrowAPRBps uint16 `yaml:"default_borrow_apr_bps"`
	// DefaultTargetUtilizationRate is the reserve's soft utilization target.
	DefaultTargetUtilizationRate float64 `yaml:"default_target_utilization_rate"`
	// DefaultLoanToValue is copied into each reserve's LoanToValue. Borrow
	// origination does not consult it: a simple borrow draws the position's
	// full total_locked value.
	DefaultLoanToValue float64 `yaml:"default_loan_to_value"`
	// DefaultLiquidationThreshold scales collateral value in the health
	// factor; a borrow becomes liquidatable once
	// collateral_value*threshold < borrowed+fees. A simple (1x) borrow draws
	// down its full collateral value, so threshold also doubles as that
	// borrow's health factor at origination (1.25 here, matching the
	// reference scenario of a fresh 1x borrow sitting at health ≈ 1.25).
	DefaultLiquidationThreshold float64 `yaml:"default_liquidation_threshold"`
}

// DefaultConfig returns the engine's out-of-the-box lending parameters.
func DefaultConfig() Config {
	return Config{
		DefaultDepositAPRBps:         500,
		DefaultBorrowAPRBps:          500,
		DefaultTargetUtilizationRate: 0.8,
		DefaultLoanToValue:           0.75,
		DefaultLiquidationThreshold:  1.25,
	}
}
