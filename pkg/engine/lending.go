package engine

import (
	"fmt"

	"clamm/pkg/account"
	"clamm/pkg/enginerr"
	"clamm/pkg/lending"
	"clamm/pkg/primitives"
)

// CreateReserve initializes a passive reserve for asset. Only the engine
// owner may call this.
func (e *Engine) CreateReserve(caller, asset account.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !caller.Equal(e.owner) {
		return enginerr.ErrNotTokenOwner
	}
	e.lending.CreateReserve(asset)
	return nil
}

// CreateDeposit debits caller for amount of asset and opens an
// interest-accruing deposit against its reserve.
func (e *Engine) CreateDeposit(caller, asset account.Address, amount primitives.U128) (*lending.Deposit, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clock.NowMillis()
	e.balances.Debit(caller, asset, amount)
	d, err := e.lending.CreateDeposit(caller, asset, amount, now)
	if err != nil {
		e.balances.Credit(caller, asset, amount)
		return nil, err
	}
	return d, nil
}

// CloseDeposit closes caller's deposit id and credits them principal+growth.
func (e *Engine) CloseDeposit(caller account.Address, id uint64) (primitives.U128, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clock.NowMillis()
	d, err := e.lending.GetDeposit(id)
	if err != nil {
		return primitives.Zero(), err
	}
	asset := d.Asset
	payout, err := e.lending.CloseDeposit(id, caller, now)
	if err != nil {
		return primitives.Zero(), err
	}
	e.balances.Credit(caller, asset, payout)
	return payout, nil
}

// RefreshDepositsGrowth accrues growth on every outstanding deposit.
func (e *Engine) RefreshDepositsGrowth() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lending.RefreshDepositsGrowth(e.clock.NowMillis())
}

// TakeDepositGrowth credits caller up to amount of a deposit's accrued
// growth.
func (e *Engine) TakeDepositGrowth(caller account.Address, id uint64, amount primitives.U128) (primitives.U128, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	d, err := e.lending.GetDeposit(id)
	if err != nil {
		return primitives.Zero(), err
	}
	taken, err := e.lending.TakeDepositGrowth(id, caller, amount)
	if err != nil {
		return primitives.Zero(), err
	}
	e.balances.Credit(caller, d.Asset, taken)
	return taken, nil
}

// GetAccountDeposits lists every deposit owned by caller.
func (e *Engine) GetAccountDeposits(caller account.Address) []*lending.Deposit {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lending.GetAccountDeposits(caller)
}

// collateralValue returns a position's current total_locked (token1 units),
// the figure both borrow origination and health-factor checks value
// collateral at.
func (e *Engine) collateralValue(poolID, positionID uint64) (float64, error) {
	pool, err := e.getPool(poolID)
	if err != nil {
		return 0, err
	}
	pos, err := pool.GetPosition(positionID)
	if err != nil {
		return 0, err
	}
	return pos.TotalLocked, nil
}

// escrowPosition transfers the position's NFT from caller to the engine
// account, the on-chain analogue of locking the collateral for the borrow's
// duration, and records the borrow id the escrow now backs.
func (e *Engine) escrowPosition(caller account.Address, poolID, positionID, borrowID uint64) error {
	key := positionKey{poolID, positionID}
	tokenID, ok := e.positionNFT[key]
	if !ok {
		return fmt.Errorf("position %d in pool %d has no escrow token", positionID, poolID)
	}
	if _, already := e.borrowByNFT[tokenID]; already {
		return fmt.Errorf("position %d in pool %d is already escrowed", positionID, poolID)
	}
	if err := e.nft.Transfer(caller, e.owner, tokenID, nil); err != nil {
		return err
	}
	e.borrowByNFT[tokenID] = borrowID
	return nil
}

// releasePosition transfers the escrow NFT back to owner and removes the
// escrow record (used by both repay and liquidate).
func (e *Engine) releasePosition(poolID, positionID uint64, owner account.Address) {
	key := positionKey{poolID, positionID}
	tokenID, ok := e.positionNFT[key]
	if !ok {
		return
	}
	delete(e.borrowByNFT, tokenID)
	_ = e.nft.Transfer(e.owner, owner, tokenID, nil)
}

// SupplyCollateralAndBorrowSimple escrows the caller's position and opens a
// 1x borrow for its full total_locked value against asset's reserve.
func (e *Engine) SupplyCollateralAndBorrowSimple(caller, asset account.Address, poolID, positionID uint64) (borrowID uint64, borrowed primitives.U128, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	pool, err := e.getPool(poolID)
	if err != nil {
		return 0, primitives.Zero(), err
	}
	pos, err := pool.GetPosition(positionID)
	if err != nil {
		return 0, primitives.Zero(), err
	}
	if !pos.Owner.Equal(caller) {
		return 0, primitives.Zero(), enginerr.ErrNotTokenOwner
	}

	reserve, err := e.lending.GetReserve(asset)
	if err != nil {
		return 0, primitives.Zero(), err
	}
	totalLocked := primitives.RoundFloat64(pos.TotalLocked)
	if totalLocked.GreaterThan(reserve.Available()) {
		return 0, primitives.Zero(), enginerr.BorrowError(asset.String(), totalLocked, reserve.Available())
	}

	now := e.clock.NowMillis()
	b := e.lending.OpenSimpleBorrow(caller, asset, totalLocked, positionID, poolID, now, [2]float64{pos.SqrtLower * pos.SqrtLower, pos.SqrtUpper * pos.SqrtUpper})
	if err := e.escrowPosition(caller, poolID, positionID, b.ID); err != nil {
		e.lending.CloseBorrow(b.ID)
		return 0, primitives.Zero(), err
	}
	reserve.IncreaseBorrowed(totalLocked)
	e.balances.Credit(caller, asset, totalLocked)
	return b.ID, totalLocked, nil
}

// SupplyCollateralAndBorrowLeveraged escrows the caller's position and opens
// a leveraged borrow drawing (leverage-1)*total_locked against asset's
// reserve.
func (e *Engine) SupplyCollateralAndBorrowLeveraged(caller, asset account.Address, poolID, positionID uint64, leverage float64) (borrowID uint64, borrowed primitives.U128, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if leverage <= 1.0 {
		return 0, primitives.Zero(), fmt.Errorf("leverage must exceed 1.0")
	}

	pool, err := e.getPool(poolID)
	if err != nil {
		return 0, primitives.Zero(), err
	}
	pos, err := pool.GetPosition(positionID)
	if err != nil {
		return 0, primitives.Zero(), err
	}
	if !pos.Owner.Equal(caller) {
		return 0, primitives.Zero(), enginerr.ErrNotTokenOwner
	}

	reserve, err := e.lending.GetReserve(asset)
	if err != nil {
		return 0, primitives.Zero(), err
	}
	totalLocked := primitives.RoundFloat64(pos.TotalLocked)
	drawn := primitives.RoundFloat64(pos.TotalLocked * (leverage - 1))
	if drawn.GreaterThan(reserve.Available()) {
		return 0, primitives.Zero(), enginerr.BorrowError(asset.String(), drawn, reserve.Available())
	}

	now := e.clock.NowMillis()
	b := e.lending.OpenLeveragedBorrow(caller, asset, totalLocked, leverage, positionID, poolID, now, [2]float64{pos.SqrtLower * pos.SqrtLower, pos.SqrtUpper * pos.SqrtUpper})
	if err := e.escrowPosition(caller, poolID, positionID, b.ID); err != nil {
		e.lending.CloseBorrow(b.ID)
		return 0, primitives.Zero(), err
	}
	reserve.IncreaseBorrowed(b.Borrowed)
	e.balances.Credit(caller, asset, b.Borrowed)
	return b.ID, b.Borrowed, nil
}

// ReturnCollateralAndRepay debits caller the full outstanding owed amount,
// lowers the reserve's Borrowed total by the borrow's principal, and releases
// the escrowed position back to its owner.
func (e *Engine) ReturnCollateralAndRepay(caller account.Address, borrowID uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	b, err := e.lending.GetBorrow(borrowID)
	if err != nil {
		return err
	}
	if !b.Owner.Equal(caller) {
		return enginerr.ErrNotTokenOwner
	}
	now := e.clock.NowMillis()
	b.RefreshFees(now)
	owed := b.TotalOwed()

	e.balances.Debit(caller, b.Asset, owed)
	reserve, err := e.lending.GetReserve(b.Asset)
	if err != nil {
		return err
	}
	reserve.DecreaseBorrowed(b.Borrowed)

	e.releasePosition(b.PoolID, b.PositionID, b.Owner)
	e.lending.CloseBorrow(borrowID)
	return nil
}

// GetBorrowHealthFactor returns a borrow's live health factor, valuing
// collateral at its backing position's current total_locked.
func (e *Engine) GetBorrowHealthFactor(borrowID uint64) (float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	b, err := e.lending.GetBorrow(borrowID)
	if err != nil {
		return 0, err
	}
	value, err := e.collateralValue(b.PoolID, b.PositionID)
	if err != nil {
		return 0, err
	}
	return e.lending.HealthFactor(borrowID, value, e.clock.NowMillis())
}

// GetLiquidationList returns the ids of every borrow whose health factor has
// fallen below 1.0.
func (e *Engine) GetLiquidationList() []uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clock.NowMillis()
	return e.lending.LiquidationList(now, func(b *lending.Borrow) float64 {
		value, err := e.collateralValue(b.PoolID, b.PositionID)
		if err != nil {
			return 0
		}
		return value
	})
}

// Liquidate closes the backing position and seizes it: its token1-side
// proceeds go toward the outstanding debt, any shortfall is clawed back
// directly from the borrower's own asset balance (a simple borrow handed
// them that same asset at origination, so it is sitting right there), and
// any surplus is returned to them in that same asset. The position's
// token0-side proceeds never reach the borrower — they pay out to caller as
// the liquidator's incentive — so the borrower's token0 balance is left
// exactly as it was before liquidation, per the worked liquidation scenario.
func (e *Engine) Liquidate(caller account.Address, borrowID uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	b, err := e.lending.GetBorrow(borrowID)
	if err != nil {
		return err
	}
	value, err := e.collateralValue(b.PoolID, b.PositionID)
	if err != nil {
		return err
	}
	now := e.clock.NowMillis()
	health, err := e.lending.HealthFactor(borrowID, value, now)
	if err != nil {
		return err
	}
	if health >= 1.0 {
		return fmt.Errorf("borrow %d is not liquidatable (health factor %.4f)", borrowID, health)
	}

	pool, err := e.getPool(b.PoolID)
	if err != nil {
		return err
	}
	_, token0Out, token1Out, fee0, fee1, err := pool.ClosePosition(b.PositionID)
	if err != nil {
		return err
	}
	owed := b.TotalOwed()

	reserve, err := e.lending.GetReserve(b.Asset)
	if err != nil {
		return err
	}
	reserve.DecreaseBorrowed(b.Borrowed)

	proceeds := token1Out.Add(fee1)
	if proceeds.GreaterThan(owed) {
		e.balances.Credit(b.Owner, pool.Token1, proceeds.SatSub(owed))
	} else if shortfall := owed.SatSub(proceeds); !shortfall.IsZero() {
		e.balances.Debit(b.Owner, pool.Token1, shortfall)
	}

	e.balances.Credit(caller, pool.Token0, token0Out.Add(fee0))

	key := positionKey{b.PoolID, b.PositionID}
	if tokenID, ok := e.positionNFT[key]; ok {
		_ = e.nft.Burn(tokenID)
		delete(e.positionNFT, key)
		delete(e.nftPosition, tokenID)
		delete(e.borrowByNFT, tokenID)
	}
	e.lending.CloseBorrow(borrowID)
	return nil
}
