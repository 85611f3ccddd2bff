package engine

import (
	"fmt"

	"clamm/pkg/account"
	"clamm/pkg/enginerr"
	"clamm/pkg/implementations/concentrated_liquidity"
	"clamm/pkg/primitives"
	"clamm/pkg/ticks"
)

// OpenPosition opens a new range position in pool poolID and debits caller
// for both real token amounts it locks. Exactly one of token0Amount/token1Amount
// must be non-zero; the caller supplies bounds as plain prices (token1 per
// token0), converted to sqrt-price internally.
func (e *Engine) OpenPosition(caller account.Address, poolID uint64, token0Amount, token1Amount primitives.U128, lowerPrice, upperPrice float64) (positionID uint64, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	pool, err := e.getPool(poolID)
	if err != nil {
		return 0, err
	}

	var side concentrated_liquidity.Side
	var anchor primitives.U128
	switch {
	case !token0Amount.IsZero() && token1Amount.IsZero():
		side, anchor = concentrated_liquidity.Token0, token0Amount
	case token0Amount.IsZero() && !token1Amount.IsZero():
		side, anchor = concentrated_liquidity.Token1, token1Amount
	case token0Amount.IsZero() && token1Amount.IsZero():
		return 0, enginerr.ErrToken0LiquidityZero
	default:
		return 0, fmt.Errorf("exactly one of token0_liquidity/token1_liquidity must be supplied")
	}

	sqrtLower := ticks.PriceToSqrtPrice(lowerPrice)
	sqrtUpper := ticks.PriceToSqrtPrice(upperPrice)

	id, token0Real, token1Real := pool.OpenPosition(caller, side, anchor, sqrtLower, sqrtUpper)

	// Both sides get locked into the position even though the caller only
	// anchored one; Debit no-ops on a zero amount, so this is safe whichever
	// side came out zero.
	e.balances.Debit(caller, pool.Token0, token0Real)
	e.balances.Debit(caller, pool.Token1, token1Real)

	key := positionKey{poolID: poolID, positionID: id}
	tokenID := e.nft.Mint(caller)
	e.positionNFT[key] = tokenID
	e.nftPosition[tokenID] = key
	return id, nil
}

// ClosePosition closes a position and credits the owner its locked amounts
// plus any accrued fees. Fails if the position is currently escrowed against
// an outstanding borrow.
func (e *Engine) ClosePosition(caller account.Address, poolID, positionID uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if tokenID, ok := e.positionNFT[positionKey{poolID, positionID}]; ok {
		if _, escrowed := e.borrowByNFT[tokenID]; escrowed {
			return fmt.Errorf("position %d in pool %d is escrowed against an outstanding borrow", positionID, poolID)
		}
	}

	pool, err := e.getPool(poolID)
	if err != nil {
		return err
	}
	pos, err := pool.GetPosition(positionID)
	if err != nil {
		return err
	}
	if !pos.Owner.Equal(caller) {
		return enginerr.ErrNotTokenOwner
	}

	owner, token0Out, token1Out, fee0, fee1, err := pool.ClosePosition(positionID)
	if err != nil {
		return err
	}

	e.balances.Credit(owner, pool.Token0, token0Out)
	e.balances.Credit(owner, pool.Token1, token1Out)
	e.balances.Credit(owner, pool.Token0, fee0)
	e.balances.Credit(owner, pool.Token1, fee1)

	key := positionKey{poolID, positionID}
	if tokenID, ok := e.positionNFT[key]; ok {
		_ = e.nft.Burn(tokenID)
		delete(e.positionNFT, key)
		delete(e.nftPosition, tokenID)
	}
	return nil
}

// AddLiquidity debits caller and grows an existing position's anchor side.
func (e *Engine) AddLiquidity(caller account.Address, poolID, positionID uint64, side concentrated_liquidity.Side, amount primitives.U128) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	pool, err := e.getPool(poolID)
	if err != nil {
		return err
	}
	pos, err := pool.GetPosition(positionID)
	if err != nil {
		return err
	}
	if !pos.Owner.Equal(caller) {
		return enginerr.ErrNotTokenOwner
	}

	token0Delta, token1Delta, err := pool.AddLiquidity(positionID, side, amount)
	if err != nil {
		return err
	}
	e.balances.Debit(caller, pool.Token0, token0Delta)
	e.balances.Debit(caller, pool.Token1, token1Delta)
	return nil
}

// RemoveLiquidity credits caller and shrinks an existing position's anchor
// side.
func (e *Engine) RemoveLiquidity(caller account.Address, poolID, positionID uint64, side concentrated_liquidity.Side, amount primitives.U128) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	pool, err := e.getPool(poolID)
	if err != nil {
		return err
	}
	pos, err := pool.GetPosition(positionID)
	if err != nil {
		return err
	}
	if !pos.Owner.Equal(caller) {
		return enginerr.ErrNotTokenOwner
	}

	token0Delta, token1Delta, err := pool.RemoveLiquidity(positionID, side, amount)
	if err != nil {
		return err
	}
	e.balances.Credit(caller, pool.Token0, token0Delta)
	e.balances.Credit(caller, pool.Token1, token1Delta)
	return nil
}

// Swap executes an exact-input trade for caller, debiting amountIn of
// tokenIn and crediting the resulting amountOut of tokenOut.
func (e *Engine) Swap(caller account.Address, poolID uint64, tokenIn account.Address, amountIn primitives.U128, tokenOut account.Address) (amountOut primitives.U128, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	pool, err := e.getPool(poolID)
	if err != nil {
		return primitives.Zero(), err
	}

	e.balances.Debit(caller, tokenIn, amountIn)
	amountOut, _, err = pool.Swap(tokenIn, tokenOut, amountIn)
	if err != nil {
		e.balances.Credit(caller, tokenIn, amountIn)
		return primitives.Zero(), err
	}
	e.balances.Credit(caller, tokenOut, amountOut)
	return amountOut, nil
}

// GetExpense is a read-only exact-input quote.
func (e *Engine) GetExpense(poolID uint64, tokenIn account.Address, amountIn primitives.U128, tokenOut account.Address) (primitives.U128, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	pool, err := e.getPool(poolID)
	if err != nil {
		return primitives.Zero(), err
	}
	return pool.GetExpense(tokenIn, tokenOut, amountIn)
}
