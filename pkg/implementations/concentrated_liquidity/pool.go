// Package concentrated_liquidity implements a Uniswap-V3-style pool: a single
// virtual-liquidity curve shared by every open Position, swept across tick
// space as trades execute.
//
// Pool geometry (sqrt-price, tick, per-position Liquidity) is kept in plain
// float64, not primitives.Decimal or a Q64.96 fixed-point type: this engine's
// test vectors are defined against IEEE-754
// double-precision arithmetic and must reproduce it bit-for-bit; routing the
// same formulas through fixed-point would silently change every rounding
// boundary. Token *amounts* (what actually leaves or enters a balance) still
// round through primitives.U128 at the edge of every operation.
package concentrated_liquidity

import (
	"math"

	"clamm/pkg/account"
	"clamm/pkg/enginerr"
	"clamm/pkg/primitives"
	"clamm/pkg/ticks"

	"github.com/rs/zerolog"
)

// Pool holds one token0/token1 curve: its positions, its tick-indexed
// liquidity bookkeeping, and the fee configuration applied to every swap.
type Pool struct {
	ID     uint64
	Token0 account.Address
	Token1 account.Address

	Liquidity float64
	SqrtPrice float64
	Tick      int32

	Positions  map[uint64]*Position
	TicksRange map[int32]*Tick

	Token0Locked primitives.U128
	Token1Locked primitives.U128

	ProtocolFeeBps uint16
	LPFeeBps       uint16

	ProtocolFeeToken0 primitives.U128
	ProtocolFeeToken1 primitives.U128

	nextPositionID uint64
	log            zerolog.Logger
}

// New creates an empty pool at the given initial price (token1 per token0).
func New(id uint64, token0, token1 account.Address, initialPrice float64, protocolFeeBps, lpFeeBps uint16, log zerolog.Logger) *Pool {
	sqrtPrice := ticks.PriceToSqrtPrice(initialPrice)
	return &Pool{
		ID:                id,
		Token0:            token0,
		Token1:            token1,
		Liquidity:         0,
		SqrtPrice:         sqrtPrice,
		Tick:              ticks.SqrtPriceToTick(sqrtPrice),
		Positions:         make(map[uint64]*Position),
		TicksRange:        make(map[int32]*Tick),
		Token0Locked:      primitives.Zero(),
		Token1Locked:      primitives.Zero(),
		ProtocolFeeBps:    protocolFeeBps,
		LPFeeBps:          lpFeeBps,
		ProtocolFeeToken0: primitives.Zero(),
		ProtocolFeeToken1: primitives.Zero(),
		log:               log.With().Uint64("pool_id", id).Logger(),
	}
}

func (p *Pool) boundTicks(sqrtLower, sqrtUpper float64) (int32, int32) {
	return ticks.SqrtPriceToTick(sqrtLower), ticks.SqrtPriceToTick(sqrtUpper)
}

func (p *Pool) getOrCreateTick(idx int32) *Tick {
	t, ok := p.TicksRange[idx]
	if !ok {
		t = &Tick{}
		p.TicksRange[idx] = t
	}
	return t
}

// applyTickDelta registers liquidityDelta at the position boundary tick idx.
// isLowerBound distinguishes a position's lower bound (net increases moving
// up through it) from its upper bound (net decreases moving up through it).
func (p *Pool) applyTickDelta(idx int32, liquidityDelta float64, isLowerBound bool) {
	t := p.getOrCreateTick(idx)
	if isLowerBound {
		t.LiquidityNet += liquidityDelta
	} else {
		t.LiquidityNet -= liquidityDelta
	}
	t.LiquidityGross += liquidityDelta
	if t.LiquidityGross <= 1e-9 {
		delete(p.TicksRange, idx)
	}
}

// OpenPosition creates a new range position anchored on one side and returns
// its id plus the real token amounts the caller must be debited.
func (p *Pool) OpenPosition(owner account.Address, anchorSide Side, anchorAmount primitives.U128, sqrtLower, sqrtUpper float64) (positionID uint64, token0Real, token1Real primitives.U128) {
	pos := newPosition(p.nextPositionID, owner, anchorSide, anchorAmount.Float64(), sqrtLower, sqrtUpper, p.SqrtPrice)
	p.nextPositionID++
	p.Positions[pos.ID] = pos

	tickLower, tickUpper := p.boundTicks(sqrtLower, sqrtUpper)
	p.applyTickDelta(tickLower, pos.Liquidity, true)
	p.applyTickDelta(tickUpper, pos.Liquidity, false)
	if pos.IsActive {
		p.Liquidity += pos.Liquidity
	}

	token0Real = primitives.RoundFloat64(pos.Token0Locked)
	token1Real = primitives.RoundFloat64(pos.Token1Locked)
	p.Token0Locked = p.Token0Locked.Add(token0Real)
	p.Token1Locked = p.Token1Locked.Add(token1Real)

	p.log.Debug().Uint64("position_id", pos.ID).Float64("liquidity", pos.Liquidity).Msg("position opened")
	return pos.ID, token0Real, token1Real
}

// ClosePosition removes a position entirely, returning its owner, its real
// locked amounts, and its accrued fees.
func (p *Pool) ClosePosition(positionID uint64) (owner account.Address, token0Out, token1Out, fee0, fee1 primitives.U128, err error) {
	pos, ok := p.Positions[positionID]
	if !ok {
		return account.Address{}, primitives.Zero(), primitives.Zero(), primitives.Zero(), primitives.Zero(), enginerr.ErrPositionNotFound
	}

	if pos.IsActive {
		p.Liquidity -= pos.Liquidity
	}
	tickLower, tickUpper := p.boundTicks(pos.SqrtLower, pos.SqrtUpper)
	p.applyTickDelta(tickLower, -pos.Liquidity, true)
	p.applyTickDelta(tickUpper, -pos.Liquidity, false)

	token0Out = primitives.RoundFloat64(pos.Token0Locked)
	token1Out = primitives.RoundFloat64(pos.Token1Locked)
	p.Token0Locked = p.Token0Locked.SatSub(token0Out)
	p.Token1Locked = p.Token1Locked.SatSub(token1Out)

	owner = pos.Owner
	fee0 = pos.FeesEarnedToken0
	fee1 = pos.FeesEarnedToken1
	delete(p.Positions, positionID)

	p.log.Debug().Uint64("position_id", positionID).Msg("position closed")
	return owner, token0Out, token1Out, fee0, fee1, nil
}

// modifyLiquidity scales an existing position's anchor side up or down,
// re-deriving L and the other side under the current range and sqrt-price.
// It returns the real token magnitudes moved (always in the operation's own
// direction: both sides grow together on add, shrink together on remove).
func (p *Pool) modifyLiquidity(positionID uint64, side Side, amount primitives.U128, add bool) (token0Delta, token1Delta primitives.U128, err error) {
	pos, ok := p.Positions[positionID]
	if !ok {
		return primitives.Zero(), primitives.Zero(), enginerr.ErrPositionNotFound
	}

	oldToken0, oldToken1 := pos.Token0Locked, pos.Token1Locked
	wasActive := pos.IsActive
	oldLiquidity := pos.Liquidity

	var currentSide float64
	if side == Token0 {
		currentSide = oldToken0
	} else {
		currentSide = oldToken1
	}

	delta := amount.Float64()
	var newAnchor float64
	if add {
		newAnchor = currentSide + delta
	} else {
		if delta > currentSide+1e-9 {
			enginerr.Panic(enginerr.ErrNotEnoughLiquidity)
		}
		newAnchor = currentSide - delta
		if newAnchor < 0 {
			newAnchor = 0
		}
	}
	if newAnchor <= 0 {
		enginerr.Panicf("resulting position liquidity must be positive")
	}

	rebuilt := newPosition(pos.ID, pos.Owner, side, newAnchor, pos.SqrtLower, pos.SqrtUpper, p.SqrtPrice)

	if wasActive {
		p.Liquidity -= oldLiquidity
	}
	tickLower, tickUpper := p.boundTicks(pos.SqrtLower, pos.SqrtUpper)
	p.applyTickDelta(tickLower, rebuilt.Liquidity-oldLiquidity, true)
	p.applyTickDelta(tickUpper, rebuilt.Liquidity-oldLiquidity, false)

	pos.Liquidity = rebuilt.Liquidity
	pos.refresh(p.SqrtPrice)
	if pos.IsActive {
		p.Liquidity += pos.Liquidity
	}

	token0Delta = primitives.RoundFloat64(math.Abs(pos.Token0Locked - oldToken0))
	token1Delta = primitives.RoundFloat64(math.Abs(pos.Token1Locked - oldToken1))
	if pos.Token0Locked >= oldToken0 {
		p.Token0Locked = p.Token0Locked.Add(token0Delta)
	} else {
		p.Token0Locked = p.Token0Locked.SatSub(token0Delta)
	}
	if pos.Token1Locked >= oldToken1 {
		p.Token1Locked = p.Token1Locked.Add(token1Delta)
	} else {
		p.Token1Locked = p.Token1Locked.SatSub(token1Delta)
	}

	return token0Delta, token1Delta, nil
}

// AddLiquidity increases a position's anchor side by amount and returns the
// real token0/token1 amounts the caller must be debited.
func (p *Pool) AddLiquidity(positionID uint64, side Side, amount primitives.U128) (token0Delta, token1Delta primitives.U128, err error) {
	return p.modifyLiquidity(positionID, side, amount, true)
}

// RemoveLiquidity decreases a position's anchor side by amount and returns
// the real token0/token1 amounts the caller must be credited.
func (p *Pool) RemoveLiquidity(positionID uint64, side Side, amount primitives.U128) (token0Delta, token1Delta primitives.U128, err error) {
	return p.modifyLiquidity(positionID, side, amount, false)
}

// GetPosition returns the position by id, or ErrPositionNotFound.
func (p *Pool) GetPosition(positionID uint64) (*Position, error) {
	pos, ok := p.Positions[positionID]
	if !ok {
		return nil, enginerr.ErrPositionNotFound
	}
	return pos, nil
}

// refreshAllPositions recomputes every position's locked amounts and active
// flag against the pool's current sqrt-price, and rebuilds the pool-level
// locked totals from scratch. Run after any operation (a swap) that can flip
// many positions' active status in one step, so invariant 2 (locked totals
// equal the sum over all positions) always holds exactly.
func (p *Pool) refreshAllPositions() {
	total0, total1 := primitives.Zero(), primitives.Zero()
	for _, pos := range p.Positions {
		pos.refresh(p.SqrtPrice)
		total0 = total0.Add(primitives.RoundFloat64(pos.Token0Locked))
		total1 = total1.Add(primitives.RoundFloat64(pos.Token1Locked))
	}
	p.Token0Locked = total0
	p.Token1Locked = total1
}

// direction reports whether tokenIn/tokenOut name a token0-for-token1
// trade, validating that the pair is exactly this pool's two tokens.
func (p *Pool) direction(tokenIn, tokenOut account.Address) (bool, error) {
	switch {
	case tokenIn.Equal(p.Token0) && tokenOut.Equal(p.Token1):
		return true, nil
	case tokenIn.Equal(p.Token1) && tokenOut.Equal(p.Token0):
		return false, nil
	default:
		return false, enginerr.ErrIncorrectToken
	}
}

// Swap executes an exact-input trade, mutating pool state: sqrt-price, tick,
// active liquidity, per-position fee credits and locked amounts, and the
// protocol fee pot. It returns the real amount_out the caller receives.
func (p *Pool) Swap(tokenIn, tokenOut account.Address, amountIn primitives.U128) (amountOut, protocolFeeCollected primitives.U128, err error) {
	sellingToken0, err := p.direction(tokenIn, tokenOut)
	if err != nil {
		return primitives.Zero(), primitives.Zero(), err
	}

	lpFee := amountIn.MulUint64(uint64(p.LPFeeBps)).DivUint64(10000)
	protoFee := amountIn.MulUint64(uint64(p.ProtocolFeeBps)).DivUint64(10000)
	netIn, subErr := amountIn.Sub(lpFee)
	if subErr != nil {
		return primitives.Zero(), primitives.Zero(), subErr
	}
	netIn, subErr = netIn.Sub(protoFee)
	if subErr != nil {
		return primitives.Zero(), primitives.Zero(), subErr
	}

	type snapshot struct {
		id  uint64
		liq float64
	}
	activeLiquidity := p.Liquidity
	var snap []snapshot
	if lpFee.GreaterThan(primitives.Zero()) {
		for _, pos := range p.Positions {
			if pos.IsActive {
				snap = append(snap, snapshot{id: pos.ID, liq: pos.Liquidity})
			}
		}
	}

	cursor := &swapCursor{liquidity: p.Liquidity, sqrtPrice: p.SqrtPrice, tick: p.Tick, ticksRange: p.TicksRange}
	out := cursor.walkExactIn(sellingToken0, netIn.Float64())
	p.Liquidity, p.SqrtPrice, p.Tick = cursor.liquidity, cursor.sqrtPrice, cursor.tick

	p.refreshAllPositions()

	amountOut = primitives.RoundFloat64(out)

	// Distribute the LP fee pro-rata over the pre-swap active liquidity
	// snapshot; truncation residue goes to the protocol fee pot.
	distributed := primitives.Zero()
	if activeLiquidity > 0 && len(snap) > 0 {
		lpFeeFloat := lpFee.Float64()
		for _, s := range snap {
			share := primitives.RoundFloat64(lpFeeFloat * (s.liq / activeLiquidity))
			if share.IsZero() {
				continue
			}
			pos, ok := p.Positions[s.id]
			if !ok {
				continue
			}
			if sellingToken0 {
				pos.FeesEarnedToken0 = pos.FeesEarnedToken0.Add(share)
			} else {
				pos.FeesEarnedToken1 = pos.FeesEarnedToken1.Add(share)
			}
			distributed = distributed.Add(share)
		}
	}
	leftoverLPFee := lpFee.SatSub(distributed)
	protoFee = protoFee.Add(leftoverLPFee)

	if sellingToken0 {
		p.ProtocolFeeToken0 = p.ProtocolFeeToken0.Add(protoFee)
	} else {
		p.ProtocolFeeToken1 = p.ProtocolFeeToken1.Add(protoFee)
	}

	p.log.Debug().
		Str("amount_in", amountIn.String()).
		Str("amount_out", amountOut.String()).
		Int32("tick", p.Tick).
		Msg("swap executed")

	return amountOut, protoFee, nil
}

// GetExpense is a read-only exact-input quote: it runs the same tick walk as
// Swap, including fee deduction, without mutating any pool state.
func (p *Pool) GetExpense(tokenIn, tokenOut account.Address, amountIn primitives.U128) (amountOut primitives.U128, err error) {
	sellingToken0, err := p.direction(tokenIn, tokenOut)
	if err != nil {
		return primitives.Zero(), err
	}
	totalFeeBps := uint64(p.LPFeeBps) + uint64(p.ProtocolFeeBps)
	fee := amountIn.MulUint64(totalFeeBps).DivUint64(10000)
	netIn, subErr := amountIn.Sub(fee)
	if subErr != nil {
		return primitives.Zero(), subErr
	}

	cursor := &swapCursor{liquidity: p.Liquidity, sqrtPrice: p.SqrtPrice, tick: p.Tick, ticksRange: p.TicksRange}
	out := cursor.walkExactIn(sellingToken0, netIn.Float64())
	return primitives.RoundFloat64(out), nil
}

// GetExpenseFor is a read-only exact-output quote: given a desired amount_out
// of tokenOut, it returns the amount_in (fee-inclusive) a caller would need
// to supply. This supplements the exact-input-only external interface with
// the inverse quote a front-end "I want exactly N of token Y" flow needs.
func (p *Pool) GetExpenseFor(tokenIn, tokenOut account.Address, amountOut primitives.U128) (amountIn primitives.U128, err error) {
	sellingToken0, err := p.direction(tokenIn, tokenOut)
	if err != nil {
		return primitives.Zero(), err
	}
	// tokenOutIsToken1 when selling token0 (output is token1).
	cursor := &swapCursor{liquidity: p.Liquidity, sqrtPrice: p.SqrtPrice, tick: p.Tick, ticksRange: p.TicksRange}
	rawIn := cursor.walkExactOut(sellingToken0, amountOut.Float64())

	totalFeeBps := uint64(p.LPFeeBps) + uint64(p.ProtocolFeeBps)
	if totalFeeBps >= 10000 {
		enginerr.Panicf("fee configuration leaves no net input")
	}
	// Gross up: netIn = rawIn, amountIn*(1 - fee_bps/10000) = rawIn.
	grossIn := rawIn * 10000.0 / float64(10000-totalFeeBps)
	return primitives.RoundFloat64(grossIn), nil
}
