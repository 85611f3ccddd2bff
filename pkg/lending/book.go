package lending

import (
	"encoding/binary"

	"github.com/google/uuid"

	"clamm/pkg/account"
	"clamm/pkg/enginerr"
	"clamm/pkg/primitives"
)

// Book owns the engine's lending-side collections: one Reserve per asset,
// and the global Deposit and Borrow tables. It holds no reference to
// Balances or Pool — the top-level engine sequences those alongside Book's
// methods, and supplies collateral valuations through a callback so this
// package stays decoupled from pool geometry.
type Book struct {
	cfg Config

	reserves map[account.Address]*Reserve
	deposits map[uint64]*Deposit
	borrows  map[uint64]*Borrow

	nextDepositID uint64
	nextBorrowID  uint64
}

// NewBook creates an empty lending book using cfg's defaults for any reserve
// or borrow created without an explicit override. Deposit and borrow id
// counters are seeded from the first 4 bytes of a fresh random UUID rather
// than starting at zero, so two independently-instantiated engines (e.g. a
// primary book and a disaster-recovery replay) are unlikely to mint colliding
// ids; collisions are not ruled out — the wire id stays a plain incrementing u128
// string after that; only the starting point is randomized.
func NewBook(cfg Config) *Book {
	return &Book{
		cfg:           cfg,
		reserves:      make(map[account.Address]*Reserve),
		deposits:      make(map[uint64]*Deposit),
		borrows:       make(map[uint64]*Borrow),
		nextDepositID: seedCounter(),
		nextBorrowID:  seedCounter(),
	}
}

// seedCounter derives a starting counter value from a fresh random UUID's
// first 4 bytes, masked into the lower half of uint64 range so it has ample
// headroom before wrapping.
func seedCounter() uint64 {
	id := uuid.New()
	return uint64(binary.BigEndian.Uint32(id[:4]))
}

// CreateReserve initializes a zero reserve for asset.
func (b *Book) CreateReserve(asset account.Address) *Reserve {
	r := NewReserve(asset, b.cfg)
	b.reserves[asset] = r
	return r
}

// GetReserve returns the reserve for asset, or ErrReserveNotFound.
func (b *Book) GetReserve(asset account.Address) (*Reserve, error) {
	r, ok := b.reserves[asset]
	if !ok {
		return nil, enginerr.ErrReserveNotFound
	}
	return r, nil
}

// CreateDeposit records a new interest-accruing deposit of amount against
// asset's reserve, crediting the reserve's Deposited total. Callers are
// responsible for having already debited the owner's balance.
func (b *Book) CreateDeposit(owner, asset account.Address, amount primitives.U128, now uint64) (*Deposit, error) {
	reserve, err := b.GetReserve(asset)
	if err != nil {
		return nil, err
	}
	d := NewDeposit(b.nextDepositID, owner, asset, amount, now, b.cfg.DefaultDepositAPRBps)
	b.nextDepositID++
	b.deposits[d.ID] = d
	reserve.IncreaseDeposit(amount)
	return d, nil
}

// GetDeposit returns the deposit by id, or ErrDepositNotFound.
func (b *Book) GetDeposit(id uint64) (*Deposit, error) {
	d, ok := b.deposits[id]
	if !ok {
		return nil, enginerr.ErrDepositNotFound
	}
	return d, nil
}

// GetAccountDeposits lists every deposit owned by owner.
func (b *Book) GetAccountDeposits(owner account.Address) []*Deposit {
	var out []*Deposit
	for _, d := range b.deposits {
		if d.Owner.Equal(owner) {
			out = append(out, d)
		}
	}
	return out
}

// CloseDeposit requires caller==owner, returns principal+outstanding growth,
// decrements the backing reserve, and deletes the entry.
func (b *Book) CloseDeposit(id uint64, caller account.Address, now uint64) (payout primitives.U128, err error) {
	d, ok := b.deposits[id]
	if !ok {
		return primitives.Zero(), enginerr.ErrDepositNotFound
	}
	if !d.Owner.Equal(caller) {
		return primitives.Zero(), enginerr.ErrNotDepositOwner
	}
	d.RefreshGrowth(now)
	reserve, err := b.GetReserve(d.Asset)
	if err != nil {
		return primitives.Zero(), err
	}
	payout = d.Amount.Add(d.Growth)
	reserve.DecreaseDeposit(d.Amount)
	delete(b.deposits, id)
	return payout, nil
}

// RefreshDepositsGrowth accrues growth for every deposit on record up to now.
// Idempotent within a single timestamp: calling it twice at the same now
// accrues zero the second time, since elapsed==0.
func (b *Book) RefreshDepositsGrowth(now uint64) {
	for _, d := range b.deposits {
		d.RefreshGrowth(now)
	}
}

// TakeDepositGrowth requires caller==owner and transfers min(amount,growth)
// out of the deposit's accumulated growth.
func (b *Book) TakeDepositGrowth(id uint64, caller account.Address, amount primitives.U128) (primitives.U128, error) {
	d, ok := b.deposits[id]
	if !ok {
		return primitives.Zero(), enginerr.ErrDepositNotFound
	}
	if !d.Owner.Equal(caller) {
		return primitives.Zero(), enginerr.ErrNotDepositOwner
	}
	return d.TakeGrowth(amount), nil
}

// nextBorrow allocates the next borrow id and stores b into the book.
func (b *Book) nextBorrow(borrow *Borrow) *Borrow {
	borrow.ID = b.nextBorrowID
	b.nextBorrowID++
	b.borrows[borrow.ID] = borrow
	return borrow
}

// OpenSimpleBorrow records a 1x borrow: collateral and borrowed both equal
// totalLocked, against reserve asset. Callers have already verified reserve
// availability and minted the escrow NFT.
func (b *Book) OpenSimpleBorrow(owner, asset account.Address, totalLocked primitives.U128, positionID, poolID uint64, now uint64, liquidationPrice [2]float64) *Borrow {
	return b.nextBorrow(&Borrow{
		Owner:               owner,
		Asset:               asset,
		Borrowed:            totalLocked,
		Collateral:          totalLocked,
		PositionID:          positionID,
		PoolID:              poolID,
		LastUpdateTimestamp: now,
		APRBps:              b.cfg.DefaultBorrowAPRBps,
		Fees:                primitives.Zero(),
		LiquidationPrice:    liquidationPrice,
	})
}

// OpenLeveragedBorrow records a leveraged borrow: collateral=leverage*
// totalLocked, borrowed=(leverage-1)*totalLocked.
func (b *Book) OpenLeveragedBorrow(owner, asset account.Address, totalLocked primitives.U128, leverage float64, positionID, poolID uint64, now uint64, liquidationPrice [2]float64) *Borrow {
	lev := leverage
	collateral := primitives.RoundFloat64(totalLocked.Float64() * leverage)
	borrowed := primitives.RoundFloat64(totalLocked.Float64() * (leverage - 1))
	return b.nextBorrow(&Borrow{
		Owner:               owner,
		Asset:               asset,
		Borrowed:            borrowed,
		Collateral:          collateral,
		PositionID:          positionID,
		PoolID:              poolID,
		LastUpdateTimestamp: now,
		APRBps:              b.cfg.DefaultBorrowAPRBps,
		Leverage:            &lev,
		Fees:                primitives.Zero(),
		LiquidationPrice:    liquidationPrice,
	})
}

// GetBorrow returns the borrow by id, or ErrBorrowNotFound.
func (b *Book) GetBorrow(id uint64) (*Borrow, error) {
	borrow, ok := b.borrows[id]
	if !ok {
		return nil, enginerr.ErrBorrowNotFound
	}
	return borrow, nil
}

// CloseBorrow removes a borrow from the book (used by both repay and
// liquidate, after their own bookkeeping has run).
func (b *Book) CloseBorrow(id uint64) {
	delete(b.borrows, id)
}

// HealthFactor returns (collateralValue*LiquidationThreshold)/(borrowed+fees)
// for the given borrow, after refreshing its fees up to now. collateralValue
// is supplied by the caller (typically the live total_locked of the backing
// position, valued at the pool's current sqrt-price).
func (b *Book) HealthFactor(id uint64, collateralValue float64, now uint64) (float64, error) {
	borrow, ok := b.borrows[id]
	if !ok {
		return 0, enginerr.ErrBorrowNotFound
	}
	borrow.RefreshFees(now)
	reserve, err := b.GetReserve(borrow.Asset)
	if err != nil {
		return 0, err
	}
	owed := borrow.TotalOwed().Float64()
	if owed == 0 {
		return 0, nil
	}
	return (collateralValue * reserve.LiquidationThreshold) / owed, nil
}

// LiquidationList returns the ids of every borrow whose health factor (per
// valueOf, a live-price collateral valuation) is below 1.0.
func (b *Book) LiquidationList(now uint64, valueOf func(*Borrow) float64) []uint64 {
	var ids []uint64
	for id, borrow := range b.borrows {
		health, err := b.HealthFactor(id, valueOf(borrow), now)
		if err != nil {
			continue
		}
		if health < 1.0 {
			ids = append(ids, id)
		}
	}
	return ids
}
