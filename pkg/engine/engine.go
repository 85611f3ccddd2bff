// Package engine wires the concentrated-liquidity pools, the balances
// ledger, the lending book, and the borrow-NFT registry into the flat
// operation surface a host runtime calls into. It is the Go analogue of the
// reference contract's top-level Contract struct: the engine owns every
// key-space (Accounts, Whitelist, per-pool positions/ticks_range, reserves,
// deposits, borrows, tokens_by_id) and sequences operations so that balance
// changes and state mutations commit atomically before any external token
// transfer is scheduled.
package engine

import (
	"context"
	"fmt"
	"sync"

	"clamm/pkg/account"
	"clamm/pkg/balances"
	"clamm/pkg/enginerr"
	"clamm/pkg/implementations/concentrated_liquidity"
	"clamm/pkg/lending"
	"clamm/pkg/mechanisms"
	"clamm/pkg/nft"
	"clamm/pkg/primitives"
	"clamm/pkg/tokenmeta"

	"github.com/rs/zerolog"
)

// Clock supplies the current block timestamp in milliseconds, the host
// runtime collaborator every interest-accrual calculation is driven by.
type Clock interface {
	NowMillis() uint64
}

// TokenTransferer performs the asynchronous outbound transfer withdraw
// schedules after it commits its balance debit. Implementations wrap the
// host chain's fungible-token transfer call.
type TokenTransferer interface {
	Transfer(ctx context.Context, token, to account.Address, amount primitives.U128) error
}

// positionKey identifies one position within one pool, the unit the NFT
// registry escrows against while a borrow is outstanding.
type positionKey struct {
	poolID     uint64
	positionID uint64
}

// Engine is the top-level container. A single mutex guards every mutation,
// matching strategy.Portfolio's concurrency convention in spirit (safe for
// concurrent reads, serialized writes) even though the host runtime already
// guarantees one operation runs to completion before the next begins.
type Engine struct {
	mu sync.Mutex

	owner account.Address
	cfg   Config

	balances *balances.Ledger
	lending  *lending.Book
	nft      *nft.Registry

	pools      map[uint64]*concentrated_liquidity.Pool
	nextPoolID uint64

	whitelist map[account.Address]bool

	// positionNFT maps a pool/position pair to the NFT token minted for it
	// when it was opened, and nftPosition maps back. Closing the position or
	// liquidating its borrow removes the entry. borrowByNFT records which of
	// those tokens currently escrow an outstanding borrow.
	positionNFT map[positionKey]nft.TokenID
	nftPosition map[nft.TokenID]positionKey
	borrowByNFT map[nft.TokenID]uint64

	// tokens holds display-only metadata (symbol, decimals) for tokens
	// registered via RegisterTokenMeta. The engine's own accounting never
	// reads it; logs use it to name tokens by symbol.
	tokens *tokenmeta.Registry

	clock      Clock
	transferer TokenTransferer
	log        zerolog.Logger
}

// New creates an empty engine owned by owner.
func New(owner account.Address, cfg Config, clock Clock, transferer TokenTransferer, log zerolog.Logger) *Engine {
	return &Engine{
		owner:       owner,
		cfg:         cfg,
		balances:    balances.New(log),
		lending:     lending.NewBook(cfg.Lending),
		nft:         nft.NewRegistry(log),
		pools:       make(map[uint64]*concentrated_liquidity.Pool),
		whitelist:   make(map[account.Address]bool),
		positionNFT: make(map[positionKey]nft.TokenID),
		nftPosition: make(map[nft.TokenID]positionKey),
		borrowByNFT: make(map[nft.TokenID]uint64),
		tokens:      tokenmeta.NewRegistry(),
		clock:       clock,
		transferer:  transferer,
		log:         log.With().Str("component", "engine").Logger(),
	}
}

// Owner returns the engine's owning account.
func (e *Engine) Owner() account.Address {
	return e.owner
}

// WhitelistToken marks token as acceptable for ft_on_transfer deposits. Only
// the engine owner may call this.
func (e *Engine) WhitelistToken(caller, token account.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !caller.Equal(e.owner) {
		return enginerr.ErrNotTokenOwner
	}
	e.whitelist[token] = true
	return nil
}

// RegisterTokenMeta records display-only symbol/decimals metadata for token,
// used purely to render human-scaled amounts in logs; it has no bearing on
// the engine's integer accounting.
func (e *Engine) RegisterTokenMeta(chainID int, token account.Address, decimals uint, symbol, name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tokens.Register(chainID, token, decimals, symbol, name)
}

// TokenSymbol returns token's registered display symbol, or its address
// string if it was never registered via RegisterTokenMeta.
func (e *Engine) TokenSymbol(token account.Address) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tokens.Symbol(token)
}

// CreatePool creates a new concentrated-liquidity pool and returns its id.
func (e *Engine) CreatePool(token0, token1 account.Address, initialPrice float64, protocolFeeBps, lpFeeBps uint16) uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	id := e.nextPoolID
	e.nextPoolID++
	e.pools[id] = concentrated_liquidity.New(id, token0, token1, initialPrice, protocolFeeBps, lpFeeBps, e.log)
	e.log.Info().Uint64("pool_id", id).
		Str("token0", e.tokens.Symbol(token0)).
		Str("token1", e.tokens.Symbol(token1)).
		Msg("pool created")
	return id
}

// CreatePoolWithDefaults creates a pool using the engine's configured
// protocol/LP fee defaults (cfg.Pool), for hosts that don't want to thread
// explicit fee overrides through every pool-creation call site.
func (e *Engine) CreatePoolWithDefaults(token0, token1 account.Address, initialPrice float64) uint64 {
	e.mu.Lock()
	protocolFeeBps, lpFeeBps := e.cfg.Pool.ProtocolFeeBps, e.cfg.Pool.LPFeeBps
	e.mu.Unlock()
	return e.CreatePool(token0, token1, initialPrice, protocolFeeBps, lpFeeBps)
}

// GetPool returns the pool by id, or BAD_POOL_ID.
func (e *Engine) GetPool(poolID uint64) (*concentrated_liquidity.Pool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.getPool(poolID)
}

func (e *Engine) getPool(poolID uint64) (*concentrated_liquidity.Pool, error) {
	pool, ok := e.pools[poolID]
	if !ok {
		return nil, enginerr.ErrBadPoolID
	}
	return pool, nil
}

// PoolMechanism returns poolID's pool adapted to the generic
// mechanisms.LiquidityPool contract, for callers that dispatch over market
// mechanisms generically (e.g. a router that treats every pool it holds,
// regardless of underlying implementation, the same way) rather than through
// the pool's own richer concentrated-liquidity-specific API.
func (e *Engine) PoolMechanism(poolID uint64) (mechanisms.LiquidityPool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	pool, err := e.getPool(poolID)
	if err != nil {
		return nil, err
	}
	return concentrated_liquidity.NewAdapter(pool), nil
}

// GetPools returns up to limit pools starting at pool id from, ordered by id.
func (e *Engine) GetPools(from uint64, limit uint32) []*concentrated_liquidity.Pool {
	e.mu.Lock()
	defer e.mu.Unlock()

	var ids []uint64
	for id := range e.pools {
		if id >= from {
			ids = append(ids, id)
		}
	}
	// Simple insertion sort: pool counts are small and this keeps the engine
	// free of a sort-package dependency for a one-off ordering.
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
	if uint32(len(ids)) > limit {
		ids = ids[:limit]
	}
	out := make([]*concentrated_liquidity.Pool, 0, len(ids))
	for _, id := range ids {
		out = append(out, e.pools[id])
	}
	return out
}

// GetBalance returns account's balance of token.
func (e *Engine) GetBalance(acc, token account.Address) primitives.U128 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.balances.Get(acc, token)
}

// FtOnTransfer credits sender's balance of token by amount, the inbound
// deposit hook a whitelisted token contract calls after transferring funds
// to the engine.
func (e *Engine) FtOnTransfer(sender, token account.Address, amount primitives.U128) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.whitelist[token] {
		return fmt.Errorf("token %s is not whitelisted", token.String())
	}
	e.balances.Credit(sender, token, amount)
	return nil
}

// Withdraw debits caller's balance and schedules the outbound transfer. Per
// the engine's suspension-point rule, the debit commits before the transfer
// is attempted; a failed transfer re-credits caller's balance so a dropped
// or reverted host call never leaves funds stranded.
func (e *Engine) Withdraw(ctx context.Context, caller, token account.Address, amount primitives.U128) error {
	e.mu.Lock()
	if err := e.balances.TryDebit(caller, token, amount); err != nil {
		e.mu.Unlock()
		return err
	}
	e.mu.Unlock()

	if err := e.transferer.Transfer(ctx, token, caller, amount); err != nil {
		e.mu.Lock()
		e.balances.Credit(caller, token, amount)
		e.mu.Unlock()
		return fmt.Errorf("withdraw transfer failed, balance restored: %w", err)
	}
	return nil
}
