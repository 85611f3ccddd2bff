// Package balances implements the engine's internal token ledger: per-owner,
// per-token balances credited by deposits and swap/liquidation proceeds, and
// debited by withdrawals and every operation that locks tokens into a pool,
// reserve, or collateral position. It is the Go analogue of the reference
// contract's AccountsInfo map-of-maps, adapted from UnorderedMap<AccountId,
// UnorderedMap<AccountId,u128>> to a plain nested map — the engine has no
// on-chain storage-shard constraint that would justify the indirection.
package balances

import (
	"clamm/pkg/account"
	"clamm/pkg/enginerr"
	"clamm/pkg/primitives"

	"github.com/rs/zerolog"
)

// Ledger is the engine-wide balances table.
type Ledger struct {
	balances map[account.Address]map[account.Address]primitives.U128
	log      zerolog.Logger
}

// New returns an empty ledger.
func New(log zerolog.Logger) *Ledger {
	return &Ledger{
		balances: make(map[account.Address]map[account.Address]primitives.U128),
		log:      log,
	}
}

// Get returns owner's balance of token, or zero if nothing is on record.
func (l *Ledger) Get(owner, token account.Address) primitives.U128 {
	byToken, ok := l.balances[owner]
	if !ok {
		return primitives.Zero()
	}
	amount, ok := byToken[token]
	if !ok {
		return primitives.Zero()
	}
	return amount
}

// HasDeposited reports whether owner has ever held a balance of token,
// matching the reference contract's distinction between "balance is zero"
// and "token was never deposited" (the latter panics TOKEN_HAS_NOT_BEEN_DEPOSITED
// on withdraw).
func (l *Ledger) HasDeposited(owner, token account.Address) bool {
	byToken, ok := l.balances[owner]
	if !ok {
		return false
	}
	_, ok = byToken[token]
	return ok
}

// Credit increases owner's balance of token by amount. Used for deposits,
// swap proceeds, fee payouts, and anything else flowing into an account.
func (l *Ledger) Credit(owner, token account.Address, amount primitives.U128) {
	if amount.IsZero() {
		return
	}
	if l.balances[owner] == nil {
		l.balances[owner] = make(map[account.Address]primitives.U128)
	}
	l.balances[owner][token] = l.Get(owner, token).Add(amount)
}

// Debit decreases owner's balance of token by amount, panicking with a
// WithdrawError if the balance is insufficient. Used by every operation that
// locks a caller's deposited tokens elsewhere (opening a position, creating a
// deposit, swapping, repaying a borrow).
func (l *Ledger) Debit(owner, token account.Address, amount primitives.U128) {
	if amount.IsZero() {
		return
	}
	if !l.HasDeposited(owner, token) {
		enginerr.Panic(enginerr.ErrTokenNotDeposited)
	}
	current := l.Get(owner, token)
	if amount.GreaterThan(current) {
		enginerr.Panic(enginerr.WithdrawError(token.String(), amount, current))
	}
	remainder, err := current.Sub(amount)
	if err != nil {
		enginerr.Panic(err)
	}
	l.balances[owner][token] = remainder
}

// TryDebit is Debit's non-panicking counterpart, used by paths that need to
// report insufficiency as an error rather than reverting immediately (the
// engine's Withdraw). On success it debits exactly as Debit does.
func (l *Ledger) TryDebit(owner, token account.Address, amount primitives.U128) error {
	if amount.IsZero() {
		return nil
	}
	if !l.HasDeposited(owner, token) {
		return enginerr.ErrTokenNotDeposited
	}
	current := l.Get(owner, token)
	if amount.GreaterThan(current) {
		return enginerr.WithdrawError(token.String(), amount, current)
	}
	remainder, err := current.Sub(amount)
	if err != nil {
		return err
	}
	l.balances[owner][token] = remainder
	return nil
}
