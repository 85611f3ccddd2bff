// Package enginerr collects the stable error catalog the engine surfaces to
// callers. Operations fail either by panicking with one of these messages
// (matching the reference contract's assert/panic convention — a "panic" at
// this layer is the equivalent of a host-runtime revert, not a Go process
// crash) or by returning one of the sentinel errors directly; both mutating
// and read-only engine methods use the returned-error form for not-found and
// authorization failures. The sentinels and the formatted errors are built
// with github.com/pkg/errors, so each carries the stack of its construction.
package enginerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Not-found errors.
var (
	ErrBadPoolID              = errors.New("BAD_POOL_ID")
	ErrPositionNotFound       = errors.New("POSITION_NOT_FOUND")
	ErrDepositNotFound        = errors.New("DEPOSIT_NOT_FOUND")
	ErrBorrowNotFound         = errors.New("BORROW_NOT_FOUND")
	ErrReserveNotFound        = errors.New("RESERVE_NOT_FOUND")
	ErrTokenNotDeposited      = errors.New("TOKEN_HAS_NOT_BEEN_DEPOSITED")
	ErrNFTNotFound            = errors.New("NFT not found")
)

// Authorization errors.
var (
	ErrNotTokenOwner     = errors.New("NOT_TOKEN_OWNER")
	ErrNotDepositOwner   = errors.New("NOT_DEPOSIT_OWNER")
	ErrRequiresOneYocto  = errors.New("REQUIRES_ONE_YOCTO")
	ErrRequiresMinYocto  = errors.New("REQUIRES_MIN_ONE_YOCTO")
	ErrNotApproved       = errors.New("NOT_APPROVED")
)

// Validation errors.
var (
	ErrToken0LiquidityZero = errors.New("TOKEN0_LIQ_CANNOT_BE_ZERO")
	ErrToken1LiquidityZero = errors.New("TOKEN1_LIQ_CANNOT_BE_ZERO")
	ErrSendToken1Instead   = errors.New("SEND_TOKEN1_INSTEAD")
	ErrSendToken0Instead   = errors.New("SEND_TOKEN0_INSTEAD")
	ErrIncorrectToken      = errors.New("INCORRECT_TOKEN")
	ErrNFTAlreadyExists    = errors.New("NFT_ALREADY_EXISTS")
)

// Insufficiency errors.
var (
	ErrNotEnoughLiquidity = errors.New("NOT_ENOUGH_LIQUIDITY")
)

// WithdrawError formats the withdraw-insufficiency message: "You want to
// withdraw X of T but only have Y".
func WithdrawError(token string, amount, available fmt.Stringer) error {
	return errors.Errorf("You want to withdraw %s of %s but only have %s", amount, token, available)
}

// BorrowError formats the borrow-insufficiency message: "You want to borrow
// X of T but only Y is available in reserve".
func BorrowError(token string, amount, available fmt.Stringer) error {
	return errors.Errorf("You want to borrow %s of %s but only %s is available in reserve", amount, token, available)
}

// Panic raises a panic carrying err's message, the engine's convention for
// surfacing a failed mutating operation as an immediate, fully-reverted
// failure (see spec §7 propagation rules).
func Panic(err error) {
	panic(err.Error())
}

// Panicf raises a panic with a formatted message.
func Panicf(format string, args ...interface{}) {
	panic(fmt.Sprintf(format, args...))
}
