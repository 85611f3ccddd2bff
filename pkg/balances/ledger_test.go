package balances

import (
	"testing"

	"clamm/pkg/account"
	"clamm/pkg/primitives"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

var (
	owner = account.FromHex("0x00000000000000000000000000000000000A11")
	token = account.FromHex("0x0000000000000000000000000000000000B001")
)

func TestCreditThenGet(t *testing.T) {
	l := New(zerolog.Nop())
	l.Credit(owner, token, primitives.NewU128FromUint64(500))
	require.Equal(t, "500", l.Get(owner, token).String())
}

func TestDebitInsufficientPanics(t *testing.T) {
	l := New(zerolog.Nop())
	l.Credit(owner, token, primitives.NewU128FromUint64(100))
	require.Panics(t, func() {
		l.Debit(owner, token, primitives.NewU128FromUint64(200))
	})
}

func TestDebitNeverDepositedPanics(t *testing.T) {
	l := New(zerolog.Nop())
	require.PanicsWithValue(t, "TOKEN_HAS_NOT_BEEN_DEPOSITED", func() {
		l.Debit(owner, token, primitives.NewU128FromUint64(1))
	})
}

func TestTryDebitReturnsErrorInsteadOfPanicking(t *testing.T) {
	l := New(zerolog.Nop())
	l.Credit(owner, token, primitives.NewU128FromUint64(10))
	err := l.TryDebit(owner, token, primitives.NewU128FromUint64(20))
	require.Error(t, err)
}

func TestDebitThenCreditRoundTrip(t *testing.T) {
	l := New(zerolog.Nop())
	l.Credit(owner, token, primitives.NewU128FromUint64(1000))
	l.Debit(owner, token, primitives.NewU128FromUint64(400))
	require.Equal(t, "600", l.Get(owner, token).String())
}
