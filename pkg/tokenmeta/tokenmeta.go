// Package tokenmeta supplies human-readable token metadata (symbol,
// decimals) for logging and display, kept strictly separate from the
// engine's integer token-amount accounting. It wraps
// github.com/daoleno/uniswap-sdk-core's Token entity, the same type the
// teacher package uses to describe token0/token1, rather than rolling a
// bespoke metadata struct.
package tokenmeta

import (
	"math/big"

	core "github.com/daoleno/uniswap-sdk-core/entities"

	"clamm/pkg/account"
	"clamm/pkg/primitives"
)

// Registry maps engine account.Address token identifiers to their
// core.Token metadata. The engine's accounting never consults it; it exists
// purely for display, so output can print "123.45 USDC" instead of a bare
// integer next to a 20-byte address.
type Registry struct {
	tokens map[account.Address]*core.Token
}

// NewRegistry returns an empty metadata registry.
func NewRegistry() *Registry {
	return &Registry{tokens: make(map[account.Address]*core.Token)}
}

// Register records decimals and symbol for token under chainID, building a
// core.Token the same way the teacher package does for its pool's tokenA/
// tokenB fields.
func (r *Registry) Register(chainID int, token account.Address, decimals uint, symbol, name string) {
	r.tokens[token] = core.NewToken(chainID, token.Common(), decimals, symbol, name)
}

// Decimals returns token's registered decimal count, or 0 if never
// registered (amounts are then displayed as whole units).
func (r *Registry) Decimals(token account.Address) uint {
	t, ok := r.tokens[token]
	if !ok {
		return 0
	}
	return t.Decimals
}

// Symbol returns token's registered symbol, or its address string if never
// registered.
func (r *Registry) Symbol(token account.Address) string {
	t, ok := r.tokens[token]
	if !ok {
		return token.String()
	}
	return t.Symbol
}

// FormatAmount renders amount as a decimal string scaled by token's
// registered decimals, e.g. "1234.56" for amount=123456 at 2 decimals. Purely
// cosmetic: the engine itself always deals in raw integer U128 units.
func (r *Registry) FormatAmount(token account.Address, amount primitives.U128) string {
	decimals := r.Decimals(token)
	if decimals == 0 {
		return amount.String()
	}
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	raw := amount.BigInt()
	whole := new(big.Int).Div(raw, scale)
	frac := new(big.Int).Mod(raw, scale)
	fracStr := frac.String()
	for len(fracStr) < int(decimals) {
		fracStr = "0" + fracStr
	}
	return whole.String() + "." + fracStr
}
