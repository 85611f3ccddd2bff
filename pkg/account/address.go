// Package account provides the account/token identifier type shared by
// balances, pools, reserves, and the NFT registry. The engine treats token
// and owner identifiers uniformly — both are just addresses on the host
// chain — matching the reference contract's AccountId.
package account

import (
	"encoding/json"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Address identifies an account or a fungible token contract. It is a thin
// wrapper around go-ethereum's common.Address so the engine can reuse a
// battle-tested 20-byte identifier and its checksum formatting instead of
// rolling its own.
type Address struct {
	raw common.Address
}

// Zero is the zero-value Address.
var Zero Address

// FromHex parses a hex-encoded address, accepting both checksummed and
// lowercase forms.
func FromHex(s string) Address {
	return Address{raw: common.HexToAddress(strings.TrimSpace(s))}
}

// FromBytes wraps a 20-byte slice as an Address.
func FromBytes(b []byte) Address {
	return Address{raw: common.BytesToAddress(b)}
}

// String returns the checksummed hex representation.
func (a Address) String() string {
	return a.raw.Hex()
}

// IsZero reports whether a is the zero address.
func (a Address) IsZero() bool {
	return a.raw == common.Address{}
}

// Equal reports whether two addresses are the same account.
func (a Address) Equal(other Address) bool {
	return a.raw == other.raw
}

// Bytes returns the raw 20-byte address.
func (a Address) Bytes() []byte {
	return a.raw.Bytes()
}

// Common returns the underlying go-ethereum common.Address, for
// collaborators (e.g. pkg/tokenmeta) that build on go-ethereum types
// directly instead of through this package's wrapper.
func (a Address) Common() common.Address {
	return a.raw
}

// MarshalJSON renders the address as its hex string.
func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON parses an address from its hex string.
func (a *Address) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*a = FromHex(s)
	return nil
}
