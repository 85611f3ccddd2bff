package engine

import (
	"clamm/pkg/account"
	"clamm/pkg/nft"
)

// NftTransfer moves token id from caller to receiver, honoring an optional
// approval id.
func (e *Engine) NftTransfer(caller, receiver account.Address, id nft.TokenID, approvalID *uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.nft.Transfer(caller, receiver, id, approvalID)
}

// NftApprove grants approved the right to transfer id on caller's behalf,
// returning the freshly allocated approval id.
func (e *Engine) NftApprove(caller account.Address, id nft.TokenID, approved account.Address) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.nft.Approve(caller, id, approved)
}

// NftRevoke removes approved's approval for id.
func (e *Engine) NftRevoke(caller account.Address, id nft.TokenID, approved account.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.nft.Revoke(caller, id, approved)
}

// NftRevokeAll clears every approval on id.
func (e *Engine) NftRevokeAll(caller account.Address, id nft.TokenID) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.nft.RevokeAll(caller, id)
}

// NftToken returns the token by id.
func (e *Engine) NftToken(id nft.TokenID) (*nft.Token, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.nft.Token(id)
}

// NftIsApproved reports whether approved holds an active approval for id.
func (e *Engine) NftIsApproved(id nft.TokenID, approved account.Address, approvalID *uint64) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.nft.IsApproved(id, approved, approvalID)
}
