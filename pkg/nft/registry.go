// Package nft implements the position-escrow NFT registry. The engine mints
// a token for each position when it is opened, transfers it to the engine
// account while the position backs a borrow, transfers it back on repayment,
// and burns it when the position is closed or its borrow liquidated. The
// approval and transfer
// surface mirrors NEAR's NEP-171 standard (owner/approved-account-id maps,
// monotonic per-token approval ids), generalized to plain Go maps instead of
// on-chain UnorderedMap storage.
package nft

import (
	"strconv"

	"clamm/pkg/account"
	"clamm/pkg/enginerr"

	"github.com/rs/zerolog"
)

// TokenID identifies a single minted NFT.
type TokenID uint64

func tokenIDString(id TokenID) string {
	return strconv.FormatUint(uint64(id), 10)
}

// Token is one minted position-escrow NFT: an owner plus a set of addresses
// approved to transfer it on the owner's behalf, each tagged with the
// approval id active when it was granted.
type Token struct {
	ID                 TokenID
	Owner              account.Address
	ApprovedAccountIDs map[account.Address]uint64
	NextApprovalID     uint64
}

// Registry owns the full set of minted tokens and the owner->tokens index.
type Registry struct {
	tokensByID  map[TokenID]*Token
	byOwner     map[account.Address]map[TokenID]struct{}
	nextTokenID TokenID
	log         zerolog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(log zerolog.Logger) *Registry {
	return &Registry{
		tokensByID: make(map[TokenID]*Token),
		byOwner:    make(map[account.Address]map[TokenID]struct{}),
		log:        log.With().Str("component", "nft").Logger(),
	}
}

// Mint creates a new token owned by owner and returns its id.
func (r *Registry) Mint(owner account.Address) TokenID {
	id := r.nextTokenID
	r.nextTokenID++
	r.tokensByID[id] = &Token{
		ID:                id,
		Owner:             owner,
		ApprovedAccountIDs: make(map[account.Address]uint64),
	}
	r.indexOwner(owner, id)
	ev := NewMintEvent(MintLog{OwnerID: owner.String(), TokenIDs: []string{tokenIDString(id)}})
	r.log.Info().Interface("event", ev).Msg("nft_mint")
	return id
}

// Burn removes a token entirely. Returns ErrNFTNotFound if it doesn't exist.
func (r *Registry) Burn(id TokenID) error {
	token, ok := r.tokensByID[id]
	if !ok {
		return enginerr.ErrNFTNotFound
	}
	r.deindexOwner(token.Owner, id)
	delete(r.tokensByID, id)
	r.log.Debug().Uint64("token_id", uint64(id)).Msg("nft burned")
	return nil
}

// Token returns the token by id, or ErrNFTNotFound.
func (r *Registry) Token(id TokenID) (*Token, error) {
	token, ok := r.tokensByID[id]
	if !ok {
		return nil, enginerr.ErrNFTNotFound
	}
	return token, nil
}

// TokensOf lists every token id owned by owner.
func (r *Registry) TokensOf(owner account.Address) []TokenID {
	var out []TokenID
	for id := range r.byOwner[owner] {
		out = append(out, id)
	}
	return out
}

// Transfer moves id from its current owner to receiver. If approvalID is
// non-nil, the caller must either be the owner or hold that exact approval
// id — a stale id fails with ErrNotApproved, matching the reference
// contract's NOT_APPROVED semantics. Approvals are cleared on transfer.
func (r *Registry) Transfer(caller, receiver account.Address, id TokenID, approvalID *uint64) error {
	token, ok := r.tokensByID[id]
	if !ok {
		return enginerr.ErrNFTNotFound
	}
	if !caller.Equal(token.Owner) {
		granted, isApproved := token.ApprovedAccountIDs[caller]
		if !isApproved {
			return enginerr.ErrNotApproved
		}
		if approvalID != nil && *approvalID != granted {
			return enginerr.ErrNotApproved
		}
	}
	oldOwner := token.Owner
	r.deindexOwner(token.Owner, id)
	token.Owner = receiver
	token.ApprovedAccountIDs = make(map[account.Address]uint64)
	r.indexOwner(receiver, id)

	var authorizedID string
	if !caller.Equal(oldOwner) {
		authorizedID = caller.String()
	}
	ev := NewTransferEvent(TransferLog{
		AuthorizedID: authorizedID,
		OldOwnerID:   oldOwner.String(),
		NewOwnerID:   receiver.String(),
		TokenIDs:     []string{tokenIDString(id)},
	})
	r.log.Info().Interface("event", ev).Msg("nft_transfer")
	return nil
}

// Approve grants approved the right to transfer id on the owner's behalf,
// returning the freshly allocated approval id. Only the current owner may
// call this.
func (r *Registry) Approve(caller account.Address, id TokenID, approved account.Address) (uint64, error) {
	token, ok := r.tokensByID[id]
	if !ok {
		return 0, enginerr.ErrNFTNotFound
	}
	if !caller.Equal(token.Owner) {
		return 0, enginerr.ErrNotTokenOwner
	}
	approvalID := token.NextApprovalID
	token.ApprovedAccountIDs[approved] = approvalID
	token.NextApprovalID++
	return approvalID, nil
}

// IsApproved reports whether approved holds an active approval for id,
// optionally pinned to a specific approvalID (nil matches any active grant).
func (r *Registry) IsApproved(id TokenID, approved account.Address, approvalID *uint64) (bool, error) {
	token, ok := r.tokensByID[id]
	if !ok {
		return false, enginerr.ErrNFTNotFound
	}
	granted, ok := token.ApprovedAccountIDs[approved]
	if !ok {
		return false, nil
	}
	if approvalID == nil {
		return true, nil
	}
	return *approvalID == granted, nil
}

// Revoke removes approved's approval for id. Only the owner may call this.
func (r *Registry) Revoke(caller account.Address, id TokenID, approved account.Address) error {
	token, ok := r.tokensByID[id]
	if !ok {
		return enginerr.ErrNFTNotFound
	}
	if !caller.Equal(token.Owner) {
		return enginerr.ErrNotTokenOwner
	}
	delete(token.ApprovedAccountIDs, approved)
	return nil
}

// RevokeAll clears every approval on id. Only the owner may call this.
func (r *Registry) RevokeAll(caller account.Address, id TokenID) error {
	token, ok := r.tokensByID[id]
	if !ok {
		return enginerr.ErrNFTNotFound
	}
	if !caller.Equal(token.Owner) {
		return enginerr.ErrNotTokenOwner
	}
	token.ApprovedAccountIDs = make(map[account.Address]uint64)
	return nil
}

func (r *Registry) indexOwner(owner account.Address, id TokenID) {
	set, ok := r.byOwner[owner]
	if !ok {
		set = make(map[TokenID]struct{})
		r.byOwner[owner] = set
	}
	set[id] = struct{}{}
}

func (r *Registry) deindexOwner(owner account.Address, id TokenID) {
	if set, ok := r.byOwner[owner]; ok {
		delete(set, id)
		if len(set) == 0 {
			delete(r.byOwner, owner)
		}
	}
}
