// Package account implements the authenticated account book: a typed
// overlay over the trie package that tracks balances, sequence numbers,
// and rollup sub-state, and exposes the operations the L1 and L2 engines
// drive block production with.
package account

import (
	"encoding/binary"

	"github.com/holiman/uint256"

	"github.com/zkanchor/zkanchor/crypto"
	"github.com/zkanchor/zkanchor/types"
)

// RollupState is the sub-state carried by an account created via
// RollupCreate. It is set once, at creation, and never removed.
type RollupState struct {
	// Inbox is the FIFO of L1->L2 deposit envelope ids awaiting consumption
	// by an L2 header commitment, oldest first.
	Inbox []types.Hash
	// HeaderHash is the hash of the last L2 header accepted for this
	// rollup; zero until the first RollupUpdate.
	HeaderHash types.Hash
	// Sqn counts the number of L2 headers accepted for this rollup.
	Sqn uint32
}

func (r *RollupState) clone() *RollupState {
	if r == nil {
		return nil
	}
	cp := &RollupState{HeaderHash: r.HeaderHash, Sqn: r.Sqn}
	cp.Inbox = append([]types.Hash(nil), r.Inbox...)
	return cp
}

func (r *RollupState) hash() types.Hash {
	buf := make([]byte, 0, 4+len(r.Inbox)*types.HashLength+types.HashLength)
	var sqnBuf [4]byte
	binary.BigEndian.PutUint32(sqnBuf[:], r.Sqn)
	buf = append(buf, sqnBuf[:]...)
	buf = append(buf, r.HeaderHash.Bytes()...)
	for _, id := range r.Inbox {
		buf = append(buf, id.Bytes()...)
	}
	return crypto.Keccak256Hash(buf)
}

// WithdrawalRecord is an L2->L1 value-return entry: materialized on L1
// when the L2 header containing it is accepted via RollupUpdate.
type WithdrawalRecord struct {
	To     *crypto.PublicKey
	Amount *uint256.Int
}

// Account is a single entry in the account book.
type Account struct {
	// Owner is the account's verifying key.
	Owner *crypto.PublicKey
	// Amount is the unsigned balance; it never goes negative. It is held in
	// a 256-bit integer and no 128-bit upper bound is enforced.
	Amount *uint256.Int
	// SqnExpect is the expected next sequence number from this account;
	// it starts at 0 and increases by exactly 1 per accepted transaction
	// this account sends.
	SqnExpect uint32
	// Rollup is non-nil iff this account was created via RollupCreate.
	// Once set it is immutable for the lifetime of the account.
	Rollup *RollupState
}

// NewAccount creates an account with the given owner and starting balance,
// zero sequence number, and no rollup state.
func NewAccount(owner *crypto.PublicKey, amount *uint256.Int) *Account {
	return &Account{Owner: owner, Amount: amount, SqnExpect: 0}
}

// clone returns a deep copy suitable for a detached partial book.
func (a *Account) clone() *Account {
	cp := &Account{
		Owner:     a.Owner,
		Amount:    new(uint256.Int).Set(a.Amount),
		SqnExpect: a.SqnExpect,
		Rollup:    a.Rollup.clone(),
	}
	return cp
}

// ID is the trie key for this account: the hash of its owner's
// SEC1-uncompressed public key.
func (a *Account) ID() types.AccountID {
	return PubkeyToAccountID(a.Owner)
}

// PubkeyToAccountID hashes a SEC1-uncompressed public key into an AccountID.
func PubkeyToAccountID(pub *crypto.PublicKey) types.AccountID {
	return crypto.Keccak256Hash(crypto.SerializeUncompressed(pub))
}

// Hash is the trie leaf value for this account: a digest over every field
// that participates in consensus.
func (a *Account) Hash() types.Hash {
	var buf []byte
	buf = append(buf, crypto.SerializeUncompressed(a.Owner)...)
	amountBytes := a.Amount.Bytes32()
	buf = append(buf, amountBytes[:]...)
	var sqnBuf [4]byte
	binary.BigEndian.PutUint32(sqnBuf[:], a.SqnExpect)
	buf = append(buf, sqnBuf[:]...)
	if a.Rollup != nil {
		rh := a.Rollup.hash()
		buf = append(buf, rh.Bytes()...)
	}
	return crypto.Keccak256Hash(buf)
}
