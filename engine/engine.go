// Package engine implements the L1 and L2 state-transition engines: each
// applies its layer's admissible transactions to an account book and emits
// a layer-specific block header, binding L1 and L2 together via the
// deposit/withdrawal cross-layer protocol.
package engine

import (
	"encoding/binary"

	"github.com/holiman/uint256"

	"github.com/zkanchor/zkanchor/account"
	"github.com/zkanchor/zkanchor/crypto"
	"github.com/zkanchor/zkanchor/txn"
	"github.com/zkanchor/zkanchor/types"
)

// BlockHeaderL1 is the header produced by the L1 engine after a round.
// Events carries the deposits admitted in this block so an external
// relayer can mirror them into the L2 engine as DepositL2 transactions,
// preserving their envelope ids and order.
type BlockHeaderL1 struct {
	Parent    types.Hash
	StateRoot types.Hash
	Sqn       uint32
	TxnsHash  types.Hash
	Events    []*txn.Deposit
}

// Hash is the canonical, bit-exact digest of the header. Events is not an
// input: it is a convenience list for the relayer, not consensus state.
func (h *BlockHeaderL1) Hash() types.Hash {
	var sqnBuf [4]byte
	binary.BigEndian.PutUint32(sqnBuf[:], h.Sqn)
	return crypto.Keccak256Hash(h.Parent.Bytes(), h.StateRoot.Bytes(), sqnBuf[:], h.TxnsHash.Bytes())
}

// BlockHeaderL2 is the header produced by the L2 engine after a round.
// InboxMsgHash/InboxMsgCount commit to the prefix of the rollup's L1 inbox
// consumed by this block; Withdrawals lists L2->L1 value returns to be
// credited when this header is accepted on L1 via RollupUpdate.
type BlockHeaderL2 struct {
	Parent         types.Hash
	StateRoot      types.Hash
	Sqn            uint32
	TxnsHash       types.Hash
	InboxMsgHashV  types.Hash
	InboxMsgCountV uint32
	WithdrawalsV   []account.WithdrawalRecord
}

// The accessor methods below satisfy account.L2HeaderView, the narrow
// interface ProcessRollupStateUpdate settles against.
func (h *BlockHeaderL2) ParentHash() types.Hash                    { return h.Parent }
func (h *BlockHeaderL2) Sequence() uint32                          { return h.Sqn }
func (h *BlockHeaderL2) InboxMsgCount() uint32                     { return h.InboxMsgCountV }
func (h *BlockHeaderL2) InboxMsgHash() types.Hash                  { return h.InboxMsgHashV }
func (h *BlockHeaderL2) Withdrawals() []account.WithdrawalRecord   { return h.WithdrawalsV }

// Hash is the canonical, bit-exact digest of the header.
func (h *BlockHeaderL2) Hash() types.Hash {
	var sqnBuf, cntBuf [4]byte
	binary.BigEndian.PutUint32(sqnBuf[:], h.Sqn)
	binary.BigEndian.PutUint32(cntBuf[:], h.InboxMsgCountV)
	parts := [][]byte{
		h.Parent.Bytes(), h.StateRoot.Bytes(), sqnBuf[:], h.TxnsHash.Bytes(),
		h.InboxMsgHashV.Bytes(), cntBuf[:],
	}
	for _, w := range h.WithdrawalsV {
		amt := w.Amount.Bytes32()
		parts = append(parts, crypto.SerializeUncompressed(w.To), amt[:])
	}
	return crypto.Keccak256Hash(parts...)
}

// EngineData groups everything a round of block production needs: the
// parent header hash, the account book, the pending transaction list, and
// the round sequence number. It is round-local; an engine borrows it
// mutably for the duration of Process.
type EngineData struct {
	Parent types.Hash
	Book   *account.AccountBook
	Txns   []txn.Tx
	Sqn    uint32
}

// NewEngineData creates genesis round data: a book with a single funded
// faucet account and an empty transaction list.
func NewEngineData(faucetKey *crypto.PublicKey, faucetAmount *uint256.Int) *EngineData {
	return &EngineData{Book: account.Genesis(faucetKey, faucetAmount)}
}

// NewEngineDataBatch creates genesis round data with one equal-balance
// account per key.
func NewEngineDataBatch(keys []*crypto.PublicKey, amount *uint256.Int) *EngineData {
	return &EngineData{Book: account.GenesisBatch(keys, amount)}
}

// Update advances the round: the new parent is the just-produced header's
// hash, pending transactions are cleared, and the round sequence bumps.
func (e *EngineData) Update(headerHash types.Hash) {
	e.Parent = headerHash
	e.Txns = nil
	e.Sqn++
}

func mergeInto(dst account.ChangeSet, src account.ChangeSet) {
	for id, h := range src {
		dst[id] = h
	}
}
