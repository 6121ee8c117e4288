// Package txn defines the six-member closed set of transaction payloads and
// the signed envelope that carries them. An envelope's signing hash and id
// are defined bit-exactly here: every implementation of this core must
// reproduce them byte for byte or state roots diverge across participants.
package txn

import (
	"encoding/binary"

	"github.com/holiman/uint256"

	"github.com/zkanchor/zkanchor/crypto"
	"github.com/zkanchor/zkanchor/types"
)

// Type identifies one of the six closed transaction variants. It is a
// dispatch tag only: it is never fed into the signing hash, which is why a
// Deposit and its L2-mirrored DepositL2 keep the same envelope id when
// relayed with the same sender, sqn, payload fields, and signature.
type Type byte

const (
	PayType          Type = 1
	DepositType      Type = 2
	RollupCreateType Type = 3
	RollupUpdateType Type = 4
	DepositL2Type    Type = 5
	WithdrawalType   Type = 6
)

// Tx is the interface every envelope variant satisfies.
type Tx interface {
	Kind() Type
	Sender() *crypto.PublicKey
	Sqn() uint32
	Sig() []byte
	SetSig([]byte)
	// SigningHash is the hash signed by the sender: SEC1-uncompressed
	// sender key, big-endian sqn, then the payload's own contribution.
	SigningHash() types.Hash
	// ID is the envelope id: the signing hash re-fed with the signature.
	ID() types.Hash
}

// envelope holds the fields common to every transaction variant.
type envelope struct {
	sender *crypto.PublicKey
	sqn    uint32
	sig    []byte
}

func (e *envelope) Sender() *crypto.PublicKey { return e.sender }
func (e *envelope) Sqn() uint32               { return e.sqn }
func (e *envelope) Sig() []byte               { return e.sig }
func (e *envelope) SetSig(sig []byte)         { e.sig = sig }

func signingHash(sender *crypto.PublicKey, sqn uint32, payload []byte) types.Hash {
	var sqnBuf [4]byte
	binary.BigEndian.PutUint32(sqnBuf[:], sqn)
	return crypto.Keccak256Hash(crypto.SerializeUncompressed(sender), sqnBuf[:], payload)
}

func envelopeID(signing types.Hash, sig []byte) types.Hash {
	return crypto.Keccak256Hash(signing.Bytes(), sig)
}

func amountBytes(a *uint256.Int) []byte {
	b := a.Bytes32()
	return b[:]
}

// Sign computes the signing hash of tx, signs it with priv, and stores the
// resulting signature on the envelope.
func Sign(tx Tx, priv *crypto.PrivateKey) error {
	sig, err := crypto.Sign(tx.SigningHash().Bytes(), priv)
	if err != nil {
		return err
	}
	tx.SetSig(sig)
	return nil
}

// VerifySignature checks tx's signature against its own sender key.
func VerifySignature(tx Tx) bool {
	return crypto.Verify(crypto.SerializeUncompressed(tx.Sender()), tx.SigningHash().Bytes(), tx.Sig())
}

// Pay transfers amount from sender to to.
type Pay struct {
	envelope
	To     *crypto.PublicKey
	Amount *uint256.Int
}

func (tx *Pay) Kind() Type { return PayType }
func (tx *Pay) payload() []byte {
	return append(crypto.SerializeUncompressed(tx.To), amountBytes(tx.Amount)...)
}
func (tx *Pay) SigningHash() types.Hash { return signingHash(tx.sender, tx.sqn, tx.payload()) }
func (tx *Pay) ID() types.Hash          { return envelopeID(tx.SigningHash(), tx.sig) }

// NewPay constructs an unsigned Pay envelope.
func NewPay(sender *crypto.PublicKey, sqn uint32, to *crypto.PublicKey, amount *uint256.Int) *Pay {
	return &Pay{envelope: envelope{sender: sender, sqn: sqn}, To: to, Amount: amount}
}

// Deposit is the L1-side of an L1->L2 transfer into a rollup account.
type Deposit struct {
	envelope
	RollupPK *crypto.PublicKey
	Amount   *uint256.Int
}

func (tx *Deposit) Kind() Type { return DepositType }
func (tx *Deposit) payload() []byte {
	return append(crypto.SerializeUncompressed(tx.RollupPK), amountBytes(tx.Amount)...)
}
func (tx *Deposit) SigningHash() types.Hash { return signingHash(tx.sender, tx.sqn, tx.payload()) }
func (tx *Deposit) ID() types.Hash          { return envelopeID(tx.SigningHash(), tx.sig) }

// NewDeposit constructs an unsigned Deposit envelope.
func NewDeposit(sender *crypto.PublicKey, sqn uint32, rollupPK *crypto.PublicKey, amount *uint256.Int) *Deposit {
	return &Deposit{envelope: envelope{sender: sender, sqn: sqn}, RollupPK: rollupPK, Amount: amount}
}

// RollupCreate registers the sender's rollup account, identified by rollupPK.
type RollupCreate struct {
	envelope
	RollupPK *crypto.PublicKey
}

func (tx *RollupCreate) Kind() Type           { return RollupCreateType }
func (tx *RollupCreate) payload() []byte      { return crypto.SerializeUncompressed(tx.RollupPK) }
func (tx *RollupCreate) SigningHash() types.Hash {
	return signingHash(tx.sender, tx.sqn, tx.payload())
}
func (tx *RollupCreate) ID() types.Hash { return envelopeID(tx.SigningHash(), tx.sig) }

// NewRollupCreate constructs an unsigned RollupCreate envelope.
func NewRollupCreate(sender *crypto.PublicKey, sqn uint32, rollupPK *crypto.PublicKey) *RollupCreate {
	return &RollupCreate{envelope: envelope{sender: sender, sqn: sqn}, RollupPK: rollupPK}
}

// RollupUpdate carries an opaque zk proof receipt attesting to an L2 header.
// It is signed by the rollup account key even though no dedicated relayer
// originates it, and the account book checks that signature like any other.
type RollupUpdate struct {
	envelope
	ProofReceipt []byte
}

func (tx *RollupUpdate) Kind() Type      { return RollupUpdateType }
func (tx *RollupUpdate) payload() []byte { return tx.ProofReceipt }
func (tx *RollupUpdate) SigningHash() types.Hash {
	return signingHash(tx.sender, tx.sqn, tx.payload())
}
func (tx *RollupUpdate) ID() types.Hash { return envelopeID(tx.SigningHash(), tx.sig) }

// NewRollupUpdate constructs an unsigned RollupUpdate envelope.
func NewRollupUpdate(sender *crypto.PublicKey, sqn uint32, proofReceipt []byte) *RollupUpdate {
	return &RollupUpdate{envelope: envelope{sender: sender, sqn: sqn}, ProofReceipt: proofReceipt}
}

// DepositL2 is the L2-side mirror of a Deposit: same payload shape, so a
// relayer that resubmits an L1 Deposit's (sender, sqn, payload, sig) as a
// DepositL2 on L2 preserves the envelope id.
type DepositL2 struct {
	envelope
	RollupPK *crypto.PublicKey
	Amount   *uint256.Int
}

func (tx *DepositL2) Kind() Type { return DepositL2Type }
func (tx *DepositL2) payload() []byte {
	return append(crypto.SerializeUncompressed(tx.RollupPK), amountBytes(tx.Amount)...)
}
func (tx *DepositL2) SigningHash() types.Hash {
	return signingHash(tx.sender, tx.sqn, tx.payload())
}
func (tx *DepositL2) ID() types.Hash { return envelopeID(tx.SigningHash(), tx.sig) }

// NewDepositL2 constructs an unsigned DepositL2 envelope.
func NewDepositL2(sender *crypto.PublicKey, sqn uint32, rollupPK *crypto.PublicKey, amount *uint256.Int) *DepositL2 {
	return &DepositL2{envelope: envelope{sender: sender, sqn: sqn}, RollupPK: rollupPK, Amount: amount}
}

// Withdrawal requests that amount be moved from the sender's L2 balance
// back to L1, to be settled by a later RollupUpdate.
type Withdrawal struct {
	envelope
	Amount *uint256.Int
}

func (tx *Withdrawal) Kind() Type           { return WithdrawalType }
func (tx *Withdrawal) payload() []byte      { return amountBytes(tx.Amount) }
func (tx *Withdrawal) SigningHash() types.Hash {
	return signingHash(tx.sender, tx.sqn, tx.payload())
}
func (tx *Withdrawal) ID() types.Hash { return envelopeID(tx.SigningHash(), tx.sig) }

// NewWithdrawal constructs an unsigned Withdrawal envelope.
func NewWithdrawal(sender *crypto.PublicKey, sqn uint32, amount *uint256.Int) *Withdrawal {
	return &Withdrawal{envelope: envelope{sender: sender, sqn: sqn}, Amount: amount}
}

// TxSetHash concatenates each envelope id in submission order and hashes
// the result. Reordering txns yields a different hash: ordering is part of
// the protocol, not an implementation detail.
func TxSetHash(txns []Tx) types.Hash {
	ids := make([][]byte, len(txns))
	for i, tx := range txns {
		id := tx.ID()
		ids[i] = id.Bytes()
	}
	return crypto.Keccak256Hash(ids...)
}
