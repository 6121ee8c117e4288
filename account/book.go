package account

import (
	"github.com/holiman/uint256"

	"github.com/zkanchor/zkanchor/crypto"
	"github.com/zkanchor/zkanchor/log"
	"github.com/zkanchor/zkanchor/trie"
	"github.com/zkanchor/zkanchor/txn"
	"github.com/zkanchor/zkanchor/types"
)

var logger = log.Default().Module("account")

// ChangeSet maps account ids to their post-mutation trie leaf (Account.Hash).
// Every public book operation returns one; the caller commits it with
// UpdateTree in a single batch.
type ChangeSet map[types.AccountID]types.Hash

// L2HeaderView is the subset of BlockHeaderL2 the account book needs to
// settle a RollupUpdate. The engine package's BlockHeaderL2 implements it;
// the account package depends only on this view to avoid an import cycle.
type L2HeaderView interface {
	ParentHash() types.Hash
	Sequence() uint32
	InboxMsgCount() uint32
	InboxMsgHash() types.Hash
	Withdrawals() []WithdrawalRecord
	Hash() types.Hash
}

// ValidReceipt is the opaque zk-proof verification callback. On success it
// returns the L2 header the proof attests to; the core treats it as an
// external collaborator and propagates its errors unexamined.
type ValidReceipt func(proofReceipt []byte) (L2HeaderView, error)

// AccountBook is a mapping AccountID -> Account backed by an authenticated
// trie keyed by AccountID whose leaves are Account.Hash(). It owns both and
// keeps them coherent: after UpdateTree(changeset), the trie leaf at every
// changed id equals that account's current hash.
type AccountBook struct {
	accounts     map[types.AccountID]*Account
	tree         *trie.Trie
	snapshotRoot types.Hash
}

// NewBook creates an empty account book.
func NewBook() *AccountBook {
	return &AccountBook{accounts: make(map[types.AccountID]*Account), tree: trie.New()}
}

// Genesis creates a book with a single funded account, per the core's
// genesis contract.
func Genesis(faucetKey *crypto.PublicKey, faucetAmount *uint256.Int) *AccountBook {
	b := NewBook()
	acc := NewAccount(faucetKey, faucetAmount)
	b.put(acc)
	b.Root()
	return b
}

// GenesisBatch creates a book with one equal-balance account per key.
func GenesisBatch(keys []*crypto.PublicKey, amount *uint256.Int) *AccountBook {
	b := NewBook()
	for _, k := range keys {
		b.put(NewAccount(k, new(uint256.Int).Set(amount)))
	}
	b.Root()
	return b
}

func (b *AccountBook) put(a *Account) {
	id := a.ID()
	b.accounts[id] = a
	b.tree.InsertOrReplace(id, a.Hash())
}

// Get returns the account at id, if present.
func (b *AccountBook) Get(id types.AccountID) (*Account, bool) {
	a, ok := b.accounts[id]
	return a, ok
}

// Root returns the current trie root and refreshes the internal snapshot
// root used by VerifyPartialRoot.
func (b *AccountBook) Root() types.Hash {
	b.snapshotRoot = b.tree.Root()
	return b.snapshotRoot
}

// UpdateTree batch-commits a change-set into the trie, advancing the root.
func (b *AccountBook) UpdateTree(changes ChangeSet) {
	m := make(map[types.Hash]types.Hash, len(changes))
	for id, h := range changes {
		m[id] = h
	}
	b.tree.InsertOrReplaceBatch(m)
	b.Root()
}

// senderCheck validates an envelope's signature, sender account existence,
// and sequence number, and, if amountNeeded is non-nil, that the sender's
// balance covers it. It returns the sender account on success.
func (b *AccountBook) senderCheck(tx txn.Tx, amountNeeded *uint256.Int) (*Account, error) {
	if !txn.VerifySignature(tx) {
		logger.Warn("transaction rejected", "err", ErrSig)
		return nil, ErrSig
	}
	id := PubkeyToAccountID(tx.Sender())
	acc, ok := b.accounts[id]
	if !ok {
		logger.Warn("transaction rejected", "err", ErrAccount, "account", id.Hex())
		return nil, ErrAccount
	}
	if tx.Sqn() != acc.SqnExpect {
		logger.Warn("transaction rejected", "err", ErrSqn, "account", id.Hex(), "got", tx.Sqn(), "want", acc.SqnExpect)
		return nil, ErrSqn
	}
	if amountNeeded != nil && acc.Amount.Cmp(amountNeeded) < 0 {
		logger.Warn("transaction rejected", "err", ErrSender, "account", id.Hex())
		return nil, ErrSender
	}
	return acc, nil
}

func (b *AccountBook) getOrCreate(pub *crypto.PublicKey) *Account {
	id := PubkeyToAccountID(pub)
	acc, ok := b.accounts[id]
	if !ok {
		acc = NewAccount(pub, uint256.NewInt(0))
		b.accounts[id] = acc
	}
	return acc
}

// ProcessPayment debits tx.Sender by tx.Amount and credits tx.To, creating
// the destination with a zero balance on first sight.
func (b *AccountBook) ProcessPayment(tx *txn.Pay) (ChangeSet, error) {
	sender, err := b.senderCheck(tx, tx.Amount)
	if err != nil {
		return nil, err
	}
	dest := b.getOrCreate(tx.To)
	sender.Amount = new(uint256.Int).Sub(sender.Amount, tx.Amount)
	sender.SqnExpect++
	dest.Amount = new(uint256.Int).Add(dest.Amount, tx.Amount)
	return ChangeSet{sender.ID(): sender.Hash(), dest.ID(): dest.Hash()}, nil
}

// ProcessCreateRollupAccount registers tx.RollupPK as a fresh rollup
// account. Fails ErrExist if that account already exists.
func (b *AccountBook) ProcessCreateRollupAccount(tx *txn.RollupCreate) (ChangeSet, error) {
	sender, err := b.senderCheck(tx, nil)
	if err != nil {
		return nil, err
	}
	destID := PubkeyToAccountID(tx.RollupPK)
	if _, exists := b.accounts[destID]; exists {
		logger.Warn("transaction rejected", "err", ErrExist, "account", destID.Hex())
		return nil, ErrExist
	}
	dest := NewAccount(tx.RollupPK, uint256.NewInt(0))
	dest.Rollup = &RollupState{}
	b.accounts[destID] = dest
	sender.SqnExpect++
	return ChangeSet{sender.ID(): sender.Hash(), dest.ID(): dest.Hash()}, nil
}

// ProcessDepositL1 credits an existing rollup account on L1 and appends the
// envelope id to its inbox for later L2 consumption.
func (b *AccountBook) ProcessDepositL1(tx *txn.Deposit) (ChangeSet, error) {
	sender, err := b.senderCheck(tx, tx.Amount)
	if err != nil {
		return nil, err
	}
	destID := PubkeyToAccountID(tx.RollupPK)
	dest, ok := b.accounts[destID]
	if !ok {
		logger.Warn("transaction rejected", "err", ErrMissing, "account", destID.Hex())
		return nil, ErrMissing
	}
	if dest.Rollup == nil {
		logger.Warn("transaction rejected", "err", ErrNotRollup, "account", destID.Hex())
		return nil, ErrNotRollup
	}
	dest.Amount = new(uint256.Int).Add(dest.Amount, tx.Amount)
	dest.Rollup.Inbox = append(dest.Rollup.Inbox, tx.ID())
	sender.Amount = new(uint256.Int).Sub(sender.Amount, tx.Amount)
	sender.SqnExpect++
	return ChangeSet{sender.ID(): sender.Hash(), dest.ID(): dest.Hash()}, nil
}

// ProcessDepositL2 mirrors an L1 deposit onto L2 by crediting tx.Sender
// directly; it carries no sender_check since it is unsigned in effect and
// only ever invoked by the L2 engine against an already-admitted deposit.
func (b *AccountBook) ProcessDepositL2(tx *txn.DepositL2) (ChangeSet, error) {
	dest := b.getOrCreate(tx.Sender())
	dest.Amount = new(uint256.Int).Add(dest.Amount, tx.Amount)
	return ChangeSet{dest.ID(): dest.Hash()}, nil
}

// ProcessWithdrawal debits tx.Sender by tx.Amount on L2 and appends a
// WithdrawalRecord to records for the engine to carry in its header.
func (b *AccountBook) ProcessWithdrawal(tx *txn.Withdrawal, records *[]WithdrawalRecord) (ChangeSet, error) {
	sender, err := b.senderCheck(tx, tx.Amount)
	if err != nil {
		return nil, err
	}
	sender.Amount = new(uint256.Int).Sub(sender.Amount, tx.Amount)
	sender.SqnExpect++
	*records = append(*records, WithdrawalRecord{To: tx.Sender(), Amount: new(uint256.Int).Set(tx.Amount)})
	return ChangeSet{sender.ID(): sender.Hash()}, nil
}

// HashIDs hashes the concatenation of a sequence of ids in order; used both
// for the L2 header's inbox commitment and for the inbox-prefix hash checked
// by RollupUpdate.
func HashIDs(ids []types.Hash) types.Hash {
	parts := make([][]byte, len(ids))
	for i, id := range ids {
		parts[i] = id.Bytes()
	}
	return crypto.Keccak256Hash(parts...)
}

// ProcessRollupStateUpdate validates and applies a proven L2 header against
// the sender's rollup sub-state, crediting every withdrawal it carries.
func (b *AccountBook) ProcessRollupStateUpdate(tx *txn.RollupUpdate, valid ValidReceipt) (ChangeSet, error) {
	sender, err := b.senderCheck(tx, nil)
	if err != nil {
		return nil, err
	}
	if sender.Rollup == nil {
		logger.Warn("rollup update rejected", "err", ErrAccountRollup, "account", sender.ID().Hex())
		return nil, ErrAccountRollup
	}
	header, err := valid(tx.ProofReceipt)
	if err != nil {
		logger.Warn("rollup update rejected", "err", err, "account", sender.ID().Hex())
		return nil, err
	}
	if header.ParentHash() != sender.Rollup.HeaderHash {
		logger.Warn("rollup update rejected", "err", ErrParent, "account", sender.ID().Hex())
		return nil, ErrParent
	}
	if header.Sequence() != sender.Rollup.Sqn {
		logger.Warn("rollup update rejected", "err", ErrSqn, "account", sender.ID().Hex(), "got", header.Sequence(), "want", sender.Rollup.Sqn)
		return nil, ErrSqn
	}
	n := header.InboxMsgCount()
	if uint64(n) > uint64(len(sender.Rollup.Inbox)) {
		logger.Warn("rollup update rejected", "err", ErrInbox, "account", sender.ID().Hex())
		return nil, ErrInbox
	}
	if HashIDs(sender.Rollup.Inbox[:n]) != header.InboxMsgHash() {
		logger.Warn("rollup update rejected", "err", ErrInbox, "account", sender.ID().Hex())
		return nil, ErrInbox
	}
	withdrawals := header.Withdrawals()
	total := new(uint256.Int)
	for _, w := range withdrawals {
		total.Add(total, w.Amount)
	}
	if total.Cmp(sender.Amount) > 0 {
		logger.Warn("rollup update rejected", "err", ErrWithdraw, "account", sender.ID().Hex())
		return nil, ErrWithdraw
	}

	sender.Rollup.Inbox = append([]types.Hash(nil), sender.Rollup.Inbox[n:]...)
	sender.Rollup.HeaderHash = header.Hash()
	sender.Rollup.Sqn++
	sender.Amount = new(uint256.Int).Sub(sender.Amount, total)
	sender.SqnExpect++

	changes := ChangeSet{sender.ID(): sender.Hash()}
	for _, w := range withdrawals {
		acc := b.getOrCreate(w.To)
		acc.Amount = new(uint256.Int).Add(acc.Amount, w.Amount)
		changes[acc.ID()] = acc.Hash()
	}
	return changes, nil
}

// GetAffectedAccountIDs statically computes every AccountID an L2
// transaction list could touch, for carving out a partial book bound for
// the prover. It panics on any L1-only variant: passing L1 transactions to
// an L2-scoped computation is a caller bug, not a recoverable error.
func GetAffectedAccountIDs(txns []txn.Tx) []types.AccountID {
	seen := make(map[types.AccountID]bool)
	var ids []types.AccountID
	add := func(id types.AccountID) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, tx := range txns {
		switch t := tx.(type) {
		case *txn.Pay:
			add(PubkeyToAccountID(t.Sender()))
			add(PubkeyToAccountID(t.To))
		case *txn.DepositL2:
			add(PubkeyToAccountID(t.Sender()))
		case *txn.Withdrawal:
			add(PubkeyToAccountID(t.Sender()))
		default:
			panic("account: GetAffectedAccountIDs called with an L1-only transaction")
		}
	}
	return ids
}

// GetPartial returns a detached book containing clones of exactly the
// accounts in ids and a witness-complete partial trie for them. The
// returned book's Root() equals the receiver's.
func (b *AccountBook) GetPartial(ids []types.AccountID) *AccountBook {
	root := b.Root()
	partial := &AccountBook{
		accounts:     make(map[types.AccountID]*Account, len(ids)),
		tree:         b.tree.GetPartial(ids),
		snapshotRoot: root,
	}
	for _, id := range ids {
		if acc, ok := b.accounts[id]; ok {
			partial.accounts[id] = acc.clone()
		}
	}
	return partial
}

// VerifyPartialRoot is the gatekeeper a zk prover runs on its book input:
// every present account's hash must match its trie leaf, and the
// (possibly partial) trie must recompute to its advertised root.
func (b *AccountBook) VerifyPartialRoot() bool {
	for id, acc := range b.accounts {
		leaf, err := b.tree.Get(id)
		if err != nil || leaf != acc.Hash() {
			return false
		}
	}
	return b.tree.VerifyPartial(b.snapshotRoot)
}
