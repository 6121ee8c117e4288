package engine

import (
	"github.com/zkanchor/zkanchor/account"
	"github.com/zkanchor/zkanchor/log"
	"github.com/zkanchor/zkanchor/txn"
)

var logger = log.Default().Module("engine")

// L1Engine applies L1-admissible transactions: Pay, Deposit, RollupCreate,
// RollupUpdate. ValidReceipt backs RollupUpdate's zk-proof verification.
type L1Engine struct {
	ValidReceipt account.ValidReceipt
}

// Process applies every pending transaction in e in submission order,
// accumulating their change-sets, then commits the batch and emits the
// round's BlockHeaderL1. The first failing transaction aborts the whole
// block: the book is left exactly as it was before Process was called for
// any transaction after the failure, and no partial header is produced.
func (l1 *L1Engine) Process(e *EngineData) (*BlockHeaderL1, error) {
	changes := account.ChangeSet{}
	var events []*txn.Deposit

	for _, t := range e.Txns {
		var cs account.ChangeSet
		var err error

		switch tt := t.(type) {
		case *txn.Pay:
			cs, err = e.Book.ProcessPayment(tt)
		case *txn.Deposit:
			cs, err = e.Book.ProcessDepositL1(tt)
			if err == nil {
				events = append(events, tt)
			}
		case *txn.RollupCreate:
			cs, err = e.Book.ProcessCreateRollupAccount(tt)
		case *txn.RollupUpdate:
			cs, err = e.Book.ProcessRollupStateUpdate(tt, l1.ValidReceipt)
		default:
			logger.Warn("block rejected", "err", account.ErrTxType)
			return nil, account.ErrTxType
		}
		if err != nil {
			logger.Warn("block rejected", "err", err)
			return nil, err
		}
		mergeInto(changes, cs)
	}

	e.Book.UpdateTree(changes)
	header := &BlockHeaderL1{
		Parent:    e.Parent,
		StateRoot: e.Book.Root(),
		Sqn:       e.Sqn,
		TxnsHash:  txn.TxSetHash(e.Txns),
		Events:    events,
	}
	e.Update(header.Hash())
	logger.Info("block committed", "layer", "l1", "sqn", header.Sqn, "state_root", header.StateRoot.Hex())
	return header, nil
}
