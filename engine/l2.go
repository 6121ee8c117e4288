package engine

import (
	"github.com/zkanchor/zkanchor/account"
	"github.com/zkanchor/zkanchor/txn"
	"github.com/zkanchor/zkanchor/types"
)

// L2Engine applies L2-admissible transactions: Pay, DepositL2, Withdrawal.
type L2Engine struct{}

// Process mirrors L1Engine.Process for the L2-admissible variant set. It
// additionally tracks the ordered list of DepositL2 ids consumed (for the
// header's inbox commitment) and the withdrawals issued (for L1 to later
// settle via RollupUpdate).
func (l2 *L2Engine) Process(e *EngineData) (*BlockHeaderL2, error) {
	changes := account.ChangeSet{}
	var deposits []types.Hash
	var records []account.WithdrawalRecord

	for _, t := range e.Txns {
		var cs account.ChangeSet
		var err error

		switch tt := t.(type) {
		case *txn.Pay:
			cs, err = e.Book.ProcessPayment(tt)
		case *txn.DepositL2:
			cs, err = e.Book.ProcessDepositL2(tt)
			if err == nil {
				deposits = append(deposits, tt.ID())
			}
		case *txn.Withdrawal:
			cs, err = e.Book.ProcessWithdrawal(tt, &records)
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
	header := &BlockHeaderL2{
		Parent:         e.Parent,
		StateRoot:      e.Book.Root(),
		Sqn:            e.Sqn,
		TxnsHash:       txn.TxSetHash(e.Txns),
		InboxMsgHashV:  account.HashIDs(deposits),
		InboxMsgCountV: uint32(len(deposits)),
		WithdrawalsV:   records,
	}
	e.Update(header.Hash())
	logger.Info("block committed", "layer", "l2", "sqn", header.Sqn, "state_root", header.StateRoot.Hex())
	return header, nil
}
