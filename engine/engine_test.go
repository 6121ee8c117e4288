package engine_test

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/zkanchor/zkanchor/account"
	"github.com/zkanchor/zkanchor/crypto"
	"github.com/zkanchor/zkanchor/engine"
	"github.com/zkanchor/zkanchor/txn"
	"github.com/zkanchor/zkanchor/types"
)

func mustKey(t *testing.T) *crypto.PrivateKey {
	t.Helper()
	k, err := crypto.GenerateKey()
	require.NoError(t, err)
	return k
}

func TestRollupCreateAndDepositRoundTrip(t *testing.T) {
	faucet := mustKey(t)
	rollup := mustKey(t)

	e := engine.NewEngineData(faucet.PubKey(), uint256.NewInt(1_000_000_000))

	create := txn.NewRollupCreate(faucet.PubKey(), 0, rollup.PubKey())
	require.NoError(t, txn.Sign(create, faucet))
	e.Txns = append(e.Txns, create)

	deposit := txn.NewDeposit(faucet.PubKey(), 1, rollup.PubKey(), uint256.NewInt(10))
	require.NoError(t, txn.Sign(deposit, faucet))
	e.Txns = append(e.Txns, deposit)

	l1 := &engine.L1Engine{}
	l1Header, err := l1.Process(e)
	require.NoError(t, err)
	require.Len(t, l1Header.Events, 1)
	require.Equal(t, deposit.ID(), l1Header.Events[0].ID())

	rollupID := account.PubkeyToAccountID(rollup.PubKey())
	rollupAcc, ok := e.Book.Get(rollupID)
	require.True(t, ok)
	require.Equal(t, uint256.NewInt(10), rollupAcc.Amount)
	require.Len(t, rollupAcc.Rollup.Inbox, 1)
	require.Equal(t, deposit.ID(), rollupAcc.Rollup.Inbox[0])

	// Mirror the deposit onto a fresh L2 book as a DepositL2, preserving id
	// and order, and produce the L2 header.
	l2Data := engine.NewEngineData(faucet.PubKey(), uint256.NewInt(0))
	depositL2 := txn.NewDepositL2(faucet.PubKey(), 1, rollup.PubKey(), uint256.NewInt(10))
	depositL2.SetSig(deposit.Sig())
	require.Equal(t, deposit.ID(), depositL2.ID())
	l2Data.Txns = append(l2Data.Txns, depositL2)

	l2 := &engine.L2Engine{}
	l2Header, err := l2.Process(l2Data)
	require.NoError(t, err)
	require.Equal(t, uint32(1), l2Header.InboxMsgCount())
	require.Equal(t, account.HashIDs([]types.Hash{deposit.ID()}), l2Header.InboxMsgHash())

	faucetL2, ok := l2Data.Book.Get(account.PubkeyToAccountID(faucet.PubKey()))
	require.True(t, ok)
	require.Equal(t, uint256.NewInt(10), faucetL2.Amount)

	// Settle the L2 header back on L1 via RollupUpdate.
	update := txn.NewRollupUpdate(rollup.PubKey(), 0, []byte("proof"))
	require.NoError(t, txn.Sign(update, rollup))
	e.Txns = append(e.Txns, update)

	l1WithReceipt := &engine.L1Engine{ValidReceipt: func([]byte) (account.L2HeaderView, error) {
		return l2Header, nil
	}}
	_, err = l1WithReceipt.Process(e)
	require.NoError(t, err)

	rollupAcc, _ = e.Book.Get(rollupID)
	require.Empty(t, rollupAcc.Rollup.Inbox)
	require.Equal(t, uint32(1), rollupAcc.Rollup.Sqn)
	require.Equal(t, l2Header.Hash(), rollupAcc.Rollup.HeaderHash)
}

func TestWithdrawalSettlement(t *testing.T) {
	faucet := mustKey(t)
	rollup := mustKey(t)

	e := engine.NewEngineData(faucet.PubKey(), uint256.NewInt(1_000))
	create := txn.NewRollupCreate(faucet.PubKey(), 0, rollup.PubKey())
	require.NoError(t, txn.Sign(create, faucet))
	e.Txns = append(e.Txns, create)
	deposit := txn.NewDeposit(faucet.PubKey(), 1, rollup.PubKey(), uint256.NewInt(10))
	require.NoError(t, txn.Sign(deposit, faucet))
	e.Txns = append(e.Txns, deposit)

	l1 := &engine.L1Engine{}
	_, err := l1.Process(e)
	require.NoError(t, err)

	l2Data := engine.NewEngineData(faucet.PubKey(), uint256.NewInt(0))
	depositL2 := txn.NewDepositL2(faucet.PubKey(), 1, rollup.PubKey(), uint256.NewInt(10))
	depositL2.SetSig(deposit.Sig())
	l2Data.Txns = append(l2Data.Txns, depositL2)
	l2 := &engine.L2Engine{}
	depositHeader, err := l2.Process(l2Data)
	require.NoError(t, err)

	// Settle the deposit-consuming L2 header on L1 first, so the withdrawal
	// header below chains onto the rollup's recorded parent and sequence.
	settle := txn.NewRollupUpdate(rollup.PubKey(), 0, []byte("proof"))
	require.NoError(t, txn.Sign(settle, rollup))
	e.Txns = append(e.Txns, settle)
	l1Settle := &engine.L1Engine{ValidReceipt: func([]byte) (account.L2HeaderView, error) {
		return depositHeader, nil
	}}
	_, err = l1Settle.Process(e)
	require.NoError(t, err)

	withdraw := txn.NewWithdrawal(faucet.PubKey(), 0, uint256.NewInt(10))
	require.NoError(t, txn.Sign(withdraw, faucet))
	l2Data.Txns = append(l2Data.Txns, withdraw)
	l2Header, err := l2.Process(l2Data)
	require.NoError(t, err)
	require.Len(t, l2Header.Withdrawals(), 1)

	update := txn.NewRollupUpdate(rollup.PubKey(), 1, []byte("proof"))
	require.NoError(t, txn.Sign(update, rollup))
	e.Txns = append(e.Txns, update)

	l1WithReceipt := &engine.L1Engine{ValidReceipt: func([]byte) (account.L2HeaderView, error) {
		return l2Header, nil
	}}
	_, err = l1WithReceipt.Process(e)
	require.NoError(t, err)

	rollupAcc, _ := e.Book.Get(account.PubkeyToAccountID(rollup.PubKey()))
	require.Equal(t, uint256.NewInt(0), rollupAcc.Amount)

	faucetAcc, _ := e.Book.Get(account.PubkeyToAccountID(faucet.PubKey()))
	require.Equal(t, uint256.NewInt(1_000-10+10), faucetAcc.Amount)
}

func TestL1EngineRejectsL2OnlyTransaction(t *testing.T) {
	faucet := mustKey(t)
	e := engine.NewEngineData(faucet.PubKey(), uint256.NewInt(1_000))

	withdraw := txn.NewWithdrawal(faucet.PubKey(), 0, uint256.NewInt(10))
	require.NoError(t, txn.Sign(withdraw, faucet))
	e.Txns = append(e.Txns, withdraw)

	l1 := &engine.L1Engine{}
	_, err := l1.Process(e)
	require.ErrorIs(t, err, account.ErrTxType)
}

func TestL2EngineRejectsL1OnlyTransaction(t *testing.T) {
	faucet := mustKey(t)
	rollup := mustKey(t)
	e := engine.NewEngineData(faucet.PubKey(), uint256.NewInt(1_000))

	create := txn.NewRollupCreate(faucet.PubKey(), 0, rollup.PubKey())
	require.NoError(t, txn.Sign(create, faucet))
	e.Txns = append(e.Txns, create)

	l2 := &engine.L2Engine{}
	_, err := l2.Process(e)
	require.ErrorIs(t, err, account.ErrTxType)
}
