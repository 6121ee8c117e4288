package account

import "errors"

// The exact spellings below are the wire contract of the core: callers and
// the zk prover circuit switch on these strings, so they must never change.
var (
	ErrSig             = errors.New("sig")
	ErrAccount         = errors.New("account")
	ErrSqn             = errors.New("sqn")
	ErrSender          = errors.New("sender")
	ErrExist           = errors.New("exist")
	ErrMissing         = errors.New("missing")
	ErrNotRollup       = errors.New("not rollup account")
	ErrAccountRollup   = errors.New("account_rollup")
	ErrParent          = errors.New("parent")
	ErrInbox           = errors.New("inbox")
	ErrWithdraw        = errors.New("withdraw")
	ErrTxType          = errors.New("tx type")
)
