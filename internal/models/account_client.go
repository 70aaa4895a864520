package models

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// AccountClient is a client bound to a specific sponsored smart account. It
// owns signing, relaying and the receipt-wait policy (timeouts included);
// the transfer core only drives it.
type AccountClient interface {
	// SubmitOperation constructs, signs and relays an abstracted account
	// operation carrying the given calls. It returns the operation
	// identifier once the bundler has accepted the operation. The
	// identifier is an opaque token; callers never interpret it.
	SubmitOperation(ctx context.Context, calls []Call) (common.Hash, error)

	// AwaitReceipt blocks until the operation identified by opID has a
	// settlement receipt and returns the settled transaction hash.
	AwaitReceipt(ctx context.Context, opID common.Hash) (common.Hash, error)
}

// OperationStatusQuerier is an optional AccountClient capability: an explicit
// status query for an already-submitted operation. When available it is
// preferred over heuristics for deciding whether a failed receipt wait hid a
// successful submission.
type OperationStatusQuerier interface {
	// OperationKnown reports whether the network knows the operation.
	OperationKnown(ctx context.Context, opID common.Hash) (bool, error)
}
