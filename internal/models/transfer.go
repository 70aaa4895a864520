package models

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// TransferIntent is a requested value movement. It is built from user input,
// validated once and never mutated afterwards.
type TransferIntent struct {
	// Sender is the smart account the operation is submitted from.
	Sender string `json:"sender"`
	// Recipient is the destination address.
	Recipient string `json:"recipient"`
	// Amount is the requested amount as a decimal string ("1.5").
	Amount string `json:"amount"`
	// Asset is the symbol of the asset being moved, resolved against the
	// asset registry. The native asset uses the registry's native symbol.
	Asset string `json:"asset"`
}

// Call is one on-chain call inside an abstracted account operation.
// It is derived deterministically from a validated TransferIntent.
type Call struct {
	// Target is the address the call is made to: the recipient for native
	// transfers, the token contract for token transfers.
	Target common.Address
	// Value is the native value attached to the call. Zero for token
	// transfers.
	Value *big.Int
	// Data is the encoded calldata. Empty for native transfers.
	Data []byte
}

// NewCall builds a Call. A call carrying token calldata must never attach
// native value; hitting that combination is a bug in the caller, not a
// recoverable condition.
func NewCall(target common.Address, value *big.Int, data []byte) Call {
	if len(data) > 0 && value != nil && value.Sign() != 0 {
		panic(fmt.Sprintf("call to %s carries both calldata and native value %s", target.Hex(), value.String()))
	}
	if value == nil {
		value = new(big.Int)
	}
	return Call{Target: target, Value: value, Data: data}
}

// SubmittedOperation is a pending abstracted account operation. The ID is an
// opaque hash-like token handed back by the bundler; it is never interpreted.
type SubmittedOperation struct {
	ID          common.Hash
	SubmittedAt int64
}

// SettlementOutcome is the final result of one transfer attempt. It is
// returned as data for every terminal state, including classified failures.
type SettlementOutcome struct {
	Success bool `json:"success"`
	// SettlementHash is the hash of the settled transaction. In the
	// assumed-settled case it carries the operation identifier instead and
	// VerifyAdvised is set.
	SettlementHash string `json:"settlement_hash,omitempty"`
	ExplorerURL    string `json:"explorer_url,omitempty"`
	Error          string `json:"error,omitempty"`
	// Guidance carries a human-readable hint for recognized failure
	// classes (funding, sponsorship quota). Empty otherwise.
	Guidance string `json:"guidance,omitempty"`
	// VerifyAdvised marks outcomes where a known client defect interrupted
	// receipt handling after submission; the transfer most likely settled
	// but the caller should verify independently.
	VerifyAdvised bool   `json:"verify_advised,omitempty"`
	Caveat        string `json:"caveat,omitempty"`
}
