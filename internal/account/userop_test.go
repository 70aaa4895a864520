package account

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func sampleOp() *userOperation {
	return &userOperation{
		Sender:               "0x7c3A0F4C8a0176C7a9b4EdcF6aBAA04b0E9C9A11",
		Nonce:                "0x5",
		InitCode:             "0x",
		CallData:             "0xb61d27f6",
		CallGasLimit:         "0x186a0",
		VerificationGasLimit: "0x186a0",
		PreVerificationGas:   "0xafc8",
		MaxFeePerGas:         "0x3b9aca00",
		MaxPriorityFeePerGas: "0x3b9aca00",
		PaymasterAndData:     "0x",
		Signature:            "0x",
	}
}

var testEntryPoint = common.HexToAddress("0x5FF137D4b0FDCD49DcA30c7CF57E578a026d2789")

func TestUserOperationHashDeterministic(t *testing.T) {
	chainID := big.NewInt(11155111)

	first, err := sampleOp().hash(testEntryPoint, chainID)
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	second, err := sampleOp().hash(testEntryPoint, chainID)
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if first != second {
		t.Errorf("hash is not deterministic: %s vs %s", first.Hex(), second.Hex())
	}
}

func TestUserOperationHashCoversFields(t *testing.T) {
	chainID := big.NewInt(11155111)
	base, err := sampleOp().hash(testEntryPoint, chainID)
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}

	mutations := map[string]func(*userOperation){
		"nonce":            func(op *userOperation) { op.Nonce = "0x6" },
		"callData":         func(op *userOperation) { op.CallData = "0xb61d27f7" },
		"maxFeePerGas":     func(op *userOperation) { op.MaxFeePerGas = "0x3b9aca01" },
		"paymasterAndData": func(op *userOperation) { op.PaymasterAndData = "0x01" },
	}
	for name, mutate := range mutations {
		op := sampleOp()
		mutate(op)
		mutated, err := op.hash(testEntryPoint, chainID)
		if err != nil {
			t.Fatalf("hash after mutating %s failed: %v", name, err)
		}
		if mutated == base {
			t.Errorf("mutating %s did not change the hash", name)
		}
	}

	// Chain id and entrypoint are part of the envelope
	otherChain, err := sampleOp().hash(testEntryPoint, big.NewInt(1))
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if otherChain == base {
		t.Error("chain id did not change the hash")
	}
}

func TestUserOperationHashAcceptsEmptyHexQuantity(t *testing.T) {
	op := sampleOp()
	// Some paymasters answer plain "0x" for zero quantities
	op.CallGasLimit = "0x"
	if _, err := op.hash(testEntryPoint, big.NewInt(11155111)); err != nil {
		t.Errorf("hash rejected bare 0x quantity: %v", err)
	}
}

func TestSignedMessageHashLength(t *testing.T) {
	digest := signedMessageHash(common.HexToHash("0x1111111111111111111111111111111111111111111111111111111111111111"))
	if len(digest) != 32 {
		t.Errorf("digest length = %d, want 32", len(digest))
	}
}
