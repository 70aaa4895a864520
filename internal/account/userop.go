package account

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// userOperation is the v0.6 ERC-4337 wire representation. All quantities are
// hex strings, the way bundler RPCs expect them.
type userOperation struct {
	Sender               string `json:"sender"`
	Nonce                string `json:"nonce"`
	InitCode             string `json:"initCode"`
	CallData             string `json:"callData"`
	CallGasLimit         string `json:"callGasLimit"`
	VerificationGasLimit string `json:"verificationGasLimit"`
	PreVerificationGas   string `json:"preVerificationGas"`
	MaxFeePerGas         string `json:"maxFeePerGas"`
	MaxPriorityFeePerGas string `json:"maxPriorityFeePerGas"`
	PaymasterAndData     string `json:"paymasterAndData"`
	Signature            string `json:"signature"`
}

// packArguments is the static ABI tuple used to hash a user operation:
// (sender, nonce, keccak(initCode), keccak(callData), callGasLimit,
// verificationGasLimit, preVerificationGas, maxFeePerGas,
// maxPriorityFeePerGas, keccak(paymasterAndData)).
var packArguments abi.Arguments

// hashArguments wraps the packed-op hash with entrypoint and chain id.
var hashArguments abi.Arguments

func init() {
	address, err := abi.NewType("address", "", nil)
	if err != nil {
		panic(err)
	}
	uint256, err := abi.NewType("uint256", "", nil)
	if err != nil {
		panic(err)
	}
	bytes32, err := abi.NewType("bytes32", "", nil)
	if err != nil {
		panic(err)
	}

	packArguments = abi.Arguments{
		{Type: address}, {Type: uint256},
		{Type: bytes32}, {Type: bytes32},
		{Type: uint256}, {Type: uint256}, {Type: uint256},
		{Type: uint256}, {Type: uint256},
		{Type: bytes32},
	}
	hashArguments = abi.Arguments{
		{Type: bytes32}, {Type: address}, {Type: uint256},
	}
}

func (op *userOperation) bigField(name, value string) (*big.Int, error) {
	v, err := hexutil.DecodeBig(value)
	if err != nil {
		// Bundlers answer "0x0" for zero but some paymasters hand back
		// plain "0x", which DecodeBig rejects
		if value == "0x" {
			return new(big.Int), nil
		}
		return nil, fmt.Errorf("invalid %s %q: %w", name, value, err)
	}
	return v, nil
}

// hash computes the canonical user operation hash the account owner signs:
// keccak256(abi.encode(keccak256(pack(op)), entryPoint, chainID)).
func (op *userOperation) hash(entryPoint common.Address, chainID *big.Int) (common.Hash, error) {
	nonce, err := op.bigField("nonce", op.Nonce)
	if err != nil {
		return common.Hash{}, err
	}
	callGas, err := op.bigField("callGasLimit", op.CallGasLimit)
	if err != nil {
		return common.Hash{}, err
	}
	verificationGas, err := op.bigField("verificationGasLimit", op.VerificationGasLimit)
	if err != nil {
		return common.Hash{}, err
	}
	preVerificationGas, err := op.bigField("preVerificationGas", op.PreVerificationGas)
	if err != nil {
		return common.Hash{}, err
	}
	maxFee, err := op.bigField("maxFeePerGas", op.MaxFeePerGas)
	if err != nil {
		return common.Hash{}, err
	}
	maxPriorityFee, err := op.bigField("maxPriorityFeePerGas", op.MaxPriorityFeePerGas)
	if err != nil {
		return common.Hash{}, err
	}
	initCode, err := hexutil.Decode(op.InitCode)
	if err != nil {
		return common.Hash{}, fmt.Errorf("invalid initCode: %w", err)
	}
	callData, err := hexutil.Decode(op.CallData)
	if err != nil {
		return common.Hash{}, fmt.Errorf("invalid callData: %w", err)
	}
	paymasterAndData, err := hexutil.Decode(op.PaymasterAndData)
	if err != nil {
		return common.Hash{}, fmt.Errorf("invalid paymasterAndData: %w", err)
	}

	packed, err := packArguments.Pack(
		common.HexToAddress(op.Sender), nonce,
		crypto.Keccak256Hash(initCode), crypto.Keccak256Hash(callData),
		callGas, verificationGas, preVerificationGas,
		maxFee, maxPriorityFee,
		crypto.Keccak256Hash(paymasterAndData),
	)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to pack user operation: %w", err)
	}

	enveloped, err := hashArguments.Pack(crypto.Keccak256Hash(packed), entryPoint, chainID)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to pack user operation hash: %w", err)
	}

	return crypto.Keccak256Hash(enveloped), nil
}

// signedMessageHash is the EIP-191 personal-message digest of the operation
// hash, which is what smart account validation checks the signature against.
func signedMessageHash(opHash common.Hash) []byte {
	return accounts.TextHash(opHash.Bytes())
}
