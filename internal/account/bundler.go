package account

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/patronus-pay/patronus/internal/config"
	"github.com/patronus-pay/patronus/internal/models"
	"github.com/patronus-pay/patronus/pkg/logger"
)

const (
	// RPCCallTimeout bounds every single RPC round trip
	RPCCallTimeout = 10 * time.Second
)

// AccountABI covers the execute methods of the smart account.
const AccountABI = `[{"inputs":[{"internalType":"address","name":"dest","type":"address"},{"internalType":"uint256","name":"value","type":"uint256"},{"internalType":"bytes","name":"func","type":"bytes"}],"name":"execute","outputs":[],"stateMutability":"nonpayable","type":"function"},{"inputs":[{"internalType":"address[]","name":"dest","type":"address[]"},{"internalType":"uint256[]","name":"value","type":"uint256[]"},{"internalType":"bytes[]","name":"func","type":"bytes[]"}],"name":"executeBatch","outputs":[],"stateMutability":"nonpayable","type":"function"}]`

// EntryPointABI covers the nonce query made against the entrypoint contract.
const EntryPointABI = `[{"inputs":[{"internalType":"address","name":"sender","type":"address"},{"internalType":"uint192","name":"key","type":"uint192"}],"name":"getNonce","outputs":[{"internalType":"uint256","name":"nonce","type":"uint256"}],"stateMutability":"view","type":"function"}]`

// gasEstimate is the answer of eth_estimateUserOperationGas and the gas part
// of pm_sponsorUserOperation.
type gasEstimate struct {
	CallGasLimit         string `json:"callGasLimit"`
	VerificationGasLimit string `json:"verificationGasLimit"`
	PreVerificationGas   string `json:"preVerificationGas"`
}

// sponsorResult is the answer of pm_sponsorUserOperation.
type sponsorResult struct {
	PaymasterAndData     string `json:"paymasterAndData"`
	CallGasLimit         string `json:"callGasLimit"`
	VerificationGasLimit string `json:"verificationGasLimit"`
	PreVerificationGas   string `json:"preVerificationGas"`
}

// operationReceipt is the subset of eth_getUserOperationReceipt we consume.
type operationReceipt struct {
	Success bool `json:"success"`
	Receipt struct {
		TransactionHash string `json:"transactionHash"`
	} `json:"receipt"`
}

// Bundler is the account client bound to one sponsored smart account. It
// builds, signs and relays user operations through an ERC-4337 bundler and
// owns the receipt-wait policy.
type Bundler struct {
	logger *logger.Logger
	config *config.Config

	node      *rpc.Client
	bundler   *rpc.Client
	paymaster *rpc.Client

	sender     common.Address
	entryPoint common.Address
	ownerKey   *ecdsa.PrivateKey
	chainID    *big.Int

	accountABI    abi.ABI
	entryPointABI abi.ABI

	pollInterval time.Duration
	waitTimeout  time.Duration
}

// NewBundler creates a new Bundler instance.
func NewBundler(cfg *config.Config, logger *logger.Logger) *Bundler {
	return &Bundler{
		logger:       logger,
		config:       cfg,
		sender:       common.HexToAddress(cfg.AccountAddress),
		entryPoint:   common.HexToAddress(cfg.EntryPointAddress),
		chainID:      cfg.ChainID,
		pollInterval: cfg.ReceiptPollInterval,
		waitTimeout:  cfg.ReceiptWaitTimeout,
	}
}

func (b *Bundler) Run() error {
	if err := b.Connect(); err != nil {
		return err
	}
	if err := b.BuildBindings(); err != nil {
		return fmt.Errorf("failed to build bindings: %w", err)
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(b.config.OwnerKey, "0x"))
	if err != nil {
		return fmt.Errorf("failed to parse owner key: %w", err)
	}
	b.ownerKey = key
	return nil
}

func (b *Bundler) Connect() error {
	node, err := rpc.Dial(b.config.NodeURL)
	if err != nil {
		return fmt.Errorf("failed to connect to the node RPC server: %w", err)
	}
	b.node = node

	bundler, err := rpc.Dial(b.config.BundlerURL)
	if err != nil {
		return fmt.Errorf("failed to connect to the bundler RPC server: %w", err)
	}
	b.bundler = bundler

	if b.config.PaymasterURL != "" {
		paymaster, err := rpc.Dial(b.config.PaymasterURL)
		if err != nil {
			return fmt.Errorf("failed to connect to the paymaster RPC server: %w", err)
		}
		b.paymaster = paymaster
	}

	return nil
}

func (b *Bundler) BuildBindings() error {
	accountABI, err := abi.JSON(strings.NewReader(AccountABI))
	if err != nil {
		return fmt.Errorf("failed to parse account ABI: %w", err)
	}
	b.accountABI = accountABI

	entryPointABI, err := abi.JSON(strings.NewReader(EntryPointABI))
	if err != nil {
		return fmt.Errorf("failed to parse entrypoint ABI: %w", err)
	}
	b.entryPointABI = entryPointABI

	return nil
}

func (b *Bundler) Close() error {
	if b.node != nil {
		b.node.Close()
	}
	if b.bundler != nil {
		b.bundler.Close()
	}
	if b.paymaster != nil {
		b.paymaster.Close()
	}
	return nil
}

// SubmitOperation builds a user operation carrying the given calls, gets it
// sponsored, signs it and relays it to the bundler. The returned hash is the
// operation identifier; settlement is not yet known at this point.
func (b *Bundler) SubmitOperation(ctx context.Context, calls []models.Call) (common.Hash, error) {
	callData, err := b.encodeExecute(calls)
	if err != nil {
		return common.Hash{}, err
	}

	nonce, err := b.accountNonce(ctx)
	if err != nil {
		return common.Hash{}, err
	}

	maxFee, maxPriorityFee, err := b.feeCaps(ctx)
	if err != nil {
		return common.Hash{}, err
	}

	op := &userOperation{
		Sender:               b.sender.Hex(),
		Nonce:                hexutil.EncodeBig(nonce),
		InitCode:             "0x",
		CallData:             hexutil.Encode(callData),
		CallGasLimit:         "0x0",
		VerificationGasLimit: "0x0",
		PreVerificationGas:   "0x0",
		MaxFeePerGas:         hexutil.EncodeBig(maxFee),
		MaxPriorityFeePerGas: hexutil.EncodeBig(maxPriorityFee),
		PaymasterAndData:     "0x",
		// Dummy signature so gas estimation sees a realistically sized op
		Signature: "0x" + strings.Repeat("ff", 65),
	}

	if err := b.applySponsorship(ctx, op); err != nil {
		return common.Hash{}, err
	}

	opHash, err := op.hash(b.entryPoint, b.chainID)
	if err != nil {
		return common.Hash{}, err
	}
	signature, err := crypto.Sign(signedMessageHash(opHash), b.ownerKey)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to sign user operation: %w", err)
	}
	// Smart account validation expects the legacy 27/28 recovery id
	signature[64] += 27
	op.Signature = hexutil.Encode(signature)

	callCtx, cancel := context.WithTimeout(ctx, RPCCallTimeout)
	defer cancel()

	var opID string
	if err := b.bundler.CallContext(callCtx, &opID, "eth_sendUserOperation", op, b.entryPoint.Hex()); err != nil {
		return common.Hash{}, fmt.Errorf("failed to send user operation: %w", err)
	}

	b.logger.Debug("User operation relayed ", "operation ", opID)
	return common.HexToHash(opID), nil
}

// AwaitReceipt polls the bundler until the operation has a settlement
// receipt. The wait timeout and poll interval come from configuration; the
// transfer core deliberately imposes none of its own.
func (b *Bundler) AwaitReceipt(ctx context.Context, opID common.Hash) (common.Hash, error) {
	waitCtx, cancel := context.WithTimeout(ctx, b.waitTimeout)
	defer cancel()

	ticker := time.NewTicker(b.pollInterval)
	defer ticker.Stop()

	for {
		var raw json.RawMessage
		err := b.bundler.CallContext(waitCtx, &raw, "eth_getUserOperationReceipt", opID.Hex())
		if err != nil {
			return common.Hash{}, fmt.Errorf("failed to get user operation receipt: %w", err)
		}

		if len(raw) > 0 && string(raw) != "null" {
			var receipt operationReceipt
			if err := json.Unmarshal(raw, &receipt); err != nil {
				return common.Hash{}, fmt.Errorf("failed to decode user operation receipt: %w", err)
			}
			if !receipt.Success {
				return common.Hash{}, fmt.Errorf("user operation %s reverted on-chain", opID.Hex())
			}
			return common.HexToHash(receipt.Receipt.TransactionHash), nil
		}

		select {
		case <-ticker.C:
		case <-waitCtx.Done():
			return common.Hash{}, fmt.Errorf("timed out waiting for receipt of %s: %w", opID.Hex(), waitCtx.Err())
		}
	}
}

// OperationKnown asks the bundler whether it has seen the operation at all.
// Used as an explicit status check before optimistic failure downgrades.
func (b *Bundler) OperationKnown(ctx context.Context, opID common.Hash) (bool, error) {
	callCtx, cancel := context.WithTimeout(ctx, RPCCallTimeout)
	defer cancel()

	var raw json.RawMessage
	if err := b.bundler.CallContext(callCtx, &raw, "eth_getUserOperationByHash", opID.Hex()); err != nil {
		return false, fmt.Errorf("failed to query user operation: %w", err)
	}
	return len(raw) > 0 && string(raw) != "null", nil
}

// encodeExecute wraps the calls into the account's execute calldata.
func (b *Bundler) encodeExecute(calls []models.Call) ([]byte, error) {
	if len(calls) == 0 {
		return nil, fmt.Errorf("no calls to execute")
	}

	if len(calls) == 1 {
		call := calls[0]
		data := call.Data
		if data == nil {
			data = []byte{}
		}
		encoded, err := b.accountABI.Pack("execute", call.Target, call.Value, data)
		if err != nil {
			return nil, fmt.Errorf("failed to encode execute: %w", err)
		}
		return encoded, nil
	}

	targets := make([]common.Address, len(calls))
	values := make([]*big.Int, len(calls))
	datas := make([][]byte, len(calls))
	for i, call := range calls {
		targets[i] = call.Target
		values[i] = call.Value
		datas[i] = call.Data
		if datas[i] == nil {
			datas[i] = []byte{}
		}
	}
	encoded, err := b.accountABI.Pack("executeBatch", targets, values, datas)
	if err != nil {
		return nil, fmt.Errorf("failed to encode executeBatch: %w", err)
	}
	return encoded, nil
}

// accountNonce reads the account's operation nonce from the entrypoint.
func (b *Bundler) accountNonce(ctx context.Context) (*big.Int, error) {
	input, err := b.entryPointABI.Pack("getNonce", b.sender, new(big.Int))
	if err != nil {
		return nil, fmt.Errorf("failed to encode getNonce: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, RPCCallTimeout)
	defer cancel()

	var result hexutil.Bytes
	err = b.node.CallContext(callCtx, &result, "eth_call", map[string]interface{}{
		"to":   b.entryPoint.Hex(),
		"data": hexutil.Encode(input),
	}, "latest")
	if err != nil {
		return nil, fmt.Errorf("failed to read account nonce: %w", err)
	}

	outputs, err := b.entryPointABI.Unpack("getNonce", result)
	if err != nil {
		return nil, fmt.Errorf("failed to decode account nonce: %w", err)
	}
	return outputs[0].(*big.Int), nil
}

// feeCaps fetches the current fee caps from the node.
func (b *Bundler) feeCaps(ctx context.Context) (*big.Int, *big.Int, error) {
	callCtx, cancel := context.WithTimeout(ctx, RPCCallTimeout)
	defer cancel()

	var gasPrice hexutil.Big
	if err := b.node.CallContext(callCtx, &gasPrice, "eth_gasPrice"); err != nil {
		return nil, nil, fmt.Errorf("failed to get gas price: %w", err)
	}

	var tip hexutil.Big
	if err := b.node.CallContext(callCtx, &tip, "eth_maxPriorityFeePerGas"); err != nil {
		// Older nodes miss this method; fall back to the full gas price
		return gasPrice.ToInt(), gasPrice.ToInt(), nil
	}

	return gasPrice.ToInt(), tip.ToInt(), nil
}

// applySponsorship stamps the operation with paymaster data and gas limits.
// With a paymaster configured the sponsorship call answers both; otherwise
// the bundler's estimator fills the gas fields and the account pays its own
// way.
func (b *Bundler) applySponsorship(ctx context.Context, op *userOperation) error {
	callCtx, cancel := context.WithTimeout(ctx, RPCCallTimeout)
	defer cancel()

	if b.paymaster != nil {
		var sponsored sponsorResult
		err := b.paymaster.CallContext(callCtx, &sponsored, "pm_sponsorUserOperation", op, b.entryPoint.Hex())
		if err != nil {
			return fmt.Errorf("failed to sponsor user operation: %w", err)
		}
		op.PaymasterAndData = sponsored.PaymasterAndData
		op.CallGasLimit = sponsored.CallGasLimit
		op.VerificationGasLimit = sponsored.VerificationGasLimit
		op.PreVerificationGas = sponsored.PreVerificationGas
		return nil
	}

	var estimate gasEstimate
	err := b.bundler.CallContext(callCtx, &estimate, "eth_estimateUserOperationGas", op, b.entryPoint.Hex())
	if err != nil {
		return fmt.Errorf("failed to estimate user operation gas: %w", err)
	}
	op.CallGasLimit = estimate.CallGasLimit
	op.VerificationGasLimit = estimate.VerificationGasLimit
	op.PreVerificationGas = estimate.PreVerificationGas
	return nil
}
