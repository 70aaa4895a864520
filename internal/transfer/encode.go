package transfer

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/patronus-pay/patronus/internal/models"
	"github.com/patronus-pay/patronus/pkg/validation"
)

// ERC20TransferABI covers the single token method the encoder emits.
const ERC20TransferABI = `[{"inputs":[{"internalType":"address","name":"recipient","type":"address"},{"internalType":"uint256","name":"amount","type":"uint256"}],"name":"transfer","outputs":[{"internalType":"bool","name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"}]`

var erc20ABI abi.ABI

func init() {
	parsed, err := abi.JSON(strings.NewReader(ERC20TransferABI))
	if err != nil {
		panic(fmt.Sprintf("failed to parse ERC-20 transfer ABI: %v", err))
	}
	erc20ABI = parsed
}

// EncodeIntent converts a validated intent into the single call of the
// account operation.
//
// Native path: target is the recipient, the full amount rides as native
// value, calldata stays empty. Token path: target is the token contract,
// native value is zero and the calldata is transfer(recipient, amount)
// scaled by the token's decimals.
func EncodeIntent(intent models.TransferIntent, asset *models.Asset) (models.Call, error) {
	amount, err := validation.ToBaseUnits(intent.Amount, asset.Decimals)
	if err != nil {
		return models.Call{}, fmt.Errorf("%w: %s", ErrInvalidAmount, err)
	}

	recipient := common.HexToAddress(intent.Recipient)

	if asset.Native {
		return models.NewCall(recipient, amount, nil), nil
	}

	data, err := erc20ABI.Pack("transfer", recipient, amount)
	if err != nil {
		return models.Call{}, fmt.Errorf("failed to encode token transfer: %w", err)
	}

	return models.NewCall(common.HexToAddress(asset.Address), nil, data), nil
}
