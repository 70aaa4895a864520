package transfer

import (
	"errors"
	"fmt"

	"github.com/patronus-pay/patronus/internal/models"
	"github.com/patronus-pay/patronus/pkg/validation"
)

var (
	ErrInvalidRecipient = errors.New("invalid recipient address")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrUnknownAsset     = errors.New("unconfigured asset")
)

// AssetResolver resolves an asset symbol against the configured registry.
type AssetResolver interface {
	Resolve(symbol string) (*models.Asset, error)
}

// ValidateIntent rejects malformed intents before any network call is made.
// It returns the resolved asset for a valid intent. This is the only fully
// deterministic, side-effect-free step of a transfer attempt.
func ValidateIntent(intent models.TransferIntent, resolver AssetResolver) (*models.Asset, error) {
	if err := validation.ValidateAddress(intent.Recipient); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRecipient, err)
	}

	if err := validation.ValidateAmount(intent.Amount); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAmount, err)
	}

	asset, err := resolver.Resolve(intent.Asset)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAsset, intent.Asset)
	}

	return asset, nil
}
