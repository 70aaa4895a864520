package validation

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// ValidateAmount validates a decimal amount string. The amount must parse
// as a decimal number and be strictly positive.
func ValidateAmount(amount string) error {
	if amount == "" {
		return fmt.Errorf("amount cannot be empty")
	}

	d, err := decimal.NewFromString(amount)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	if !d.IsPositive() {
		return fmt.Errorf("amount must be positive, got %s", d.String())
	}

	return nil
}

// ToBaseUnits converts a decimal amount string to the integer amount in the
// asset's smallest unit. The amount must not carry more fractional digits
// than the asset supports.
func ToBaseUnits(amount string, decimals int32) (*big.Int, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	if !d.IsPositive() {
		return nil, fmt.Errorf("amount must be positive, got %s", d.String())
	}

	shifted := d.Shift(decimals)
	if !shifted.IsInteger() {
		return nil, fmt.Errorf("amount %s has more than %d decimal places", amount, decimals)
	}

	return shifted.BigInt(), nil
}
