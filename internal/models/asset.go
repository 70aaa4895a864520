package models

// Asset represents an entry of the asset registry: either the chain's native
// asset or a token contract.
type Asset struct {
	// Symbol is the short symbol of the asset (e.g., ETH, USDC)
	Symbol string `json:"symbol"`
	// Name is the full name of the asset
	Name string `json:"name"`
	// Address is the token contract address. Empty for the native asset.
	Address string `json:"address,omitempty"`
	// Decimals is the number of decimals the asset uses
	Decimals int32 `json:"decimals"`
	// Native marks the chain's native asset
	Native bool `json:"native"`
	// UpdatedAt is the timestamp when the asset info was last refreshed
	UpdatedAt int64 `json:"updated_at"`
}
