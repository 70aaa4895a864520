package models

import "context"

// PatronusI is the application surface exposed to the API layer.
type PatronusI interface {
	// Start starts background work (asset registry refresh)
	Start()
	// Stop tears background work down
	Stop()

	// SubmitTransfer runs one sponsored transfer attempt end to end and
	// returns its outcome. Classified failures come back as data inside
	// the outcome, never as an error.
	SubmitTransfer(ctx context.Context, intent TransferIntent) *SettlementOutcome

	// TransfersFor returns the most recent transfer attempts from the
	// given sender.
	TransfersFor(sender string, limit int) ([]*TransferRecord, error)

	// RecentFailures returns the failed transfer attempts that finished at
	// or after the given unix timestamp.
	RecentFailures(since int64) ([]*TransferRecord, error)

	// Assets returns the contents of the asset registry.
	Assets() []*Asset
}

// APIServer serves the HTTP API.
type APIServer interface {
	Start()
	Stop(ctx context.Context) error
}
