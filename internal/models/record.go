package models

// Transfer attempt statuses as stored in the repository.
const (
	StatusPending        = "pending"
	StatusSettled        = "settled"
	StatusAssumedSettled = "assumed_settled"
	StatusFailed         = "failed"
)

// TransferRecord is the persisted form of one transfer attempt.
type TransferRecord struct {
	// ID is the unique identifier for the record.
	ID int64 `json:"id" gorm:"column:id;primaryKey;autoIncrement"`
	// Sender is the smart account the operation was submitted from.
	Sender string `json:"sender" gorm:"column:sender;index"`
	// Recipient is the destination address.
	Recipient string `json:"recipient" gorm:"column:recipient;index"`
	// Amount is the requested amount as a decimal string.
	Amount string `json:"amount" gorm:"column:amount"`
	// Asset is the asset symbol of the transfer.
	Asset string `json:"asset" gorm:"column:asset"`
	// OperationID is the identifier handed back by the bundler at
	// submission time. Empty if submission never succeeded.
	OperationID string `json:"operation_id" gorm:"column:operation_id;index"`
	// SettlementHash is the settled transaction hash, or the operation
	// identifier for assumed-settled outcomes.
	SettlementHash string `json:"settlement_hash" gorm:"column:settlement_hash"`
	// Status is one of pending, settled, assumed_settled, failed.
	Status string `json:"status" gorm:"column:status;index"`
	// ErrorMessage carries the classified failure message, if any.
	ErrorMessage string `json:"error_message" gorm:"column:error_message"`
	// VerifyAdvised marks assumed-settled outcomes.
	VerifyAdvised bool `json:"verify_advised" gorm:"column:verify_advised"`
	// ExplorerURL links the settlement on the network's explorer.
	ExplorerURL string `json:"explorer_url" gorm:"column:explorer_url"`
	// CreatedAt is the Unix timestamp when the attempt started.
	CreatedAt int64 `json:"created_at" gorm:"column:created_at;index"`
	// FinishedAt is the Unix timestamp when the attempt reached a terminal
	// state.
	FinishedAt int64 `json:"finished_at" gorm:"column:finished_at"`
}

// TableName specifies the table name for GORM
func (TransferRecord) TableName() string {
	return "transfer_records"
}
