package models

type Repository interface {
	CreateTransferRecord(*TransferRecord) error
	UpdateTransferOutcome(id int64, record *TransferRecord) error
	GetTransferRecord(id int64) (*TransferRecord, error)
	GetTransfersBySender(sender string, limit int) ([]*TransferRecord, error)

	GetRecentFailures(since int64) ([]*TransferRecord, error)
}
