package patronus

import (
	"context"
	"time"

	"github.com/patronus-pay/patronus/internal/assets"
	"github.com/patronus-pay/patronus/internal/models"
	"github.com/patronus-pay/patronus/internal/transfer"
	"github.com/patronus-pay/patronus/pkg/logger"
)

// Patronus is the main struct for the Patronus application. It ties the
// transfer core to persistence and operator notifications and serves all
// business logic.
//
// One SubmitTransfer call is one independent attempt; nothing here
// serializes concurrent submissions against the same account. Callers that
// need strict on-chain ordering must serialize per-account submissions
// themselves.
type Patronus struct {
	logger *logger.Logger

	repo        models.Repository
	client      models.AccountClient
	registry    *assets.Registry
	submitter   *transfer.Submitter
	notificator models.NotificationService
}

// NewPatronus creates a new Patronus instance
func NewPatronus(
	repo models.Repository,
	client models.AccountClient,
	registry *assets.Registry,
	submitter *transfer.Submitter,
	notificator models.NotificationService,
	logger *logger.Logger,
) models.PatronusI {
	return &Patronus{
		repo:        repo,
		client:      client,
		registry:    registry,
		submitter:   submitter,
		notificator: notificator,
		logger:      logger,
	}
}

// Start starts the background work of the Patronus application
func (p *Patronus) Start() {
	p.registry.StartPeriodicUpdate()
}

// Stop tears the background work down
func (p *Patronus) Stop() {
	p.registry.Stop()
}

// SubmitTransfer records the attempt, runs the transfer core and persists
// the terminal outcome. The outcome is always returned as data; a repository
// failure is logged but never masks the transfer result.
func (p *Patronus) SubmitTransfer(ctx context.Context, intent models.TransferIntent) *models.SettlementOutcome {
	record := &models.TransferRecord{
		Sender:    intent.Sender,
		Recipient: intent.Recipient,
		Amount:    intent.Amount,
		Asset:     intent.Asset,
		Status:    models.StatusPending,
		CreatedAt: time.Now().Unix(),
	}
	if err := p.repo.CreateTransferRecord(record); err != nil {
		p.logger.Error("Failed to record transfer attempt ", "error ", err)
	}

	outcome, op := p.submitter.SubmitSponsoredTransfer(ctx, intent, p.client)

	record.Status = statusFor(outcome)
	record.SettlementHash = outcome.SettlementHash
	record.ErrorMessage = outcome.Error
	record.VerifyAdvised = outcome.VerifyAdvised
	record.ExplorerURL = outcome.ExplorerURL
	record.FinishedAt = time.Now().Unix()
	if op != nil {
		record.OperationID = op.ID.Hex()
	}

	if record.ID != 0 {
		if err := p.repo.UpdateTransferOutcome(record.ID, record); err != nil {
			p.logger.Error("Failed to store transfer outcome ", "error ", err)
		}
	}

	go p.notifyOutcome(intent, record, outcome)

	return outcome
}

func (p *Patronus) notifyOutcome(intent models.TransferIntent, record *models.TransferRecord, outcome *models.SettlementOutcome) {
	detail := outcome.Caveat
	if detail == "" {
		detail = outcome.Guidance
	}
	p.notificator.SendNotification(&models.Notification{
		Recipient: intent.Recipient,
		Amount:    intent.Amount,
		Asset:     intent.Asset,
		Status:    record.Status,
		Reference: record.SettlementHash,
		Detail:    detail,
	})
}

func statusFor(outcome *models.SettlementOutcome) string {
	switch {
	case outcome.Success && outcome.VerifyAdvised:
		return models.StatusAssumedSettled
	case outcome.Success:
		return models.StatusSettled
	default:
		return models.StatusFailed
	}
}

// TransfersFor returns the most recent transfer attempts from the given sender
func (p *Patronus) TransfersFor(sender string, limit int) ([]*models.TransferRecord, error) {
	records, err := p.repo.GetTransfersBySender(sender, limit)
	if err != nil {
		p.logger.Error("Failed to get transfer records ", "error ", err)
		return nil, err
	}
	return records, nil
}

// RecentFailures returns the failed transfer attempts that finished at or
// after the given unix timestamp
func (p *Patronus) RecentFailures(since int64) ([]*models.TransferRecord, error) {
	records, err := p.repo.GetRecentFailures(since)
	if err != nil {
		p.logger.Error("Failed to get recent failures ", "error ", err)
		return nil, err
	}
	return records, nil
}

// Assets returns the contents of the asset registry
func (p *Patronus) Assets() []*models.Asset {
	return p.registry.All()
}
