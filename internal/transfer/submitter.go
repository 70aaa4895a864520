package transfer

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/patronus-pay/patronus/internal/models"
	"github.com/patronus-pay/patronus/pkg/logger"
)

// Submitter runs one sponsored transfer attempt end to end:
//
//	Validating -> Encoding -> Submitting -> AwaitingSettlement
//	  -> {Settled | BenignFailureAssumedSettled | Failed}
//
// Each state is traversed at most once; there is no retry loop here.
// Retries, and serializing concurrent submissions against the same account,
// are the caller's business. The account client is injected and externally
// owned; the submitter holds no mutable state across calls, so distinct
// intents may run in parallel.
type Submitter struct {
	registry     AssetResolver
	explorerBase string
	logger       *logger.Logger
}

func NewSubmitter(registry AssetResolver, explorerBase string, logger *logger.Logger) *Submitter {
	return &Submitter{
		registry:     registry,
		explorerBase: explorerBase,
		logger:       logger,
	}
}

// SubmitSponsoredTransfer builds, submits and awaits one transfer. Every
// classified condition comes back as data inside the outcome; the only way
// this can panic is the encoder's calldata/native-value invariant, which is
// a bug in this package's callers.
//
// The returned SubmittedOperation is nil when no operation identifier was
// obtained (validation or submission failure).
func (s *Submitter) SubmitSponsoredTransfer(ctx context.Context, intent models.TransferIntent, client models.AccountClient) (*models.SettlementOutcome, *models.SubmittedOperation) {
	// Validating
	asset, err := ValidateIntent(intent, s.registry)
	if err != nil {
		s.logger.Debug("Intent rejected ", "error ", err)
		return s.failed(err.Error()), nil
	}

	// Encoding
	call, err := EncodeIntent(intent, asset)
	if err != nil {
		s.logger.Debug("Intent encoding rejected ", "error ", err)
		return s.failed(err.Error()), nil
	}

	// Submitting
	opID, err := client.SubmitOperation(ctx, []models.Call{call})
	if err != nil {
		s.logger.Error("Operation submission failed ", "error ", err)
		return s.failed(fmt.Sprintf("submission failed: %s", err.Error())), nil
	}
	op := &models.SubmittedOperation{ID: opID, SubmittedAt: time.Now().Unix()}
	s.logger.Info("Operation submitted ", "operation ", opID.Hex())

	// AwaitingSettlement
	hash, err := client.AwaitReceipt(ctx, opID)
	if err == nil {
		s.logger.Info("Operation settled ", "operation ", opID.Hex(), "tx ", hash.Hex())
		return s.settled(hash), op
	}

	if IsBenignReceiptDefect(err) {
		// Prefer an explicit status query over the heuristic when the
		// client supports one: an operation the network has never seen
		// must not be reported as settled.
		if querier, ok := client.(models.OperationStatusQuerier); ok {
			known, qerr := querier.OperationKnown(ctx, opID)
			if qerr == nil && !known {
				s.logger.Warn("Receipt wait hit decoder defect but operation is unknown to the network ", "operation ", opID.Hex())
				return s.failed(err.Error()), op
			}
		}
		s.logger.Warn("Receipt wait hit known decoder defect, assuming settlement ", "operation ", opID.Hex(), "error ", err)
		return s.assumedSettled(opID), op
	}

	s.logger.Error("Receipt wait failed ", "operation ", opID.Hex(), "error ", err)
	return s.failed(err.Error()), op
}

func (s *Submitter) settled(hash common.Hash) *models.SettlementOutcome {
	return &models.SettlementOutcome{
		Success:        true,
		SettlementHash: hash.Hex(),
		ExplorerURL:    s.explorerURL(hash.Hex()),
	}
}

// assumedSettled substitutes the operation identifier for the settlement
// hash; VerifyAdvised tells the caller the substitution happened.
func (s *Submitter) assumedSettled(opID common.Hash) *models.SettlementOutcome {
	return &models.SettlementOutcome{
		Success:        true,
		SettlementHash: opID.Hex(),
		ExplorerURL:    s.explorerURL(opID.Hex()),
		VerifyAdvised:  true,
		Caveat:         VerifyCaveat,
	}
}

func (s *Submitter) failed(message string) *models.SettlementOutcome {
	return &models.SettlementOutcome{
		Error:    message,
		Guidance: GuidanceFor(message),
	}
}

func (s *Submitter) explorerURL(ref string) string {
	if s.explorerBase == "" {
		return ""
	}
	return s.explorerBase + "/tx/" + ref
}
