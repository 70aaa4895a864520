package transfer

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/patronus-pay/patronus/internal/models"
	"github.com/patronus-pay/patronus/pkg/logger"
)

const testExplorer = "https://sepolia.etherscan.io"

// stubResolver implements AssetResolver over a fixed map.
type stubResolver struct {
	assets map[string]*models.Asset
}

func (r stubResolver) Resolve(symbol string) (*models.Asset, error) {
	asset, ok := r.assets[strings.ToUpper(symbol)]
	if !ok {
		return nil, errors.New("unknown asset")
	}
	return asset, nil
}

// mockAccountClient implements models.AccountClient for testing.
type mockAccountClient struct {
	submitCalls int
	awaitCalls  int

	submitErr  error
	awaitErr   error
	opID       common.Hash
	settlement common.Hash

	lastCalls []models.Call
}

func (m *mockAccountClient) SubmitOperation(ctx context.Context, calls []models.Call) (common.Hash, error) {
	m.submitCalls++
	m.lastCalls = calls
	if m.submitErr != nil {
		return common.Hash{}, m.submitErr
	}
	return m.opID, nil
}

func (m *mockAccountClient) AwaitReceipt(ctx context.Context, opID common.Hash) (common.Hash, error) {
	m.awaitCalls++
	if m.awaitErr != nil {
		return common.Hash{}, m.awaitErr
	}
	return m.settlement, nil
}

// queryingClient additionally implements models.OperationStatusQuerier.
type queryingClient struct {
	mockAccountClient

	queryCalls int
	known      bool
	queryErr   error
}

func (q *queryingClient) OperationKnown(ctx context.Context, opID common.Hash) (bool, error) {
	q.queryCalls++
	return q.known, q.queryErr
}

func newTestSubmitter(t *testing.T) *Submitter {
	t.Helper()
	log, err := logger.NewLogger(true)
	if err != nil {
		t.Fatalf("failed to build logger: %v", err)
	}
	resolver := stubResolver{assets: map[string]*models.Asset{
		"ETH":  {Symbol: "ETH", Name: "Ether", Decimals: 18, Native: true},
		"USDX": {Symbol: "USDX", Name: "USD Example", Address: testToken, Decimals: 18},
	}}
	return NewSubmitter(resolver, testExplorer, log)
}

var (
	testOpID       = common.HexToHash("0x1111111111111111111111111111111111111111111111111111111111111111")
	testSettlement = common.HexToHash("0x2222222222222222222222222222222222222222222222222222222222222222")
)

func TestRejectsMalformedRecipientWithoutNetworkCall(t *testing.T) {
	submitter := newTestSubmitter(t)

	for _, recipient := range []string{"", "0x123", "not-an-address", "7c3A0F4C8a0176C7a9b4EdcF6aBAA04b0E9C9A11"} {
		client := &mockAccountClient{opID: testOpID}
		intent := models.TransferIntent{Recipient: recipient, Amount: "1.0", Asset: "ETH"}

		outcome, op := submitter.SubmitSponsoredTransfer(context.Background(), intent, client)

		if outcome.Success {
			t.Errorf("recipient %q: expected failure outcome", recipient)
		}
		if outcome.Error == "" {
			t.Errorf("recipient %q: expected error message", recipient)
		}
		if client.submitCalls != 0 || client.awaitCalls != 0 {
			t.Errorf("recipient %q: expected no network calls, got submit=%d await=%d", recipient, client.submitCalls, client.awaitCalls)
		}
		if op != nil {
			t.Errorf("recipient %q: expected nil submitted operation", recipient)
		}
	}
}

func TestRejectsMalformedAmountWithoutNetworkCall(t *testing.T) {
	submitter := newTestSubmitter(t)

	for _, amount := range []string{"", "0", "-1", "abc", "1.2.3"} {
		client := &mockAccountClient{opID: testOpID}
		intent := models.TransferIntent{Recipient: testRecipient, Amount: amount, Asset: "ETH"}

		outcome, _ := submitter.SubmitSponsoredTransfer(context.Background(), intent, client)

		if outcome.Success {
			t.Errorf("amount %q: expected failure outcome", amount)
		}
		if client.submitCalls != 0 {
			t.Errorf("amount %q: expected no network calls", amount)
		}
	}
}

func TestRejectsUnknownAsset(t *testing.T) {
	submitter := newTestSubmitter(t)
	client := &mockAccountClient{opID: testOpID}
	intent := models.TransferIntent{Recipient: testRecipient, Amount: "1.0", Asset: "DOGE"}

	outcome, _ := submitter.SubmitSponsoredTransfer(context.Background(), intent, client)

	if outcome.Success {
		t.Error("expected failure outcome for unconfigured asset")
	}
	if client.submitCalls != 0 {
		t.Error("expected no network calls for unconfigured asset")
	}
}

func TestSettledOutcome(t *testing.T) {
	submitter := newTestSubmitter(t)
	client := &mockAccountClient{opID: testOpID, settlement: testSettlement}
	intent := models.TransferIntent{Recipient: testRecipient, Amount: "1.0", Asset: "ETH"}

	outcome, op := submitter.SubmitSponsoredTransfer(context.Background(), intent, client)

	if !outcome.Success {
		t.Fatalf("expected success, got error %q", outcome.Error)
	}
	if outcome.SettlementHash != testSettlement.Hex() {
		t.Errorf("settlement hash = %s, want %s", outcome.SettlementHash, testSettlement.Hex())
	}
	if outcome.VerifyAdvised {
		t.Error("settled outcome must not advise verification")
	}
	want := testExplorer + "/tx/" + testSettlement.Hex()
	if outcome.ExplorerURL != want {
		t.Errorf("explorer URL = %s, want %s", outcome.ExplorerURL, want)
	}
	if op == nil || op.ID != testOpID {
		t.Errorf("submitted operation = %+v, want ID %s", op, testOpID.Hex())
	}
}

func TestSubmissionFailureIsFatal(t *testing.T) {
	submitter := newTestSubmitter(t)
	client := &mockAccountClient{submitErr: errors.New("signer unavailable")}
	intent := models.TransferIntent{Recipient: testRecipient, Amount: "1.0", Asset: "ETH"}

	outcome, op := submitter.SubmitSponsoredTransfer(context.Background(), intent, client)

	if outcome.Success {
		t.Error("expected failure outcome")
	}
	if !strings.Contains(outcome.Error, "signer unavailable") {
		t.Errorf("error %q should carry the original message", outcome.Error)
	}
	if client.awaitCalls != 0 {
		t.Error("confirmation wait must not run after a submission failure")
	}
	if op != nil {
		t.Error("expected nil submitted operation after submission failure")
	}
}

func TestBenignDefectDowngradesToAssumedSettled(t *testing.T) {
	submitter := newTestSubmitter(t)
	client := &mockAccountClient{opID: testOpID, awaitErr: errors.New("invalid codepoint 0x89 at position 3")}
	intent := models.TransferIntent{Recipient: testRecipient, Amount: "1.0", Asset: "ETH"}

	outcome, _ := submitter.SubmitSponsoredTransfer(context.Background(), intent, client)

	if !outcome.Success {
		t.Fatalf("expected optimistic success, got error %q", outcome.Error)
	}
	if outcome.SettlementHash != testOpID.Hex() {
		t.Errorf("settlement reference = %s, want operation id %s", outcome.SettlementHash, testOpID.Hex())
	}
	if !outcome.VerifyAdvised {
		t.Error("assumed-settled outcome must advise verification")
	}
	if outcome.Caveat == "" {
		t.Error("assumed-settled outcome must carry the verification caveat")
	}
}

func TestBenignDefectPrefersExplicitStatusQuery(t *testing.T) {
	submitter := newTestSubmitter(t)
	intent := models.TransferIntent{Recipient: testRecipient, Amount: "1.0", Asset: "ETH"}

	// Operation known to the network: downgrade applies
	known := &queryingClient{
		mockAccountClient: mockAccountClient{opID: testOpID, awaitErr: errors.New("invalid codepoint")},
		known:             true,
	}
	outcome, _ := submitter.SubmitSponsoredTransfer(context.Background(), intent, known)
	if !outcome.Success || !outcome.VerifyAdvised {
		t.Errorf("known operation: expected assumed-settled outcome, got %+v", outcome)
	}
	if known.queryCalls != 1 {
		t.Errorf("expected one status query, got %d", known.queryCalls)
	}

	// Operation unknown to the network: the defect heuristic must lose
	unknown := &queryingClient{
		mockAccountClient: mockAccountClient{opID: testOpID, awaitErr: errors.New("invalid codepoint")},
		known:             false,
	}
	outcome, _ = submitter.SubmitSponsoredTransfer(context.Background(), intent, unknown)
	if outcome.Success {
		t.Error("unknown operation: expected hard failure despite defect signature")
	}

	// Status query itself failing: fall back to the heuristic
	broken := &queryingClient{
		mockAccountClient: mockAccountClient{opID: testOpID, awaitErr: errors.New("invalid codepoint")},
		queryErr:          errors.New("method not found"),
	}
	outcome, _ = submitter.SubmitSponsoredTransfer(context.Background(), intent, broken)
	if !outcome.Success || !outcome.VerifyAdvised {
		t.Errorf("broken status query: expected assumed-settled outcome, got %+v", outcome)
	}
}

func TestFundingFailureGuidance(t *testing.T) {
	submitter := newTestSubmitter(t)
	client := &mockAccountClient{opID: testOpID, awaitErr: errors.New("insufficient funds for gas * price + value")}
	intent := models.TransferIntent{Recipient: testRecipient, Amount: "1.0", Asset: "ETH"}

	outcome, _ := submitter.SubmitSponsoredTransfer(context.Background(), intent, client)

	if outcome.Success {
		t.Error("expected failure outcome")
	}
	if outcome.Guidance != FundingGuidance {
		t.Errorf("guidance = %q, want funding guidance", outcome.Guidance)
	}
	if !strings.Contains(outcome.Error, "insufficient funds") {
		t.Errorf("error %q should preserve the original message", outcome.Error)
	}
}

func TestSponsorshipQuotaFailureGuidance(t *testing.T) {
	submitter := newTestSubmitter(t)
	client := &mockAccountClient{opID: testOpID, awaitErr: errors.New("request denied: upgrade your billing plan")}
	intent := models.TransferIntent{Recipient: testRecipient, Amount: "1.0", Asset: "ETH"}

	outcome, _ := submitter.SubmitSponsoredTransfer(context.Background(), intent, client)

	if outcome.Success {
		t.Error("expected failure outcome")
	}
	if outcome.Guidance != SponsorshipGuidance {
		t.Errorf("guidance = %q, want sponsorship guidance", outcome.Guidance)
	}
	if outcome.Guidance == FundingGuidance {
		t.Error("sponsorship guidance must differ from funding guidance")
	}
}

func TestOutcomeAssemblyIdempotent(t *testing.T) {
	submitter := newTestSubmitter(t)
	intent := models.TransferIntent{Recipient: testRecipient, Amount: "1.0", Asset: "ETH"}

	first, _ := submitter.SubmitSponsoredTransfer(context.Background(), intent,
		&mockAccountClient{opID: testOpID, awaitErr: errors.New("insufficient funds for gas")})
	second, _ := submitter.SubmitSponsoredTransfer(context.Background(), intent,
		&mockAccountClient{opID: testOpID, awaitErr: errors.New("insufficient funds for gas")})

	if !reflect.DeepEqual(first, second) {
		t.Errorf("outcomes for the same classified error differ:\n%+v\n%+v", first, second)
	}
}

func TestTokenTransferCallShape(t *testing.T) {
	submitter := newTestSubmitter(t)
	client := &mockAccountClient{opID: testOpID, settlement: testSettlement}
	intent := models.TransferIntent{Recipient: testRecipient, Amount: "10.5", Asset: "USDX"}

	outcome, _ := submitter.SubmitSponsoredTransfer(context.Background(), intent, client)
	if !outcome.Success {
		t.Fatalf("expected success, got error %q", outcome.Error)
	}

	if len(client.lastCalls) != 1 {
		t.Fatalf("expected one call, got %d", len(client.lastCalls))
	}
	call := client.lastCalls[0]
	if call.Value.Sign() != 0 {
		t.Errorf("token transfer carried native value %s", call.Value)
	}
	if call.Target != common.HexToAddress(testToken) {
		t.Errorf("token transfer targeted %s, want the token contract", call.Target.Hex())
	}
	if len(call.Data) != 68 {
		t.Errorf("calldata length = %d, want 68", len(call.Data))
	}
}
