package reconciler

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"

	"bountyfi/contexts/settlement/reconciler/application/commands"
	"bountyfi/contexts/settlement/reconciler/domain/entities"
	domainerrors "bountyfi/contexts/settlement/reconciler/domain/errors"
	"bountyfi/contexts/settlement/reconciler/ports"
)

// fakeSettler queues settlement candidates and records outcome calls.
type fakeSettler struct {
	mu         sync.Mutex
	candidates []ports.SettlementCandidate
	settled    map[string]string
	failed     map[string]string
}

func newFakeSettler(candidates ...ports.SettlementCandidate) *fakeSettler {
	return &fakeSettler{
		candidates: candidates,
		settled:    map[string]string{},
		failed:     map[string]string{},
	}
}

func (f *fakeSettler) ListAwaitingSettlement(_ context.Context, limit int) ([]ports.SettlementCandidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if limit > len(f.candidates) {
		limit = len(f.candidates)
	}
	batch := make([]ports.SettlementCandidate, limit)
	copy(batch, f.candidates[:limit])
	return batch, nil
}

func (f *fakeSettler) MarkSettled(_ context.Context, submissionID string, txHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.settled[submissionID] = txHash
	f.remove(submissionID)
	return nil
}

func (f *fakeSettler) MarkSettlementFailed(_ context.Context, submissionID string, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed[submissionID] = reason
	f.remove(submissionID)
	return nil
}

func (f *fakeSettler) remove(submissionID string) {
	remaining := f.candidates[:0]
	for _, candidate := range f.candidates {
		if candidate.SubmissionID != submissionID {
			remaining = append(remaining, candidate)
		}
	}
	f.candidates = remaining
}

// fakeLedger scripts transaction submission and receipt lookup.
type fakeLedger struct {
	mu          sync.Mutex
	nextTxHash  string
	submitErr   error
	waitErr     error
	receipts    map[string]*ports.LedgerReceipt
	submissions int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{nextTxHash: "0xabc", receipts: map[string]*ports.LedgerReceipt{}}
}

func (f *fakeLedger) SubmitSettlement(_ context.Context, _ uint64, _ int) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submissions++
	if f.submitErr != nil {
		return "", f.submitErr
	}
	return f.nextTxHash, nil
}

func (f *fakeLedger) WaitForReceipt(_ context.Context, txHash string) (*ports.LedgerReceipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.waitErr != nil {
		return nil, f.waitErr
	}
	receipt, exists := f.receipts[txHash]
	if !exists {
		return &ports.LedgerReceipt{TxHash: txHash, Success: true}, nil
	}
	return receipt, nil
}

func (f *fakeLedger) GetReceipt(_ context.Context, txHash string) (*ports.LedgerReceipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.receipts[txHash], nil
}

func chainID(id uint64) *uint64 { return &id }

func TestScoreSettlementMarksSettledOnSuccess(t *testing.T) {
	settler := newFakeSettler(ports.SettlementCandidate{
		SubmissionID: "sub-1", ChainSubmissionID: chainID(7), Confidence: 85,
	})
	ledger := newFakeLedger()
	module := NewInMemoryModule(settler, ledger, nil)

	if err := module.ScoreSettlement.RunOnce(context.Background()); err != nil {
		t.Fatalf("settlement pass returned error: %v", err)
	}
	if txHash := settler.settled["sub-1"]; txHash != "0xabc" {
		t.Fatalf("expected sub-1 settled with tx 0xabc, got %q", txHash)
	}
	if len(settler.failed) != 0 {
		t.Fatalf("no failures expected, got %v", settler.failed)
	}
}

func TestScoreSettlementFailsWithoutChainIdentifier(t *testing.T) {
	settler := newFakeSettler(ports.SettlementCandidate{
		SubmissionID: "sub-2", Confidence: 85,
	})
	ledger := newFakeLedger()
	module := NewInMemoryModule(settler, ledger, nil)

	if err := module.ScoreSettlement.RunOnce(context.Background()); err != nil {
		t.Fatalf("settlement pass returned error: %v", err)
	}
	if reason := settler.failed["sub-2"]; reason != domainerrors.ErrIdentifierMappingMissing.Error() {
		t.Fatalf("expected identifier-mapping failure, got %q", reason)
	}
	if ledger.submissions != 0 {
		t.Fatalf("unmapped candidate must never reach the ledger, got %d submissions", ledger.submissions)
	}
}

func TestScoreSettlementMarksFailureOnRevert(t *testing.T) {
	settler := newFakeSettler(ports.SettlementCandidate{
		SubmissionID: "sub-3", ChainSubmissionID: chainID(9), Confidence: 90,
	})
	ledger := newFakeLedger()
	ledger.receipts["0xabc"] = &ports.LedgerReceipt{TxHash: "0xabc", Success: false}
	module := NewInMemoryModule(settler, ledger, nil)

	if err := module.ScoreSettlement.RunOnce(context.Background()); err != nil {
		t.Fatalf("settlement pass returned error: %v", err)
	}
	if reason := settler.failed["sub-3"]; reason != "settlement transaction reverted" {
		t.Fatalf("expected revert failure, got %q", reason)
	}
}

func TestScoreSettlementTimeoutCountsAsFailedAttempt(t *testing.T) {
	settler := newFakeSettler(ports.SettlementCandidate{
		SubmissionID: "sub-4", ChainSubmissionID: chainID(4), Confidence: 82,
	})
	ledger := newFakeLedger()
	ledger.waitErr = errors.New("confirmation deadline exceeded")
	module := NewInMemoryModule(settler, ledger, nil)

	if err := module.ScoreSettlement.RunOnce(context.Background()); err != nil {
		t.Fatalf("settlement pass returned error: %v", err)
	}
	if reason := settler.failed["sub-4"]; reason != "confirmation deadline exceeded" {
		t.Fatalf("expected timeout recorded as failure, got %q", reason)
	}
}

func TestScoreSettlementContinuesBatchAfterItemFailure(t *testing.T) {
	settler := newFakeSettler(
		ports.SettlementCandidate{SubmissionID: "sub-5", Confidence: 85},
		ports.SettlementCandidate{SubmissionID: "sub-6", ChainSubmissionID: chainID(6), Confidence: 88},
	)
	ledger := newFakeLedger()
	module := NewInMemoryModule(settler, ledger, nil)

	if err := module.ScoreSettlement.RunOnce(context.Background()); err != nil {
		t.Fatalf("settlement pass returned error: %v", err)
	}
	if _, ok := settler.failed["sub-5"]; !ok {
		t.Fatal("expected sub-5 marked failed")
	}
	if _, ok := settler.settled["sub-6"]; !ok {
		t.Fatal("expected sub-6 settled despite the earlier item failure")
	}
}

func logClaim(t *testing.T, module Module, txHash, code string) entities.PrizeDraw {
	t.Helper()
	draw, err := module.LogClaim.LogClaim(context.Background(), commands.LogClaimCommand{
		CampaignID:     "camp-1",
		TxHash:         txHash,
		RedemptionCode: code,
		MerchantID:     "merchant-1",
	})
	if err != nil {
		t.Fatalf("log claim returned error: %v", err)
	}
	return draw
}

func TestLogClaimRejectsDuplicateTxHash(t *testing.T) {
	module := NewInMemoryModule(newFakeSettler(), newFakeLedger(), nil)

	logClaim(t, module, "0xdup", "CODE-1")
	_, err := module.LogClaim.LogClaim(context.Background(), commands.LogClaimCommand{
		CampaignID: "camp-1",
		TxHash:     "0xdup",
	})
	if !errors.Is(err, domainerrors.ErrDuplicateDraw) {
		t.Fatalf("expected ErrDuplicateDraw, got %v", err)
	}
}

func TestClaimSettlementLeavesUnminedPending(t *testing.T) {
	ledger := newFakeLedger()
	module := NewInMemoryModule(newFakeSettler(), ledger, nil)
	draw := logClaim(t, module, "0xpending", "CODE-1")

	if err := module.ClaimSettlement.RunOnce(context.Background()); err != nil {
		t.Fatalf("claim pass returned error: %v", err)
	}
	stored, err := module.Queries.GetDraw(context.Background(), draw.DrawID)
	if err != nil {
		t.Fatalf("get draw returned error: %v", err)
	}
	if stored.Status != entities.DrawStatusPending {
		t.Fatalf("unmined claim must stay PENDING, got %s", stored.Status)
	}
}

func TestClaimSettlementResolvesWin(t *testing.T) {
	ledger := newFakeLedger()
	ledger.receipts["0xwin"] = &ports.LedgerReceipt{
		TxHash:  "0xwin",
		Success: true,
		Events: []ports.LedgerEvent{{
			Name: "PrizeWon",
			Args: map[string]any{
				"amount": big.NewInt(2_500_000_000_000_000_000),
				"winner": "0x00000000000000000000000000000000000000aa",
			},
		}},
	}
	module := NewInMemoryModule(newFakeSettler(), ledger, nil)
	draw := logClaim(t, module, "0xwin", "CODE-1")

	if err := module.ClaimSettlement.RunOnce(context.Background()); err != nil {
		t.Fatalf("claim pass returned error: %v", err)
	}
	stored, err := module.Queries.GetDraw(context.Background(), draw.DrawID)
	if err != nil {
		t.Fatalf("get draw returned error: %v", err)
	}
	if stored.Status != entities.DrawStatusWon {
		t.Fatalf("expected WON, got %s", stored.Status)
	}
	if stored.PrizeAmount != 2.5 {
		t.Fatalf("expected prize amount 2.5, got %v", stored.PrizeAmount)
	}
	if stored.WinnerWallet != "0x00000000000000000000000000000000000000aa" {
		t.Fatalf("unexpected winner wallet %q", stored.WinnerWallet)
	}
}

func TestClaimSettlementResolvesLossWithoutOutcomeEvent(t *testing.T) {
	ledger := newFakeLedger()
	ledger.receipts["0xloss"] = &ports.LedgerReceipt{TxHash: "0xloss", Success: true}
	module := NewInMemoryModule(newFakeSettler(), ledger, nil)
	draw := logClaim(t, module, "0xloss", "CODE-1")

	if err := module.ClaimSettlement.RunOnce(context.Background()); err != nil {
		t.Fatalf("claim pass returned error: %v", err)
	}
	stored, err := module.Queries.GetDraw(context.Background(), draw.DrawID)
	if err != nil {
		t.Fatalf("get draw returned error: %v", err)
	}
	if stored.Status != entities.DrawStatusLost || stored.PrizeAmount != 0 {
		t.Fatalf("expected LOST with zero prize, got %s / %v", stored.Status, stored.PrizeAmount)
	}
}

func TestClaimSettlementMarksRevertedClaimFailed(t *testing.T) {
	ledger := newFakeLedger()
	ledger.receipts["0xrev"] = &ports.LedgerReceipt{TxHash: "0xrev", Success: false}
	module := NewInMemoryModule(newFakeSettler(), ledger, nil)
	draw := logClaim(t, module, "0xrev", "CODE-1")

	if err := module.ClaimSettlement.RunOnce(context.Background()); err != nil {
		t.Fatalf("claim pass returned error: %v", err)
	}
	stored, err := module.Queries.GetDraw(context.Background(), draw.DrawID)
	if err != nil {
		t.Fatalf("get draw returned error: %v", err)
	}
	if stored.Status != entities.DrawStatusFailed {
		t.Fatalf("expected FAILED, got %s", stored.Status)
	}
	if stored.FailureReason == "" {
		t.Fatal("expected a failure reason on the resolved draw")
	}
}

func TestClaimSettlementRerunIsNoOp(t *testing.T) {
	ledger := newFakeLedger()
	ledger.receipts["0xwin"] = &ports.LedgerReceipt{
		TxHash:  "0xwin",
		Success: true,
		Events:  []ports.LedgerEvent{{Name: "PrizeWon", Args: map[string]any{"amount": big.NewInt(1)}}},
	}
	module := NewInMemoryModule(newFakeSettler(), ledger, nil)
	draw := logClaim(t, module, "0xwin", "CODE-1")

	if err := module.ClaimSettlement.RunOnce(context.Background()); err != nil {
		t.Fatalf("first claim pass returned error: %v", err)
	}
	// Flip the scripted receipt to a loss; a resolved draw must not be
	// re-selected and re-resolved.
	ledger.mu.Lock()
	ledger.receipts["0xwin"] = &ports.LedgerReceipt{
		TxHash: "0xwin", Success: true,
		Events: []ports.LedgerEvent{{Name: "PrizeLost"}},
	}
	ledger.mu.Unlock()
	if err := module.ClaimSettlement.RunOnce(context.Background()); err != nil {
		t.Fatalf("second claim pass returned error: %v", err)
	}

	stored, err := module.Queries.GetDraw(context.Background(), draw.DrawID)
	if err != nil {
		t.Fatalf("get draw returned error: %v", err)
	}
	if stored.Status != entities.DrawStatusWon {
		t.Fatalf("resolved draw must stay WON across passes, got %s", stored.Status)
	}
}

func resolveWin(t *testing.T, module Module, ledger *fakeLedger, txHash string) entities.PrizeDraw {
	t.Helper()
	ledger.mu.Lock()
	ledger.receipts[txHash] = &ports.LedgerReceipt{
		TxHash:  txHash,
		Success: true,
		Events:  []ports.LedgerEvent{{Name: "PrizeWon", Args: map[string]any{"amount": big.NewInt(1)}}},
	}
	ledger.mu.Unlock()
	draw := logClaim(t, module, txHash, "SECRET")
	if err := module.ClaimSettlement.RunOnce(context.Background()); err != nil {
		t.Fatalf("claim pass returned error: %v", err)
	}
	stored, err := module.Queries.GetDraw(context.Background(), draw.DrawID)
	if err != nil {
		t.Fatalf("get draw returned error: %v", err)
	}
	return stored
}

func TestRedeemPrizeHappyPath(t *testing.T) {
	ledger := newFakeLedger()
	module := NewInMemoryModule(newFakeSettler(), ledger, nil)
	draw := resolveWin(t, module, ledger, "0xwin")

	redeemed, err := module.Redeem.RedeemPrize(context.Background(), draw.DrawID, "SECRET")
	if err != nil {
		t.Fatalf("redeem returned error: %v", err)
	}
	if redeemed.RedeemedAt == nil {
		t.Fatal("expected RedeemedAt set after redemption")
	}
}

func TestRedeemPrizeRejectsWrongCode(t *testing.T) {
	ledger := newFakeLedger()
	module := NewInMemoryModule(newFakeSettler(), ledger, nil)
	draw := resolveWin(t, module, ledger, "0xwin")

	_, err := module.Redeem.RedeemPrize(context.Background(), draw.DrawID, "WRONG")
	if !errors.Is(err, domainerrors.ErrInvalidRedemptionCode) {
		t.Fatalf("expected ErrInvalidRedemptionCode, got %v", err)
	}
}

func TestRedeemPrizeRequiresWonDraw(t *testing.T) {
	module := NewInMemoryModule(newFakeSettler(), newFakeLedger(), nil)
	draw := logClaim(t, module, "0xpending", "SECRET")

	_, err := module.Redeem.RedeemPrize(context.Background(), draw.DrawID, "SECRET")
	if !errors.Is(err, domainerrors.ErrDrawNotWon) {
		t.Fatalf("expected ErrDrawNotWon, got %v", err)
	}
}

func TestRedeemPrizeIsSingleShot(t *testing.T) {
	ledger := newFakeLedger()
	module := NewInMemoryModule(newFakeSettler(), ledger, nil)
	draw := resolveWin(t, module, ledger, "0xwin")

	if _, err := module.Redeem.RedeemPrize(context.Background(), draw.DrawID, "SECRET"); err != nil {
		t.Fatalf("first redemption returned error: %v", err)
	}
	_, err := module.Redeem.RedeemPrize(context.Background(), draw.DrawID, "SECRET")
	if !errors.Is(err, domainerrors.ErrAlreadyRedeemed) {
		t.Fatalf("expected ErrAlreadyRedeemed, got %v", err)
	}
}
