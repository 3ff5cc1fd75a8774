package lottery

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"

	"bountyfi/contexts/settlement/lottery/adapters/memory"
	"bountyfi/contexts/settlement/lottery/application/commands"
	"bountyfi/contexts/settlement/lottery/domain/entities"
	domainerrors "bountyfi/contexts/settlement/lottery/domain/errors"
)

// fakeDrawLedger records submitted draw requests.
type fakeDrawLedger struct {
	mu           sync.Mutex
	submitErr    error
	submissions  int
	participants []string
	counts       []uint64
}

func (f *fakeDrawLedger) SubmitDrawRequest(_ context.Context, _ uint64, participants []string, counts []uint64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitErr != nil {
		return "", f.submitErr
	}
	f.submissions++
	f.participants = participants
	f.counts = counts
	return "0xdraw", nil
}

func chainID(id uint64) *uint64 { return &id }

func activeCampaign(campaignID string, id *uint64) entities.CampaignProjection {
	return entities.CampaignProjection{
		CampaignID:      campaignID,
		ChainCampaignID: id,
		Status:          entities.CampaignStatusActive,
	}
}

func grantTickets(t *testing.T, module Module, campaignID, wallet string, count uint64) {
	t.Helper()
	_, err := module.Grant.GrantTickets(context.Background(), commands.GrantTicketsCommand{
		CampaignID: campaignID,
		Wallet:     wallet,
		Count:      count,
	})
	if err != nil {
		t.Fatalf("grant tickets returned error: %v", err)
	}
}

func TestAggregateTicketsFoldsGrantsPerWallet(t *testing.T) {
	ledger := &fakeDrawLedger{}
	module := NewInMemoryModule([]entities.CampaignProjection{activeCampaign("camp-1", chainID(3))}, ledger, nil)

	grantTickets(t, module, "camp-1", "0xbb", 1)
	grantTickets(t, module, "camp-1", "0xaa", 2)
	grantTickets(t, module, "camp-1", "0xaa", 3)

	participants, counts, err := module.Queries.ListTicketTotals(context.Background(), "camp-1")
	if err != nil {
		t.Fatalf("list ticket totals returned error: %v", err)
	}
	if !reflect.DeepEqual(participants, []string{"0xaa", "0xbb"}) {
		t.Fatalf("expected wallet-sorted participants, got %v", participants)
	}
	if !reflect.DeepEqual(counts, []uint64{5, 1}) {
		t.Fatalf("expected index-aligned totals [5 1], got %v", counts)
	}
}

func TestRequestDrawSubmitsAggregatedRequest(t *testing.T) {
	ledger := &fakeDrawLedger{}
	module := NewInMemoryModule([]entities.CampaignProjection{activeCampaign("camp-1", chainID(3))}, ledger, nil)
	grantTickets(t, module, "camp-1", "0xbb", 4)
	grantTickets(t, module, "camp-1", "0xaa", 2)

	result, err := module.Draw.RequestDraw(context.Background(), "camp-1")
	if err != nil {
		t.Fatalf("request draw returned error: %v", err)
	}
	if result.TxHash != "0xdraw" {
		t.Fatalf("unexpected tx hash %q", result.TxHash)
	}
	if !reflect.DeepEqual(ledger.participants, []string{"0xaa", "0xbb"}) ||
		!reflect.DeepEqual(ledger.counts, []uint64{2, 4}) {
		t.Fatalf("unexpected submitted aggregation: %v / %v", ledger.participants, ledger.counts)
	}

	campaign, err := module.Queries.GetCampaign(context.Background(), "camp-1")
	if err != nil {
		t.Fatalf("get campaign returned error: %v", err)
	}
	if campaign.Status != entities.CampaignStatusDrawPending {
		t.Fatalf("expected DRAW_PENDING after request, got %s", campaign.Status)
	}
	if campaign.DrawTxHash != "0xdraw" || campaign.DrawRequestedAt == nil {
		t.Fatalf("expected draw request recorded on campaign, got %+v", campaign)
	}
}

func TestRequestDrawRequiresParticipants(t *testing.T) {
	ledger := &fakeDrawLedger{}
	module := NewInMemoryModule([]entities.CampaignProjection{activeCampaign("camp-1", chainID(3))}, ledger, nil)

	_, err := module.Draw.RequestDraw(context.Background(), "camp-1")
	if !errors.Is(err, domainerrors.ErrNoParticipants) {
		t.Fatalf("expected ErrNoParticipants, got %v", err)
	}
	if ledger.submissions != 0 {
		t.Fatal("empty campaign must never reach the ledger")
	}
}

func TestRequestDrawRequiresChainIdentifier(t *testing.T) {
	ledger := &fakeDrawLedger{}
	module := NewInMemoryModule([]entities.CampaignProjection{activeCampaign("camp-1", nil)}, ledger, nil)
	grantTickets(t, module, "camp-1", "0xaa", 1)

	_, err := module.Draw.RequestDraw(context.Background(), "camp-1")
	if !errors.Is(err, domainerrors.ErrIdentifierMappingMissing) {
		t.Fatalf("expected ErrIdentifierMappingMissing, got %v", err)
	}
	if ledger.submissions != 0 {
		t.Fatal("unmapped campaign must never reach the ledger")
	}
}

func TestRequestDrawRejectsSecondRequest(t *testing.T) {
	ledger := &fakeDrawLedger{}
	module := NewInMemoryModule([]entities.CampaignProjection{activeCampaign("camp-1", chainID(3))}, ledger, nil)
	grantTickets(t, module, "camp-1", "0xaa", 1)

	if _, err := module.Draw.RequestDraw(context.Background(), "camp-1"); err != nil {
		t.Fatalf("first draw request returned error: %v", err)
	}
	_, err := module.Draw.RequestDraw(context.Background(), "camp-1")
	if !errors.Is(err, domainerrors.ErrDrawAlreadyRequested) {
		t.Fatalf("expected ErrDrawAlreadyRequested, got %v", err)
	}
	if ledger.submissions != 1 {
		t.Fatalf("expected exactly one ledger submission, got %d", ledger.submissions)
	}
}

// failingCampaigns wraps the memory store and fails the post-submission
// status write.
type failingCampaigns struct {
	*memory.Store
}

func (f failingCampaigns) MarkDrawRequested(context.Context, entities.CampaignProjection, []entities.CampaignStatus) error {
	return errors.New("connection reset")
}

func TestRequestDrawSurfacesUnknownOutcome(t *testing.T) {
	store := memory.NewStore([]entities.CampaignProjection{activeCampaign("camp-1", chainID(3))})
	ledger := &fakeDrawLedger{}
	module := NewModule(Dependencies{
		Grants:    store,
		Campaigns: failingCampaigns{store},
		Ledger:    ledger,
		Clock:     store,
		IDGen:     store,
	})
	_, err := module.Grant.GrantTickets(context.Background(), commands.GrantTicketsCommand{
		CampaignID: "camp-1", Wallet: "0xaa", Count: 1,
	})
	if err != nil {
		t.Fatalf("grant tickets returned error: %v", err)
	}

	_, err = module.Draw.RequestDraw(context.Background(), "camp-1")
	if !errors.Is(err, domainerrors.ErrDrawOutcomeUnknown) {
		t.Fatalf("expected ErrDrawOutcomeUnknown, got %v", err)
	}
	if !strings.Contains(err.Error(), "0xdraw") {
		t.Fatalf("expected the tx hash in the error for manual reconciliation, got %v", err)
	}
	if ledger.submissions != 1 {
		t.Fatalf("expected the draw submitted once, got %d", ledger.submissions)
	}
}

func TestGrantTicketsValidatesInput(t *testing.T) {
	module := NewInMemoryModule(nil, &fakeDrawLedger{}, nil)

	_, err := module.Grant.GrantTickets(context.Background(), commands.GrantTicketsCommand{
		CampaignID: "camp-1", Wallet: "0xaa", Count: 0,
	})
	if !errors.Is(err, domainerrors.ErrInvalidLotteryInput) {
		t.Fatalf("expected ErrInvalidLotteryInput for zero count, got %v", err)
	}
}
