package queries

import (
	"context"
	"strings"

	"bountyfi/contexts/settlement/lottery/domain/entities"
	domainerrors "bountyfi/contexts/settlement/lottery/domain/errors"
	"bountyfi/contexts/settlement/lottery/ports"
)

type LotteryQueries struct {
	Grants    ports.TicketGrantRepository
	Campaigns ports.CampaignRepository
}

func (q LotteryQueries) GetCampaign(ctx context.Context, campaignID string) (entities.CampaignProjection, error) {
	campaignID = strings.TrimSpace(campaignID)
	if campaignID == "" {
		return entities.CampaignProjection{}, domainerrors.ErrInvalidLotteryInput
	}
	return q.Campaigns.GetCampaign(ctx, campaignID)
}

// ListTicketTotals returns the aggregated, wallet-sorted ticket standing for
// a campaign, the same view a draw request would submit.
func (q LotteryQueries) ListTicketTotals(ctx context.Context, campaignID string) ([]string, []uint64, error) {
	campaignID = strings.TrimSpace(campaignID)
	if campaignID == "" {
		return nil, nil, domainerrors.ErrInvalidLotteryInput
	}
	grants, err := q.Grants.ListGrantsByCampaign(ctx, campaignID)
	if err != nil {
		return nil, nil, err
	}
	participants, counts := entities.AggregateTickets(grants)
	return participants, counts, nil
}
