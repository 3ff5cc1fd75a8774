package ports

import (
	"context"
	"time"

	"bountyfi/contexts/settlement/lottery/domain/entities"
)

type TicketGrantRepository interface {
	AddGrant(ctx context.Context, grant entities.TicketGrant) error
	// ListGrantsByCampaign returns grants in creation order.
	ListGrantsByCampaign(ctx context.Context, campaignID string) ([]entities.TicketGrant, error)
}

type CampaignRepository interface {
	GetCampaign(ctx context.Context, campaignID string) (entities.CampaignProjection, error)
	SaveCampaign(ctx context.Context, campaign entities.CampaignProjection) error
	// MarkDrawRequested transitions the campaign to DRAW_PENDING only while
	// it is still in one of the expected statuses; a concurrent draw request
	// loses with ErrDrawAlreadyRequested.
	MarkDrawRequested(ctx context.Context, campaign entities.CampaignProjection, expected []entities.CampaignStatus) error
}

// DrawLedger submits the aggregated draw request to the lottery contract.
type DrawLedger interface {
	SubmitDrawRequest(ctx context.Context, chainCampaignID uint64, participants []string, ticketCounts []uint64) (string, error)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
