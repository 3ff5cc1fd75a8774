package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"bountyfi/contexts/settlement/lottery/domain/entities"
	domainerrors "bountyfi/contexts/settlement/lottery/domain/errors"
	"bountyfi/contexts/settlement/lottery/ports"
)

// Store is the in-memory adapter backing the lottery ports. Safe for
// concurrent use; intended for tests and local runs.
type Store struct {
	mu sync.RWMutex

	grants    map[string][]entities.TicketGrant
	campaigns map[string]entities.CampaignProjection
}

func NewStore(seed []entities.CampaignProjection) *Store {
	store := &Store{
		grants:    map[string][]entities.TicketGrant{},
		campaigns: map[string]entities.CampaignProjection{},
	}
	for _, campaign := range seed {
		store.campaigns[campaign.CampaignID] = campaign
	}
	return store
}

func (s *Store) AddGrant(_ context.Context, grant entities.TicketGrant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.grants[grant.CampaignID] = append(s.grants[grant.CampaignID], grant)
	return nil
}

func (s *Store) ListGrantsByCampaign(_ context.Context, campaignID string) ([]entities.TicketGrant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	grants := s.grants[campaignID]
	out := make([]entities.TicketGrant, len(grants))
	copy(out, grants)
	return out, nil
}

func (s *Store) GetCampaign(_ context.Context, campaignID string) (entities.CampaignProjection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	campaign, exists := s.campaigns[campaignID]
	if !exists {
		return entities.CampaignProjection{}, domainerrors.ErrCampaignNotFound
	}
	return campaign, nil
}

func (s *Store) SaveCampaign(_ context.Context, campaign entities.CampaignProjection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.campaigns[campaign.CampaignID] = campaign
	return nil
}

func (s *Store) MarkDrawRequested(_ context.Context, campaign entities.CampaignProjection, expected []entities.CampaignStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.campaigns[campaign.CampaignID]
	if !exists {
		return domainerrors.ErrCampaignNotFound
	}
	matched := false
	for _, status := range expected {
		if current.Status == status {
			matched = true
			break
		}
	}
	if !matched {
		return domainerrors.ErrDrawAlreadyRequested
	}
	s.campaigns[campaign.CampaignID] = campaign
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

var (
	_ ports.TicketGrantRepository = (*Store)(nil)
	_ ports.CampaignRepository    = (*Store)(nil)
	_ ports.Clock                 = (*Store)(nil)
	_ ports.IDGenerator           = (*Store)(nil)
)
