package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"bountyfi/contexts/settlement/reconciler/domain/entities"
	domainerrors "bountyfi/contexts/settlement/reconciler/domain/errors"
	"bountyfi/contexts/settlement/reconciler/ports"
)

// Store is the in-memory adapter backing the reconciler ports. Safe for
// concurrent use; intended for tests and local runs.
type Store struct {
	mu sync.RWMutex

	draws      map[string]entities.PrizeDraw
	drawByHash map[string]string
}

func NewStore() *Store {
	return &Store{
		draws:      map[string]entities.PrizeDraw{},
		drawByHash: map[string]string{},
	}
}

func (s *Store) CreateDraw(_ context.Context, draw entities.PrizeDraw) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.drawByHash[draw.TxHash]; exists {
		return domainerrors.ErrDuplicateDraw
	}
	s.draws[draw.DrawID] = draw
	s.drawByHash[draw.TxHash] = draw.DrawID
	return nil
}

func (s *Store) GetDraw(_ context.Context, drawID string) (entities.PrizeDraw, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	draw, exists := s.draws[drawID]
	if !exists {
		return entities.PrizeDraw{}, domainerrors.ErrDrawNotFound
	}
	return draw, nil
}

func (s *Store) ListPendingDraws(_ context.Context, limit int) ([]entities.PrizeDraw, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var pending []entities.PrizeDraw
	for _, draw := range s.draws {
		if draw.Status == entities.DrawStatusPending {
			pending = append(pending, draw)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})
	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

func (s *Store) UpdateDrawIf(_ context.Context, draw entities.PrizeDraw, expected []entities.DrawStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.draws[draw.DrawID]
	if !exists {
		return domainerrors.ErrDrawNotFound
	}
	matched := false
	for _, status := range expected {
		if current.Status == status {
			matched = true
			break
		}
	}
	if !matched {
		return domainerrors.ErrInvalidDrawTransition
	}
	// Redemption is single-shot: once stamped, the stored timestamp wins.
	if draw.RedeemedAt != nil && current.RedeemedAt != nil {
		return domainerrors.ErrInvalidDrawTransition
	}
	s.draws[draw.DrawID] = draw
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

var (
	_ ports.DrawRepository = (*Store)(nil)
	_ ports.Clock          = (*Store)(nil)
	_ ports.IDGenerator    = (*Store)(nil)
)
