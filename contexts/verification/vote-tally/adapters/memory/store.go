package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"bountyfi/contexts/verification/vote-tally/domain/entities"
	domainerrors "bountyfi/contexts/verification/vote-tally/domain/errors"
	"bountyfi/contexts/verification/vote-tally/ports"
)

// Store is the in-memory adapter backing the vote-tally ports. It is safe for
// concurrent use and intended for tests and local runs.
type Store struct {
	mu sync.RWMutex

	votesBySubmission map[string][]entities.Vote
	voteByIdentity    map[string]entities.Vote
	stats             map[string]entities.ValidatorStats
}

func NewStore() *Store {
	return &Store{
		votesBySubmission: map[string][]entities.Vote{},
		voteByIdentity:    map[string]entities.Vote{},
		stats:             map[string]entities.ValidatorStats{},
	}
}

func identityKey(submissionID, validatorID string) string {
	return submissionID + "|" + validatorID
}

func (s *Store) SaveVote(_ context.Context, vote entities.Vote) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := identityKey(vote.SubmissionID, vote.ValidatorID)
	if _, exists := s.voteByIdentity[key]; exists {
		return domainerrors.ErrDuplicateVote
	}
	s.voteByIdentity[key] = vote
	s.votesBySubmission[vote.SubmissionID] = append(s.votesBySubmission[vote.SubmissionID], vote)
	return nil
}

func (s *Store) GetVoteByIdentity(_ context.Context, submissionID string, validatorID string) (entities.Vote, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	vote, exists := s.voteByIdentity[identityKey(submissionID, validatorID)]
	return vote, exists, nil
}

func (s *Store) ListVotesBySubmission(_ context.Context, submissionID string) ([]entities.Vote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	votes := s.votesBySubmission[submissionID]
	out := make([]entities.Vote, len(votes))
	copy(out, votes)
	return out, nil
}

func (s *Store) IncrementValidations(_ context.Context, validatorID string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats, exists := s.stats[validatorID]
	if !exists {
		stats = entities.ValidatorStats{ValidatorID: validatorID}
	}
	stats.ValidationsToday++
	stats.UpdatedAt = now
	s.stats[validatorID] = stats
	return nil
}

func (s *Store) GetValidatorStats(_ context.Context, validatorID string) (entities.ValidatorStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats, exists := s.stats[validatorID]
	if !exists {
		return entities.ValidatorStats{}, domainerrors.ErrVoteNotFound
	}
	return stats, nil
}

func (s *Store) ResetAllValidations(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reset := 0
	for id, stats := range s.stats {
		if stats.ValidationsToday == 0 {
			continue
		}
		stats.ValidationsToday = 0
		stats.LastResetAt = now
		stats.UpdatedAt = now
		s.stats[id] = stats
		reset++
	}
	return reset, nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

var (
	_ ports.VoteRepository           = (*Store)(nil)
	_ ports.ValidatorStatsRepository = (*Store)(nil)
	_ ports.Clock                    = (*Store)(nil)
	_ ports.IDGenerator              = (*Store)(nil)
)
