package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"bountyfi/contexts/verification/submission-lifecycle/domain/entities"
	domainerrors "bountyfi/contexts/verification/submission-lifecycle/domain/errors"
	"bountyfi/contexts/verification/submission-lifecycle/ports"

	"github.com/google/uuid"
)

type outboxRecord struct {
	message   ports.OutboxMessage
	published bool
}

// Store is the in-memory adapter backing tests and local wiring. It
// implements every lifecycle port behind one mutex, which also gives the
// conditional update the same atomicity the SQL adapter gets from the
// database.
type Store struct {
	mu sync.RWMutex

	submissions map[string]entities.Submission
	idempotency map[string]ports.IdempotencyRecord
	outbox      map[string]outboxRecord
	anomalies   []entities.CalibrationAnomaly
}

func NewStore(seed []entities.Submission) *Store {
	submissions := make(map[string]entities.Submission, len(seed))
	for _, submission := range seed {
		submissions[submission.SubmissionID] = submission
	}
	return &Store{
		submissions: submissions,
		idempotency: make(map[string]ports.IdempotencyRecord),
		outbox:      make(map[string]outboxRecord),
	}
}

func (s *Store) CreateSubmission(_ context.Context, submission entities.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.submissions[submission.SubmissionID]; exists {
		return domainerrors.ErrInvalidSubmissionInput
	}
	s.submissions[submission.SubmissionID] = submission
	return nil
}

func (s *Store) GetSubmission(_ context.Context, submissionID string) (entities.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	submission, ok := s.submissions[strings.TrimSpace(submissionID)]
	if !ok {
		return entities.Submission{}, domainerrors.ErrSubmissionNotFound
	}
	return submission, nil
}

func (s *Store) UpdateSubmissionIf(_ context.Context, submission entities.Submission, expected []entities.SubmissionStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.submissions[submission.SubmissionID]
	if !ok {
		return domainerrors.ErrSubmissionNotFound
	}
	matched := false
	for _, status := range expected {
		if current.Status == status {
			matched = true
			break
		}
	}
	if !matched {
		return domainerrors.ErrInvalidStateTransition
	}
	s.submissions[submission.SubmissionID] = submission
	return nil
}

func (s *Store) ListPendingForScoring(_ context.Context, limit int) ([]entities.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var pending []entities.Submission
	for _, submission := range s.submissions {
		if submission.Status == entities.SubmissionStatusPending && len(submission.EvidenceURLs) > 0 {
			pending = append(pending, submission)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})
	if len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

// ListAwaitingSettlement mirrors the reconciler's selection predicate so the
// in-memory wiring can drive settlement passes in tests.
func (s *Store) ListAwaitingSettlement(_ context.Context, limit int) ([]entities.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var eligible []entities.Submission
	for _, submission := range s.submissions {
		if submission.AwaitingSettlement() {
			eligible = append(eligible, submission)
		}
	}
	sort.Slice(eligible, func(i, j int) bool {
		return eligible[i].CreatedAt.Before(eligible[j].CreatedAt)
	})
	if len(eligible) > limit {
		eligible = eligible[:limit]
	}
	return eligible, nil
}

func (s *Store) AddAnomaly(_ context.Context, anomaly entities.CalibrationAnomaly) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.anomalies = append(s.anomalies, anomaly)
	return nil
}

func (s *Store) ListAnomalies(_ context.Context, limit int) ([]entities.CalibrationAnomaly, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	anomalies := append([]entities.CalibrationAnomaly(nil), s.anomalies...)
	if len(anomalies) > limit {
		anomalies = anomalies[:limit]
	}
	return anomalies, nil
}

func (s *Store) Get(_ context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.idempotency[strings.TrimSpace(key)]
	if !ok || record.ExpiresAt.Before(now) {
		return ports.IdempotencyRecord{}, false, nil
	}
	return record, true, nil
}

func (s *Store) Put(_ context.Context, record ports.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.idempotency[strings.TrimSpace(record.Key)] = record
	return nil
}

func (s *Store) AppendOutbox(_ context.Context, message ports.OutboxMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outbox[message.OutboxID] = outboxRecord{message: message}
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var pending []ports.OutboxMessage
	for _, record := range s.outbox {
		if !record.published {
			pending = append(pending, record.message)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})
	if len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.outbox[outboxID]
	if !ok {
		return nil
	}
	record.published = true
	s.outbox[outboxID] = record
	return nil
}

// PendingOutboxCount supports test assertions on emitted events.
func (s *Store) PendingOutboxCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, record := range s.outbox {
		if !record.published {
			count++
		}
	}
	return count
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
