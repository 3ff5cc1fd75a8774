package ports

import (
	"context"
	"time"

	"bountyfi/contexts/settlement/reconciler/domain/entities"
)

type DrawRepository interface {
	// CreateDraw records a new PENDING draw. Implementations must enforce
	// tx-hash uniqueness and surface ErrDuplicateDraw on violation.
	CreateDraw(ctx context.Context, draw entities.PrizeDraw) error
	GetDraw(ctx context.Context, drawID string) (entities.PrizeDraw, error)
	ListPendingDraws(ctx context.Context, limit int) ([]entities.PrizeDraw, error)
	// UpdateDrawIf persists the draw only when its stored status is one of
	// expected; a concurrent writer loses with ErrInvalidDrawTransition.
	UpdateDrawIf(ctx context.Context, draw entities.PrizeDraw, expected []entities.DrawStatus) error
}

// SettlementCandidate is the cross-context projection of an approved
// submission awaiting on-chain settlement.
type SettlementCandidate struct {
	SubmissionID      string
	ChainSubmissionID *uint64
	Confidence        int
	Attempts          int
}

// SubmissionSettler is the reconciler's view into the lifecycle state
// machine: select candidates, then record the settlement outcome.
type SubmissionSettler interface {
	ListAwaitingSettlement(ctx context.Context, limit int) ([]SettlementCandidate, error)
	MarkSettled(ctx context.Context, submissionID string, txHash string) error
	MarkSettlementFailed(ctx context.Context, submissionID string, reason string) error
}

// LedgerEvent is a decoded contract log surfaced through the ledger port.
type LedgerEvent struct {
	Name string
	Args map[string]any
}

// LedgerReceipt is the confirmation record for a mined transaction.
type LedgerReceipt struct {
	TxHash  string
	Success bool
	Events  []LedgerEvent
}

// Ledger abstracts the blockchain client. WaitForReceipt blocks up to the
// configured confirmation budget; GetReceipt returns (nil, nil) for a
// transaction that is not yet mined.
type Ledger interface {
	SubmitSettlement(ctx context.Context, chainSubmissionID uint64, confidence int) (string, error)
	WaitForReceipt(ctx context.Context, txHash string) (*LedgerReceipt, error)
	GetReceipt(ctx context.Context, txHash string) (*LedgerReceipt, error)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
