package submissionlifecycle

import (
	"log/slog"
	"time"

	httpadapter "bountyfi/contexts/verification/submission-lifecycle/adapters/http"
	"bountyfi/contexts/verification/submission-lifecycle/adapters/memory"
	"bountyfi/contexts/verification/submission-lifecycle/application/commands"
	"bountyfi/contexts/verification/submission-lifecycle/application/queries"
	"bountyfi/contexts/verification/submission-lifecycle/domain/entities"
	"bountyfi/contexts/verification/submission-lifecycle/ports"
)

type Module struct {
	Handler    httpadapter.Handler
	Create     commands.CreateSubmissionUseCase
	Score      commands.ScoreUseCase
	Consensus  commands.ConsensusUseCase
	Settlement commands.SettlementUseCase
	Queries    queries.SubmissionQueries
	Store      *memory.Store
}

type Dependencies struct {
	Repository            ports.SubmissionRepository
	Idempotency           ports.IdempotencyStore
	Outbox                ports.OutboxWriter
	Clock                 ports.Clock
	IDGen                 ports.IDGenerator
	IdempotencyTTL        time.Duration
	AutoApproveThreshold  int
	AutoRejectThreshold   int
	SettlementMaxAttempts int
	Logger                *slog.Logger
}

func NewModule(deps Dependencies) Module {
	create := commands.CreateSubmissionUseCase{
		Repository:     deps.Repository,
		Idempotency:    deps.Idempotency,
		Outbox:         deps.Outbox,
		Clock:          deps.Clock,
		IDGen:          deps.IDGen,
		IdempotencyTTL: deps.IdempotencyTTL,
		Logger:         deps.Logger,
	}
	score := commands.ScoreUseCase{
		Repository:           deps.Repository,
		Outbox:               deps.Outbox,
		Clock:                deps.Clock,
		IDGen:                deps.IDGen,
		AutoApproveThreshold: deps.AutoApproveThreshold,
		AutoRejectThreshold:  deps.AutoRejectThreshold,
		Logger:               deps.Logger,
	}
	consensus := commands.ConsensusUseCase{
		Repository: deps.Repository,
		Outbox:     deps.Outbox,
		Clock:      deps.Clock,
		IDGen:      deps.IDGen,
		Logger:     deps.Logger,
	}
	settlement := commands.SettlementUseCase{
		Repository:  deps.Repository,
		Outbox:      deps.Outbox,
		Clock:       deps.Clock,
		IDGen:       deps.IDGen,
		MaxAttempts: deps.SettlementMaxAttempts,
		Logger:      deps.Logger,
	}
	submissionQueries := queries.SubmissionQueries{
		Repository: deps.Repository,
	}
	return Module{
		Handler: httpadapter.Handler{
			Create:     create,
			Score:      score,
			Settlement: settlement,
			Queries:    submissionQueries,
			Logger:     deps.Logger,
		},
		Create:     create,
		Score:      score,
		Consensus:  consensus,
		Settlement: settlement,
		Queries:    submissionQueries,
	}
}

func NewInMemoryModule(seed []entities.Submission, logger *slog.Logger) Module {
	store := memory.NewStore(seed)
	module := NewModule(Dependencies{
		Repository:     store,
		Idempotency:    store,
		Outbox:         store,
		Clock:          store,
		IDGen:          store,
		IdempotencyTTL: 24 * time.Hour,
		Logger:         logger,
	})
	module.Store = store
	return module
}
