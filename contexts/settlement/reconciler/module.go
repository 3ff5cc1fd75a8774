package reconciler

import (
	"log/slog"

	httpadapter "bountyfi/contexts/settlement/reconciler/adapters/http"
	"bountyfi/contexts/settlement/reconciler/adapters/memory"
	"bountyfi/contexts/settlement/reconciler/application/commands"
	"bountyfi/contexts/settlement/reconciler/application/queries"
	"bountyfi/contexts/settlement/reconciler/application/workers"
	"bountyfi/contexts/settlement/reconciler/ports"
)

type Module struct {
	Handler         httpadapter.Handler
	LogClaim        commands.LogClaimUseCase
	Redeem          commands.RedeemPrizeUseCase
	Queries         queries.DrawQueries
	ScoreSettlement workers.ScoreSettlementJob
	ClaimSettlement workers.ClaimSettlementJob
	Store           *memory.Store
}

type Dependencies struct {
	Draws       ports.DrawRepository
	Submissions ports.SubmissionSettler
	Ledger      ports.Ledger
	Clock       ports.Clock
	IDGen       ports.IDGenerator
	BatchSize   int
	Logger      *slog.Logger
}

func NewModule(deps Dependencies) Module {
	logClaim := commands.LogClaimUseCase{
		Draws:  deps.Draws,
		Clock:  deps.Clock,
		IDGen:  deps.IDGen,
		Logger: deps.Logger,
	}
	redeem := commands.RedeemPrizeUseCase{
		Draws:  deps.Draws,
		Clock:  deps.Clock,
		Logger: deps.Logger,
	}
	drawQueries := queries.DrawQueries{
		Draws: deps.Draws,
	}
	scoreSettlement := workers.ScoreSettlementJob{
		Submissions: deps.Submissions,
		Ledger:      deps.Ledger,
		BatchSize:   deps.BatchSize,
		Logger:      deps.Logger,
	}
	claimSettlement := workers.ClaimSettlementJob{
		Draws:     deps.Draws,
		Ledger:    deps.Ledger,
		Clock:     deps.Clock,
		BatchSize: deps.BatchSize,
		Logger:    deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			LogClaim: logClaim,
			Redeem:   redeem,
			Queries:  drawQueries,
			Logger:   deps.Logger,
		},
		LogClaim:        logClaim,
		Redeem:          redeem,
		Queries:         drawQueries,
		ScoreSettlement: scoreSettlement,
		ClaimSettlement: claimSettlement,
	}
}

// NewInMemoryModule wires the reconciler over the in-memory store. The
// submission settler and ledger still come from the caller so tests can pair
// this module with an in-memory lifecycle module and a fake ledger.
func NewInMemoryModule(submissions ports.SubmissionSettler, ledger ports.Ledger, logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Draws:       store,
		Submissions: submissions,
		Ledger:      ledger,
		Clock:       store,
		IDGen:       store,
		Logger:      logger,
	})
	module.Store = store
	return module
}
