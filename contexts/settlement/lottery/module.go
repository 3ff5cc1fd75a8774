package lottery

import (
	"log/slog"

	httpadapter "bountyfi/contexts/settlement/lottery/adapters/http"
	"bountyfi/contexts/settlement/lottery/adapters/memory"
	"bountyfi/contexts/settlement/lottery/application/commands"
	"bountyfi/contexts/settlement/lottery/application/queries"
	"bountyfi/contexts/settlement/lottery/domain/entities"
	"bountyfi/contexts/settlement/lottery/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Grant   commands.GrantTicketsUseCase
	Draw    commands.RequestDrawUseCase
	Queries queries.LotteryQueries
	Store   *memory.Store
}

type Dependencies struct {
	Grants    ports.TicketGrantRepository
	Campaigns ports.CampaignRepository
	Ledger    ports.DrawLedger
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Logger    *slog.Logger
}

func NewModule(deps Dependencies) Module {
	grant := commands.GrantTicketsUseCase{
		Grants: deps.Grants,
		Clock:  deps.Clock,
		IDGen:  deps.IDGen,
		Logger: deps.Logger,
	}
	draw := commands.RequestDrawUseCase{
		Grants:    deps.Grants,
		Campaigns: deps.Campaigns,
		Ledger:    deps.Ledger,
		Clock:     deps.Clock,
		Logger:    deps.Logger,
	}
	lotteryQueries := queries.LotteryQueries{
		Grants:    deps.Grants,
		Campaigns: deps.Campaigns,
	}
	return Module{
		Handler: httpadapter.Handler{
			Grant:   grant,
			Draw:    draw,
			Queries: lotteryQueries,
			Logger:  deps.Logger,
		},
		Grant:   grant,
		Draw:    draw,
		Queries: lotteryQueries,
	}
}

// NewInMemoryModule wires the aggregator over the in-memory store; the draw
// ledger still comes from the caller so tests can use a fake.
func NewInMemoryModule(seed []entities.CampaignProjection, ledger ports.DrawLedger, logger *slog.Logger) Module {
	store := memory.NewStore(seed)
	module := NewModule(Dependencies{
		Grants:    store,
		Campaigns: store,
		Ledger:    ledger,
		Clock:     store,
		IDGen:     store,
		Logger:    logger,
	})
	module.Store = store
	return module
}
