package votetally

import (
	"log/slog"

	httpadapter "bountyfi/contexts/verification/vote-tally/adapters/http"
	"bountyfi/contexts/verification/vote-tally/adapters/memory"
	"bountyfi/contexts/verification/vote-tally/application/commands"
	"bountyfi/contexts/verification/vote-tally/application/queries"
	"bountyfi/contexts/verification/vote-tally/application/workers"
	"bountyfi/contexts/verification/vote-tally/ports"
)

type Module struct {
	Handler    httpadapter.Handler
	Cast       commands.CastVoteUseCase
	Queries    queries.VoteQueries
	StatsReset workers.StatsResetJob
	Store      *memory.Store
}

type Dependencies struct {
	Votes       ports.VoteRepository
	Stats       ports.ValidatorStatsRepository
	Submissions ports.SubmissionReader
	Consensus   ports.ConsensusApplier
	Clock       ports.Clock
	IDGen       ports.IDGenerator
	QuorumSize  int
	Logger      *slog.Logger
}

func NewModule(deps Dependencies) Module {
	cast := commands.CastVoteUseCase{
		Votes:       deps.Votes,
		Stats:       deps.Stats,
		Submissions: deps.Submissions,
		Consensus:   deps.Consensus,
		Clock:       deps.Clock,
		IDGen:       deps.IDGen,
		QuorumSize:  deps.QuorumSize,
		Logger:      deps.Logger,
	}
	voteQueries := queries.VoteQueries{
		Votes: deps.Votes,
		Stats: deps.Stats,
	}
	statsReset := workers.StatsResetJob{
		Stats:  deps.Stats,
		Clock:  deps.Clock,
		Logger: deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Cast:    cast,
			Queries: voteQueries,
			Logger:  deps.Logger,
		},
		Cast:       cast,
		Queries:    voteQueries,
		StatsReset: statsReset,
	}
}

// NewInMemoryModule wires the tally engine over the in-memory store. The
// submission projection and consensus applier still come from the caller so
// tests can pair this module with an in-memory lifecycle module.
func NewInMemoryModule(submissions ports.SubmissionReader, consensus ports.ConsensusApplier, quorumSize int, logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Votes:       store,
		Stats:       store,
		Submissions: submissions,
		Consensus:   consensus,
		Clock:       store,
		IDGen:       store,
		QuorumSize:  quorumSize,
		Logger:      logger,
	})
	module.Store = store
	return module
}
