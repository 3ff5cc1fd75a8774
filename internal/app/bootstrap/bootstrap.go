package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	lottery "bountyfi/contexts/settlement/lottery"
	lotteryethereum "bountyfi/contexts/settlement/lottery/adapters/ethereum"
	lotterypostgres "bountyfi/contexts/settlement/lottery/adapters/postgres"
	reconciler "bountyfi/contexts/settlement/reconciler"
	reconcilerethereum "bountyfi/contexts/settlement/reconciler/adapters/ethereum"
	reconcilerpostgres "bountyfi/contexts/settlement/reconciler/adapters/postgres"
	reconcilerworkers "bountyfi/contexts/settlement/reconciler/application/workers"
	submissionlifecycle "bountyfi/contexts/verification/submission-lifecycle"
	"bountyfi/contexts/verification/submission-lifecycle/adapters/oracle"
	lifecyclepostgres "bountyfi/contexts/verification/submission-lifecycle/adapters/postgres"
	lifecycleworkers "bountyfi/contexts/verification/submission-lifecycle/application/workers"
	votetally "bountyfi/contexts/verification/vote-tally"
	tallypostgres "bountyfi/contexts/verification/vote-tally/adapters/postgres"
	tallyworkers "bountyfi/contexts/verification/vote-tally/application/workers"
	"bountyfi/internal/platform/chain"
	"bountyfi/internal/platform/config"
	"bountyfi/internal/platform/db"
	"bountyfi/internal/platform/httpserver"
	"bountyfi/internal/platform/messaging"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres        *db.Postgres
	oracleScore     lifecycleworkers.OracleScoreJob
	outboxRelay     lifecycleworkers.OutboxRelay
	scoreSettlement reconcilerworkers.ScoreSettlementJob
	claimSettlement reconcilerworkers.ClaimSettlementJob
	statsReset      tallyworkers.StatsResetJob
	pollInterval    time.Duration
	statsResetEvery time.Duration
	logger          *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	chainClient, err := buildChainClient(cfg, logger)
	if err != nil {
		return nil, err
	}

	lifecycleModule, _ := buildLifecycleModule(pg, cfg, logger)
	tallyModule := buildTallyModule(pg, cfg, lifecycleModule, logger)
	reconcilerModule := buildReconcilerModule(pg, cfg, lifecycleModule, chainClient, logger)
	lotteryModule := buildLotteryModule(pg, chainClient, logger)

	server := httpserver.New(lifecycleModule, tallyModule, reconcilerModule, lotteryModule, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	chainClient, err := buildChainClient(cfg, logger)
	if err != nil {
		return nil, err
	}

	lifecycleModule, lifecycleRepo := buildLifecycleModule(pg, cfg, logger)
	reconcilerModule := buildReconcilerModule(pg, cfg, lifecycleModule, chainClient, logger)
	tallyModule := buildTallyModule(pg, cfg, lifecycleModule, logger)

	visionOracle, err := oracle.New(oracle.Config{
		APIKey:       cfg.OpenAIAPIKey,
		Model:        cfg.OpenAIModel,
		PollInterval: cfg.OraclePollInterval,
		MaxAttempts:  cfg.OracleMaxAttempts,
	}, logger)
	if err != nil {
		return nil, err
	}

	bus := messaging.NewBus(logger)

	scoreJob := reconcilerModule.ScoreSettlement
	scoreJob.BatchSize = cfg.SettlementBatchSize
	scoreJob.Disabled = !cfg.EnableScoreSettlement
	claimJob := reconcilerModule.ClaimSettlement
	claimJob.BatchSize = cfg.SettlementBatchSize
	claimJob.Disabled = !cfg.EnableClaimSettlement
	statsJob := tallyModule.StatsReset
	statsJob.Disabled = !cfg.EnableStatsReset

	return &WorkerApp{
		postgres: pg,
		oracleScore: lifecycleworkers.OracleScoreJob{
			Repository: lifecycleRepo,
			Oracle:     visionOracle,
			Score:      lifecycleModule.Score,
			BatchSize:  20,
			Disabled:   !cfg.EnableOracleScoring,
			Logger:     logger,
		},
		outboxRelay: lifecycleworkers.OutboxRelay{
			Outbox:    lifecycleRepo,
			Publisher: bus,
			Clock:     lifecyclepostgres.SystemClock{},
			BatchSize: 100,
			Logger:    logger,
		},
		scoreSettlement: scoreJob,
		claimSettlement: claimJob,
		statsReset:      statsJob,
		pollInterval:    2 * time.Second,
		statsResetEvery: 24 * time.Hour,
		logger:          logger,
	}, nil
}

func buildChainClient(cfg config.Config, logger *slog.Logger) (*chain.Client, error) {
	if strings.TrimSpace(cfg.ChainRPCURL) == "" {
		return nil, errors.New("CHAIN_RPC_URL is required")
	}
	return chain.New(chain.Config{
		RPCURL:              cfg.ChainRPCURL,
		ChainID:             cfg.ChainID,
		VerifierAddress:     cfg.VerifierContractAddress,
		LotteryAddress:      cfg.LotteryContractAddress,
		PrivateKeyHex:       cfg.ChainPrivateKey,
		ConfirmationTimeout: cfg.ConfirmationTimeout,
	}, logger)
}

func buildLifecycleModule(pg *db.Postgres, cfg config.Config, logger *slog.Logger) (submissionlifecycle.Module, *lifecyclepostgres.Repository) {
	repo := lifecyclepostgres.NewRepository(pg.DB, logger)
	module := submissionlifecycle.NewModule(submissionlifecycle.Dependencies{
		Repository:            repo,
		Idempotency:           repo,
		Outbox:                repo,
		Clock:                 lifecyclepostgres.SystemClock{},
		IDGen:                 lifecyclepostgres.UUIDGenerator{},
		IdempotencyTTL:        24 * time.Hour,
		AutoApproveThreshold:  cfg.AutoApproveThreshold,
		AutoRejectThreshold:   cfg.AutoRejectThreshold,
		SettlementMaxAttempts: cfg.SettlementMaxAttempts,
		Logger:                logger,
	})
	return module, repo
}

func buildTallyModule(pg *db.Postgres, cfg config.Config, lifecycleModule submissionlifecycle.Module, logger *slog.Logger) votetally.Module {
	repo := tallypostgres.NewRepository(pg.DB, logger)
	lifecycleRepo := lifecyclepostgres.NewRepository(pg.DB, logger)
	return votetally.NewModule(votetally.Dependencies{
		Votes:       repo,
		Stats:       repo,
		Submissions: lifecycleSubmissionReader{Repository: lifecycleRepo},
		Consensus:   lifecycleConsensusApplier{Consensus: lifecycleModule.Consensus},
		Clock:       tallypostgres.SystemClock{},
		IDGen:       tallypostgres.UUIDGenerator{},
		QuorumSize:  cfg.QuorumSize,
		Logger:      logger,
	})
}

func buildReconcilerModule(pg *db.Postgres, cfg config.Config, lifecycleModule submissionlifecycle.Module, chainClient *chain.Client, logger *slog.Logger) reconciler.Module {
	repo := reconcilerpostgres.NewRepository(pg.DB, logger)
	lifecycleRepo := lifecyclepostgres.NewRepository(pg.DB, logger)
	return reconciler.NewModule(reconciler.Dependencies{
		Draws: repo,
		Submissions: lifecycleSubmissionSettler{
			Repository: lifecycleRepo,
			Settlement: lifecycleModule.Settlement,
		},
		Ledger:    reconcilerethereum.Ledger{Client: chainClient},
		Clock:     reconcilerpostgres.SystemClock{},
		IDGen:     reconcilerpostgres.UUIDGenerator{},
		BatchSize: cfg.SettlementBatchSize,
		Logger:    logger,
	})
}

func buildLotteryModule(pg *db.Postgres, chainClient *chain.Client, logger *slog.Logger) lottery.Module {
	repo := lotterypostgres.NewRepository(pg.DB, logger)
	return lottery.NewModule(lottery.Dependencies{
		Grants:    repo,
		Campaigns: repo,
		Ledger:    lotteryethereum.Ledger{Client: chainClient},
		Clock:     lotterypostgres.SystemClock{},
		IDGen:     lotterypostgres.UUIDGenerator{},
		Logger:    logger,
	})
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()
	statsTicker := time.NewTicker(w.statsResetEvery)
	defer statsTicker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
	)

	for {
		if err := w.oracleScore.RunOnce(ctx); err != nil {
			return err
		}
		if err := w.scoreSettlement.RunOnce(ctx); err != nil {
			return err
		}
		if err := w.claimSettlement.RunOnce(ctx); err != nil {
			return err
		}
		if err := w.outboxRelay.RunOnce(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-statsTicker.C:
			if err := w.statsReset.RunOnce(ctx); err != nil {
				return err
			}
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
