package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName string
	HTTPPort    string
	PostgresDSN string

	// Verification policy.
	AutoApproveThreshold int
	AutoRejectThreshold  int
	QuorumSize           int

	// Settlement policy.
	SettlementBatchSize   int
	SettlementMaxAttempts int
	ConfirmationTimeout   time.Duration

	// AI oracle.
	OpenAIAPIKey       string
	OpenAIModel        string
	OraclePollInterval time.Duration
	OracleMaxAttempts  int

	// Chain connectivity.
	ChainRPCURL             string
	ChainID                 int64
	VerifierContractAddress string
	LotteryContractAddress  string
	ChainPrivateKey         string

	// Worker enable flags.
	EnableOracleScoring   bool
	EnableScoreSettlement bool
	EnableClaimSettlement bool
	EnableStatsReset      bool
	EnableOutboxRelay     bool
}

func Load() (Config, error) {
	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "bountyfi"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	return Config{
		ServiceName: service,
		HTTPPort:    port,
		PostgresDSN: os.Getenv("POSTGRES_DSN"),

		AutoApproveThreshold: envInt("AUTO_APPROVE_THRESHOLD", 80),
		AutoRejectThreshold:  envInt("AUTO_REJECT_THRESHOLD", 20),
		QuorumSize:           envInt("QUORUM_SIZE", 3),

		SettlementBatchSize:   envInt("SETTLEMENT_BATCH_SIZE", 5),
		SettlementMaxAttempts: envInt("SETTLEMENT_MAX_ATTEMPTS", 3),
		ConfirmationTimeout:   envMillis("CONFIRMATION_TIMEOUT_MS", 120_000),

		OpenAIAPIKey:       os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:        envString("OPENAI_MODEL", "gpt-4o-mini"),
		OraclePollInterval: envMillis("ORACLE_POLL_INTERVAL_MS", 2_000),
		OracleMaxAttempts:  envInt("ORACLE_MAX_ATTEMPTS", 10),

		ChainRPCURL:             os.Getenv("CHAIN_RPC_URL"),
		ChainID:                 int64(envInt("CHAIN_ID", 80002)),
		VerifierContractAddress: os.Getenv("VERIFIER_CONTRACT_ADDRESS"),
		LotteryContractAddress:  os.Getenv("LOTTERY_CONTRACT_ADDRESS"),
		ChainPrivateKey:         os.Getenv("CHAIN_PRIVATE_KEY"),

		EnableOracleScoring:   envBool("ENABLE_ORACLE_SCORING", true),
		EnableScoreSettlement: envBool("ENABLE_SCORE_SETTLEMENT", true),
		EnableClaimSettlement: envBool("ENABLE_CLAIM_SETTLEMENT", true),
		EnableStatsReset:      envBool("ENABLE_STATS_RESET", true),
		EnableOutboxRelay:     envBool("ENABLE_OUTBOX_RELAY", true),
	}, nil
}

func envString(name string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	return value
}

func envInt(name string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func envMillis(name string, fallback int) time.Duration {
	return time.Duration(envInt(name, fallback)) * time.Millisecond
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}
