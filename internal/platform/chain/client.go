package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"sync"
	"time"

	"bountyfi/internal/shared/poll"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Consumed ABI surface. Only the functions and events the coordinator touches
// are declared; the deployed contracts carry more.
const verifierABIJSON = `[
	{"type":"function","name":"settleSubmission","stateMutability":"nonpayable","inputs":[{"name":"submissionId","type":"uint256"},{"name":"confidence","type":"uint8"}],"outputs":[]}
]`

const lotteryABIJSON = `[
	{"type":"function","name":"requestDraw","stateMutability":"nonpayable","inputs":[{"name":"campaignId","type":"uint256"},{"name":"participants","type":"address[]"},{"name":"ticketCounts","type":"uint256[]"}],"outputs":[]},
	{"type":"event","name":"PrizeWon","inputs":[{"name":"drawId","type":"uint256","indexed":true},{"name":"winner","type":"address","indexed":false},{"name":"amount","type":"uint256","indexed":false}],"anonymous":false},
	{"type":"event","name":"PrizeLost","inputs":[{"name":"drawId","type":"uint256","indexed":true}],"anonymous":false}
]`

// ErrConfirmationTimeout reports that a submitted transaction was not mined
// within the confirmation budget. The transaction may still land later, so
// callers must not treat this as a definitive revert.
var ErrConfirmationTimeout = errors.New("chain: transaction confirmation timed out")

// Receipt is the ledger confirmation record exposed to settlement code.
type Receipt struct {
	TxHash      string
	Success     bool
	BlockNumber uint64
	GasUsed     uint64
	Events      []Event
}

// Event is a decoded contract log. Unrecognized logs never reach callers.
type Event struct {
	Name string
	Args map[string]any
}

type Config struct {
	RPCURL              string
	ChainID             int64
	VerifierAddress     string
	LotteryAddress      string
	PrivateKeyHex       string
	ConfirmationTimeout time.Duration
	ReceiptPollInterval time.Duration
}

// Client signs and submits coordinator transactions and reads receipts back.
// The signing key is a single shared credential, so nonce assignment is
// serialized behind nonceMu (single-writer discipline across batches).
type Client struct {
	eth          *ethclient.Client
	verifierAddr common.Address
	lotteryAddr  common.Address
	verifierABI  abi.ABI
	lotteryABI   abi.ABI
	privateKey   *ecdsa.PrivateKey
	signerAddr   common.Address
	chainID      *big.Int

	confirmationTimeout time.Duration
	pollInterval        time.Duration

	nonceMu sync.Mutex
	logger  *slog.Logger
}

func New(cfg Config, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	eth, err := ethclient.Dial(cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dial chain rpc: %w", err)
	}
	if !common.IsHexAddress(cfg.VerifierAddress) {
		return nil, fmt.Errorf("invalid verifier contract address: %s", cfg.VerifierAddress)
	}
	if !common.IsHexAddress(cfg.LotteryAddress) {
		return nil, fmt.Errorf("invalid lottery contract address: %s", cfg.LotteryAddress)
	}
	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse signing key: %w", err)
	}
	verifierABI, err := abi.JSON(strings.NewReader(verifierABIJSON))
	if err != nil {
		return nil, fmt.Errorf("parse verifier abi: %w", err)
	}
	lotteryABI, err := abi.JSON(strings.NewReader(lotteryABIJSON))
	if err != nil {
		return nil, fmt.Errorf("parse lottery abi: %w", err)
	}

	pollInterval := cfg.ReceiptPollInterval
	if pollInterval <= 0 {
		pollInterval = 3 * time.Second
	}
	confirmationTimeout := cfg.ConfirmationTimeout
	if confirmationTimeout <= 0 {
		confirmationTimeout = 2 * time.Minute
	}

	return &Client{
		eth:                 eth,
		verifierAddr:        common.HexToAddress(cfg.VerifierAddress),
		lotteryAddr:         common.HexToAddress(cfg.LotteryAddress),
		verifierABI:         verifierABI,
		lotteryABI:          lotteryABI,
		privateKey:          privateKey,
		signerAddr:          crypto.PubkeyToAddress(privateKey.PublicKey),
		chainID:             big.NewInt(cfg.ChainID),
		confirmationTimeout: confirmationTimeout,
		pollInterval:        pollInterval,
		logger:              logger,
	}, nil
}

// SubmitSettlement records a submission verdict on the verifier contract and
// returns the transaction hash.
func (c *Client) SubmitSettlement(ctx context.Context, chainSubmissionID uint64, confidence int) (string, error) {
	data, err := c.verifierABI.Pack("settleSubmission",
		new(big.Int).SetUint64(chainSubmissionID),
		uint8(confidence),
	)
	if err != nil {
		return "", fmt.Errorf("pack settleSubmission call: %w", err)
	}
	return c.submitTx(ctx, c.verifierAddr, data)
}

// SubmitDrawRequest submits one draw transaction for a campaign. participants
// and ticketCounts must be index-aligned; the contract treats index i of both
// slices as one entry.
func (c *Client) SubmitDrawRequest(ctx context.Context, chainCampaignID uint64, participants []string, ticketCounts []uint64) (string, error) {
	if len(participants) != len(ticketCounts) {
		return "", fmt.Errorf("participants/ticketCounts length mismatch: %d vs %d", len(participants), len(ticketCounts))
	}
	addrs := make([]common.Address, len(participants))
	for i, wallet := range participants {
		if !common.IsHexAddress(wallet) {
			return "", fmt.Errorf("invalid participant wallet at index %d: %s", i, wallet)
		}
		addrs[i] = common.HexToAddress(wallet)
	}
	counts := make([]*big.Int, len(ticketCounts))
	for i, count := range ticketCounts {
		counts[i] = new(big.Int).SetUint64(count)
	}
	data, err := c.lotteryABI.Pack("requestDraw",
		new(big.Int).SetUint64(chainCampaignID),
		addrs,
		counts,
	)
	if err != nil {
		return "", fmt.Errorf("pack requestDraw call: %w", err)
	}
	return c.submitTx(ctx, c.lotteryAddr, data)
}

func (c *Client) submitTx(ctx context.Context, to common.Address, data []byte) (string, error) {
	c.nonceMu.Lock()
	defer c.nonceMu.Unlock()

	gasLimit, err := c.eth.EstimateGas(ctx, ethereum.CallMsg{
		From: c.signerAddr,
		To:   &to,
		Data: data,
	})
	if err != nil {
		return "", fmt.Errorf("estimate gas: %w", err)
	}
	// Headroom for state drift between estimate and inclusion.
	gasLimit = gasLimit + gasLimit/5

	nonce, err := c.eth.PendingNonceAt(ctx, c.signerAddr)
	if err != nil {
		return "", fmt.Errorf("fetch pending nonce: %w", err)
	}
	gasPrice, err := c.eth.SuggestGasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("fetch gas price: %w", err)
	}

	tx := types.NewTransaction(nonce, to, big.NewInt(0), gasLimit, gasPrice, data)
	signedTx, err := types.SignTx(tx, types.NewEIP155Signer(c.chainID), c.privateKey)
	if err != nil {
		return "", fmt.Errorf("sign transaction: %w", err)
	}
	if err := c.eth.SendTransaction(ctx, signedTx); err != nil {
		return "", fmt.Errorf("send transaction: %w", err)
	}

	hash := signedTx.Hash().Hex()
	c.logger.Info("transaction submitted",
		"event", "chain_tx_submitted",
		"module", "internal/platform/chain",
		"layer", "platform",
		"tx_hash", hash,
		"to", to.Hex(),
		"nonce", nonce,
		"gas_limit", gasLimit,
	)
	return hash, nil
}

// WaitForReceipt polls until the transaction is mined or the confirmation
// budget is exhausted. Exhaustion returns ErrConfirmationTimeout; the
// underlying transaction may still be in flight.
func (c *Client) WaitForReceipt(ctx context.Context, txHash string) (*Receipt, error) {
	maxAttempts := int(c.confirmationTimeout / c.pollInterval)
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var receipt *Receipt
	err := poll.UntilTerminal(ctx, c.pollInterval, maxAttempts, func(ctx context.Context) (bool, error) {
		found, err := c.GetReceipt(ctx, txHash)
		if err != nil {
			return false, err
		}
		if found == nil {
			return false, nil
		}
		receipt = found
		return true, nil
	})
	if err != nil {
		if errors.Is(err, poll.ErrMaxAttempts) {
			return nil, ErrConfirmationTimeout
		}
		return nil, err
	}
	return receipt, nil
}

// GetReceipt returns the receipt for a mined transaction, or (nil, nil) when
// the transaction is not yet mined.
func (c *Client) GetReceipt(ctx context.Context, txHash string) (*Receipt, error) {
	raw, err := c.eth.TransactionReceipt(ctx, common.HexToHash(txHash))
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch receipt %s: %w", txHash, err)
	}
	return &Receipt{
		TxHash:      raw.TxHash.Hex(),
		Success:     raw.Status == types.ReceiptStatusSuccessful,
		BlockNumber: raw.BlockNumber.Uint64(),
		GasUsed:     raw.GasUsed,
		Events:      c.decodeLotteryLogs(raw.Logs),
	}, nil
}

// decodeLotteryLogs decodes logs against the known lottery events. Logs that
// do not match a known event signature, or fail to decode, are skipped so
// future contract events never break reconciliation.
func (c *Client) decodeLotteryLogs(logs []*types.Log) []Event {
	var events []Event
	for _, entry := range logs {
		if len(entry.Topics) == 0 {
			continue
		}
		eventDef, err := c.lotteryABI.EventByID(entry.Topics[0])
		if err != nil {
			c.logger.Debug("skipping unrecognized log",
				"event", "chain_log_unrecognized",
				"module", "internal/platform/chain",
				"layer", "platform",
				"topic", entry.Topics[0].Hex(),
			)
			continue
		}

		args := map[string]any{}
		if err := c.lotteryABI.UnpackIntoMap(args, eventDef.Name, entry.Data); err != nil {
			c.logger.Warn("log data decode failed; skipping",
				"event", "chain_log_decode_failed",
				"module", "internal/platform/chain",
				"layer", "platform",
				"event_name", eventDef.Name,
				"error", err.Error(),
			)
			continue
		}
		var indexed abi.Arguments
		for _, input := range eventDef.Inputs {
			if input.Indexed {
				indexed = append(indexed, input)
			}
		}
		if len(indexed) > 0 {
			if err := abi.ParseTopicsIntoMap(args, indexed, entry.Topics[1:]); err != nil {
				c.logger.Warn("log topics decode failed; skipping",
					"event", "chain_log_topics_decode_failed",
					"module", "internal/platform/chain",
					"layer", "platform",
					"event_name", eventDef.Name,
					"error", err.Error(),
				)
				continue
			}
		}
		events = append(events, Event{Name: eventDef.Name, Args: args})
	}
	return events
}

// WeiToToken converts a wei amount into a decimal token amount.
func WeiToToken(wei *big.Int) float64 {
	if wei == nil {
		return 0
	}
	value, _ := new(big.Float).Quo(
		new(big.Float).SetInt(wei),
		big.NewFloat(1e18),
	).Float64()
	return value
}
