package ethereumadapter

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"bountyfi/contexts/settlement/reconciler/ports"
	"bountyfi/internal/platform/chain"
)

// Ledger adapts the platform chain client to the reconciler's ledger port,
// normalizing decoded log values: addresses come out as hex strings so domain
// code never touches go-ethereum types.
type Ledger struct {
	Client *chain.Client
}

func (l Ledger) SubmitSettlement(ctx context.Context, chainSubmissionID uint64, confidence int) (string, error) {
	return l.Client.SubmitSettlement(ctx, chainSubmissionID, confidence)
}

func (l Ledger) WaitForReceipt(ctx context.Context, txHash string) (*ports.LedgerReceipt, error) {
	receipt, err := l.Client.WaitForReceipt(ctx, txHash)
	if err != nil {
		return nil, err
	}
	return toLedgerReceipt(receipt), nil
}

func (l Ledger) GetReceipt(ctx context.Context, txHash string) (*ports.LedgerReceipt, error) {
	receipt, err := l.Client.GetReceipt(ctx, txHash)
	if err != nil {
		return nil, err
	}
	return toLedgerReceipt(receipt), nil
}

func toLedgerReceipt(receipt *chain.Receipt) *ports.LedgerReceipt {
	if receipt == nil {
		return nil
	}
	events := make([]ports.LedgerEvent, 0, len(receipt.Events))
	for _, event := range receipt.Events {
		args := make(map[string]any, len(event.Args))
		for key, value := range event.Args {
			if addr, ok := value.(common.Address); ok {
				args[key] = addr.Hex()
				continue
			}
			args[key] = value
		}
		events = append(events, ports.LedgerEvent{Name: event.Name, Args: args})
	}
	return &ports.LedgerReceipt{
		TxHash:  receipt.TxHash,
		Success: receipt.Success,
		Events:  events,
	}
}

var _ ports.Ledger = Ledger{}
