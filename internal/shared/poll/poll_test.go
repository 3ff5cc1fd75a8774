package poll

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestUntilTerminalStopsOnDone(t *testing.T) {
	attempts := 0
	err := UntilTerminal(context.Background(), time.Millisecond, 5, func(context.Context) (bool, error) {
		attempts++
		return attempts == 3, nil
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestUntilTerminalExhaustsBudget(t *testing.T) {
	attempts := 0
	err := UntilTerminal(context.Background(), time.Millisecond, 4, func(context.Context) (bool, error) {
		attempts++
		return false, nil
	})
	if !errors.Is(err, ErrMaxAttempts) {
		t.Fatalf("expected ErrMaxAttempts, got %v", err)
	}
	if attempts != 4 {
		t.Fatalf("expected the full attempt budget spent, got %d", attempts)
	}
}

func TestUntilTerminalAbortsOnProbeError(t *testing.T) {
	probeErr := errors.New("rpc unavailable")
	attempts := 0
	err := UntilTerminal(context.Background(), time.Millisecond, 5, func(context.Context) (bool, error) {
		attempts++
		return false, probeErr
	})
	if !errors.Is(err, probeErr) {
		t.Fatalf("expected probe error surfaced, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("probe error must abort immediately, got %d attempts", attempts)
	}
}

func TestUntilTerminalHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	err := UntilTerminal(ctx, time.Minute, 3, func(context.Context) (bool, error) {
		cancel()
		return false, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
