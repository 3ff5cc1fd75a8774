package poll

import (
	"context"
	"errors"
	"time"
)

// ErrMaxAttempts reports that polling stopped before the probed job reached a
// terminal state. Callers map it to their own timeout sentinel so transient
// exhaustion stays distinguishable from a definitive failure.
var ErrMaxAttempts = errors.New("poll: max attempts reached without terminal state")

// Probe checks an asynchronous external job once. done=true stops the loop
// and returns err (nil for success). done=false with a nil err schedules the
// next attempt; a non-nil err aborts immediately.
type Probe func(ctx context.Context) (done bool, err error)

// UntilTerminal runs probe at a fixed interval until it reports a terminal
// state, the attempt budget is spent, or ctx is canceled. The first attempt
// runs immediately. maxAttempts <= 0 is normalized to 1.
func UntilTerminal(ctx context.Context, interval time.Duration, maxAttempts int, probe Probe) error {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(interval)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
		done, err := probe(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
	return ErrMaxAttempts
}
