package tee

import (
	"context"
	"fmt"
	"time"
)

// DefaultRetryDelay is the pause before re-issuing a duplication that
// reported not-ready.
const DefaultRetryDelay = time.Millisecond

// Backoff is the fixed-delay policy applied when a non-blocking duplication
// reports not-ready. It is a deliberate busy-wait: the condition is expected
// to clear as soon as the reader of a target pipe or the writer of the source
// makes progress.
type Backoff struct {
	// Delay is the sleep between attempts.
	Delay time.Duration

	// MaxAttempts caps consecutive not-ready results for one target.
	// Zero retries forever.
	MaxAttempts int
}

// Wait sleeps before retry number attempt (starting at 0). It returns
// ErrRetriesExhausted once the cap is reached and the context error if ctx
// ends first.
func (b Backoff) Wait(ctx context.Context, attempt int) error {
	if b.MaxAttempts > 0 && attempt >= b.MaxAttempts {
		return fmt.Errorf("%w after %d attempts", ErrRetriesExhausted, attempt)
	}

	if err := ctx.Err(); err != nil || b.Delay <= 0 {
		return err
	}

	timer := time.NewTimer(b.Delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
