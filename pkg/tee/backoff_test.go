package tee

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackoffWait(t *testing.T) {
	t.Run("Unlimited", func(t *testing.T) {
		b := Backoff{Delay: time.Microsecond}
		for attempt := range 100 {
			require.NoError(t, b.Wait(context.Background(), attempt))
		}
	})

	t.Run("Exhausted", func(t *testing.T) {
		b := Backoff{Delay: time.Microsecond, MaxAttempts: 3}
		require.NoError(t, b.Wait(context.Background(), 2))

		err := b.Wait(context.Background(), 3)
		assert.ErrorIs(t, err, ErrRetriesExhausted)
	})

	t.Run("Canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		b := Backoff{Delay: time.Hour}
		assert.ErrorIs(t, b.Wait(ctx, 0), context.Canceled)
	})

	t.Run("ZeroDelay", func(t *testing.T) {
		b := Backoff{}
		assert.NoError(t, b.Wait(context.Background(), 0))
	})

	t.Run("Sleeps", func(t *testing.T) {
		b := Backoff{Delay: 5 * time.Millisecond}
		start := time.Now()
		require.NoError(t, b.Wait(context.Background(), 0))
		assert.GreaterOrEqual(t, time.Since(start), 5*time.Millisecond)
	})
}
