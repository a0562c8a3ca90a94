package tee

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func newTestMultiplexer(sys *fakeSys, targets []int, maxAttempts int, m Metrics) *Multiplexer {
	dest := make([]int, len(targets))
	for i := range dest {
		dest[i] = i + 1
	}
	return newMultiplexer(sys, targets, dest, Backoff{Delay: time.Microsecond, MaxAttempts: maxAttempts}, m, false)
}

func TestMultiplexerNegotiatesMinimum(t *testing.T) {
	sys := newFakeSys()
	sys.tees[20] = []result{{n: 100}}
	sys.tees[21] = []result{{n: 60}, {n: 40}}
	sys.tees[22] = []result{{n: 80}}

	mux := newTestMultiplexer(sys, []int{20, 21, 22}, 0, nil)

	chunk, eof, err := mux.Duplicate(context.Background(), 3, 100)
	require.NoError(t, err)
	assert.False(t, eof)
	assert.Equal(t, int64(60), chunk)
	assert.Equal(t, []int64{40, 0, 20}, mux.Surplus())

	// Targets holding surplus are not duplicated into again.
	chunk, eof, err = mux.Duplicate(context.Background(), 3, 40)
	require.NoError(t, err)
	assert.False(t, eof)
	assert.Equal(t, int64(20), chunk)
	assert.Equal(t, []int64{20, 20, 0}, mux.Surplus())

	assert.Equal(t, []int{20, 21, 22, 21}, sys.teeLog)
}

func TestMultiplexerEndOfStream(t *testing.T) {
	sys := newFakeSys()
	sys.tees[20] = []result{{n: 0}}

	mux := newTestMultiplexer(sys, []int{20, 21}, 0, nil)

	_, eof, err := mux.Duplicate(context.Background(), 3, 10)
	require.NoError(t, err)
	assert.True(t, eof)
	assert.Equal(t, []int{20}, sys.teeLog)
}

func TestMultiplexerRetriesNotReady(t *testing.T) {
	sys := newFakeSys()
	sys.tees[20] = []result{{err: unix.EAGAIN}, {err: unix.EAGAIN}, {n: 5}}
	m := newRecordingMetrics()

	mux := newTestMultiplexer(sys, []int{20}, 0, m)

	chunk, _, err := mux.Duplicate(context.Background(), 3, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(5), chunk)
	assert.Equal(t, int64(2), mux.Retries())
	assert.Equal(t, 2, m.retries)
}

func TestMultiplexerRetriesExhausted(t *testing.T) {
	sys := newFakeSys()
	sys.tees[20] = []result{{err: unix.EAGAIN}, {err: unix.EAGAIN}, {err: unix.EAGAIN}}

	mux := newTestMultiplexer(sys, []int{20}, 2, nil)

	_, _, err := mux.Duplicate(context.Background(), 3, 5)
	require.ErrorIs(t, err, ErrRetriesExhausted)
	assert.Contains(t, err.Error(), "dest 1")
}

func TestMultiplexerFatalError(t *testing.T) {
	sys := newFakeSys()
	sys.tees[21] = []result{{err: unix.EINVAL}}
	sys.tees[20] = []result{{n: 8}}

	mux := newTestMultiplexer(sys, []int{20, 21}, 0, nil)

	_, _, err := mux.Duplicate(context.Background(), 3, 8)
	require.ErrorIs(t, err, ErrDuplicate)
	assert.ErrorIs(t, err, unix.EINVAL)
	assert.Contains(t, err.Error(), "dest 2")
}

func TestMultiplexerCanceledWhileWaiting(t *testing.T) {
	sys := newFakeSys()
	sys.tees[20] = []result{{err: unix.EAGAIN}}

	mux := newTestMultiplexer(sys, []int{20}, 0, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := mux.Duplicate(ctx, 3, 8)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMultiplexerClampsLength(t *testing.T) {
	sys := newFakeSys()
	sys.tees[20] = []result{{n: 1 << 40}}

	mux := newTestMultiplexer(sys, []int{20}, 0, nil)

	chunk, _, err := mux.Duplicate(context.Background(), 3, 1<<40)
	require.NoError(t, err)
	assert.Equal(t, int64(1<<31-1), chunk)
}
