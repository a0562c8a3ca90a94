package tee

import (
	"context"
	"fmt"

	"github.com/marmos91/ztee/internal/logger"
	"github.com/marmos91/ztee/pkg/splice"
)

// Multiplexer duplicates the bytes buffered in the origin conduit into every
// duplication target and negotiates one chunk size for the drain stage.
//
// The negotiated size is the minimum of what each target holds, so no relay
// is ever drained of bytes it has not received. A target that received more
// than the minimum keeps the difference as surplus. tee(2) always copies from
// the head of the origin, so a target with surplus is skipped until the
// surplus has been drained; its availability for the next round is the
// surplus itself.
type Multiplexer struct {
	sys     splice.Syscalls
	targets []int
	dest    []int
	backoff Backoff
	metrics Metrics

	surplus []int64
	avail   []int64
	retries int64
	trace   bool
}

func newMultiplexer(sys splice.Syscalls, targets, dest []int, backoff Backoff, metrics Metrics, trace bool) *Multiplexer {
	return &Multiplexer{
		sys:     sys,
		targets: targets,
		dest:    dest,
		backoff: backoff,
		metrics: metrics,
		surplus: make([]int64, len(targets)),
		avail:   make([]int64, len(targets)),
		trace:   trace,
	}
}

// Duplicate fans up to pending bytes from origin into every target.
//
// It returns the negotiated chunk size. eof is true when a target reported
// end of stream, which ends the transfer.
func (m *Multiplexer) Duplicate(ctx context.Context, origin int, pending int64) (chunk int64, eof bool, err error) {
	chunk = -1

	for i, target := range m.targets {
		got := m.surplus[i]
		if got == 0 {
			got, err = m.teeOne(ctx, origin, i, target, pending)
			if err != nil {
				return 0, false, err
			}
			if got == 0 {
				return 0, true, nil
			}
		}

		m.avail[i] = got
		if chunk < 0 || got < chunk {
			chunk = got
		}
	}

	for i := range m.targets {
		m.surplus[i] = m.avail[i] - chunk
	}

	return chunk, false, nil
}

// teeOne issues tee(2) against one target, retrying in place on not-ready.
func (m *Multiplexer) teeOne(ctx context.Context, origin, i, target int, pending int64) (int64, error) {
	n := int(min(pending, int64(splice.MaxLen)))

	for attempt := 0; ; attempt++ {
		teed, err := m.sys.Tee(origin, target, n)
		if err == nil {
			if m.trace {
				logger.Debug("teed", logger.KeyDest, m.dest[i], logger.KeyBytes, teed)
			}
			return teed, nil
		}

		if !splice.IsNotReady(err) {
			return 0, fmt.Errorf("%w: dest %d: %w", ErrDuplicate, m.dest[i], err)
		}

		m.retries++
		if m.metrics != nil {
			m.metrics.RecordRetry()
		}

		if werr := m.backoff.Wait(ctx, attempt); werr != nil {
			return 0, fmt.Errorf("dest %d: %w", m.dest[i], werr)
		}
	}
}

// Surplus returns the bytes each target holds beyond the last negotiated
// chunk.
func (m *Multiplexer) Surplus() []int64 {
	return append([]int64(nil), m.surplus...)
}

// Retries returns the number of not-ready results seen so far.
func (m *Multiplexer) Retries() int64 {
	return m.retries
}
