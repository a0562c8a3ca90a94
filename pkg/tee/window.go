package tee

import (
	"fmt"

	"github.com/marmos91/ztee/internal/logger"
	"github.com/marmos91/ztee/pkg/splice"
)

// DefaultWindowSize is the unit of scheduled writeback and eviction.
const DefaultWindowSize = 8 << 20

// Writeback kinds reported to Metrics.
const (
	WritebackAsync = "async"
	WritebackEvict = "evict"
	WritebackFinal = "final"
)

// Window bounds the page cache a long stream leaves behind in one file
// destination.
//
// Each time a window fills, writeback of that window is started without
// waiting, and the window before it is written back synchronously and dropped
// from the cache. At most about two windows of this stream are dirty or
// cached at any time. Transfers shorter than one window never trigger
// writeback.
type Window struct {
	sys  splice.Syscalls
	fd   int
	dest int
	size int64
	base int64

	index  uint64
	filled int64

	metrics Metrics
	started int64
	evicted int64
}

func newWindow(sys splice.Syscalls, ep Endpoint, dest int, size int64, metrics Metrics) *Window {
	return &Window{
		sys:     sys,
		fd:      ep.Fd,
		dest:    dest,
		size:    size,
		base:    ep.Offset,
		metrics: metrics,
	}
}

// Advance accounts for chunk bytes drained into the destination and crosses
// as many window boundaries as the bytes cover. Bytes past a boundary count
// towards the next window so ranges stay aligned with the file.
func (w *Window) Advance(chunk int64) error {
	w.filled += chunk

	for w.filled >= w.size {
		off := w.base + int64(w.index)*w.size
		if err := w.sys.StartWriteback(w.fd, off, w.size); err != nil {
			return fmt.Errorf("%w: dest %d window %d: %w", ErrWriteback, w.dest, w.index, err)
		}
		w.started++
		w.record(WritebackAsync, w.size)

		if w.index > 0 {
			prev := off - w.size
			if err := w.sys.WritebackEvict(w.fd, prev, w.size); err != nil {
				return fmt.Errorf("%w: dest %d window %d: %w", ErrWriteback, w.dest, w.index-1, err)
			}
			w.evicted++
			w.record(WritebackEvict, w.size)
		}

		logger.Debug("Window crossed",
			logger.KeyDest, w.dest, logger.KeyWindow, w.index, logger.KeyOffset, off, logger.KeyLength, w.size)

		w.filled -= w.size
		w.index++
	}

	return nil
}

// Flush writes back and evicts the last completed window plus the trailing
// partial one. It does nothing when no boundary was ever crossed.
func (w *Window) Flush() error {
	if w.index == 0 {
		return nil
	}

	off := w.base + int64(w.index-1)*w.size
	length := w.size + w.filled
	if err := w.sys.WritebackEvict(w.fd, off, length); err != nil {
		return fmt.Errorf("%w: dest %d final flush: %w", ErrWriteback, w.dest, err)
	}
	w.evicted++
	w.record(WritebackFinal, length)

	logger.Debug("Final flush",
		logger.KeyDest, w.dest, logger.KeyOffset, off, logger.KeyLength, length)
	return nil
}

// Index returns the number of window boundaries crossed.
func (w *Window) Index() uint64 {
	return w.index
}

// Filled returns the bytes accumulated in the current window.
func (w *Window) Filled() int64 {
	return w.filled
}

func (w *Window) record(kind string, bytes int64) {
	if w.metrics != nil {
		w.metrics.RecordWriteback(kind, bytes)
	}
}
