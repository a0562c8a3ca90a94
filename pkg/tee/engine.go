// Package tee implements the zero-copy fan-out engine.
//
// One source is read once and every destination receives an identical copy.
// Payload bytes only ever move between kernel pipe buffers and the
// destinations: tee(2) duplicates the buffered chunk into pipes, splice(2)
// consumes it into files. Files receiving a long stream are written back and
// evicted window by window so the copy does not flood the page cache.
//
// An Engine runs on the calling goroutine and owns every relay it creates.
// All of them are closed before Run returns, whatever the outcome.
package tee

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/marmos91/ztee/internal/logger"
	"github.com/marmos91/ztee/internal/telemetry"
	"github.com/marmos91/ztee/pkg/splice"
)

// state is a step of the engine loop.
type state int

const (
	stateFilling state = iota
	stateDuplicating
	stateDraining
	stateWindowCheck
	stateDone
)

func (s state) String() string {
	switch s {
	case stateFilling:
		return "fill"
	case stateDuplicating:
		return "duplicate"
	case stateDraining:
		return "drain"
	case stateWindowCheck:
		return "window"
	default:
		return "done"
	}
}

// Engine duplicates one source into a fixed destination set.
type Engine struct {
	src  Endpoint
	dsts []Endpoint
	opts Options
}

// New validates the destination set and returns an engine ready to Run.
// It refuses a primary output opened in append mode.
func New(src Endpoint, dsts []Endpoint, opts Options) (*Engine, error) {
	if len(dsts) == 0 {
		return nil, ErrNoDestinations
	}
	if err := CheckPrimary(dsts[0]); err != nil {
		return nil, err
	}

	opts.applyDefaults()

	return &Engine{
		src:  src,
		dsts: append([]Endpoint(nil), dsts...),
		opts: opts,
	}, nil
}

// run holds the per-transfer state of the loop.
type run struct {
	topo    *Topology
	input   *inputAdapter
	mux     *Multiplexer
	drain   *drainer
	windows []*Window

	// pending is the number of bytes buffered in the input conduit that have
	// not been drained yet. Only tracked for an adapted source.
	pending int64
	chunk   int64
	// moved is set when the pass-through path already delivered the chunk.
	moved      bool
	chunkStart time.Time

	stats Stats
}

// Run performs the transfer until end of stream or the first fatal error.
// The returned Stats are valid in both cases and count only fully delivered
// chunks.
func (e *Engine) Run(ctx context.Context) (stats Stats, err error) {
	start := time.Now()
	runID := uuid.NewString()

	ctx, span := telemetry.StartRunSpan(ctx, runID, e.src.Name, e.src.Kind.String(), len(e.dsts))
	defer span.End()

	lc := logger.NewLogContext(runID).WithTrace(telemetry.TraceID(ctx), telemetry.SpanID(ctx))
	ctx = logger.WithContext(ctx, lc)

	pool := NewRelayPool(e.opts.Syscalls, e.opts.RelaySize)
	defer func() {
		if cerr := pool.Close(); cerr != nil {
			logger.WarnCtx(ctx, "Closing relays", logger.KeyError, cerr)
		}
	}()

	r := &run{}
	r.stats.RunID = runID

	defer func() {
		r.stats.Duration = time.Since(start)
		r.stats.Relays = pool.Len()
		if r.mux != nil {
			r.stats.Retries = r.mux.Retries()
		}
		for _, w := range r.windows {
			r.stats.WindowsStarted += w.started
			r.stats.WindowsEvicted += w.evicted
		}
		for i := range r.stats.Destinations {
			r.stats.Destinations[i].Bytes = r.stats.Bytes
		}
		stats = r.stats

		telemetry.SetAttributes(ctx,
			telemetry.Bytes(stats.Bytes),
			telemetry.Chunks(stats.Chunks),
			telemetry.Retries(stats.Retries),
			telemetry.Relays(stats.Relays),
		)
		telemetry.RecordError(ctx, err)
		if e.opts.Metrics != nil {
			e.opts.Metrics.ObserveRun(stats.Bytes, stats.Duration, err)
		}
	}()

	if err := e.setup(ctx, r, pool); err != nil {
		return r.stats, err
	}

	if err := e.loop(ctx, r); err != nil {
		logger.ErrorCtx(ctx, "Transfer failed", logger.KeyTotal, r.stats.Bytes, logger.KeyError, err)
		return r.stats, err
	}

	telemetry.AddEvent(ctx, telemetry.EventEOF)
	if err := e.flush(ctx, r); err != nil {
		return r.stats, err
	}

	logger.DebugCtx(ctx, "Transfer complete",
		logger.KeyTotal, r.stats.Bytes, logger.KeyDurationMs, logger.Duration(start))
	return r.stats, nil
}

// setup builds the topology and the stages operating on it.
func (e *Engine) setup(ctx context.Context, r *run, pool *RelayPool) error {
	tctx, span := telemetry.StartSpan(ctx, telemetry.SpanTopology)
	defer span.End()
	ctx = logger.WithContext(ctx, logger.FromContext(ctx).WithStage("topology"))

	topo, err := BuildTopology(e.src, e.dsts, pool)
	if err != nil {
		telemetry.RecordError(tctx, err)
		logger.ErrorCtx(ctx, "Topology construction failed", logger.KeyError, err)
		return err
	}
	r.topo = topo
	telemetry.SetAttributes(ctx, telemetry.PassThrough(topo.PassThrough()))

	if e.opts.Metrics != nil {
		e.opts.Metrics.RecordRelays(pool.Len())
	}

	sys := e.opts.Syscalls
	dupDest, drainDest := topo.Destinations()

	if topo.Adapter != nil {
		r.input = &inputAdapter{sys: sys, src: e.src.Fd, conduit: topo.Adapter}
	}
	if !topo.PassThrough() {
		backoff := Backoff{Delay: e.opts.RetryDelay, MaxAttempts: e.opts.MaxRetries}
		r.mux = newMultiplexer(sys, topo.DuplicateTargets, dupDest, backoff, e.opts.Metrics, e.opts.Verbose)
	}
	r.drain = &drainer{sys: sys, sources: topo.DrainSources, targets: topo.DrainTargets, dest: drainDest}

	relayed := make(map[int]bool, len(drainDest))
	for _, d := range drainDest[1:] {
		relayed[d] = true
	}

	r.stats.Destinations = make([]DestStats, len(e.dsts))
	for i, d := range e.dsts {
		path := "direct"
		switch {
		case i == 0:
			path = "origin"
		case relayed[i]:
			path = "relay"
		}

		managed := d.Seekable() && (i == 0 || e.opts.ManageAllCaches)
		if managed {
			r.windows = append(r.windows, newWindow(sys, d, i, e.opts.WindowSize, e.opts.Metrics))
		} else if i == 0 {
			logger.DebugCtx(ctx, "Primary output is not seekable, cache window disabled",
				logger.KeyKind, d.Kind.String())
		}

		r.stats.Destinations[i] = DestStats{Index: i, Name: d.Name, Kind: d.Kind.String(), Path: path, Managed: managed}
	}

	logger.DebugCtx(ctx, "Topology ready",
		logger.KeyRelays, pool.Len(),
		"duplicate_targets", len(topo.DuplicateTargets),
		"drain_pairs", len(topo.DrainSources),
		"windows", len(r.windows))
	return nil
}

// flush writes back and evicts what every managed destination still holds.
func (e *Engine) flush(ctx context.Context, r *run) error {
	for _, w := range r.windows {
		fctx, span := telemetry.StartFlushSpan(ctx, w.dest, telemetry.Window(w.Index()))
		err := w.Flush()
		telemetry.RecordError(fctx, err)
		span.End()
		if err != nil {
			return err
		}
	}
	return nil
}

// loop drives FILLING -> DUPLICATING -> DRAINING -> WINDOW_CHECK until done.
func (e *Engine) loop(ctx context.Context, r *run) error {
	st := e.next(r)

	for st != stateDone {
		var err error
		switch st {
		case stateFilling:
			st, err = e.fill(r)
		case stateDuplicating:
			st, err = e.duplicate(ctx, r)
		case stateDraining:
			st, err = e.drainChunk(r)
		case stateWindowCheck:
			st, err = e.windowCheck(r)
		}
		if err != nil {
			return fmt.Errorf("%s: %w", st, err)
		}
	}
	return nil
}

// next picks the first state of an iteration. The input conduit is only
// refilled once everything it held has been drained.
func (e *Engine) next(r *run) state {
	r.chunk = 0
	r.moved = false
	r.chunkStart = time.Now()
	if r.input != nil && r.pending == 0 {
		return stateFilling
	}
	return stateDuplicating
}

func (e *Engine) fill(r *run) (state, error) {
	n, err := r.input.Fill()
	if err != nil {
		return stateFilling, err
	}
	if n == 0 {
		return stateDone, nil
	}
	if e.opts.Verbose {
		logger.Debug("received", logger.KeyBytes, n)
	}
	r.pending = n
	return stateDuplicating, nil
}

func (e *Engine) duplicate(ctx context.Context, r *run) (state, error) {
	if err := ctx.Err(); err != nil {
		return stateDuplicating, err
	}

	switch {
	case r.mux != nil:
		avail := r.pending
		if r.input == nil {
			avail = splice.MaxLen
		}
		chunk, eof, err := r.mux.Duplicate(ctx, r.topo.Origin, avail)
		if err != nil {
			return stateDuplicating, err
		}
		if eof {
			return stateDone, nil
		}
		r.chunk = chunk

	case r.input != nil:
		// Single destination: the whole conduit content is the chunk.
		r.chunk = r.pending

	default:
		// Single destination fed straight from a source pipe.
		n, err := r.drain.PassThrough()
		if err != nil {
			return stateDraining, err
		}
		if n == 0 {
			return stateDone, nil
		}
		r.chunk = n
		r.moved = true
	}

	return stateDraining, nil
}

func (e *Engine) drainChunk(r *run) (state, error) {
	if !r.moved {
		if err := r.drain.Drain(r.chunk); err != nil {
			return stateDraining, err
		}
	}
	if e.opts.Verbose {
		logger.Debug("drained", logger.KeyChunk, r.chunk)
	}
	if r.input != nil {
		r.pending -= r.chunk
	}
	return stateWindowCheck, nil
}

func (e *Engine) windowCheck(r *run) (state, error) {
	for _, w := range r.windows {
		if err := w.Advance(r.chunk); err != nil {
			return stateWindowCheck, err
		}
	}

	r.stats.Bytes += r.chunk
	r.stats.Chunks++
	if e.opts.Metrics != nil {
		e.opts.Metrics.ObserveChunk(r.chunk, time.Since(r.chunkStart))
	}

	return e.next(r), nil
}
