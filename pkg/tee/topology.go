package tee

import (
	"fmt"

	"github.com/marmos91/ztee/internal/logger"
)

// Topology describes how one chunk travels from the origin conduit to every
// destination.
//
// tee(2) only works pipe-to-pipe, so a terminal destination (a regular file,
// a tty) cannot receive a duplicate directly: it gets a dedicated relay that
// is duplicated into and then drained into the destination. A pipe
// destination is duplicated into directly. Destination 0 is always fed by
// consuming the origin itself.
type Topology struct {
	// Origin is the read end every chunk is duplicated from and drained out
	// of: the source itself when it is a pipe, otherwise the input conduit.
	Origin int

	// Adapter is the owned input conduit, nil when the source is a pipe.
	Adapter *Relay

	// DuplicateTargets receive a duplicate of each chunk.
	DuplicateTargets []int

	// DrainSources are consumed into DrainTargets by index. Index 0 is always
	// Origin feeding destination 0.
	DrainSources []int
	DrainTargets []int

	// duplicateDest and drainDest map each entry back to its destination
	// index, for diagnostics.
	duplicateDest []int
	drainDest     []int
}

// BuildTopology partitions dsts and allocates the relays they need from pool.
// On failure every relay allocated so far is closed.
func BuildTopology(src Endpoint, dsts []Endpoint, pool *RelayPool) (*Topology, error) {
	if len(dsts) == 0 {
		return nil, ErrNoDestinations
	}

	terminal := 0
	for _, d := range dsts[1:] {
		if !d.RelayCapable() {
			terminal++
		}
	}

	t := &Topology{
		DuplicateTargets: make([]int, 0, len(dsts)-1),
		duplicateDest:    make([]int, 0, len(dsts)-1),
		DrainSources:     make([]int, 0, 1+terminal),
		DrainTargets:     make([]int, 0, 1+terminal),
		drainDest:        make([]int, 0, 1+terminal),
	}

	if src.RelayCapable() {
		t.Origin = src.Fd
	} else {
		adapter, err := pool.New()
		if err != nil {
			return nil, t.abort(pool, fmt.Errorf("input conduit for %s: %w", src.Name, err))
		}
		t.Adapter = adapter
		t.Origin = adapter.R
		logger.Debug("Adapting source through input conduit",
			logger.KeyName, src.Name, logger.KeyKind, src.Kind.String(), logger.KeyCapacity, adapter.Capacity)
	}

	t.addDrain(t.Origin, dsts[0].Fd, 0)

	for i := 1; i < len(dsts); i++ {
		d := dsts[i]
		if d.RelayCapable() {
			t.addDuplicate(d.Fd, i)
			continue
		}

		relay, err := pool.New()
		if err != nil {
			return nil, t.abort(pool, fmt.Errorf("relay for %s: %w", d.Name, err))
		}
		t.addDuplicate(relay.W, i)
		t.addDrain(relay.R, d.Fd, i)
		logger.Debug("Relay created",
			logger.KeyDest, i, logger.KeyName, d.Name, logger.KeyKind, d.Kind.String(), logger.KeyCapacity, relay.Capacity)
	}

	return t, nil
}

func (t *Topology) addDuplicate(fd, dest int) {
	t.DuplicateTargets = append(t.DuplicateTargets, fd)
	t.duplicateDest = append(t.duplicateDest, dest)
}

func (t *Topology) addDrain(src, dst, dest int) {
	t.DrainSources = append(t.DrainSources, src)
	t.DrainTargets = append(t.DrainTargets, dst)
	t.drainDest = append(t.drainDest, dest)
}

func (t *Topology) abort(pool *RelayPool, err error) error {
	if cerr := pool.Close(); cerr != nil {
		logger.Warn("Closing relays after failed construction", logger.KeyError, cerr)
	}
	return err
}

// Destinations returns the destination index of every duplicate target and
// of every drain pair. Each destination appears exactly once in the union of
// duplicate targets that are not drained and drain targets.
func (t *Topology) Destinations() (duplicate, drain []int) {
	return t.duplicateDest, t.drainDest
}

// PassThrough reports whether the origin feeds a single destination with no
// duplication at all.
func (t *Topology) PassThrough() bool {
	return len(t.DuplicateTargets) == 0
}
