package tee

import (
	"errors"
	"fmt"

	"github.com/marmos91/ztee/internal/logger"
	"github.com/marmos91/ztee/pkg/splice"
)

// DefaultRelaySize is the capacity requested for every relay. Larger pipes
// mean fewer syscalls per byte; 1 MiB is also the default pipe-max-size, so
// unprivileged processes get it.
const DefaultRelaySize = 1 << 20

// Relay is an owned pipe used as an intermediate conduit.
type Relay struct {
	R        int // read end
	W        int // write end
	Capacity int // capacity granted by the kernel

	sys    splice.Syscalls
	closed bool
}

// Close closes both ends. It is safe to call more than once; only the first
// call releases the descriptors.
func (r *Relay) Close() error {
	if r == nil || r.closed {
		return nil
	}
	r.closed = true
	return errors.Join(r.sys.Close(r.R), r.sys.Close(r.W))
}

// RelayPool allocates relays and owns every relay it handed out until Close.
type RelayPool struct {
	sys    splice.Syscalls
	size   int
	relays []*Relay
}

// NewRelayPool returns a pool creating relays of the given capacity.
// A non-positive size keeps the kernel default capacity.
func NewRelayPool(sys splice.Syscalls, size int) *RelayPool {
	return &RelayPool{sys: sys, size: size}
}

// New allocates one relay. A relay the kernel refused to grow keeps its
// smaller capacity and is logged at debug.
func (p *RelayPool) New() (*Relay, error) {
	r, w, capacity, err := p.sys.Pipe(p.size)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRelayCreate, err)
	}

	if capacity < p.size {
		logger.Debug("Relay resize refused",
			"requested", p.size, logger.KeyCapacity, capacity)
	}

	relay := &Relay{R: r, W: w, Capacity: capacity, sys: p.sys}
	p.relays = append(p.relays, relay)
	return relay, nil
}

// Len returns the number of relays allocated so far.
func (p *RelayPool) Len() int {
	return len(p.relays)
}

// Close closes every relay exactly once and reports all close errors.
func (p *RelayPool) Close() error {
	var errs []error
	for _, r := range p.relays {
		if err := r.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
