package tee

import (
	"fmt"

	"github.com/marmos91/ztee/pkg/splice"
)

// drainer moves negotiated chunks out of the drain sources into their final
// destinations.
type drainer struct {
	sys     splice.Syscalls
	sources []int
	targets []int
	dest    []int
}

// Drain moves exactly chunk bytes through every (source, target) pair. A
// partial move cannot be left pending, so any shortfall aborts the transfer.
func (d *drainer) Drain(chunk int64) error {
	for i := range d.sources {
		if err := moveAll(d.sys, d.sources[i], d.targets[i], chunk); err != nil {
			return fmt.Errorf("dest %d: %w", d.dest[i], err)
		}
	}
	return nil
}

// PassThrough moves whatever the origin holds straight into the single
// destination. Zero means end of stream.
func (d *drainer) PassThrough() (int64, error) {
	n, err := d.sys.Splice(d.sources[0], d.targets[0], splice.MaxLen)
	if err != nil {
		return 0, fmt.Errorf("%w: dest %d: %w", ErrDrain, d.dest[0], err)
	}
	return n, nil
}

// moveAll loops splice(2) until n bytes moved from in to out.
func moveAll(sys splice.Syscalls, in, out int, n int64) error {
	for n > 0 {
		moved, err := sys.Splice(in, out, int(min(n, int64(splice.MaxLen))))
		if err != nil {
			return fmt.Errorf("%w: %w", ErrDrain, err)
		}
		if moved <= 0 {
			return fmt.Errorf("%w: %d bytes not moved", ErrShortDrain, n)
		}
		n -= moved
	}
	return nil
}
