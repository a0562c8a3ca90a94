package tee

import (
	"fmt"

	"github.com/marmos91/ztee/pkg/splice"
)

// inputAdapter refills the owned input conduit from a source that cannot take
// part in tee(2) itself.
type inputAdapter struct {
	sys     splice.Syscalls
	src     int
	conduit *Relay
}

// Fill moves as much as the conduit accepts from the source. Zero means end
// of stream.
func (a *inputAdapter) Fill() (int64, error) {
	n, err := a.sys.Splice(a.src, a.conduit.W, splice.MaxLen)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrFill, err)
	}
	return n, nil
}
