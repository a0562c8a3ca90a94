// Package splice exposes the kernel data-moving primitives used by ztee.
//
// All payload movement goes through this interface so the engine never sees a
// user-space buffer and tests can substitute a recording or failing
// implementation. Kernel is the real implementation on Linux.
package splice

import (
	"errors"
	"math"

	"golang.org/x/sys/unix"
)

// MaxLen is the largest length passed to a single splice(2) call. Larger
// values (SIZE_MAX, SSIZE_MAX) are rejected by some kernels with EINVAL.
const MaxLen = math.MaxInt32

// ErrUnsupported is returned by every primitive on platforms without
// splice(2) and tee(2).
var ErrUnsupported = errors.New("splice: zero-copy primitives require linux")

// Syscalls is the set of kernel primitives the engine relies on.
//
// Results follow the raw syscall convention: a byte count and an error that
// wraps the unix.Errno, so callers can test for EAGAIN with errors.Is.
type Syscalls interface {
	// Pipe creates a relay and returns its read and write ends. When size is
	// positive the capacity is raised to it; the returned capacity is what
	// the kernel actually granted.
	Pipe(size int) (r, w int, capacity int, err error)

	// Tee duplicates up to n bytes from pipe in into pipe out without
	// consuming them. It never blocks.
	Tee(in, out int, n int) (int64, error)

	// Splice moves up to n bytes from in to out, consuming them. At least one
	// side must be a pipe. It blocks until some data moved.
	Splice(in, out int, n int) (int64, error)

	// StartWriteback asks the kernel to begin writing back the dirty pages of
	// [off, off+n) and returns immediately.
	StartWriteback(fd int, off, n int64) error

	// WritebackEvict writes back [off, off+n), waits for completion and then
	// drops the range from the page cache.
	WritebackEvict(fd int, off, n int64) error

	// Close releases a descriptor.
	Close(fd int) error
}

// IsNotReady reports whether err is the transient not-ready condition of a
// non-blocking primitive (EAGAIN): the target is full or the source is empty
// while its writer is still open.
func IsNotReady(err error) bool {
	return errors.Is(err, unix.EAGAIN)
}
