//go:build unix && !linux

package splice

import "golang.org/x/sys/unix"

// Kernel reports ErrUnsupported for every data-moving primitive outside Linux.
// Close still works so callers can release whatever they opened.
type Kernel struct{}

var _ Syscalls = Kernel{}

func (Kernel) Pipe(int) (int, int, int, error)        { return -1, -1, 0, ErrUnsupported }
func (Kernel) Tee(int, int, int) (int64, error)       { return 0, ErrUnsupported }
func (Kernel) Splice(int, int, int) (int64, error)    { return 0, ErrUnsupported }
func (Kernel) StartWriteback(int, int64, int64) error { return ErrUnsupported }
func (Kernel) WritebackEvict(int, int64, int64) error { return ErrUnsupported }
func (Kernel) Close(fd int) error                     { return unix.Close(fd) }
