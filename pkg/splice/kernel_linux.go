//go:build linux

package splice

import (
	"fmt"

	"golang.org/x/sys/unix"
)

const (
	moveFlags = unix.SPLICE_F_MOVE | unix.SPLICE_F_MORE

	evictSyncFlags = unix.SYNC_FILE_RANGE_WAIT_BEFORE |
		unix.SYNC_FILE_RANGE_WRITE |
		unix.SYNC_FILE_RANGE_WAIT_AFTER
)

// Kernel implements Syscalls with splice(2), tee(2), sync_file_range(2) and
// posix_fadvise(2).
type Kernel struct{}

var _ Syscalls = Kernel{}

// Pipe creates a close-on-exec pipe and grows it to size with F_SETPIPE_SZ.
// A refused resize is not an error: the pipe keeps its default capacity and
// the caller learns it from the returned capacity.
func (Kernel) Pipe(size int) (int, int, int, error) {
	var p [2]int
	if err := unix.Pipe2(p[:], unix.O_CLOEXEC); err != nil {
		return -1, -1, 0, fmt.Errorf("pipe2: %w", err)
	}

	if size > 0 {
		// EPERM above /proc/sys/fs/pipe-max-size for unprivileged users.
		_, _ = unix.FcntlInt(uintptr(p[1]), unix.F_SETPIPE_SZ, size)
	}

	capacity, err := unix.FcntlInt(uintptr(p[1]), unix.F_GETPIPE_SZ, 0)
	if err != nil {
		_ = unix.Close(p[0])
		_ = unix.Close(p[1])
		return -1, -1, 0, fmt.Errorf("fcntl F_GETPIPE_SZ: %w", err)
	}

	return p[0], p[1], capacity, nil
}

// Tee duplicates with SPLICE_F_NONBLOCK so a full target or an empty source
// surfaces as EAGAIN instead of blocking the single engine thread.
func (Kernel) Tee(in, out int, n int) (int64, error) {
	for {
		written, err := unix.Tee(in, out, n, unix.SPLICE_F_NONBLOCK)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return written, fmt.Errorf("tee: %w", err)
		}
		return written, nil
	}
}

// Splice moves data with SPLICE_F_MOVE|SPLICE_F_MORE from the current file
// offsets of both descriptors.
func (Kernel) Splice(in, out int, n int) (int64, error) {
	for {
		moved, err := unix.Splice(in, nil, out, nil, n, moveFlags)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return moved, fmt.Errorf("splice: %w", err)
		}
		return moved, nil
	}
}

func (Kernel) StartWriteback(fd int, off, n int64) error {
	if err := unix.SyncFileRange(fd, off, n, unix.SYNC_FILE_RANGE_WRITE); err != nil {
		return fmt.Errorf("sync_file_range(WRITE, %d, %d): %w", off, n, err)
	}
	return nil
}

func (Kernel) WritebackEvict(fd int, off, n int64) error {
	if err := unix.SyncFileRange(fd, off, n, evictSyncFlags); err != nil {
		return fmt.Errorf("sync_file_range(WAIT_BEFORE|WRITE|WAIT_AFTER, %d, %d): %w", off, n, err)
	}
	if err := unix.Fadvise(fd, off, n, unix.FADV_DONTNEED); err != nil {
		return fmt.Errorf("posix_fadvise(DONTNEED, %d, %d): %w", off, n, err)
	}
	return nil
}

func (Kernel) Close(fd int) error {
	if err := unix.Close(fd); err != nil {
		return fmt.Errorf("close fd %d: %w", fd, err)
	}
	return nil
}
