// Package fdkind classifies file descriptors for the duplication engine.
//
// The engine only needs two facts about an endpoint: whether it can take part
// in tee(2) as a relay (it is a pipe) and whether positioned writeback makes
// sense for it (it is seekable). Everything else here exists for diagnostics.
package fdkind

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Kind is the type of object behind a descriptor.
type Kind int

const (
	Unknown Kind = iota
	Pipe
	Regular
	Directory
	BlockDevice
	CharDevice
	Socket
	Symlink
)

// String returns the short diagnostic name of the kind.
func (k Kind) String() string {
	switch k {
	case Pipe:
		return "pipe"
	case Regular:
		return "file"
	case Directory:
		return "dir"
	case BlockDevice:
		return "block device"
	case CharDevice:
		return "tty"
	case Socket:
		return "socket"
	case Symlink:
		return "symlink"
	default:
		return "unknown"
	}
}

// RelayCapable reports whether tee(2) accepts the kind on both sides.
func (k Kind) RelayCapable() bool {
	return k == Pipe
}

// Seekable reports whether the kind has a page-cache backed byte range that
// sync_file_range(2) and posix_fadvise(2) can act on.
func (k Kind) Seekable() bool {
	return k == Regular || k == BlockDevice
}

// FromMode maps a stat mode to a Kind.
func FromMode(mode uint32) Kind {
	switch mode & unix.S_IFMT {
	case unix.S_IFIFO:
		return Pipe
	case unix.S_IFREG:
		return Regular
	case unix.S_IFDIR:
		return Directory
	case unix.S_IFBLK:
		return BlockDevice
	case unix.S_IFCHR:
		return CharDevice
	case unix.S_IFSOCK:
		return Socket
	case unix.S_IFLNK:
		return Symlink
	default:
		return Unknown
	}
}

// Classify returns the kind of the object behind fd.
func Classify(fd int) (Kind, error) {
	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		return Unknown, fmt.Errorf("fstat fd %d: %w", fd, err)
	}
	return FromMode(uint32(st.Mode)), nil
}

// IsAppend reports whether fd was opened with O_APPEND.
func IsAppend(fd int) (bool, error) {
	flags, err := unix.FcntlInt(uintptr(fd), unix.F_GETFL, 0)
	if err != nil {
		return false, fmt.Errorf("fcntl F_GETFL fd %d: %w", fd, err)
	}
	return flags&unix.O_APPEND != 0, nil
}

// Offset returns the current file offset of fd.
func Offset(fd int) (int64, error) {
	off, err := unix.Seek(fd, 0, unix.SEEK_CUR)
	if err != nil {
		return 0, fmt.Errorf("lseek fd %d: %w", fd, err)
	}
	return off, nil
}
