package tee

import (
	"fmt"

	"github.com/marmos91/ztee/pkg/fdkind"
)

// Endpoint is a source or destination descriptor together with the facts the
// engine needs about it. The engine never closes an Endpoint's descriptor.
type Endpoint struct {
	// Name is used in diagnostics only (stdin, stdout, a file path).
	Name string

	// Fd is the descriptor. It stays owned by the caller.
	Fd int

	// Kind is the classified object type.
	Kind fdkind.Kind

	// Append is true when the descriptor was opened with O_APPEND.
	Append bool

	// Offset is the file offset at start. Only meaningful when seekable.
	Offset int64
}

// RelayCapable reports whether the endpoint can be used with tee(2) directly.
func (e Endpoint) RelayCapable() bool {
	return e.Kind.RelayCapable()
}

// Seekable reports whether the endpoint can be managed by a cache window.
func (e Endpoint) Seekable() bool {
	return e.Kind.Seekable()
}

// NewEndpoint classifies fd and reads its append flag and starting offset.
func NewEndpoint(name string, fd int) (Endpoint, error) {
	kind, err := fdkind.Classify(fd)
	if err != nil {
		return Endpoint{}, fmt.Errorf("classify %s: %w", name, err)
	}

	ep := Endpoint{Name: name, Fd: fd, Kind: kind}

	if ep.Append, err = fdkind.IsAppend(fd); err != nil {
		return Endpoint{}, fmt.Errorf("classify %s: %w", name, err)
	}

	if kind.Seekable() {
		if ep.Offset, err = fdkind.Offset(fd); err != nil {
			return Endpoint{}, fmt.Errorf("classify %s: %w", name, err)
		}
	}

	return ep, nil
}

// CheckPrimary reports ErrAppendMode when ep, the primary output, was opened
// with O_APPEND. Window ranges are positional and cannot follow an appending
// writer.
func CheckPrimary(ep Endpoint) error {
	if ep.Append {
		return fmt.Errorf("%w: %s", ErrAppendMode, ep.Name)
	}
	return nil
}
