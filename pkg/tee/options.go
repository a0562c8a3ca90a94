package tee

import (
	"time"

	"github.com/marmos91/ztee/pkg/splice"
)

// Options configures one Engine. It replaces any process-wide state: two
// engines with different options never affect each other.
type Options struct {
	// Verbose emits a diagnostic line per primitive call. It never changes
	// what the engine does.
	Verbose bool

	// ManageAllCaches applies the cache window to every seekable
	// destination instead of only the primary output.
	ManageAllCaches bool

	// WindowSize is the writeback/eviction window. Default DefaultWindowSize.
	WindowSize int64

	// RelaySize is the capacity requested for relays. Default DefaultRelaySize.
	RelaySize int

	// RetryDelay is the pause after a not-ready duplication. Default
	// DefaultRetryDelay.
	RetryDelay time.Duration

	// MaxRetries caps consecutive not-ready results per target; zero retries
	// forever.
	MaxRetries int

	// Syscalls performs the kernel operations. Default splice.Kernel.
	Syscalls splice.Syscalls

	// Metrics receives engine metrics. Nil disables them.
	Metrics Metrics
}

// DefaultOptions returns the options ztee runs with when nothing is configured.
func DefaultOptions() Options {
	return Options{
		WindowSize: DefaultWindowSize,
		RelaySize:  DefaultRelaySize,
		RetryDelay: DefaultRetryDelay,
		Syscalls:   splice.Kernel{},
	}
}

func (o *Options) applyDefaults() {
	if o.WindowSize <= 0 {
		o.WindowSize = DefaultWindowSize
	}
	if o.RelaySize <= 0 {
		o.RelaySize = DefaultRelaySize
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = DefaultRetryDelay
	}
	if o.Syscalls == nil {
		o.Syscalls = splice.Kernel{}
	}
}
