package tee

import "errors"

// Precondition failures. The engine refuses to start and moves no data.
var (
	// ErrNoDestinations is returned when the destination set is empty.
	ErrNoDestinations = errors.New("no destinations")

	// ErrAppendMode is returned when the primary output was opened with
	// O_APPEND. Writeback ranges are computed from the starting offset, which
	// append mode does not honor.
	ErrAppendMode = errors.New("primary output is in append mode")
)

// Fatal transfer failures. Each is wrapped together with the underlying
// errno and the index of the destination involved.
var (
	// ErrRelayCreate means a relay could not be allocated while building the
	// topology. Construction is not retried.
	ErrRelayCreate = errors.New("relay creation failed")

	// ErrFill means moving data from a non-pipe source into the input
	// conduit failed.
	ErrFill = errors.New("input splice failed")

	// ErrDuplicate means tee(2) failed with something other than EAGAIN.
	ErrDuplicate = errors.New("tee failed")

	// ErrRetriesExhausted means a duplication target stayed not-ready for
	// more consecutive attempts than the configured cap.
	ErrRetriesExhausted = errors.New("duplication target not ready")

	// ErrDrain means splice(2) failed while draining a relay.
	ErrDrain = errors.New("drain splice failed")

	// ErrShortDrain means splice(2) returned zero before the negotiated chunk
	// was fully moved. The relays are left in an unknown position.
	ErrShortDrain = errors.New("short drain")

	// ErrWriteback means a writeback or eviction request failed.
	ErrWriteback = errors.New("writeback failed")
)
