package tee

import "time"

// Metrics provides observability for the duplication engine.
//
// It is optional: a nil Metrics disables collection with no overhead.
// pkg/metrics/prometheus provides the Prometheus implementation.
type Metrics interface {
	// ObserveChunk records one negotiated chunk delivered to every destination
	ObserveChunk(bytes int64, duration time.Duration)

	// RecordRetry records one not-ready duplication result
	RecordRetry()

	// RecordRelays records the number of relays the topology allocated
	RecordRelays(count int)

	// RecordWriteback records one writeback request of the given kind
	// (WritebackAsync, WritebackEvict, WritebackFinal)
	RecordWriteback(kind string, bytes int64)

	// ObserveRun records the outcome of a whole transfer
	ObserveRun(bytes int64, duration time.Duration, err error)
}
