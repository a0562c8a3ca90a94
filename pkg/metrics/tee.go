package metrics

import (
	"github.com/marmos91/ztee/pkg/tee"
)

// NewTeeMetrics creates a new Prometheus-backed tee.Metrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called) or if the
// Prometheus implementation was not linked in. Passing nil to the engine
// disables collection.
//
// Example usage:
//
//	import _ "github.com/marmos91/ztee/pkg/metrics/prometheus"
//
//	metrics.InitRegistry()
//	opts.Metrics = metrics.NewTeeMetrics()
func NewTeeMetrics() tee.Metrics {
	if !IsEnabled() || newPrometheusTeeMetrics == nil {
		return nil
	}
	return newPrometheusTeeMetrics()
}

// newPrometheusTeeMetrics is implemented in pkg/metrics/prometheus/tee.go.
// The indirection avoids an import cycle.
var newPrometheusTeeMetrics func() tee.Metrics

// RegisterTeeMetricsConstructor registers the Prometheus tee metrics
// constructor. Called by pkg/metrics/prometheus during initialization.
func RegisterTeeMetricsConstructor(constructor func() tee.Metrics) {
	newPrometheusTeeMetrics = constructor
}
