package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys recorded on transfer spans.
const (
	// Run attributes
	AttrRunID        = "tee.run_id"
	AttrSourceName   = "tee.source.name"
	AttrSourceKind   = "tee.source.kind"  // pipe, file, tty, ...
	AttrDestinations = "tee.destinations" // Number of destinations
	AttrRelays       = "tee.relays"       // Relays allocated by the topology
	AttrPassThrough  = "tee.pass_through" // Single destination, no duplication
	AttrBytes        = "tee.bytes"        // Bytes delivered to every destination
	AttrChunks       = "tee.chunks"       // Negotiated chunks
	AttrRetries      = "tee.retries"      // Not-ready duplication results

	// Destination attributes
	AttrDest     = "tee.dest.index"
	AttrDestName = "tee.dest.name"
	AttrDestKind = "tee.dest.kind"

	// Cache window attributes
	AttrWindow       = "cache.window"
	AttrWindowOffset = "cache.offset"
	AttrWindowLength = "cache.length"
)

// Span names. Format: <component>.<operation>
const (
	SpanRun      = "tee.run"
	SpanTopology = "tee.topology"
	SpanFlush    = "cache.flush"
)

// Event names added to the run span.
const (
	EventEOF = "tee.eof"
)

// RunID returns an attribute for the transfer correlation ID
func RunID(id string) attribute.KeyValue {
	return attribute.String(AttrRunID, id)
}

// SourceName returns an attribute for the source display name
func SourceName(name string) attribute.KeyValue {
	return attribute.String(AttrSourceName, name)
}

// SourceKind returns an attribute for the source descriptor kind
func SourceKind(kind string) attribute.KeyValue {
	return attribute.String(AttrSourceKind, kind)
}

// Destinations returns an attribute for the destination count
func Destinations(n int) attribute.KeyValue {
	return attribute.Int(AttrDestinations, n)
}

// Relays returns an attribute for the relay count
func Relays(n int) attribute.KeyValue {
	return attribute.Int(AttrRelays, n)
}

// PassThrough returns an attribute for the pass-through indicator
func PassThrough(on bool) attribute.KeyValue {
	return attribute.Bool(AttrPassThrough, on)
}

// Bytes returns an attribute for delivered bytes
func Bytes(n int64) attribute.KeyValue {
	return attribute.Int64(AttrBytes, n)
}

// Chunks returns an attribute for the chunk count
func Chunks(n int64) attribute.KeyValue {
	return attribute.Int64(AttrChunks, n)
}

// Retries returns an attribute for the retry count
func Retries(n int64) attribute.KeyValue {
	return attribute.Int64(AttrRetries, n)
}

// Dest returns an attribute for a destination index
func Dest(i int) attribute.KeyValue {
	return attribute.Int(AttrDest, i)
}

// DestName returns an attribute for a destination display name
func DestName(name string) attribute.KeyValue {
	return attribute.String(AttrDestName, name)
}

// DestKind returns an attribute for a destination descriptor kind
func DestKind(kind string) attribute.KeyValue {
	return attribute.String(AttrDestKind, kind)
}

// Window returns an attribute for a cache window index
func Window(i uint64) attribute.KeyValue {
	return attribute.Int64(AttrWindow, int64(i))
}

// WindowRange returns the offset and length attributes of a writeback range
func WindowRange(off, length int64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int64(AttrWindowOffset, off),
		attribute.Int64(AttrWindowLength, length),
	}
}

// StartRunSpan starts the root span of one transfer.
func StartRunSpan(ctx context.Context, runID, source, kind string, destinations int, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{
		RunID(runID),
		SourceName(source),
		SourceKind(kind),
		Destinations(destinations),
	}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, SpanRun, trace.WithAttributes(allAttrs...))
}

// StartFlushSpan starts a span for the final writeback of one destination.
func StartFlushSpan(ctx context.Context, dest int, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{Dest(dest)}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, SpanFlush, trace.WithAttributes(allAttrs...))
}
