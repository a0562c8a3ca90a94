package logger

import (
	"log/slog"
)

// Standard field keys for structured logging.
// Use these keys consistently so a run can be followed across the engine,
// the collaborators and the CLI.
const (
	// Run correlation
	KeyRunID   = "run_id"   // Unique id of one invocation
	KeyTraceID = "trace_id" // OpenTelemetry trace ID
	KeySpanID  = "span_id"  // OpenTelemetry span ID
	KeyStage   = "stage"    // Engine stage: topology, fill, duplicate, drain, window

	// Endpoints
	KeyDest   = "dest"   // Destination index (0 is the primary output)
	KeyName   = "name"   // Human-readable endpoint name (stdin, stdout, file path)
	KeyFd     = "fd"     // File descriptor number
	KeyKind   = "kind"   // Descriptor kind: pipe, file, tty, socket, ...
	KeyRelays = "relays" // Number of relays owned by the engine

	// Data movement
	KeyBytes     = "bytes"     // Bytes moved by a single call
	KeyChunk     = "chunk"     // Negotiated chunk size
	KeyPending   = "pending"   // Bytes buffered in the origin conduit
	KeyTotal     = "total"     // Running total of bytes delivered
	KeyRetries   = "retries"   // Not-ready retries
	KeyWindow    = "window"    // Window index
	KeyOffset    = "offset"    // File offset of a writeback range
	KeyLength    = "length"    // Length of a writeback range
	KeyCapacity  = "capacity"  // Relay capacity in bytes
	KeyOperation = "operation" // Kernel primitive: tee, splice, sync_file_range, fadvise

	// Outcome
	KeyDurationMs = "duration_ms" // Duration in milliseconds
	KeyError      = "error"       // Error message
)

// RunID returns a slog.Attr for the run id
func RunID(id string) slog.Attr {
	return slog.String(KeyRunID, id)
}

// Dest returns a slog.Attr for a destination index
func Dest(i int) slog.Attr {
	return slog.Int(KeyDest, i)
}

// Fd returns a slog.Attr for a file descriptor
func Fd(fd int) slog.Attr {
	return slog.Int(KeyFd, fd)
}

// Kind returns a slog.Attr for a descriptor kind
func Kind(k string) slog.Attr {
	return slog.String(KeyKind, k)
}

// Bytes returns a slog.Attr for a byte count
func Bytes(n int64) slog.Attr {
	return slog.Int64(KeyBytes, n)
}

// Chunk returns a slog.Attr for a negotiated chunk size
func Chunk(n int64) slog.Attr {
	return slog.Int64(KeyChunk, n)
}

// Window returns a slog.Attr for a window index
func Window(i uint64) slog.Attr {
	return slog.Uint64(KeyWindow, i)
}

// Offset returns a slog.Attr for a file offset
func Offset(off int64) slog.Attr {
	return slog.Int64(KeyOffset, off)
}

// Length returns a slog.Attr for a range length
func Length(n int64) slog.Attr {
	return slog.Int64(KeyLength, n)
}

// DurationMs returns a slog.Attr for duration in milliseconds
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error.
// Returns an empty attr for nil errors; the text handler drops it.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}
