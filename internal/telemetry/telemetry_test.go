package telemetry

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/marmos91/ztee/internal/logger"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.False(t, cfg.Enabled)
	assert.Equal(t, "ztee", cfg.ServiceName)
	assert.Equal(t, "dev", cfg.ServiceVersion)
	assert.Equal(t, "localhost:4317", cfg.Endpoint)
	assert.True(t, cfg.Insecure)
	assert.Equal(t, 1.0, cfg.SampleRate)
}

func TestInitDisabled(t *testing.T) {
	ctx := context.Background()

	shutdown, err := Init(ctx, DefaultConfig())
	require.NoError(t, err)
	require.NotNil(t, shutdown)

	assert.NoError(t, shutdown(ctx))
	assert.False(t, IsEnabled())
}

func TestTracerReturnsNoOp(t *testing.T) {
	tracer = nil
	enabled = false

	require.NotNil(t, Tracer())
}

func TestNoOpHelpers(t *testing.T) {
	ctx := context.Background()

	newCtx, span := StartSpan(ctx, "test.operation")
	require.NotNil(t, newCtx)
	require.NotNil(t, span)
	span.End()

	require.NotPanics(t, func() {
		AddEvent(ctx, EventEOF)
		RecordError(ctx, nil)
		RecordError(ctx, errors.New("boom"))
		SetAttributes(ctx, Bytes(1))
	})

	assert.Empty(t, TraceID(ctx))
	assert.Empty(t, SpanID(ctx))
}

func TestRunSpanRecorded(t *testing.T) {
	exp := tracetest.NewInMemoryExporter()
	shutdown := InitWithExporter(exp)
	defer func() { require.NoError(t, shutdown(context.Background())) }()

	assert.True(t, IsEnabled())

	ctx, span := StartRunSpan(context.Background(), "run-1", "stdin", "pipe", 3, Relays(2))
	assert.Len(t, TraceID(ctx), 32)
	assert.Len(t, SpanID(ctx), 16)

	flushCtx, flush := StartFlushSpan(ctx, 0, WindowRange(8<<20, 12<<20)...)
	assert.Equal(t, TraceID(ctx), TraceID(flushCtx))
	flush.End()

	SetAttributes(ctx, Bytes(42), Chunks(2), Retries(1))
	RecordError(ctx, errors.New("drain failed"))
	span.End()

	spans := exp.GetSpans()
	require.Len(t, spans, 2)

	assert.Equal(t, SpanFlush, spans[0].Name)
	assert.Equal(t, SpanRun, spans[1].Name)
	assert.Equal(t, codes.Error, spans[1].Status.Code)
	assert.Equal(t, "drain failed", spans[1].Status.Description)

	attrs := make(map[string]any)
	for _, kv := range spans[1].Attributes {
		attrs[string(kv.Key)] = kv.Value.AsInterface()
	}
	assert.Equal(t, "run-1", attrs[AttrRunID])
	assert.Equal(t, "pipe", attrs[AttrSourceKind])
	assert.Equal(t, int64(3), attrs[AttrDestinations])
	assert.Equal(t, int64(2), attrs[AttrRelays])
	assert.Equal(t, int64(42), attrs[AttrBytes])
}

func TestAttributeHelpers(t *testing.T) {
	t.Run("RunID", func(t *testing.T) {
		attr := RunID("abc")
		assert.Equal(t, AttrRunID, string(attr.Key))
		assert.Equal(t, "abc", attr.Value.AsString())
	})

	t.Run("PassThrough", func(t *testing.T) {
		attr := PassThrough(true)
		assert.Equal(t, AttrPassThrough, string(attr.Key))
		assert.True(t, attr.Value.AsBool())
	})

	t.Run("Window", func(t *testing.T) {
		attr := Window(3)
		assert.Equal(t, AttrWindow, string(attr.Key))
		assert.Equal(t, int64(3), attr.Value.AsInt64())
	})

	t.Run("Dest", func(t *testing.T) {
		assert.Equal(t, AttrDest, string(Dest(1).Key))
		assert.Equal(t, "out.bin", DestName("out.bin").Value.AsString())
		assert.Equal(t, "file", DestKind("file").Value.AsString())
	})

	t.Run("WindowRange", func(t *testing.T) {
		attrs := WindowRange(8, 16)
		require.Len(t, attrs, 2)
		assert.Equal(t, AttrWindowOffset, string(attrs[0].Key))
		assert.Equal(t, int64(16), attrs[1].Value.AsInt64())
	})
}

func TestInitProfilingDisabled(t *testing.T) {
	shutdown, err := InitProfiling(DefaultProfilingConfig())
	require.NoError(t, err)
	assert.NoError(t, shutdown())
	assert.False(t, IsProfilingEnabled())
}

func TestParseProfileType(t *testing.T) {
	for _, name := range []string{"cpu", "alloc_objects", "inuse_space", "goroutines", "mutex_count", "block_duration"} {
		_, err := parseProfileType(name)
		assert.NoError(t, err, name)
	}

	pt, err := parseProfileType(" Alloc_Space ")
	require.NoError(t, err)
	assert.EqualValues(t, "alloc_space", pt)

	_, err = parseProfileType("heap")
	assert.ErrorIs(t, err, ErrUnknownProfileType)
}

func TestInitProfilingRejectsUnknownType(t *testing.T) {
	cfg := DefaultProfilingConfig()
	cfg.Enabled = true
	cfg.ProfileTypes = []string{"nope"}

	_, err := InitProfiling(cfg)
	assert.ErrorIs(t, err, ErrUnknownProfileType)
	assert.False(t, IsProfilingEnabled())
}

func TestProfilerLoggerUsesStderrLogger(t *testing.T) {
	var buf bytes.Buffer
	logger.InitWithWriter(&buf, "DEBUG", "text", false)
	t.Cleanup(func() { logger.InitWithWriter(os.Stderr, "INFO", "text", false) })

	l := profilerLogger{}
	l.Debugf("uploading %d profiles", 2)
	l.Errorf("upload failed: %s", "connection refused")

	out := buf.String()
	assert.Contains(t, out, "uploading 2 profiles")
	assert.Contains(t, out, "upload failed: connection refused")
	assert.Contains(t, out, "stage=profiling")
}
