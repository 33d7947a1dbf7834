package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.False(t, cfg.Enabled)
	assert.Equal(t, "relaydoc", cfg.ServiceName)
	assert.Equal(t, "dev", cfg.ServiceVersion)
	assert.Equal(t, "localhost:4317", cfg.Endpoint)
	assert.True(t, cfg.Insecure)
	assert.Equal(t, 1.0, cfg.SampleRate)
}

func TestInitDisabled(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultConfig()
	cfg.Enabled = false

	shutdown, err := Init(ctx, cfg)
	require.NoError(t, err)
	require.NotNil(t, shutdown)

	err = shutdown(ctx)
	assert.NoError(t, err)
	assert.False(t, IsEnabled())
}

func TestTracerReturnsNoOp(t *testing.T) {
	tracer = nil
	enabled = false

	tr := Tracer()
	require.NotNil(t, tr)
}

func TestStartSpan(t *testing.T) {
	ctx := context.Background()

	newCtx, span := StartSpan(ctx, "test.operation")
	require.NotNil(t, newCtx)
	require.NotNil(t, span)
	span.End()
}

func TestSpanFromContext(t *testing.T) {
	ctx := context.Background()

	span := SpanFromContext(ctx)
	require.NotNil(t, span)
}

func TestAddEvent(t *testing.T) {
	ctx := context.Background()

	require.NotPanics(t, func() {
		AddEvent(ctx, "test.event")
	})
}

func TestRecordError(t *testing.T) {
	ctx := context.Background()

	require.NotPanics(t, func() {
		RecordError(ctx, nil)
	})
	require.NotPanics(t, func() {
		RecordError(ctx, errors.New("test error"))
	})
}

func TestSetStatus(t *testing.T) {
	ctx := context.Background()

	require.NotPanics(t, func() {
		SetStatus(ctx, codes.Ok, "success")
	})
	require.NotPanics(t, func() {
		SetStatus(ctx, codes.Error, "failed")
	})
}

func TestSetAttributes(t *testing.T) {
	ctx := context.Background()

	require.NotPanics(t, func() {
		SetAttributes(ctx, ClientIP("192.168.1.1"))
	})
}

func TestTraceID(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "", TraceID(ctx))
}

func TestSpanID(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "", SpanID(ctx))
}

func TestAttributeHelpers(t *testing.T) {
	t.Run("ClientIP", func(t *testing.T) {
		attr := ClientIP("192.168.1.100")
		assert.Equal(t, AttrClientIP, string(attr.Key))
		assert.Equal(t, "192.168.1.100", attr.Value.AsString())
	})

	t.Run("ClientID", func(t *testing.T) {
		attr := ClientID("client-42")
		assert.Equal(t, AttrClientID, string(attr.Key))
		assert.Equal(t, "client-42", attr.Value.AsString())
	})

	t.Run("DocID", func(t *testing.T) {
		attr := DocID("doc-1")
		assert.Equal(t, AttrDocID, string(attr.Key))
		assert.Equal(t, "doc-1", attr.Value.AsString())
	})

	t.Run("Operation", func(t *testing.T) {
		attr := Operation("sync-step-1")
		assert.Equal(t, AttrOperation, string(attr.Key))
		assert.Equal(t, "sync-step-1", attr.Value.AsString())
	})

	t.Run("Transport", func(t *testing.T) {
		attr := Transport("websocket")
		assert.Equal(t, AttrTransport, string(attr.Key))
		assert.Equal(t, "websocket", attr.Value.AsString())
	})

	t.Run("SnapshotID", func(t *testing.T) {
		attr := SnapshotID("snap-1")
		assert.Equal(t, AttrSnapshotID, string(attr.Key))
		assert.Equal(t, "snap-1", attr.Value.AsString())
	})

	t.Run("ServerVersion", func(t *testing.T) {
		attr := ServerVersion(7)
		assert.Equal(t, AttrServerVersion, string(attr.Key))
		assert.Equal(t, int64(7), attr.Value.AsInt64())
	})

	t.Run("Counter", func(t *testing.T) {
		attr := Counter(3)
		assert.Equal(t, AttrCounter, string(attr.Key))
		assert.Equal(t, int64(3), attr.Value.AsInt64())
	})

	t.Run("ConnectionState", func(t *testing.T) {
		attr := ConnectionState("connected")
		assert.Equal(t, AttrConnectionState, string(attr.Key))
		assert.Equal(t, "connected", attr.Value.AsString())
	})

	t.Run("ErrorCode", func(t *testing.T) {
		attr := ErrorCode("snapshot_mismatch")
		assert.Equal(t, AttrErrorCode, string(attr.Key))
		assert.Equal(t, "snapshot_mismatch", attr.Value.AsString())
	})

	t.Run("CacheHit", func(t *testing.T) {
		attr := CacheHit(true)
		assert.Equal(t, AttrCacheHit, string(attr.Key))
		assert.True(t, attr.Value.AsBool())
	})

	t.Run("Bucket", func(t *testing.T) {
		attr := Bucket("my-bucket")
		assert.Equal(t, AttrBucket, string(attr.Key))
		assert.Equal(t, "my-bucket", attr.Value.AsString())
	})

	t.Run("StorageKey", func(t *testing.T) {
		attr := StorageKey("path/to/object")
		assert.Equal(t, AttrKey, string(attr.Key))
		assert.Equal(t, "path/to/object", attr.Value.AsString())
	})
}

func TestStartDocSpan(t *testing.T) {
	ctx := context.Background()

	newCtx, span := StartDocSpan(ctx, SpanSyncStep1, "doc-1", "sync-step-1")
	require.NotNil(t, newCtx)
	require.NotNil(t, span)
	span.End()

	newCtx2, span2 := StartDocSpan(ctx, SpanUpdate, "doc-2", "update", Counter(5))
	require.NotNil(t, newCtx2)
	require.NotNil(t, span2)
	span2.End()
}

func TestStartBlobSpan(t *testing.T) {
	ctx := context.Background()

	newCtx, span := StartBlobSpan(ctx, SpanBlobGet, "blob-abc")
	require.NotNil(t, newCtx)
	require.NotNil(t, span)
	span.End()
}
