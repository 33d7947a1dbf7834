package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Common attribute keys for document-sync operations, following
// OpenTelemetry semantic conventions where applicable.
const (
	// ========================================================================
	// Client attributes
	// ========================================================================
	AttrClientIP   = "client.ip"
	AttrClientAddr = "client.address"
	AttrClientID   = "sync.client_id"

	// ========================================================================
	// Document-sync attributes
	// ========================================================================
	AttrDocID          = "sync.doc_id"          // document identifier
	AttrOperation      = "sync.operation"       // sync-step-1, update, sync-step-2, sync-done
	AttrTransport      = "sync.transport"       // websocket, sse, durable
	AttrSnapshotID     = "sync.snapshot_id"     // snapshot identifier
	AttrServerVersion  = "sync.server_version"  // document server-version counter
	AttrCounter        = "sync.counter"         // per-client update counter
	AttrConnectionState = "sync.connection_state" // connection.State string
	AttrFrameBytes     = "sync.frame_bytes"     // encoded frame size
	AttrErrorCode      = "sync.error_code"      // errs.Code string

	// ========================================================================
	// Connection core attributes
	// ========================================================================
	AttrConnectionID = "connection.id"
	AttrAttempt      = "connection.attempt"

	// ========================================================================
	// Storage backend attributes
	// ========================================================================
	AttrStoreName = "store.name"
	AttrStoreType = "store.type"
	AttrBucket    = "storage.bucket"
	AttrKey       = "storage.key"
	AttrRegion    = "storage.region"

	// ========================================================================
	// Cache attributes
	// ========================================================================
	AttrCacheHit = "cache.hit"
)

// Span names for document-sync operations.
const (
	SpanSyncStep1  = "sync.sync-step-1"
	SpanUpdate     = "sync.update"
	SpanSyncStep2  = "sync.sync-step-2"
	SpanWSConnect  = "transport.ws.connect"
	SpanSSEConnect = "transport.sse.connect"
	SpanSSESend    = "transport.sse.send"
	SpanStreamOut  = "transport.stream.out"
	SpanStreamIn   = "transport.stream.in"

	SpanBlobPut = "blobstore.put"
	SpanBlobGet = "blobstore.get"

	SpanBackendLoad = "docstore.backend.load"
	SpanBackendSave = "docstore.backend.save"
)

// ClientIP returns an attribute for client IP address.
func ClientIP(ip string) attribute.KeyValue {
	return attribute.String(AttrClientIP, ip)
}

// ClientAddr returns an attribute for the full client address.
func ClientAddr(addr string) attribute.KeyValue {
	return attribute.String(AttrClientAddr, addr)
}

// ClientID returns an attribute for the connected client id.
func ClientID(id string) attribute.KeyValue {
	return attribute.String(AttrClientID, id)
}

// DocID returns an attribute for the document identifier.
func DocID(id string) attribute.KeyValue {
	return attribute.String(AttrDocID, id)
}

// Operation returns an attribute for the document-sync operation name.
func Operation(op string) attribute.KeyValue {
	return attribute.String(AttrOperation, op)
}

// Transport returns an attribute for the active transport name.
func Transport(name string) attribute.KeyValue {
	return attribute.String(AttrTransport, name)
}

// SnapshotID returns an attribute for a snapshot identifier.
func SnapshotID(id string) attribute.KeyValue {
	return attribute.String(AttrSnapshotID, id)
}

// ServerVersion returns an attribute for the document server-version counter.
func ServerVersion(v uint64) attribute.KeyValue {
	return attribute.Int64(AttrServerVersion, int64(v))
}

// Counter returns an attribute for a per-client update counter.
func Counter(c uint64) attribute.KeyValue {
	return attribute.Int64(AttrCounter, int64(c))
}

// ConnectionState returns an attribute for a connection.State value.
func ConnectionState(state string) attribute.KeyValue {
	return attribute.String(AttrConnectionState, state)
}

// FrameBytes returns an attribute for an encoded frame's size.
func FrameBytes(n int) attribute.KeyValue {
	return attribute.Int(AttrFrameBytes, n)
}

// ErrorCode returns an attribute for the errs.Code string.
func ErrorCode(code string) attribute.KeyValue {
	return attribute.String(AttrErrorCode, code)
}

// ConnectionID returns an attribute for the connection core instance identifier.
func ConnectionID(id string) attribute.KeyValue {
	return attribute.String(AttrConnectionID, id)
}

// Attempt returns an attribute for reconnect/retry attempt number.
func Attempt(n int) attribute.KeyValue {
	return attribute.Int(AttrAttempt, n)
}

// StoreName returns an attribute for named store identifier.
func StoreName(name string) attribute.KeyValue {
	return attribute.String(AttrStoreName, name)
}

// StoreType returns an attribute for store type.
func StoreType(t string) attribute.KeyValue {
	return attribute.String(AttrStoreType, t)
}

// Bucket returns an attribute for S3 bucket name.
func Bucket(name string) attribute.KeyValue {
	return attribute.String(AttrBucket, name)
}

// StorageKey returns an attribute for an S3 object key.
func StorageKey(key string) attribute.KeyValue {
	return attribute.String(AttrKey, key)
}

// Region returns an attribute for cloud region.
func Region(region string) attribute.KeyValue {
	return attribute.String(AttrRegion, region)
}

// CacheHit returns an attribute for cache hit indicator.
func CacheHit(hit bool) attribute.KeyValue {
	return attribute.Bool(AttrCacheHit, hit)
}

// StartDocSpan starts a span for a document-sync operation, tagging it
// with the document id and operation name.
func StartDocSpan(ctx context.Context, spanName, docID, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{DocID(docID), Operation(operation)}
	allAttrs = append(allAttrs, attrs...)
	return StartSpan(ctx, spanName, trace.WithAttributes(allAttrs...))
}

// StartBlobSpan starts a span for a blob store operation.
func StartBlobSpan(ctx context.Context, spanName, blobID string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := append([]attribute.KeyValue{attribute.String("blob.id", blobID)}, attrs...)
	return StartSpan(ctx, spanName, trace.WithAttributes(allAttrs...))
}
