package logger

import (
	"log/slog"
)

// Standard field keys for structured logging. Use these keys
// consistently across log statements so aggregation and querying work
// across transports (websocket, SSE, durable) and components (connection
// core, document store, control plane).
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id" // OpenTelemetry trace ID for request correlation
	KeySpanID  = "span_id"  // OpenTelemetry span ID for operation tracking

	// ========================================================================
	// Document Sync
	// ========================================================================
	KeyDocID          = "doc_id"           // document identifier
	KeyClientID       = "client_id"        // connected client id
	KeySnapshotID     = "snapshot_id"      // snapshot identifier
	KeyServerVersion  = "server_version"   // document server-version counter
	KeyCounter        = "counter"          // per-client update counter
	KeyOperation      = "operation"        // sync-step-1, update, sync-step-2, sync-done
	KeyTransport      = "transport"        // websocket, sse, durable
	KeyConnectionState = "connection_state" // connection.State string

	// ========================================================================
	// Client Identification
	// ========================================================================
	KeyClientIP   = "client_ip"   // client IP address
	KeyClientPort = "client_port" // client source port

	// ========================================================================
	// Session & Connection
	// ========================================================================
	KeyConnectionID = "connection_id" // connection core instance identifier
	KeyRequestID    = "request_id"    // HTTP request id (chi RequestID)
	KeyAttempt      = "attempt"       // reconnect/retry attempt number
	KeyMaxRetries   = "max_retries"   // maximum retry attempts

	// ========================================================================
	// Operation Metadata
	// ========================================================================
	KeyDurationMs = "duration_ms" // operation duration in milliseconds
	KeyError      = "error"       // error message
	KeyErrorCode  = "error_code"  // errs.Code string
	KeyBytesIn    = "bytes_in"    // bytes read from a frame/transport
	KeyBytesOut   = "bytes_out"   // bytes written to a frame/transport

	// ========================================================================
	// Storage Backend
	// ========================================================================
	KeyStoreName = "store_name" // named store identifier from registry
	KeyStoreType = "store_type" // store type: memory, postgres, s3, etc.
	KeyBucket    = "bucket"     // cloud bucket name (S3, GCS)
	KeyRegion    = "region"     // cloud region

	// ========================================================================
	// Cache Layer
	// ========================================================================
	KeyCacheHit  = "cache_hit"  // cache hit indicator
	KeyCacheSize = "cache_size" // current cache size
)

// ----------------------------------------------------------------------------
// Distributed Tracing
// ----------------------------------------------------------------------------

// TraceID returns a slog.Attr for OpenTelemetry trace ID
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// SpanID returns a slog.Attr for OpenTelemetry span ID
func SpanID(id string) slog.Attr {
	return slog.String(KeySpanID, id)
}

// ----------------------------------------------------------------------------
// Document Sync
// ----------------------------------------------------------------------------

// DocID returns a slog.Attr for the document identifier
func DocID(id string) slog.Attr {
	return slog.String(KeyDocID, id)
}

// ClientID returns a slog.Attr for the connected client id
func ClientID(id string) slog.Attr {
	return slog.String(KeyClientID, id)
}

// SnapshotID returns a slog.Attr for a snapshot identifier
func SnapshotID(id string) slog.Attr {
	return slog.String(KeySnapshotID, id)
}

// ServerVersion returns a slog.Attr for the document's server-version counter
func ServerVersion(v uint64) slog.Attr {
	return slog.Uint64(KeyServerVersion, v)
}

// Counter returns a slog.Attr for a per-client update counter
func Counter(c uint64) slog.Attr {
	return slog.Uint64(KeyCounter, c)
}

// Operation returns a slog.Attr for the document-sync operation name
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// Transport returns a slog.Attr for the active transport name
func Transport(name string) slog.Attr {
	return slog.String(KeyTransport, name)
}

// ConnectionState returns a slog.Attr for a connection.State value
func ConnectionState(state string) slog.Attr {
	return slog.String(KeyConnectionState, state)
}

// ----------------------------------------------------------------------------
// Client Identification
// ----------------------------------------------------------------------------

// ClientIP returns a slog.Attr for client IP address
func ClientIP(addr string) slog.Attr {
	return slog.String(KeyClientIP, addr)
}

// ClientPort returns a slog.Attr for client source port
func ClientPort(port int) slog.Attr {
	return slog.Int(KeyClientPort, port)
}

// ----------------------------------------------------------------------------
// Session & Connection
// ----------------------------------------------------------------------------

// ConnectionID returns a slog.Attr for connection core instance identifier
func ConnectionID(id string) slog.Attr {
	return slog.String(KeyConnectionID, id)
}

// RequestID returns a slog.Attr for the HTTP request id
func RequestID(id string) slog.Attr {
	return slog.String(KeyRequestID, id)
}

// Attempt returns a slog.Attr for retry/reconnect attempt number
func Attempt(n int) slog.Attr {
	return slog.Int(KeyAttempt, n)
}

// MaxRetries returns a slog.Attr for maximum retry attempts
func MaxRetries(n int) slog.Attr {
	return slog.Int(KeyMaxRetries, n)
}

// ----------------------------------------------------------------------------
// Operation Metadata
// ----------------------------------------------------------------------------

// DurationMs returns a slog.Attr for duration in milliseconds
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// ErrorCode returns a slog.Attr for the errs.Code string
func ErrorCode(code string) slog.Attr {
	return slog.String(KeyErrorCode, code)
}

// BytesIn returns a slog.Attr for bytes read from a frame/transport
func BytesIn(n int) slog.Attr {
	return slog.Int(KeyBytesIn, n)
}

// BytesOut returns a slog.Attr for bytes written to a frame/transport
func BytesOut(n int) slog.Attr {
	return slog.Int(KeyBytesOut, n)
}

// ----------------------------------------------------------------------------
// Storage Backend
// ----------------------------------------------------------------------------

// StoreName returns a slog.Attr for named store identifier
func StoreName(name string) slog.Attr {
	return slog.String(KeyStoreName, name)
}

// StoreType returns a slog.Attr for store type
func StoreType(t string) slog.Attr {
	return slog.String(KeyStoreType, t)
}

// Bucket returns a slog.Attr for cloud bucket name
func Bucket(name string) slog.Attr {
	return slog.String(KeyBucket, name)
}

// Region returns a slog.Attr for cloud region
func Region(r string) slog.Attr {
	return slog.String(KeyRegion, r)
}

// ----------------------------------------------------------------------------
// Cache Layer
// ----------------------------------------------------------------------------

// CacheHit returns a slog.Attr for cache hit indicator
func CacheHit(hit bool) slog.Attr {
	return slog.Bool(KeyCacheHit, hit)
}

// CacheSize returns a slog.Attr for current cache size
func CacheSize(size int64) slog.Attr {
	return slog.Int64(KeyCacheSize, size)
}
