// Package errs defines the sync-protocol error taxonomy shared by the
// codec, document store, and connection core.
package errs

import "fmt"

// Code categorizes a sync error for protocol-level and HTTP-level mapping.
type Code string

const (
	// CodeInvalidFrame: decode failed. Surface up, do not retry.
	CodeInvalidFrame Code = "invalid_frame"

	// CodeSnapshotMismatch: update references a non-active snapshot.
	CodeSnapshotMismatch Code = "snapshot_mismatch"

	// CodeSnapshotParentMismatch: child snapshot names the wrong parent.
	CodeSnapshotParentMismatch Code = "snapshot_parent_mismatch"

	// CodeCounterOutOfOrder: per-client counter skipped or repeated.
	CodeCounterOutOfOrder Code = "counter_out_of_order"

	// CodeDestroyed: operation on a destroyed object. Fatal to the object.
	CodeDestroyed Code = "destroyed"

	// CodeTransport: I/O failure from a transport.
	CodeTransport Code = "transport_error"

	// CodeTimeout: inactivity timeout or connection-attempt timeout.
	// Internally maps to CodeTransport for state-machine purposes.
	CodeTimeout Code = "timeout"

	// CodeNotConnected: send failed because the transport disappeared
	// between dispatch and write.
	CodeNotConnected Code = "not_connected"
)

// Error is the sync-protocol domain error, generalized from the teacher's
// StoreError{Code, Message, Path} shape to carry a document id instead of
// a filesystem path.
type Error struct {
	Code    Code
	Message string
	DocID   string
}

func (e *Error) Error() string {
	if e.DocID != "" {
		return fmt.Sprintf("%s: %s [doc=%s]", e.Code, e.Message, e.DocID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// New constructs an *Error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithDoc returns a copy of e annotated with the given document id.
func (e *Error) WithDoc(docID string) *Error {
	return &Error{Code: e.Code, Message: e.Message, DocID: docID}
}

// Is allows errors.Is(err, errs.ErrInvalidFrame) to match by code alone,
// ignoring message/DocID, so callers can compare against the sentinels
// below without caring about the specific instance's annotations.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Sentinels for errors.Is comparisons. Callers should annotate a copy via
// WithDoc rather than mutate these.
var (
	ErrInvalidFrame           = New(CodeInvalidFrame, "invalid frame")
	ErrSnapshotMismatch       = New(CodeSnapshotMismatch, "update references non-active snapshot")
	ErrSnapshotParentMismatch = New(CodeSnapshotParentMismatch, "snapshot names the wrong parent")
	ErrCounterOutOfOrder      = New(CodeCounterOutOfOrder, "client counter out of order")
	ErrDestroyed              = New(CodeDestroyed, "object has been destroyed")
	ErrTransport              = New(CodeTransport, "transport error")
	ErrTimeout                = New(CodeTimeout, "timeout")
	ErrNotConnected           = New(CodeNotConnected, "not connected")
)
