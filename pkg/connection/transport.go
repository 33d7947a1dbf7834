package connection

import "context"

// EventKind discriminates the asynchronous events a Transport reports
// after a successful Connect.
type EventKind int

const (
	// EventMessage carries one inbound opaque frame.
	EventMessage EventKind = iota
	// EventClosed reports the transport closed without an error (e.g. a
	// graceful server-initiated close).
	EventClosed
	// EventError reports the transport failed; Core treats this the same
	// as EventClosed but records the error as the last transport error.
	EventError
)

// TransportEvent is one item from a Transport's event stream.
type TransportEvent struct {
	Kind    EventKind
	Payload []byte
	Err     error
}

// Transport is the extension point Connection Core drives. Implementations
// (pkg/transport/ws, pkg/transport/sse, pkg/transport/durable) provide one
// concrete duplex or half-duplex channel to the server.
//
// Connect must block until the transport is usable or has definitively
// failed; Core applies its own websocketTimeout via the context it passes.
// Once Connect returns successfully, Core reads Events until it reports
// EventClosed, EventError, or the channel closes.
type Transport interface {
	// Connect establishes the transport. The returned channel delivers
	// inbound events until the transport is closed; Connect itself must
	// not send on it before returning.
	Connect(ctx context.Context) (<-chan TransportEvent, error)

	// Send writes one opaque frame. Safe to call only after Connect has
	// returned successfully and before Close.
	Send(ctx context.Context, payload []byte) error

	// Close releases the transport's resources. Idempotent.
	Close() error
}

// Factory constructs a fresh Transport instance for one connection
// attempt. Core calls this once per attempt rather than reusing a
// Transport across reconnects.
type Factory func() Transport
