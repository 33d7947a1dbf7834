// Package ws implements connection.Transport over a websocket, the
// preferred full-duplex transport in the ws→sse fallback chain.
package ws

import (
	"context"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/relaydoc/relaydoc/pkg/connection"
)

// Transport dials one websocket connection and pumps inbound frames into
// a connection.TransportEvent channel. Every frame, inbound or outbound,
// is carried as a single binary message.
type Transport struct {
	url    string
	header http.Header

	mu   sync.Mutex
	conn *websocket.Conn
}

// New returns a connection.Factory that dials url on each connection
// attempt. header is sent with the upgrade request (e.g. an Authorization
// bearer token).
func New(url string, header http.Header) connection.Factory {
	return func() connection.Transport {
		return &Transport{url: url, header: header}
	}
}

// Connect dials the websocket and starts a background read pump.
func (t *Transport) Connect(ctx context.Context) (<-chan connection.TransportEvent, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, t.url, t.header)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	t.conn = conn
	t.mu.Unlock()

	events := make(chan connection.TransportEvent, 16)
	go t.readPump(conn, events)
	return events, nil
}

func (t *Transport) readPump(conn *websocket.Conn, events chan<- connection.TransportEvent) {
	defer close(events)
	for {
		kind, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				events <- connection.TransportEvent{Kind: connection.EventClosed}
			} else {
				events <- connection.TransportEvent{Kind: connection.EventError, Err: err}
			}
			return
		}
		if kind != websocket.BinaryMessage {
			continue
		}
		events <- connection.TransportEvent{Kind: connection.EventMessage, Payload: payload}
	}
}

// Send writes one binary frame. A nil payload is sent as a websocket
// ping control frame, used by Connection Core's heartbeat.
func (t *Transport) Send(ctx context.Context, payload []byte) error {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return websocket.ErrCloseSent
	}
	if payload == nil {
		return conn.WriteMessage(websocket.PingMessage, nil)
	}
	return conn.WriteMessage(websocket.BinaryMessage, payload)
}

// Close closes the underlying websocket connection.
func (t *Transport) Close() error {
	t.mu.Lock()
	conn := t.conn
	t.conn = nil
	t.mu.Unlock()
	if conn == nil {
		return nil
	}
	return conn.Close()
}
