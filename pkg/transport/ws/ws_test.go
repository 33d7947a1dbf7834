package ws_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/relaydoc/relaydoc/pkg/connection"
	"github.com/relaydoc/relaydoc/pkg/transport/ws"
)

func echoServer(t *testing.T) *httptest.Server {
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()
		for {
			kind, payload, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if err := conn.WriteMessage(kind, payload); err != nil {
				return
			}
		}
	}))
}

func TestConnectSendReceiveRoundTrip(t *testing.T) {
	srv := echoServer(t)
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	factory := ws.New(url, nil)
	transport := factory()
	events, err := transport.Connect(t.Context())
	require.NoError(t, err)
	defer transport.Close()

	require.NoError(t, transport.Send(t.Context(), []byte("hello")))

	select {
	case evt := <-events:
		require.Equal(t, connection.EventMessage, evt.Kind)
		require.Equal(t, []byte("hello"), evt.Payload)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for echo")
	}
}

func TestCloseReportedAsEventClosedOrError(t *testing.T) {
	srv := echoServer(t)
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	factory := ws.New(url, nil)
	transport := factory()
	events, err := transport.Connect(t.Context())
	require.NoError(t, err)

	srv.Close()

	select {
	case evt := <-events:
		require.Contains(t, []connection.EventKind{connection.EventClosed, connection.EventError}, evt.Kind)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for close event")
	}
}
