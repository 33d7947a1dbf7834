package durable_test

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/relaydoc/relaydoc/pkg/connection"
	"github.com/relaydoc/relaydoc/pkg/transport/durable"
)

// server replies 204 on the first poll, then a single frame on the
// second, then 204 forever; the frame from the second poll must reach the
// events channel.
func TestPollLoopDeliversFrameThenIdles(t *testing.T) {
	var polls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		n := atomic.AddInt64(&polls, 1)
		w.Header().Set("Stream-Next-Offset", "1")
		w.Header().Set("Stream-Cursor", "c1")
		if n == 2 {
			body, _ := json.Marshal(struct {
				Frames []string `json:"frames"`
			}{Frames: []string{base64.StdEncoding.EncodeToString([]byte("hello"))}})
			w.Header().Set("Content-Type", "application/json")
			w.Write(body)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	factory := durable.New(srv.URL, "docs", "client-1", nil)
	transport := factory()
	events, err := transport.Connect(t.Context())
	require.NoError(t, err)
	defer transport.Close()

	select {
	case evt := <-events:
		require.Equal(t, connection.EventMessage, evt.Kind)
		require.Equal(t, []byte("hello"), evt.Payload)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for polled frame")
	}
}

func TestSendWritesToInEndpoint(t *testing.T) {
	var gotPath string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			gotPath = r.URL.Path
			gotBody, _ = io.ReadAll(r.Body)
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	factory := durable.New(srv.URL, "docs", "client-1", nil)
	transport := factory()
	_, err := transport.Connect(t.Context())
	require.NoError(t, err)
	defer transport.Close()

	require.NoError(t, transport.Send(t.Context(), []byte("payload")))
	require.Eventually(t, func() bool { return gotPath != "" }, time.Second, time.Millisecond)
	require.Contains(t, gotPath, "/docs/client-1/in")
	require.Contains(t, string(gotBody), base64.StdEncoding.EncodeToString([]byte("payload")))
}
