// Package sse implements connection.Transport over the half-duplex
// fallback channel: inbound frames arrive as a server-sent-event stream,
// outbound frames are sent as batched HTTP POSTs.
package sse

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/relaydoc/relaydoc/pkg/connection"
)

// postEnvelope is the JSON body of one outbound POST: a batch of
// base64-encoded frames, matching spec.md §6's "client POSTs one or a
// batched array of frames".
type postEnvelope struct {
	Frames []string `json:"frames"`
}

// Transport opens one GET request for the SSE stream and issues
// independent POST requests for outbound frames. Outbound frames are
// addressed to the server's per-client POST endpoint, which is only
// known once the stream's first client-id event has arrived; replies to
// a POST are not carried in its response body, they arrive later as
// "message" events on the same stream.
type Transport struct {
	streamURL   string
	sendBaseURL string
	header      http.Header
	client      *http.Client

	mu       sync.Mutex
	cancel   context.CancelFunc
	clientID string
}

// New returns a connection.Factory. streamURL is the GET endpoint for
// the event stream; sendBaseURL is the POST endpoint's parent path, to
// which the server-assigned client id is appended (sendBaseURL +
// "/" + clientID) once Connect has learned it.
func New(streamURL, sendBaseURL string, header http.Header) connection.Factory {
	return func() connection.Transport {
		return &Transport{streamURL: streamURL, sendBaseURL: sendBaseURL, header: header, client: http.DefaultClient}
	}
}

// ClientID returns the id assigned by the server's first "client-id"
// event, once Connect has returned successfully.
func (t *Transport) ClientID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.clientID
}

// Connect opens the SSE stream and blocks until the server's first
// client-id event arrives (or ctx is done / the stream errors).
func (t *Transport) Connect(ctx context.Context) (<-chan connection.TransportEvent, error) {
	streamCtx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(streamCtx, http.MethodGet, t.streamURL, nil)
	if err != nil {
		cancel()
		return nil, err
	}
	for k, vs := range t.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := t.client.Do(req)
	if err != nil {
		cancel()
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("sse: unexpected status %d", resp.StatusCode)
	}

	ready := make(chan struct{})
	events := make(chan connection.TransportEvent, 16)
	go t.readLoop(resp.Body, events, ready)

	select {
	case <-ready:
		t.mu.Lock()
		t.cancel = cancel
		t.mu.Unlock()
		return events, nil
	case <-ctx.Done():
		cancel()
		resp.Body.Close()
		return nil, ctx.Err()
	}
}

// readLoop parses the text/event-stream wire format: one or more
// "field: value" lines per event, terminated by a blank line. It closes
// ready once the first client-id event has been consumed.
func (t *Transport) readLoop(body io.ReadCloser, events chan<- connection.TransportEvent, ready chan struct{}) {
	defer close(events)
	defer body.Close()

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var eventName string
	var data bytes.Buffer
	readyOnce := sync.Once{}
	closeReady := func() { readyOnce.Do(func() { close(ready) }) }

	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			t.dispatchEvent(eventName, data.String(), events, closeReady)
			eventName = ""
			data.Reset()
		case strings.HasPrefix(line, "event:"):
			eventName = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimSpace(strings.TrimPrefix(line, "data:")))
		case strings.HasPrefix(line, ":"):
			// comment / keepalive line, ignored.
		}
	}

	closeReady()
	if err := scanner.Err(); err != nil {
		events <- connection.TransportEvent{Kind: connection.EventError, Err: err}
		return
	}
	events <- connection.TransportEvent{Kind: connection.EventClosed}
}

func (t *Transport) dispatchEvent(name, data string, events chan<- connection.TransportEvent, closeReady func()) {
	switch name {
	case "client-id":
		t.mu.Lock()
		t.clientID = data
		t.mu.Unlock()
		closeReady()
	case "ping":
		// keepalive only; Core still records it via lastMessageReceived
		// by treating it as an inbound message with an empty payload.
		events <- connection.TransportEvent{Kind: connection.EventMessage, Payload: []byte{}}
	case "message", "":
		payload, err := base64.StdEncoding.DecodeString(data)
		if err != nil {
			return
		}
		events <- connection.TransportEvent{Kind: connection.EventMessage, Payload: payload}
	}
}

// Send POSTs payload as a single-frame batch. A nil payload (the
// heartbeat sentinel) is sent as an empty batch, which still touches the
// endpoint and keeps the fallback channel from being reaped server-side.
func (t *Transport) Send(ctx context.Context, payload []byte) error {
	clientID := t.ClientID()
	if clientID == "" {
		return fmt.Errorf("sse: send before client id assigned")
	}

	env := postEnvelope{}
	if payload != nil {
		env.Frames = []string{base64.StdEncoding.EncodeToString(payload)}
	}
	body, err := json.Marshal(env)
	if err != nil {
		return err
	}

	sendURL := t.sendBaseURL + "/" + clientID
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sendURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, vs := range t.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sse: post failed with status %d", resp.StatusCode)
	}
	return nil
}

// Close cancels the background SSE stream request.
func (t *Transport) Close() error {
	t.mu.Lock()
	cancel := t.cancel
	t.cancel = nil
	t.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	return nil
}
