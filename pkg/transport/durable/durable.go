// Package durable implements the optional durable stream transport:
// long-polling over two append-only remote streams per client
// ("in/<prefix>/<clientId>" for outbound writes, "out/<prefix>/<clientId>"
// for inbound reads). Unlike ws and sse it is not part of the automatic
// fallback chain; callers select it explicitly via connection.New.
package durable

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/relaydoc/relaydoc/pkg/connection"
)

const (
	headerNextOffset = "Stream-Next-Offset"
	headerCursor     = "Stream-Cursor"
)

// frameBatch is the JSON body exchanged with the in/out endpoints: a
// batch of base64-encoded frames, in append order.
type frameBatch struct {
	Frames []string `json:"frames"`
}

// Transport polls the out stream for new frames and POSTs to the in
// stream to write.
type Transport struct {
	inURL  string
	outURL string
	header http.Header
	client *http.Client

	offset int64
	cursor atomic.Value // string

	mu     sync.Mutex
	cancel context.CancelFunc
}

// New returns a connection.Factory for the durable stream transport.
// baseURL is the control-plane origin (e.g. "https://relay.example.com");
// prefix and clientID identify the pair of remote streams.
func New(baseURL, prefix, clientID string, header http.Header) connection.Factory {
	in := fmt.Sprintf("%s/api/v1/stream/%s/%s/in", baseURL, prefix, clientID)
	out := fmt.Sprintf("%s/api/v1/stream/%s/%s/out", baseURL, prefix, clientID)
	return func() connection.Transport {
		t := &Transport{inURL: in, outURL: out, header: header, client: http.DefaultClient}
		t.cursor.Store("")
		return t
	}
}

// Connect starts the background long-poll loop against the out stream.
// It does not block on the first poll: the returned channel delivers
// events as they arrive.
func (t *Transport) Connect(ctx context.Context) (<-chan connection.TransportEvent, error) {
	pollCtx, cancel := context.WithCancel(context.Background())
	t.mu.Lock()
	t.cancel = cancel
	t.mu.Unlock()

	events := make(chan connection.TransportEvent, 16)
	go t.pollLoop(pollCtx, events)
	return events, nil
}

func (t *Transport) pollLoop(ctx context.Context, events chan<- connection.TransportEvent) {
	defer close(events)
	for {
		if ctx.Err() != nil {
			return
		}
		frames, err := t.pollOnce(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			events <- connection.TransportEvent{Kind: connection.EventError, Err: err}
			return
		}
		for _, f := range frames {
			events <- connection.TransportEvent{Kind: connection.EventMessage, Payload: f}
		}
	}
}

// pollOnce issues one long-poll GET against the out stream. A 204
// response means no new data; the offset/cursor are still advanced from
// the response headers so the next poll resumes correctly.
func (t *Transport) pollOnce(ctx context.Context) ([][]byte, error) {
	q := url.Values{}
	q.Set("offset", strconv.FormatInt(atomic.LoadInt64(&t.offset), 10))
	if c, _ := t.cursor.Load().(string); c != "" {
		q.Set("cursor", c)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.outURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	t.applyHeader(req)

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	t.advanceCursorFromHeaders(resp.Header)

	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("durable: poll failed with status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var batch frameBatch
	if err := json.Unmarshal(body, &batch); err != nil {
		return nil, err
	}

	out := make([][]byte, 0, len(batch.Frames))
	for _, enc := range batch.Frames {
		payload, err := base64.StdEncoding.DecodeString(enc)
		if err != nil {
			continue
		}
		out = append(out, payload)
	}
	return out, nil
}

func (t *Transport) advanceCursorFromHeaders(h http.Header) {
	if next := h.Get(headerNextOffset); next != "" {
		if n, err := strconv.ParseInt(next, 10, 64); err == nil {
			atomic.StoreInt64(&t.offset, n)
		}
	}
	if cursor := h.Get(headerCursor); cursor != "" {
		t.cursor.Store(cursor)
	}
}

func (t *Transport) applyHeader(req *http.Request) {
	for k, vs := range t.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
}

// Send appends payload to the in stream as a single-frame batch.
func (t *Transport) Send(ctx context.Context, payload []byte) error {
	batch := frameBatch{}
	if payload != nil {
		batch.Frames = []string{base64.StdEncoding.EncodeToString(payload)}
	}
	body, err := json.Marshal(batch)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.inURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	t.applyHeader(req)

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("durable: write failed with status %d", resp.StatusCode)
	}
	return nil
}

// Close stops the background poll loop.
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
