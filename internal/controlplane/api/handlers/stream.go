package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/relaydoc/relaydoc/pkg/docstore"
)

const (
	headerNextOffset = "Stream-Next-Offset"
	headerCursor     = "Stream-Cursor"
	longPollTimeout  = 25 * time.Second
)

// frameBatch mirrors pkg/transport/durable's wire shape.
type frameBatch struct {
	Frames []string `json:"frames"`
}

// durableStream is one client's append-only out log. Frames are never
// removed: a client resumes wherever its last offset left off, even
// across reconnects, which is the point of the durable transport.
type durableStream struct {
	mu      sync.Mutex
	frames  [][]byte
	waiters []chan struct{}
}

func newDurableStream() *durableStream {
	return &durableStream{}
}

func (s *durableStream) append(frame []byte) {
	s.mu.Lock()
	s.frames = append(s.frames, frame)
	waiters := s.waiters
	s.waiters = nil
	s.mu.Unlock()
	for _, w := range waiters {
		close(w)
	}
}

func (s *durableStream) since(offset int) ([][]byte, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if offset < 0 || offset >= len(s.frames) {
		return nil, len(s.frames)
	}
	out := make([][]byte, len(s.frames)-offset)
	copy(out, s.frames[offset:])
	return out, len(s.frames)
}

func (s *durableStream) wait(ctx context.Context) {
	s.mu.Lock()
	ch := make(chan struct{})
	s.waiters = append(s.waiters, ch)
	s.mu.Unlock()
	select {
	case <-ch:
	case <-ctx.Done():
	}
}

type durableClient struct {
	stream *durableStream
	sub    chan []byte
}

// StreamHandler implements the durable long-poll transport: a client's
// out stream is a durableStream fed both by its own accepted replies and
// by the shared hub (so it sees updates from websocket/SSE peers), and
// its in stream is a plain POST that dispatches frames against the
// document store.
type StreamHandler struct {
	store *docstore.DocumentStore
	hub   *Hub

	mu      sync.Mutex
	clients map[string]*durableClient // docID + "/" + clientID -> client
}

func NewStreamHandler(store *docstore.DocumentStore, hub *Hub) *StreamHandler {
	return &StreamHandler{store: store, hub: hub, clients: make(map[string]*durableClient)}
}

func (h *StreamHandler) client(docID, clientID string) *durableClient {
	key := docID + "/" + clientID

	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[key]; ok {
		return c
	}

	stream := newDurableStream()
	sub, _ := h.hub.Subscribe(docID)
	c := &durableClient{stream: stream, sub: sub}
	h.clients[key] = c

	go func() {
		for payload := range sub {
			stream.append(payload)
		}
	}()

	return c
}

// Out handles GET /api/v1/stream/{prefix}/{clientID}/out: a long poll
// for frames appended since offset. A 204 means no new data; offset and
// cursor still advance via response headers so the caller's next poll
// resumes correctly.
func (h *StreamHandler) Out(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "prefix")
	clientID := chi.URLParam(r, "clientID")
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	c := h.client(docID, clientID)

	frames, next := c.stream.since(offset)
	if len(frames) == 0 {
		ctx, cancel := context.WithTimeout(r.Context(), longPollTimeout)
		defer cancel()
		c.stream.wait(ctx)
		frames, next = c.stream.since(offset)
	}

	w.Header().Set(headerNextOffset, strconv.Itoa(next))
	w.Header().Set(headerCursor, clientID)

	if len(frames) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	encoded := make([]string, len(frames))
	for i, f := range frames {
		encoded[i] = base64.StdEncoding.EncodeToString(f)
	}
	WriteJSONOK(w, frameBatch{Frames: encoded})
}

// In handles POST /api/v1/stream/{prefix}/{clientID}/in: a batch of
// frames from the client. Replies are appended to the client's own out
// stream; accepted updates are fanned out to every other subscriber of
// the document through the shared hub.
func (h *StreamHandler) In(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "prefix")
	clientID := chi.URLParam(r, "clientID")

	body, err := io.ReadAll(r.Body)
	if err != nil {
		BadRequest(w, "unreadable body")
		return
	}
	var batch frameBatch
	if len(body) > 0 {
		if err := json.Unmarshal(body, &batch); err != nil {
			BadRequest(w, "invalid request body")
			return
		}
	}

	c := h.client(docID, clientID)

	for _, enc := range batch.Frames {
		payload, err := base64.StdEncoding.DecodeString(enc)
		if err != nil {
			continue
		}
		reply, broadcasts, err := dispatchEnvelope(r.Context(), h.store, docID, payload)
		if err != nil {
			continue
		}
		for _, b := range broadcasts {
			h.hub.Broadcast(docID, b, c.sub)
		}
		if reply != nil {
			c.stream.append(reply)
		}
	}

	WriteNoContent(w)
}
