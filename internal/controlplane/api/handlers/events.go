package handlers

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/relaydoc/relaydoc/pkg/docstore"
)

const ssePingInterval = 20 * time.Second

// postEnvelope mirrors pkg/transport/sse's wire shape: a batch of
// base64-encoded frames posted to a client's send endpoint.
type postEnvelope struct {
	Frames []string `json:"frames"`
}

// SSEHandler is the half-duplex fallback transport: a long-lived GET
// stream carries inbound frames to the client, and independent POSTs to
// a per-client endpoint carry frames the other way. Replies to a POST
// are not returned in its response; they arrive later as "message"
// events on the same client's stream, exactly like a broadcast would.
type SSEHandler struct {
	store *docstore.DocumentStore
	hub   *Hub

	mu      sync.Mutex
	clients map[string]sseClient // clientID -> subscription
}

type sseClient struct {
	docID  string
	sub    chan []byte
	cancel func()
}

func NewSSEHandler(store *docstore.DocumentStore, hub *Hub) *SSEHandler {
	return &SSEHandler{store: store, hub: hub, clients: make(map[string]sseClient)}
}

// Stream handles GET /api/v1/docs/{docID}/events. It assigns the client
// an id, sends it as the first event, then relays hub broadcasts as
// "message" events with periodic "ping" keepalives in between.
func (h *SSEHandler) Stream(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")

	flusher, ok := w.(http.Flusher)
	if !ok {
		InternalServerError(w, "streaming unsupported")
		return
	}

	clientID := uuid.NewString()
	sub, cancel := h.hub.Subscribe(docID)
	h.mu.Lock()
	h.clients[clientID] = sseClient{docID: docID, sub: sub, cancel: cancel}
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		delete(h.clients, clientID)
		h.mu.Unlock()
		cancel()
	}()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	fmt.Fprintf(w, "event: client-id\ndata: %s\n\n", clientID)
	flusher.Flush()

	ticker := time.NewTicker(ssePingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case payload, ok := <-sub:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: message\ndata: %s\n\n", base64.StdEncoding.EncodeToString(payload))
			flusher.Flush()
		case <-ticker.C:
			fmt.Fprintf(w, "event: ping\ndata: \n\n")
			flusher.Flush()
		}
	}
}

// Send handles POST /api/v1/docs/{docID}/events/{clientID}: a batch of
// frames from a client using the half-duplex fallback. Each frame is
// dispatched against the document store; replies and broadcasts are
// delivered over the sender's own SSE stream (the reply) and every other
// subscriber's stream (the broadcast), never in this response body.
func (h *SSEHandler) Send(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	clientID := chi.URLParam(r, "clientID")

	h.mu.Lock()
	client, ok := h.clients[clientID]
	h.mu.Unlock()
	if !ok {
		NotFound(w, "unknown client id")
		return
	}
	if client.docID != docID {
		BadRequest(w, "client id not registered for this document")
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		BadRequest(w, "unreadable body")
		return
	}
	var env postEnvelope
	if len(body) > 0 {
		if err := json.Unmarshal(body, &env); err != nil {
			BadRequest(w, "invalid request body")
			return
		}
	}

	for _, enc := range env.Frames {
		payload, err := base64.StdEncoding.DecodeString(enc)
		if err != nil {
			continue
		}
		reply, broadcasts, err := dispatchEnvelope(r.Context(), h.store, docID, payload)
		if err != nil {
			continue
		}
		for _, b := range broadcasts {
			h.hub.Broadcast(docID, b, client.sub)
		}
		if reply != nil {
			select {
			case client.sub <- reply:
			default:
			}
		}
	}

	WriteNoContent(w)
}
