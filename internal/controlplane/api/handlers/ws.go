package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/relaydoc/relaydoc/pkg/docstore"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// WebsocketHandler upgrades a connection and speaks the full-duplex
// document-sync protocol over it: every inbound binary message is a
// wire.MessageKind-prefixed frame, dispatched against the document
// store, with the reply (if any) written back on the same socket and
// accepted updates fanned out to every other client of the document.
type WebsocketHandler struct {
	store *docstore.DocumentStore
	hub   *Hub
}

func NewWebsocketHandler(store *docstore.DocumentStore, hub *Hub) *WebsocketHandler {
	return &WebsocketHandler{store: store, hub: hub}
}

// Serve handles GET /ws/docs/{docID}.
func (h *WebsocketHandler) Serve(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	sub, cancel := h.hub.Subscribe(docID)
	defer cancel()

	go func() {
		for payload := range sub {
			if err := conn.WriteMessage(websocket.BinaryMessage, payload); err != nil {
				return
			}
		}
	}()

	for {
		kind, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if kind != websocket.BinaryMessage {
			continue
		}

		reply, broadcasts, err := dispatchEnvelope(r.Context(), h.store, docID, payload)
		if err != nil {
			continue
		}
		for _, b := range broadcasts {
			h.hub.Broadcast(docID, b, sub)
		}
		if reply != nil {
			if err := conn.WriteMessage(websocket.BinaryMessage, reply); err != nil {
				return
			}
		}
	}
}
