package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/relaydoc/relaydoc/pkg/docstore"
)

// AdminHandler exposes read-only operator inspection endpoints over the
// document store, used by relaydocctl rather than sync clients.
type AdminHandler struct {
	store *docstore.DocumentStore
}

func NewAdminHandler(store *docstore.DocumentStore) *AdminHandler {
	return &AdminHandler{store: store}
}

// snapshotView is the JSON projection of a docstore.SnapshotRecord.
type snapshotView struct {
	SnapshotID       string `json:"snapshot_id"`
	ParentSnapshotID string `json:"parent_snapshot_id,omitempty"`
	Kind             string `json:"kind,omitempty"`
	CreatedAt        string `json:"created_at"`
	UpdateCount      int    `json:"update_count"`
}

// documentView is the JSON projection of a docstore.DocumentRecord
// returned by the inspect endpoint.
type documentView struct {
	DocID                 string         `json:"doc_id"`
	ActiveSnapshotID      string         `json:"active_snapshot_id"`
	ActiveSnapshotVersion uint64         `json:"active_snapshot_version"`
	Snapshots             []snapshotView `json:"snapshots"`
}

// Inspect handles GET /api/v1/docs/{docID}/inspect. It reports the
// document's snapshot lineage and server version without exposing any
// ciphertext.
func (h *AdminHandler) Inspect(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")

	doc, err := h.store.GetDocument(r.Context(), docID)
	if err != nil {
		InternalServerError(w, err.Error())
		return
	}
	if doc == nil {
		NotFound(w, "document not found: "+docID)
		return
	}

	view := documentView{
		DocID:                 doc.DocID,
		ActiveSnapshotID:      doc.ActiveSnapshotID,
		ActiveSnapshotVersion: doc.ActiveSnapshotVersion,
		Snapshots:             make([]snapshotView, 0, len(doc.Snapshots)),
	}
	for _, snap := range doc.Snapshots {
		view.Snapshots = append(view.Snapshots, snapshotView{
			SnapshotID:       snap.SnapshotID,
			ParentSnapshotID: snap.ParentSnapshotID,
			Kind:             snap.Kind,
			CreatedAt:        snap.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
			UpdateCount:      len(snap.Updates),
		})
	}

	WriteJSONOK(w, view)
}
