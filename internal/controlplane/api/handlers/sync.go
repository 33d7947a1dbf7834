package handlers

import (
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/relaydoc/relaydoc/pkg/docstore"
	"github.com/relaydoc/relaydoc/pkg/errs"
	"github.com/relaydoc/relaydoc/pkg/wire"
)

// SyncHandler exposes the document store's three HTTP entry points:
// sync-step-1 (state reconciliation), updates (single-frame ingestion),
// and sync-step-2 (bulk snapshot+updates push).
type SyncHandler struct {
	store *docstore.DocumentStore
}

func NewSyncHandler(store *docstore.DocumentStore) *SyncHandler {
	return &SyncHandler{store: store}
}

// frameEnvelope is the thin JSON wrapper carrying one base64-encoded
// binary frame over HTTP, per spec.md §6.
type frameEnvelope struct {
	Frame string `json:"frame" validate:"required,base64"`
}

func writeFrameError(w http.ResponseWriter, err error) {
	var sErr *errs.Error
	if errors.As(err, &sErr) {
		switch sErr.Code {
		case errs.CodeSnapshotMismatch, errs.CodeSnapshotParentMismatch, errs.CodeCounterOutOfOrder:
			Conflict(w, sErr.Error())
			return
		case errs.CodeInvalidFrame:
			BadRequest(w, sErr.Error())
			return
		}
	}
	InternalServerError(w, err.Error())
}

// SyncStep1 handles POST /api/v1/docs/{docID}/sync-step-1.
func (h *SyncHandler) SyncStep1(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")

	var env frameEnvelope
	if !decodeJSONBody(w, r, &env) {
		return
	}
	raw, err := base64.StdEncoding.DecodeString(env.Frame)
	if err != nil {
		BadRequest(w, "invalid base64 frame")
		return
	}
	remote, err := wire.DecodeStateVector(raw)
	if err != nil {
		writeFrameError(w, err)
		return
	}

	resp, _, err := h.store.HandleSyncStep1(r.Context(), docID, remote)
	if err != nil {
		writeFrameError(w, err)
		return
	}

	encoded, err := wire.EncodeSyncStep2(resp)
	if err != nil {
		InternalServerError(w, err.Error())
		return
	}
	WriteJSONOK(w, frameEnvelope{Frame: base64.StdEncoding.EncodeToString(encoded)})
}

// Updates handles POST /api/v1/docs/{docID}/updates.
func (h *SyncHandler) Updates(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")

	var env frameEnvelope
	if !decodeJSONBody(w, r, &env) {
		return
	}
	raw, err := base64.StdEncoding.DecodeString(env.Frame)
	if err != nil {
		BadRequest(w, "invalid base64 frame")
		return
	}
	frame, err := wire.DecodeUpdateFrame(raw)
	if err != nil {
		writeFrameError(w, err)
		return
	}

	result, err := h.store.HandleEncryptedUpdate(r.Context(), docID, frame)
	if err != nil {
		writeFrameError(w, err)
		return
	}
	if result == nil {
		WriteNoContent(w)
		return
	}

	encoded, err := wire.EncodeUpdateFrame(*result)
	if err != nil {
		InternalServerError(w, err.Error())
		return
	}
	WriteJSONOK(w, frameEnvelope{Frame: base64.StdEncoding.EncodeToString(encoded)})
}

// SyncStep2 handles POST /api/v1/docs/{docID}/sync-step-2: a client
// pushing a snapshot+updates bundle (e.g. initial import).
func (h *SyncHandler) SyncStep2(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")

	var env frameEnvelope
	if !decodeJSONBody(w, r, &env) {
		return
	}
	raw, err := base64.StdEncoding.DecodeString(env.Frame)
	if err != nil {
		BadRequest(w, "invalid base64 frame")
		return
	}
	frame, err := wire.DecodeSyncStep2(raw)
	if err != nil {
		writeFrameError(w, err)
		return
	}

	results, err := h.store.HandleEncryptedSyncStep2(r.Context(), docID, frame)
	if err != nil {
		writeFrameError(w, err)
		return
	}

	encodedFrames := make([]string, 0, len(results))
	for _, res := range results {
		encoded, err := wire.EncodeUpdateFrame(res)
		if err != nil {
			InternalServerError(w, err.Error())
			return
		}
		encodedFrames = append(encodedFrames, base64.StdEncoding.EncodeToString(encoded))
	}
	WriteJSONOK(w, struct {
		Frames []string `json:"frames"`
	}{Frames: encodedFrames})
}
