package docstore

import "context"

// Backend persists the index for one or more documents. DocumentStore
// calls Load/Save under its own per-key critical section, so a Backend
// implementation does not need to provide its own document-level locking —
// only safety for concurrent calls across different keys.
//
// Ciphertext payloads are never passed to a Backend; DocumentStore writes
// them to a blobstore.Store first and stores only the resulting blob id.
type Backend interface {
	// Load returns the DocumentRecord for docID, or nil (no error) if the
	// document has never been seen.
	Load(ctx context.Context, docID string) (*DocumentRecord, error)

	// Save persists doc, overwriting any prior record for doc.DocID.
	Save(ctx context.Context, doc *DocumentRecord) error
}
