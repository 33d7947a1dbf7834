// Package docstore is the server-side authority over a document's snapshot
// chain and append-only update log. It decodes Encrypted Update and
// Sync-Step-1 frames, enforces per-client counter monotonicity and
// snapshot-lineage invariants, and re-encodes accepted updates with their
// server-assigned version.
//
// Persistence is pluggable: DocumentStore holds only the per-document
// critical section and delegates storage of the index (snapshot lineage,
// client counters, update positions) to a Backend. Ciphertext payloads
// themselves never live in the index — they are stored through a
// blobstore.Store, so a deployment can keep the hot index in Badger or
// Postgres while placing cold payloads in S3.
package docstore

import "time"

// UpdateIndexRecord is one accepted update's position in a snapshot's
// update log. The ciphertext itself lives in the blob store under BlobID.
type UpdateIndexRecord struct {
	ServerVersion uint64
	ClientID      uint64
	Counter       uint64
	BlobID        string
}

// SnapshotRecord is one node in a document's snapshot chain.
type SnapshotRecord struct {
	SnapshotID       string
	ParentSnapshotID string // empty ≡ null (root snapshot)
	BlobID           string
	CreatedAt        time.Time

	// Kind is an opaque passthrough label (e.g. "yjs", "custom") carried
	// on the snapshot's metadata header. DocumentStore persists it but
	// never interprets it.
	Kind string

	// ClientCounters is the highest counter accepted per client against
	// this snapshot. It resets to empty for every new snapshot in the
	// chain — counter monotonicity is scoped to (clientID, activeSnapshot).
	ClientCounters map[uint64]uint64

	// Updates is the ordered append-only log of updates accepted against
	// this snapshot.
	Updates []UpdateIndexRecord
}

// DocumentRecord is the full persisted state for one document key.
type DocumentRecord struct {
	DocID                 string
	ActiveSnapshotID      string
	ActiveSnapshotVersion uint64
	Snapshots             map[string]*SnapshotRecord
}

// activeSnapshot returns the SnapshotRecord named by ActiveSnapshotID, or
// nil if the document has no active snapshot yet.
func (d *DocumentRecord) activeSnapshot() *SnapshotRecord {
	if d == nil || d.ActiveSnapshotID == "" {
		return nil
	}
	return d.Snapshots[d.ActiveSnapshotID]
}
