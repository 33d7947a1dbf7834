// Package memstore is an in-memory docstore.Backend, used in tests and as
// the single-node default when durability across restarts is not needed.
package memstore

import (
	"context"
	"sync"

	"github.com/relaydoc/relaydoc/pkg/docstore"
)

// Store is a mutex-guarded map of document id to DocumentRecord.
type Store struct {
	mu   sync.RWMutex
	docs map[string]*docstore.DocumentRecord
}

// New returns an empty Store.
func New() *Store {
	return &Store{docs: make(map[string]*docstore.DocumentRecord)}
}

func (s *Store) Load(_ context.Context, docID string) (*docstore.DocumentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[docID]
	if !ok {
		return nil, nil
	}
	return cloneDocument(doc), nil
}

func (s *Store) Save(_ context.Context, doc *docstore.DocumentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[doc.DocID] = cloneDocument(doc)
	return nil
}

// cloneDocument deep-copies doc so callers can mutate a returned or stored
// record without aliasing the Store's own state.
func cloneDocument(doc *docstore.DocumentRecord) *docstore.DocumentRecord {
	if doc == nil {
		return nil
	}
	out := &docstore.DocumentRecord{
		DocID:                 doc.DocID,
		ActiveSnapshotID:      doc.ActiveSnapshotID,
		ActiveSnapshotVersion: doc.ActiveSnapshotVersion,
		Snapshots:             make(map[string]*docstore.SnapshotRecord, len(doc.Snapshots)),
	}
	for id, snap := range doc.Snapshots {
		counters := make(map[uint64]uint64, len(snap.ClientCounters))
		for k, v := range snap.ClientCounters {
			counters[k] = v
		}
		updates := make([]docstore.UpdateIndexRecord, len(snap.Updates))
		copy(updates, snap.Updates)
		out.Snapshots[id] = &docstore.SnapshotRecord{
			SnapshotID:       snap.SnapshotID,
			ParentSnapshotID: snap.ParentSnapshotID,
			BlobID:           snap.BlobID,
			CreatedAt:        snap.CreatedAt,
			Kind:             snap.Kind,
			ClientCounters:   counters,
			Updates:          updates,
		}
	}
	return out
}

var _ docstore.Backend = (*Store)(nil)
