package docstore

import (
	"context"
	"time"

	"github.com/relaydoc/relaydoc/pkg/blobstore"
	"github.com/relaydoc/relaydoc/pkg/errs"
	"github.com/relaydoc/relaydoc/pkg/lock"
	"github.com/relaydoc/relaydoc/pkg/wire"
)

// DocumentStore is the server-side authority over every document's
// snapshot chain and append-only update log. Mutating and reading entry
// points are serialized per document id via a KeyedMutex so two
// operations on different documents proceed independently and readers
// observe a consistent (activeSnapshotId, activeSnapshotVersion, updates)
// triple.
type DocumentStore struct {
	backend Backend
	blobs   blobstore.Store
	locks   *lock.KeyedMutex
	now     func() time.Time
}

// Option configures a DocumentStore.
type Option func(*DocumentStore)

// WithClock overrides the store's notion of the current time. Intended
// for tests; production callers should not set this.
func WithClock(now func() time.Time) Option {
	return func(s *DocumentStore) { s.now = now }
}

// New constructs a DocumentStore over the given index backend and blob
// store.
func New(backend Backend, blobs blobstore.Store, opts ...Option) *DocumentStore {
	s := &DocumentStore{
		backend: backend,
		blobs:   blobs,
		locks:   lock.NewKeyedMutex(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *DocumentStore) loadOrNew(ctx context.Context, docID string) (*DocumentRecord, error) {
	doc, err := s.backend.Load(ctx, docID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		doc = &DocumentRecord{DocID: docID, Snapshots: map[string]*SnapshotRecord{}}
	}
	return doc, nil
}

// HandleEncryptedUpdate decodes and applies one Encrypted Update frame
// against docID. It returns the re-encoded payload the caller should
// broadcast to peers, or nil with a nil error when the frame was a no-op
// (a late duplicate root-snapshot submission).
func (s *DocumentStore) HandleEncryptedUpdate(ctx context.Context, docID string, frame wire.UpdateFrame) (*wire.UpdateFrame, error) {
	release := s.locks.Lock(docID)
	defer release()

	doc, err := s.loadOrNew(ctx, docID)
	if err != nil {
		return nil, err
	}

	result, err := s.apply(ctx, doc, frame)
	if err != nil {
		return nil, err
	}

	if err := s.backend.Save(ctx, doc); err != nil {
		return nil, err
	}
	return result, nil
}

// apply mutates doc in place according to frame and returns the
// re-encoded payload to broadcast, or nil for a no-op. It does not load
// or save doc; callers hold the per-document lock and are responsible for
// persistence.
func (s *DocumentStore) apply(ctx context.Context, doc *DocumentRecord, frame wire.UpdateFrame) (*wire.UpdateFrame, error) {
	if frame.Snapshot != nil {
		return s.applySnapshot(ctx, doc, frame.Snapshot)
	}
	return s.applyUpdates(ctx, doc, frame.Updates)
}

func (s *DocumentStore) applySnapshot(ctx context.Context, doc *DocumentRecord, snap *wire.SnapshotPayload) (*wire.UpdateFrame, error) {
	active := doc.activeSnapshot()

	switch {
	case active == nil:
		blobID, err := s.blobs.Put(ctx, snap.Payload)
		if err != nil {
			return nil, err
		}
		doc.Snapshots[snap.SnapshotID] = &SnapshotRecord{
			SnapshotID:       snap.SnapshotID,
			ParentSnapshotID: snap.ParentSnapshotID,
			BlobID:           blobID,
			CreatedAt:        s.now(),
			ClientCounters:   map[uint64]uint64{},
		}
		doc.ActiveSnapshotID = snap.SnapshotID
		doc.ActiveSnapshotVersion = 0
		return &wire.UpdateFrame{Snapshot: snap}, nil

	case snap.ParentSnapshotID == active.SnapshotID:
		blobID, err := s.blobs.Put(ctx, snap.Payload)
		if err != nil {
			return nil, err
		}
		doc.Snapshots[snap.SnapshotID] = &SnapshotRecord{
			SnapshotID:       snap.SnapshotID,
			ParentSnapshotID: snap.ParentSnapshotID,
			BlobID:           blobID,
			CreatedAt:        s.now(),
			ClientCounters:   map[uint64]uint64{},
		}
		doc.ActiveSnapshotID = snap.SnapshotID
		doc.ActiveSnapshotVersion = 0
		return &wire.UpdateFrame{Snapshot: snap}, nil

	case snap.ParentSnapshotID == "":
		// Late duplicate from a concurrent initial sync; the active chain
		// has already moved on. Must not overwrite it.
		return nil, nil

	default:
		return nil, errs.ErrSnapshotParentMismatch.WithDoc(doc.DocID)
	}
}

func (s *DocumentStore) applyUpdates(ctx context.Context, doc *DocumentRecord, records []wire.UpdateRecord) (*wire.UpdateFrame, error) {
	if len(records) == 0 {
		return nil, nil
	}

	reencoded := make([]wire.UpdateRecord, 0, len(records))
	for _, r := range records {
		if r.SnapshotID != doc.ActiveSnapshotID {
			return nil, errs.ErrSnapshotMismatch.WithDoc(doc.DocID)
		}
		snapshot := doc.Snapshots[doc.ActiveSnapshotID]

		prev := snapshot.ClientCounters[r.ClientID]
		if r.Counter != prev+1 {
			return nil, errs.ErrCounterOutOfOrder.WithDoc(doc.DocID)
		}

		blobID, err := s.blobs.Put(ctx, r.Payload)
		if err != nil {
			return nil, err
		}

		serverVersion := doc.ActiveSnapshotVersion + 1
		snapshot.Updates = append(snapshot.Updates, UpdateIndexRecord{
			ServerVersion: serverVersion,
			ClientID:      r.ClientID,
			Counter:       r.Counter,
			BlobID:        blobID,
		})
		snapshot.ClientCounters[r.ClientID] = r.Counter
		doc.ActiveSnapshotVersion = serverVersion

		reencoded = append(reencoded, wire.UpdateRecord{
			SnapshotID:       r.SnapshotID,
			ClientID:         r.ClientID,
			Counter:          r.Counter,
			HasServerVersion: true,
			ServerVersion:    serverVersion,
			Payload:          r.Payload,
		})
	}

	return &wire.UpdateFrame{Updates: reencoded}, nil
}

// HandleSyncStep1 computes the sync-step-2 response and current state
// vector for docID given the peer's advertised remote state vector. An
// unknown document yields an empty sync-step-2 frame and a state vector
// with an empty snapshot id and server version 0.
func (s *DocumentStore) HandleSyncStep1(ctx context.Context, docID string, remote wire.StateVector) (wire.SyncStep2Frame, wire.StateVector, error) {
	release := s.locks.Lock(docID)
	defer release()

	doc, err := s.backend.Load(ctx, docID)
	if err != nil {
		return wire.SyncStep2Frame{}, wire.StateVector{}, err
	}
	active := doc.activeSnapshot()
	if active == nil {
		return wire.SyncStep2Frame{}, wire.StateVector{}, nil
	}

	serverSV := wire.StateVector{SnapshotID: doc.ActiveSnapshotID, ServerVersion: doc.ActiveSnapshotVersion}

	if remote.SnapshotID == doc.ActiveSnapshotID {
		updates, err := s.fetchUpdatesAfter(ctx, active, remote.ServerVersion)
		if err != nil {
			return wire.SyncStep2Frame{}, wire.StateVector{}, err
		}
		return wire.SyncStep2Frame{Updates: updates}, serverSV, nil
	}

	payload, err := s.blobs.Get(ctx, active.BlobID)
	if err != nil {
		return wire.SyncStep2Frame{}, wire.StateVector{}, err
	}
	updates, err := s.fetchUpdatesAfter(ctx, active, 0)
	if err != nil {
		return wire.SyncStep2Frame{}, wire.StateVector{}, err
	}
	snap := &wire.SnapshotPayload{
		SnapshotID:       active.SnapshotID,
		ParentSnapshotID: active.ParentSnapshotID,
		Payload:          payload,
	}
	return wire.SyncStep2Frame{Snapshot: snap, Updates: updates}, serverSV, nil
}

func (s *DocumentStore) fetchUpdatesAfter(ctx context.Context, snapshot *SnapshotRecord, afterServerVersion uint64) ([]wire.UpdateRecord, error) {
	out := make([]wire.UpdateRecord, 0, len(snapshot.Updates))
	for _, idx := range snapshot.Updates {
		if idx.ServerVersion <= afterServerVersion {
			continue
		}
		payload, err := s.blobs.Get(ctx, idx.BlobID)
		if err != nil {
			return nil, err
		}
		out = append(out, wire.UpdateRecord{
			SnapshotID:       snapshot.SnapshotID,
			ClientID:         idx.ClientID,
			Counter:          idx.Counter,
			HasServerVersion: true,
			ServerVersion:    idx.ServerVersion,
			Payload:          payload,
		})
	}
	return out, nil
}

// HandleEncryptedSyncStep2 decodes a Sync-Step-2 frame pushed by a client
// (e.g. an initial import): if it carries a snapshot, that is processed
// first as if it had arrived via HandleEncryptedUpdate, then each update
// is processed in order. It returns the accumulated re-encoded payloads.
func (s *DocumentStore) HandleEncryptedSyncStep2(ctx context.Context, docID string, frame wire.SyncStep2Frame) ([]wire.UpdateFrame, error) {
	release := s.locks.Lock(docID)
	defer release()

	doc, err := s.loadOrNew(ctx, docID)
	if err != nil {
		return nil, err
	}

	var results []wire.UpdateFrame

	if frame.Snapshot != nil {
		res, err := s.apply(ctx, doc, wire.UpdateFrame{Snapshot: frame.Snapshot})
		if err != nil {
			return nil, err
		}
		if res != nil {
			results = append(results, *res)
		}
	}

	for _, u := range frame.Updates {
		res, err := s.apply(ctx, doc, wire.UpdateFrame{Updates: []wire.UpdateRecord{u}})
		if err != nil {
			return nil, err
		}
		if res != nil {
			results = append(results, *res)
		}
	}

	if err := s.backend.Save(ctx, doc); err != nil {
		return nil, err
	}
	return results, nil
}

// GetDocument returns the current persisted record for docID, or nil if
// the document has never been seen. Exposed for the control plane's
// inspection endpoints.
func (s *DocumentStore) GetDocument(ctx context.Context, docID string) (*DocumentRecord, error) {
	release := s.locks.Lock(docID)
	defer release()
	return s.backend.Load(ctx, docID)
}
