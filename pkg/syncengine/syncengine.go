// Package syncengine formulates sync-step-1 (state advertisement) and
// sync-step-2 (missing content) messages in the sync protocol's two
// operating modes:
//
//   - Snapshot mode: state is a (snapshotId, serverVersion) pair; this is
//     the core mode, since the server authoritatively drives ordering.
//   - Lamport mode: state is a per-client max-counter summary, used for
//     peer-to-peer exchange where no central authority orders writes.
//
// Callers choose the mode; the engine does not infer it.
package syncengine

import (
	"context"
	"sort"

	"github.com/relaydoc/relaydoc/pkg/rangeset"
	"github.com/relaydoc/relaydoc/pkg/wire"
)

// MakeStateVector builds the Snapshot-mode state vector advertising that
// the caller has snapshotID and has applied updates through
// serverVersion. A trivial wrapper over the wire Codec's invariant that
// an empty snapshotId always carries serverVersion 0.
func MakeStateVector(snapshotID string, serverVersion uint64) wire.StateVector {
	if snapshotID == "" {
		serverVersion = 0
	}
	return wire.StateVector{SnapshotID: snapshotID, ServerVersion: serverVersion}
}

// MakeSyncStep2 assembles a Snapshot-mode sync-step-2 frame carrying an
// optional full snapshot and an ordered list of updates.
func MakeSyncStep2(updates []wire.UpdateRecord, snapshot *wire.SnapshotPayload) wire.SyncStep2Frame {
	return wire.SyncStep2Frame{Snapshot: snapshot, Updates: updates}
}

// DecodedStateVector computes the Lamport-mode state vector from a
// Seen-Message Mapping: for each clientId, the greatest counter observed.
func DecodedStateVector(seen rangeset.SeenMessages) rangeset.StateVector {
	sv := make(rangeset.StateVector, len(seen))
	for clientID, counters := range seen {
		var max uint64
		first := true
		for c := range counters {
			if first || c > max {
				max = c
				first = false
			}
		}
		if !first {
			sv[clientID] = max
		}
	}
	return sv
}

// Fetcher resolves a content-addressed message id to its ciphertext
// payload. Returning found == false is a normal expression of local
// garbage collection, not an error — the caller omits the entry and
// continues. Only a non-nil err represents an actual failure (e.g. a
// storage backend outage).
type Fetcher func(ctx context.Context, messageID string) (payload []byte, found bool, err error)

// docScopeID is the value written into the wire UpdateRecord's
// SnapshotID field in Lamport mode. The wire format mandates a
// non-empty SnapshotID on every update record (§4.A); in Snapshot mode
// that field tracks document-store lineage, but in peer-to-peer Lamport
// mode there is no lineage authority. This engine reuses the field as a
// generic document/session scope label so the same wire Codec serves
// both modes without a schema fork — see DESIGN.md's Open Questions
// decisions for the full rationale.
func docScopeID(docID string) string {
	if docID == "" {
		return "default"
	}
	return docID
}

// MakeSyncStep2Lamport computes the lossy state-vector set difference
// between the caller's seen messages and remoteStateVector, fetches the
// ciphertext for every differing (clientId, counter), and assembles the
// resulting frame. Entries whose fetch returns found == false are
// dropped silently. Update ordering is stable (ascending by clientId,
// then counter) but the spec leaves the exact order unspecified.
func MakeSyncStep2Lamport(ctx context.Context, docID string, seen rangeset.SeenMessages, fetch Fetcher, remoteStateVector rangeset.StateVector) (wire.SyncStep2Frame, error) {
	rb := rangeset.ToRangeBased(seen)
	diff := rangeset.ComputeSetDifferenceFromStateVector(rb, remoteStateVector)

	clientIDs := make([]uint64, 0, len(diff))
	for clientID := range diff {
		clientIDs = append(clientIDs, clientID)
	}
	sort.Slice(clientIDs, func(i, j int) bool { return clientIDs[i] < clientIDs[j] })

	scope := docScopeID(docID)
	var records []wire.UpdateRecord
	for _, clientID := range clientIDs {
		for _, entry := range diff[clientID] {
			payload, found, err := fetch(ctx, entry.MessageID)
			if err != nil {
				return wire.SyncStep2Frame{}, err
			}
			if !found {
				continue
			}
			records = append(records, wire.UpdateRecord{
				SnapshotID: scope,
				ClientID:   clientID,
				Counter:    entry.Counter,
				Payload:    payload,
			})
		}
	}
	return wire.SyncStep2Frame{Updates: records}, nil
}
