// Package wire implements the bit-exact binary encoding used by the sync
// protocol: state vectors, update frames, and sync-step-2 frames. All
// integers are LEB128-style variable-length unsigned; strings and byte
// arrays are length-prefixed.
//
// Decode failures always surface as *errs.Error with Code ==
// errs.CodeInvalidFrame. Encode-then-decode is a round-trip identity on
// every well-typed value produced by this package.
package wire

import "github.com/relaydoc/relaydoc/pkg/errs"

// frameVersion is the only version this package currently emits or
// accepts. A future wire revision bumps this constant and adds a
// version-dispatch branch to each Decode function.
const frameVersion = 0

// updateKind discriminates the two payload shapes an Encrypted Update
// frame can carry.
type updateKind uint8

const (
	updateKindUpdates  updateKind = 0
	updateKindSnapshot updateKind = 1
)

// StateVector is the Snapshot-mode Encrypted State Vector: "I have
// snapshot SnapshotID and applied updates through ServerVersion." An
// empty SnapshotID always carries ServerVersion == 0.
type StateVector struct {
	SnapshotID    string
	ServerVersion uint64
}

// EncodeStateVector serializes sv per the Encrypted State Vector frame
// format (version, snapshotId, serverVersion).
func EncodeStateVector(sv StateVector) []byte {
	e := &encoder{}
	e.writeVaruint(frameVersion)
	e.writeVarstring(sv.SnapshotID)
	if sv.SnapshotID == "" {
		e.writeVaruint(0)
	} else {
		e.writeVaruint(sv.ServerVersion)
	}
	return e.bytes()
}

// DecodeStateVector parses a frame produced by EncodeStateVector.
func DecodeStateVector(b []byte) (StateVector, error) {
	c := newCursor(b)
	v, err := c.readVaruint()
	if err != nil {
		return StateVector{}, err
	}
	if v != frameVersion {
		return StateVector{}, errs.New(errs.CodeInvalidFrame, "unsupported state vector version")
	}
	snapshotID, err := c.readVarstring()
	if err != nil {
		return StateVector{}, err
	}
	serverVersion, err := c.readVaruint()
	if err != nil {
		return StateVector{}, err
	}
	if snapshotID == "" {
		serverVersion = 0
	}
	return StateVector{SnapshotID: snapshotID, ServerVersion: serverVersion}, nil
}

// UpdateRecord is one inline update entry shared by the Encrypted Update
// frame (kind=0) and the Sync-Step-2 frame.
type UpdateRecord struct {
	SnapshotID       string
	ClientID         uint64
	Counter          uint64
	HasServerVersion bool
	ServerVersion    uint64
	Payload          []byte
}

func (r UpdateRecord) encodeInto(e *encoder) error {
	if r.SnapshotID == "" {
		return errs.New(errs.CodeInvalidFrame, "update record requires a non-empty snapshotId")
	}
	e.writeVarstring(r.SnapshotID)
	e.writeVaruint(r.ClientID)
	e.writeVaruint(r.Counter)
	if r.HasServerVersion {
		e.writeByte(1)
		e.writeVaruint(r.ServerVersion)
	} else {
		e.writeByte(0)
	}
	e.writeBytes(r.Payload)
	return nil
}

func decodeUpdateRecord(c *cursor) (UpdateRecord, error) {
	snapshotID, err := c.readVarstring()
	if err != nil {
		return UpdateRecord{}, err
	}
	if snapshotID == "" {
		return UpdateRecord{}, errs.New(errs.CodeInvalidFrame, "update record snapshotId must be non-empty")
	}
	clientID, err := c.readVaruint()
	if err != nil {
		return UpdateRecord{}, err
	}
	counter, err := c.readVaruint()
	if err != nil {
		return UpdateRecord{}, err
	}
	hasSV, err := c.readByte()
	if err != nil {
		return UpdateRecord{}, err
	}
	if hasSV != 0 && hasSV != 1 {
		return UpdateRecord{}, errs.New(errs.CodeInvalidFrame, "hasServerVersion must be 0 or 1")
	}
	var serverVersion uint64
	if hasSV == 1 {
		serverVersion, err = c.readVaruint()
		if err != nil {
			return UpdateRecord{}, err
		}
	}
	payload, err := c.readBytes()
	if err != nil {
		return UpdateRecord{}, err
	}
	return UpdateRecord{
		SnapshotID:       snapshotID,
		ClientID:         clientID,
		Counter:          counter,
		HasServerVersion: hasSV == 1,
		ServerVersion:    serverVersion,
		Payload:          payload,
	}, nil
}

// SnapshotPayload is the snapshot-kind body of an Encrypted Update frame.
type SnapshotPayload struct {
	SnapshotID       string
	ParentSnapshotID string // empty ≡ null (root snapshot)
	Payload          []byte
}

// UpdateFrame is the Encrypted Update frame: either a batch of inline
// update records (kind=0) or a single snapshot (kind=1).
type UpdateFrame struct {
	Updates  []UpdateRecord   // non-nil only when Snapshot == nil
	Snapshot *SnapshotPayload // non-nil only when Updates == nil
}

// EncodeUpdateFrame serializes f per the Encrypted Update frame format.
func EncodeUpdateFrame(f UpdateFrame) ([]byte, error) {
	e := &encoder{}
	e.writeVaruint(frameVersion)
	switch {
	case f.Snapshot != nil:
		e.writeByte(byte(updateKindSnapshot))
		e.writeVarstring(f.Snapshot.SnapshotID)
		e.writeVarstring(f.Snapshot.ParentSnapshotID)
		e.writeBytes(f.Snapshot.Payload)
	default:
		e.writeByte(byte(updateKindUpdates))
		e.writeVaruint(uint64(len(f.Updates)))
		for _, r := range f.Updates {
			if err := r.encodeInto(e); err != nil {
				return nil, err
			}
		}
	}
	return e.bytes(), nil
}

// DecodeUpdateFrame parses a frame produced by EncodeUpdateFrame.
func DecodeUpdateFrame(b []byte) (UpdateFrame, error) {
	c := newCursor(b)
	v, err := c.readVaruint()
	if err != nil {
		return UpdateFrame{}, err
	}
	if v != frameVersion {
		return UpdateFrame{}, errs.New(errs.CodeInvalidFrame, "unsupported update frame version")
	}
	kindByte, err := c.readByte()
	if err != nil {
		return UpdateFrame{}, err
	}
	switch updateKind(kindByte) {
	case updateKindUpdates:
		n, err := c.readVaruint()
		if err != nil {
			return UpdateFrame{}, err
		}
		records := make([]UpdateRecord, 0, n)
		for i := uint64(0); i < n; i++ {
			r, err := decodeUpdateRecord(c)
			if err != nil {
				return UpdateFrame{}, err
			}
			records = append(records, r)
		}
		return UpdateFrame{Updates: records}, nil
	case updateKindSnapshot:
		snapshotID, err := c.readVarstring()
		if err != nil {
			return UpdateFrame{}, err
		}
		parentID, err := c.readVarstring()
		if err != nil {
			return UpdateFrame{}, err
		}
		payload, err := c.readBytes()
		if err != nil {
			return UpdateFrame{}, err
		}
		return UpdateFrame{Snapshot: &SnapshotPayload{
			SnapshotID:       snapshotID,
			ParentSnapshotID: parentID,
			Payload:          payload,
		}}, nil
	default:
		return UpdateFrame{}, errs.New(errs.CodeInvalidFrame, "unknown update frame kind")
	}
}

// SyncStep2Frame carries the missing content in response to a sync-step-1
// state advertisement: optionally a full snapshot, plus an ordered list
// of updates.
type SyncStep2Frame struct {
	Snapshot *SnapshotPayload
	Updates  []UpdateRecord
}

// EncodeSyncStep2 serializes f per the Sync-Step-2 frame format.
func EncodeSyncStep2(f SyncStep2Frame) ([]byte, error) {
	e := &encoder{}
	e.writeVaruint(frameVersion)
	if f.Snapshot != nil {
		e.writeByte(1)
		e.writeVarstring(f.Snapshot.SnapshotID)
		e.writeVarstring(f.Snapshot.ParentSnapshotID)
		e.writeBytes(f.Snapshot.Payload)
	} else {
		e.writeByte(0)
	}
	e.writeVaruint(uint64(len(f.Updates)))
	for _, r := range f.Updates {
		if err := r.encodeInto(e); err != nil {
			return nil, err
		}
	}
	return e.bytes(), nil
}

// DecodeSyncStep2 parses a frame produced by EncodeSyncStep2.
func DecodeSyncStep2(b []byte) (SyncStep2Frame, error) {
	c := newCursor(b)
	v, err := c.readVaruint()
	if err != nil {
		return SyncStep2Frame{}, err
	}
	if v != frameVersion {
		return SyncStep2Frame{}, errs.New(errs.CodeInvalidFrame, "unsupported sync-step-2 version")
	}
	flag, err := c.readByte()
	if err != nil {
		return SyncStep2Frame{}, err
	}
	if flag != 0 && flag != 1 {
		return SyncStep2Frame{}, errs.New(errs.CodeInvalidFrame, "snapshotFlag must be 0 or 1")
	}
	var snap *SnapshotPayload
	if flag == 1 {
		snapshotID, err := c.readVarstring()
		if err != nil {
			return SyncStep2Frame{}, err
		}
		parentID, err := c.readVarstring()
		if err != nil {
			return SyncStep2Frame{}, err
		}
		payload, err := c.readBytes()
		if err != nil {
			return SyncStep2Frame{}, err
		}
		snap = &SnapshotPayload{SnapshotID: snapshotID, ParentSnapshotID: parentID, Payload: payload}
	}
	n, err := c.readVaruint()
	if err != nil {
		return SyncStep2Frame{}, err
	}
	records := make([]UpdateRecord, 0, n)
	for i := uint64(0); i < n; i++ {
		r, err := decodeUpdateRecord(c)
		if err != nil {
			return SyncStep2Frame{}, err
		}
		records = append(records, r)
	}
	return SyncStep2Frame{Snapshot: snap, Updates: records}, nil
}
