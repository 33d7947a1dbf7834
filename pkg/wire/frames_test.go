package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaydoc/relaydoc/pkg/errs"
)

func TestStateVectorRoundTrip(t *testing.T) {
	cases := []StateVector{
		{SnapshotID: "", ServerVersion: 0},
		{SnapshotID: "S0", ServerVersion: 0},
		{SnapshotID: "S0", ServerVersion: 12345},
		{SnapshotID: "snapshot-with-unicode-☃", ServerVersion: 1},
	}
	for _, sv := range cases {
		encoded := EncodeStateVector(sv)
		decoded, err := DecodeStateVector(encoded)
		require.NoError(t, err)
		assert.Equal(t, sv, decoded)
	}
}

func TestStateVectorEmptySnapshotForcesZeroVersion(t *testing.T) {
	encoded := EncodeStateVector(StateVector{SnapshotID: "", ServerVersion: 99})
	decoded, err := DecodeStateVector(encoded)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), decoded.ServerVersion)
}

func TestDecodeStateVectorRejectsBadVersion(t *testing.T) {
	e := &encoder{}
	e.writeVaruint(1) // unsupported version
	e.writeVarstring("S0")
	e.writeVaruint(1)
	_, err := DecodeStateVector(e.bytes())
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrInvalidFrame)
}

func TestDecodeStateVectorTruncated(t *testing.T) {
	_, err := DecodeStateVector([]byte{0})
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrInvalidFrame)
}

func TestUpdateFrameRoundTripUpdates(t *testing.T) {
	f := UpdateFrame{Updates: []UpdateRecord{
		{SnapshotID: "S0", ClientID: 1, Counter: 1, HasServerVersion: true, ServerVersion: 1, Payload: []byte("hello")},
		{SnapshotID: "S0", ClientID: 2, Counter: 5, HasServerVersion: false, Payload: []byte{}},
	}}
	b, err := EncodeUpdateFrame(f)
	require.NoError(t, err)
	decoded, err := DecodeUpdateFrame(b)
	require.NoError(t, err)
	assert.Equal(t, f.Updates, decoded.Updates)
	assert.Nil(t, decoded.Snapshot)
}

func TestUpdateFrameRoundTripSnapshot(t *testing.T) {
	f := UpdateFrame{Snapshot: &SnapshotPayload{SnapshotID: "S1", ParentSnapshotID: "S0", Payload: []byte{1, 2, 3}}}
	b, err := EncodeUpdateFrame(f)
	require.NoError(t, err)
	decoded, err := DecodeUpdateFrame(b)
	require.NoError(t, err)
	require.NotNil(t, decoded.Snapshot)
	assert.Equal(t, *f.Snapshot, *decoded.Snapshot)
}

func TestUpdateFrameRootSnapshotHasEmptyParent(t *testing.T) {
	f := UpdateFrame{Snapshot: &SnapshotPayload{SnapshotID: "S0", ParentSnapshotID: "", Payload: []byte{9}}}
	b, err := EncodeUpdateFrame(f)
	require.NoError(t, err)
	decoded, err := DecodeUpdateFrame(b)
	require.NoError(t, err)
	assert.Empty(t, decoded.Snapshot.ParentSnapshotID)
}

func TestUpdateFrameRejectsEmptySnapshotIDOnUpdateRecord(t *testing.T) {
	f := UpdateFrame{Updates: []UpdateRecord{{SnapshotID: "", ClientID: 1, Counter: 1}}}
	_, err := EncodeUpdateFrame(f)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrInvalidFrame)
}

func TestDecodeUpdateFrameRejectsUnknownKind(t *testing.T) {
	e := &encoder{}
	e.writeVaruint(0)
	e.writeByte(2)
	_, err := DecodeUpdateFrame(e.bytes())
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrInvalidFrame)
}

func TestDecodeUpdateFrameRejectsBadVersion(t *testing.T) {
	e := &encoder{}
	e.writeVaruint(7)
	e.writeByte(0)
	e.writeVaruint(0)
	_, err := DecodeUpdateFrame(e.bytes())
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrInvalidFrame)
}

func TestSyncStep2RoundTripNoSnapshot(t *testing.T) {
	f := SyncStep2Frame{Updates: []UpdateRecord{
		{SnapshotID: "S0", ClientID: 2, Counter: 1, HasServerVersion: true, ServerVersion: 3, Payload: []byte("a")},
		{SnapshotID: "S0", ClientID: 2, Counter: 2, HasServerVersion: true, ServerVersion: 4, Payload: []byte("b")},
	}}
	b, err := EncodeSyncStep2(f)
	require.NoError(t, err)
	decoded, err := DecodeSyncStep2(b)
	require.NoError(t, err)
	assert.Nil(t, decoded.Snapshot)
	assert.Equal(t, f.Updates, decoded.Updates)
}

func TestSyncStep2RoundTripWithSnapshot(t *testing.T) {
	f := SyncStep2Frame{
		Snapshot: &SnapshotPayload{SnapshotID: "S0", ParentSnapshotID: "", Payload: []byte{9}},
		Updates: []UpdateRecord{
			{SnapshotID: "S0", ClientID: 1, Counter: 1, HasServerVersion: true, ServerVersion: 1, Payload: []byte{1}},
		},
	}
	b, err := EncodeSyncStep2(f)
	require.NoError(t, err)
	decoded, err := DecodeSyncStep2(b)
	require.NoError(t, err)
	require.NotNil(t, decoded.Snapshot)
	assert.Equal(t, *f.Snapshot, *decoded.Snapshot)
	assert.Equal(t, f.Updates, decoded.Updates)
}

func TestSyncStep2EmptyIsValid(t *testing.T) {
	b, err := EncodeSyncStep2(SyncStep2Frame{})
	require.NoError(t, err)
	decoded, err := DecodeSyncStep2(b)
	require.NoError(t, err)
	assert.Nil(t, decoded.Snapshot)
	assert.Empty(t, decoded.Updates)
}

func TestDecodeSyncStep2RejectsBadFlag(t *testing.T) {
	e := &encoder{}
	e.writeVaruint(0)
	e.writeByte(2)
	_, err := DecodeSyncStep2(e.bytes())
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrInvalidFrame)
}

func TestMessageIDIsContentAddressed(t *testing.T) {
	a := MessageID([]byte("same payload"))
	b := MessageID([]byte("same payload"))
	c := MessageID([]byte("different payload"))
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestVaruintLargeValues(t *testing.T) {
	for _, v := range []uint64{0, 1, 127, 128, 300, 1 << 20, 1 << 40, ^uint64(0)} {
		e := &encoder{}
		e.writeVaruint(v)
		c := newCursor(e.bytes())
		got, err := c.readVaruint()
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
}
