package badgerstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaydoc/relaydoc/pkg/docstore"
)

func TestLoadMissingDocumentReturnsNil(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	doc, err := s.Load(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Nil(t, doc)
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	ctx := context.Background()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	doc := &docstore.DocumentRecord{
		DocID:                 "doc-1",
		ActiveSnapshotID:      "S0",
		ActiveSnapshotVersion: 2,
		Snapshots: map[string]*docstore.SnapshotRecord{
			"S0": {
				SnapshotID:     "S0",
				BlobID:         "blob-0",
				CreatedAt:      time.Unix(0, 0).UTC(),
				ClientCounters: map[uint64]uint64{1: 2},
				Updates: []docstore.UpdateIndexRecord{
					{ServerVersion: 1, ClientID: 1, Counter: 1, BlobID: "blob-a"},
					{ServerVersion: 2, ClientID: 1, Counter: 2, BlobID: "blob-b"},
				},
			},
		},
	}
	require.NoError(t, s.Save(ctx, doc))

	got, err := s.Load(ctx, "doc-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, doc.ActiveSnapshotID, got.ActiveSnapshotID)
	assert.Equal(t, doc.ActiveSnapshotVersion, got.ActiveSnapshotVersion)
	require.Contains(t, got.Snapshots, "S0")
	assert.Equal(t, uint64(2), got.Snapshots["S0"].ClientCounters[1])
	assert.Len(t, got.Snapshots["S0"].Updates, 2)
}
