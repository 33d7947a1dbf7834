package memblob

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaydoc/relaydoc/pkg/blobstore"
)

func TestPutGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := New()
	id, err := s.Put(ctx, []byte("ciphertext"))
	require.NoError(t, err)
	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []byte("ciphertext"), got)
}

func TestPutIsContentAddressed(t *testing.T) {
	ctx := context.Background()
	s := New()
	id1, _ := s.Put(ctx, []byte("same"))
	id2, _ := s.Put(ctx, []byte("same"))
	assert.Equal(t, id1, id2)
	assert.Equal(t, blobstore.IDFor([]byte("same")), id1)
}

func TestGetMissingReturnsErrNotFound(t *testing.T) {
	ctx := context.Background()
	s := New()
	_, err := s.Get(ctx, "nope")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestDeleteThenGetMisses(t *testing.T) {
	ctx := context.Background()
	s := New()
	id, _ := s.Put(ctx, []byte("x"))
	require.NoError(t, s.Delete(ctx, id))
	_, err := s.Get(ctx, id)
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestDeleteMissingIsNotAnError(t *testing.T) {
	s := New()
	assert.NoError(t, s.Delete(context.Background(), "never-existed"))
}
