package badgerblob

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaydoc/relaydoc/pkg/blobstore"
)

func TestBadgerblobPutGetDelete(t *testing.T) {
	ctx := context.Background()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	id, err := s.Put(ctx, []byte("ciphertext"))
	require.NoError(t, err)

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []byte("ciphertext"), got)

	require.NoError(t, s.Delete(ctx, id))
	_, err = s.Get(ctx, id)
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestBadgerblobPutIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	id1, err := s.Put(ctx, []byte("same"))
	require.NoError(t, err)
	id2, err := s.Put(ctx, []byte("same"))
	require.NoError(t, err)
	assert.Equal(t, id1, id2)
}
