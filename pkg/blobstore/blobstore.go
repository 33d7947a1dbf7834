// Package blobstore provides content-addressed storage for opaque
// ciphertext payloads (snapshot blobs, update payloads), separate from
// the small index records that reference them. This mirrors the
// separation between file content and file metadata in a filesystem: the
// index (pkg/docstore) stays small and hot, while ciphertext — which can
// be large — lives behind a pluggable Store.
//
// Generalized from a filesystem ContentStore to protocol ciphertext: the
// identifier is always base64(sha256(payload)), computed by the store
// itself so a caller can never desynchronize an id from its bytes.
package blobstore

import (
	"context"
	"errors"

	"github.com/relaydoc/relaydoc/pkg/wire"
)

// ErrNotFound is returned by Get when the requested id has no content
// (never written, or garbage collected).
var ErrNotFound = errors.New("blobstore: blob not found")

// Store is implemented by every payload storage backend (memory, Badger,
// S3). Implementations must be safe for concurrent use.
type Store interface {
	// Put stores payload and returns its content-addressed id. Put is
	// idempotent: storing the same bytes twice yields the same id and a
	// no-op second write.
	Put(ctx context.Context, payload []byte) (id string, err error)

	// Get returns the payload for id, or ErrNotFound if absent.
	Get(ctx context.Context, id string) ([]byte, error)

	// Delete removes the payload for id. Deleting an absent id is not an
	// error — this is the garbage-collection entry point and callers may
	// race harmlessly with a concurrent Put of the same content.
	Delete(ctx context.Context, id string) error
}

// IDFor returns the content-addressed id a Store would assign to
// payload, without storing it. Exposed so callers (e.g. the sync engine)
// can correlate an id with a payload before a Put round-trip.
func IDFor(payload []byte) string {
	return wire.MessageID(payload)
}
