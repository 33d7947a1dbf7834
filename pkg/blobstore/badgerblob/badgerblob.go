// Package badgerblob persists ciphertext blobs in an embedded BadgerDB,
// the durable single-node default for production deployments.
package badgerblob

import (
	"context"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/relaydoc/relaydoc/pkg/blobstore"
)

const keyPrefix = "blob:"

func key(id string) []byte {
	return []byte(keyPrefix + id)
}

// Store is a blobstore.Store backed by an embedded Badger instance.
type Store struct {
	db *badger.DB
}

// Open opens (or creates) a Badger store rooted at dir.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badgerblob: open %s: %w", dir, err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying Badger handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Put(ctx context.Context, payload []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id := blobstore.IDFor(payload)
	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key(id)); err == nil {
			return nil // already stored; payload is content-addressed so this is a no-op
		} else if err != badger.ErrKeyNotFound {
			return err
		}
		return txn.Set(key(id), payload)
	})
	if err != nil {
		return "", fmt.Errorf("badgerblob: put %s: %w", id, err)
	}
	return id, nil
}

func (s *Store) Get(ctx context.Context, id string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(id))
		if err == badger.ErrKeyNotFound {
			return blobstore.ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			out = append([]byte(nil), val...)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key(id))
	})
	if err != nil && err != badger.ErrKeyNotFound {
		return fmt.Errorf("badgerblob: delete %s: %w", id, err)
	}
	return nil
}
