// Package badgerstore is a docstore.Backend backed by an embedded Badger
// key-value store, the durable single-node default for production. Each
// document's index is a single JSON value under a namespaced key, mirroring
// the teacher's prefixed-key design ("doc:<id>") rather than the
// finer-grained per-field key layout used for filesystem metadata: a
// document's index record is small relative to its ciphertext payloads
// (which live in a separate blob store), so there is no per-field
// contention to avoid.
package badgerstore

import (
	"context"
	"encoding/json"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/relaydoc/relaydoc/pkg/docstore"
)

const keyPrefixDoc = "doc:"

func keyDoc(docID string) []byte {
	return []byte(keyPrefixDoc + docID)
}

// Store is a docstore.Backend over an embedded Badger database.
type Store struct {
	db *badger.DB
}

// Open opens (creating if absent) a Badger database rooted at dir.
func Open(dir string) (*Store, error) {
	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("badgerstore: open %s: %w", dir, err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Load(_ context.Context, docID string) (*docstore.DocumentRecord, error) {
	var doc *docstore.DocumentRecord
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(keyDoc(docID))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var rec docstore.DocumentRecord
			if err := json.Unmarshal(val, &rec); err != nil {
				return fmt.Errorf("badgerstore: decode document %s: %w", docID, err)
			}
			doc = &rec
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *Store) Save(_ context.Context, doc *docstore.DocumentRecord) error {
	val, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("badgerstore: encode document %s: %w", doc.DocID, err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(keyDoc(doc.DocID), val)
	})
}

var _ docstore.Backend = (*Store)(nil)
