package config

import (
	"context"
	"fmt"

	"github.com/relaydoc/relaydoc/internal/logger"
	"github.com/relaydoc/relaydoc/pkg/blobstore"
	"github.com/relaydoc/relaydoc/pkg/blobstore/badgerblob"
	"github.com/relaydoc/relaydoc/pkg/blobstore/memblob"
	"github.com/relaydoc/relaydoc/pkg/blobstore/s3blob"
	"github.com/relaydoc/relaydoc/pkg/docstore"
	"github.com/relaydoc/relaydoc/pkg/docstore/badgerstore"
	"github.com/relaydoc/relaydoc/pkg/docstore/memstore"
	"github.com/relaydoc/relaydoc/pkg/docstore/postgresstore"
)

// BuildDocumentStore constructs the index backend and blob store named
// by cfg.Storage, wiring them into a docstore.DocumentStore.
//
// ctx is used only for backends whose constructor needs it (S3's
// credential chain); the returned store is otherwise long-lived and
// outlives ctx.
func BuildDocumentStore(ctx context.Context, cfg StorageConfig) (*docstore.DocumentStore, error) {
	backend, err := buildBackend(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build index backend: %w", err)
	}

	blobs, err := buildBlobStore(ctx, cfg.Blob)
	if err != nil {
		return nil, fmt.Errorf("failed to build blob store: %w", err)
	}

	logger.Info("document store configured",
		"index_backend", cfg.Backend,
		"blob_backend", cfg.Blob.Backend,
	)
	return docstore.New(backend, blobs), nil
}

func buildBackend(cfg StorageConfig) (docstore.Backend, error) {
	switch cfg.Backend {
	case "", "memory":
		return memstore.New(), nil
	case "badger":
		return badgerstore.Open(cfg.BadgerDir)
	case "postgres":
		return postgresstore.Open(cfg.PostgresDSN)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

func buildBlobStore(ctx context.Context, cfg BlobConfig) (blobstore.Store, error) {
	switch cfg.Backend {
	case "", "memory":
		return memblob.New(), nil
	case "badger":
		return badgerblob.Open(cfg.BadgerDir)
	case "s3":
		return s3blob.NewFromConfig(ctx, s3blob.Config{
			Bucket:         cfg.S3.Bucket,
			Region:         cfg.S3.Region,
			Endpoint:       cfg.S3.Endpoint,
			KeyPrefix:      cfg.S3.KeyPrefix,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
	default:
		return nil, fmt.Errorf("unknown blob backend %q", cfg.Backend)
	}
}
