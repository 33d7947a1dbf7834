// Package postgresstore is a docstore.Backend backed by PostgreSQL via
// GORM, for control-plane-managed multi-document fleets where the index
// needs to be queryable and shared across server replicas. Mirrors the
// teacher's GORMStore: AutoMigrate on Open, models as plain structs with
// gorm tags, upsert via clause.OnConflict rather than hand-rolled
// UPSERT SQL.
package postgresstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/relaydoc/relaydoc/pkg/docstore"
)

type documentModel struct {
	DocID                 string `gorm:"primaryKey"`
	ActiveSnapshotID      string
	ActiveSnapshotVersion uint64
}

func (documentModel) TableName() string { return "documents" }

type snapshotModel struct {
	SnapshotID       string `gorm:"primaryKey"`
	DocID            string `gorm:"index"`
	ParentSnapshotID string
	BlobID           string
	CreatedAt        time.Time
	Kind             string
	ClientCounters   string // JSON-encoded map[uint64]uint64
}

func (snapshotModel) TableName() string { return "snapshots" }

type updateModel struct {
	ID            uint `gorm:"primaryKey;autoIncrement"`
	DocID         string `gorm:"index"`
	SnapshotID    string `gorm:"uniqueIndex:idx_snapshot_version"`
	ServerVersion uint64 `gorm:"uniqueIndex:idx_snapshot_version"`
	ClientID      uint64
	Counter       uint64
	BlobID        string
}

func (updateModel) TableName() string { return "document_updates" }

// Store is a docstore.Backend over PostgreSQL.
type Store struct {
	db *gorm.DB
}

// Open connects to PostgreSQL at dsn and ensures the schema exists.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("postgresstore: connect: %w", err)
	}
	if err := db.AutoMigrate(&documentModel{}, &snapshotModel{}, &updateModel{}); err != nil {
		return nil, fmt.Errorf("postgresstore: migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// DB returns the underlying GORM connection, for advanced queries and tests.
func (s *Store) DB() *gorm.DB { return s.db }

func (s *Store) Load(ctx context.Context, docID string) (*docstore.DocumentRecord, error) {
	var doc documentModel
	if err := s.db.WithContext(ctx).Where("doc_id = ?", docID).First(&doc).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("postgresstore: load document %s: %w", docID, err)
	}

	var snapshots []snapshotModel
	if err := s.db.WithContext(ctx).Where("doc_id = ?", docID).Find(&snapshots).Error; err != nil {
		return nil, fmt.Errorf("postgresstore: load snapshots for %s: %w", docID, err)
	}
	var updates []updateModel
	if err := s.db.WithContext(ctx).Where("doc_id = ?", docID).Order("server_version asc").Find(&updates).Error; err != nil {
		return nil, fmt.Errorf("postgresstore: load updates for %s: %w", docID, err)
	}

	out := &docstore.DocumentRecord{
		DocID:                 doc.DocID,
		ActiveSnapshotID:      doc.ActiveSnapshotID,
		ActiveSnapshotVersion: doc.ActiveSnapshotVersion,
		Snapshots:             make(map[string]*docstore.SnapshotRecord, len(snapshots)),
	}
	for _, snap := range snapshots {
		counters := map[uint64]uint64{}
		if snap.ClientCounters != "" {
			if err := json.Unmarshal([]byte(snap.ClientCounters), &counters); err != nil {
				return nil, fmt.Errorf("postgresstore: decode counters for %s: %w", snap.SnapshotID, err)
			}
		}
		out.Snapshots[snap.SnapshotID] = &docstore.SnapshotRecord{
			SnapshotID:       snap.SnapshotID,
			ParentSnapshotID: snap.ParentSnapshotID,
			BlobID:           snap.BlobID,
			CreatedAt:        snap.CreatedAt,
			Kind:             snap.Kind,
			ClientCounters:   counters,
		}
	}
	for _, u := range updates {
		snap, ok := out.Snapshots[u.SnapshotID]
		if !ok {
			continue
		}
		snap.Updates = append(snap.Updates, docstore.UpdateIndexRecord{
			ServerVersion: u.ServerVersion,
			ClientID:      u.ClientID,
			Counter:       u.Counter,
			BlobID:        u.BlobID,
		})
	}
	return out, nil
}

func (s *Store) Save(ctx context.Context, doc *docstore.DocumentRecord) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		docRow := documentModel{
			DocID:                 doc.DocID,
			ActiveSnapshotID:      doc.ActiveSnapshotID,
			ActiveSnapshotVersion: doc.ActiveSnapshotVersion,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "doc_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"active_snapshot_id", "active_snapshot_version"}),
		}).Create(&docRow).Error; err != nil {
			return fmt.Errorf("upsert document: %w", err)
		}

		for _, snap := range doc.Snapshots {
			counters, err := json.Marshal(snap.ClientCounters)
			if err != nil {
				return fmt.Errorf("encode counters for %s: %w", snap.SnapshotID, err)
			}
			snapRow := snapshotModel{
				SnapshotID:       snap.SnapshotID,
				DocID:            doc.DocID,
				ParentSnapshotID: snap.ParentSnapshotID,
				BlobID:           snap.BlobID,
				CreatedAt:        snap.CreatedAt,
				Kind:             snap.Kind,
				ClientCounters:   string(counters),
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "snapshot_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"parent_snapshot_id", "blob_id", "kind", "client_counters"}),
			}).Create(&snapRow).Error; err != nil {
				return fmt.Errorf("upsert snapshot %s: %w", snap.SnapshotID, err)
			}

			for _, u := range snap.Updates {
				row := updateModel{
					DocID:         doc.DocID,
					SnapshotID:    snap.SnapshotID,
					ServerVersion: u.ServerVersion,
					ClientID:      u.ClientID,
					Counter:       u.Counter,
					BlobID:        u.BlobID,
				}
				// Updates are append-only and immutable once assigned a
				// server version; a conflict means this update was already
				// persisted by a prior Save.
				if err := tx.Clauses(clause.OnConflict{
					Columns:   []clause.Column{{Name: "snapshot_id"}, {Name: "server_version"}},
					DoNothing: true,
				}).Create(&row).Error; err != nil {
					return fmt.Errorf("insert update %s/%d: %w", snap.SnapshotID, u.ServerVersion, err)
				}
			}
		}
		return nil
	})
}

var _ docstore.Backend = (*Store)(nil)
