package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sangkips/mesa-api/internal/domain/entity"
	"github.com/sangkips/mesa-api/pkg/docstore"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DocumentStore keeps the shared documents in one PostgreSQL table. Every
// commit runs in a transaction that locks the touched rows, so concurrent
// increments serialize the same way the product stock updates do.
type DocumentStore struct {
	db *gorm.DB
	*docstore.Notifier
}

// NewDocumentStore wraps an open connection. Run AutoMigrate first.
func NewDocumentStore(db *gorm.DB) *DocumentStore {
	return &DocumentStore{db: db, Notifier: docstore.NewNotifier()}
}

func (s *DocumentStore) Get(ctx context.Context, path string) (*docstore.Document, error) {
	var rec entity.DocumentRecord
	if err := s.db.WithContext(ctx).Where("path = ?", path).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, docstore.ErrNotFound
		}
		return nil, err
	}
	data, err := decode(rec)
	if err != nil {
		return nil, err
	}
	return &docstore.Document{Path: rec.Path, Data: data}, nil
}

func (s *DocumentStore) List(ctx context.Context, collection string) ([]docstore.Document, error) {
	var recs []entity.DocumentRecord
	if err := s.db.WithContext(ctx).
		Where("collection = ?", collection).
		Order("path ASC").
		Find(&recs).Error; err != nil {
		return nil, err
	}

	docs := make([]docstore.Document, 0, len(recs))
	for _, rec := range recs {
		data, err := decode(rec)
		if err != nil {
			return nil, err
		}
		docs = append(docs, docstore.Document{Path: rec.Path, Data: data})
	}
	return docs, nil
}

func (s *DocumentStore) Commit(ctx context.Context, b *docstore.Batch) error {
	if err := b.Err(); err != nil {
		return err
	}
	if b.Len() == 0 {
		return nil
	}

	var staged map[string]map[string]interface{}
	var ticket uint64
	ticketed := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// A missing row cannot be locked, so documents that must stay absent
		// are serialized on an advisory lock instead.
		for _, path := range b.AbsentPaths() {
			if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", path).Error; err != nil {
				return err
			}
		}

		// Lock in path order so two commits touching the same rows cannot deadlock.
		var recs []entity.DocumentRecord
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("path IN ?", b.Paths()).
			Order("path ASC").
			Find(&recs).Error; err != nil {
			return err
		}

		current := make(map[string]map[string]interface{}, len(recs))
		for _, rec := range recs {
			data, err := decode(rec)
			if err != nil {
				return err
			}
			current[rec.Path] = data
		}

		var err error
		staged, err = docstore.Apply(b, func(path string) (map[string]interface{}, bool) {
			data, ok := current[path]
			return data, ok
		})
		if err != nil {
			return err
		}

		now := time.Now()
		for path, data := range staged {
			if data == nil {
				if err := tx.Where("path = ?", path).Delete(&entity.DocumentRecord{}).Error; err != nil {
					return err
				}
				continue
			}
			raw, err := json.Marshal(data)
			if err != nil {
				return fmt.Errorf("encode %s: %w", path, err)
			}
			rec := entity.DocumentRecord{
				Path:       path,
				Collection: docstore.CollectionOf(path),
				Data:       datatypes.JSON(raw),
				UpdatedAt:  now,
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "path"}},
				DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
			}).Create(&rec).Error; err != nil {
				return err
			}
		}
		// Taken while the rows are still locked, so it follows commit order.
		ticket, ticketed = s.Ticket(), true
		return nil
	})
	if err != nil {
		if ticketed {
			s.PublishInTurn(ticket, nil)
		}
		return err
	}

	s.PublishInTurn(ticket, docstore.Changes(b, staged))
	return nil
}

// Subscribe only sees commits made through this process.
func (s *DocumentStore) Subscribe(collection string, fn func(docstore.Change)) func() {
	return s.Notifier.Subscribe(collection, fn)
}

func (s *DocumentStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *DocumentStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func decode(rec entity.DocumentRecord) (map[string]interface{}, error) {
	var data map[string]interface{}
	if err := json.Unmarshal(rec.Data, &data); err != nil {
		return nil, fmt.Errorf("decode %s: %w", rec.Path, err)
	}
	return data, nil
}
