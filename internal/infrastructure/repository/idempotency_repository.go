package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/sangkips/mesa-api/internal/domain/entity"
	domainRepo "github.com/sangkips/mesa-api/internal/domain/repository"
	"github.com/sangkips/mesa-api/pkg/docstore"
)

type idempotencyRepository struct {
	docs documents[entity.IdempotencyKey]
}

// NewIdempotencyRepository creates a new idempotency repository
func NewIdempotencyRepository(store docstore.Store) domainRepo.IdempotencyRepository {
	return &idempotencyRepository{docs: documents[entity.IdempotencyKey]{store: store, collection: CollectionIdempotency}}
}

// Client keys are free text, so the document id is a hash of key and staff.
func idempotencyID(key, staffID string) string {
	sum := sha256.Sum256([]byte(staffID + "\x00" + key))
	return hex.EncodeToString(sum[:])
}

func (r *idempotencyRepository) GetByKey(ctx context.Context, key string, staffID string) (*entity.IdempotencyKey, error) {
	return r.docs.get(ctx, idempotencyID(key, staffID))
}

func (r *idempotencyRepository) Create(ctx context.Context, ikey *entity.IdempotencyKey) error {
	return r.docs.set(ctx, idempotencyID(ikey.Key, ikey.StaffID), ikey)
}

func (r *idempotencyRepository) DeleteExpired(ctx context.Context) error {
	docs, err := r.docs.store.List(ctx, CollectionIdempotency)
	if err != nil {
		return err
	}
	now := time.Now()
	expired := make(map[string]interface{})
	for _, doc := range docs {
		var ikey entity.IdempotencyKey
		if err := doc.DataTo(&ikey); err != nil {
			continue
		}
		if now.After(ikey.ExpiresAt) {
			expired[doc.Path] = nil
		}
	}
	if len(expired) == 0 {
		return nil
	}
	return docstore.UpdateAll(ctx, r.docs.store, expired)
}
