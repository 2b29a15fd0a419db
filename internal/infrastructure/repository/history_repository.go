package repository

import (
	"context"
	"sort"

	"github.com/sangkips/mesa-api/internal/domain/entity"
	domainRepo "github.com/sangkips/mesa-api/internal/domain/repository"
	"github.com/sangkips/mesa-api/pkg/docstore"
)

type historyRepository struct {
	docs documents[entity.HistoryEntry]
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(store docstore.Store) domainRepo.HistoryRepository {
	return &historyRepository{docs: documents[entity.HistoryEntry]{store: store, collection: CollectionHistory}}
}

func (r *historyRepository) GetByID(ctx context.Context, id string) (*entity.HistoryEntry, error) {
	return r.docs.get(ctx, id)
}

func (r *historyRepository) List(ctx context.Context) ([]entity.HistoryEntry, error) {
	entries, err := r.docs.list(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].ClosedAt.After(entries[j].ClosedAt)
	})
	return entries, nil
}

func (r *historyRepository) StageSave(b *docstore.Batch, entry *entity.HistoryEntry) {
	b.Set(r.docs.path(entry.ID), entry)
}

func (r *historyRepository) Delete(ctx context.Context, id string) error {
	return r.docs.delete(ctx, id)
}

type cashRepository struct {
	docs documents[entity.CashMovement]
}

// NewCashRepository creates a new cash movement repository
func NewCashRepository(store docstore.Store) domainRepo.CashRepository {
	return &cashRepository{docs: documents[entity.CashMovement]{store: store, collection: CollectionCash}}
}

func (r *cashRepository) List(ctx context.Context) ([]entity.CashMovement, error) {
	movements, err := r.docs.list(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(movements, func(i, j int) bool {
		return movements[i].CreatedAt.After(movements[j].CreatedAt)
	})
	return movements, nil
}

func (r *cashRepository) StageSave(b *docstore.Batch, movement *entity.CashMovement) {
	b.Set(r.docs.path(movement.ID), movement)
}
