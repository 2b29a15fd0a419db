package repository

import (
	"context"

	"github.com/sangkips/mesa-api/internal/domain/entity"
	domainRepo "github.com/sangkips/mesa-api/internal/domain/repository"
	"github.com/sangkips/mesa-api/pkg/docstore"
)

const quantityField = "quantity"

type stockRepository struct {
	docs documents[entity.StockItem]
}

// NewStockRepository creates a new stock repository
func NewStockRepository(store docstore.Store) domainRepo.StockRepository {
	return &stockRepository{docs: documents[entity.StockItem]{store: store, collection: CollectionStock}}
}

func (r *stockRepository) GetByID(ctx context.Context, id string) (*entity.StockItem, error) {
	item, err := r.docs.get(ctx, id)
	if item != nil && item.ID == "" {
		item.ID = id
	}
	return item, err
}

// List fills in IDs for rows written by older clients that kept the key only in the path.
func (r *stockRepository) List(ctx context.Context) ([]entity.StockItem, error) {
	docs, err := r.docs.store.List(ctx, CollectionStock)
	if err != nil {
		return nil, err
	}
	items := make([]entity.StockItem, 0, len(docs))
	for _, doc := range docs {
		var item entity.StockItem
		if err := doc.DataTo(&item); err != nil {
			return nil, err
		}
		if item.ID == "" {
			item.ID = doc.ID()
		}
		if item.Name == "" {
			item.Name = doc.ID()
		}
		items = append(items, item)
	}
	return items, nil
}

func (r *stockRepository) StageSave(b *docstore.Batch, item *entity.StockItem) {
	b.Set(r.docs.path(item.ID), item)
}

func (r *stockRepository) StageUpdate(b *docstore.Batch, id string, fields map[string]interface{}) {
	b.Merge(r.docs.path(id), fields)
}

func (r *stockRepository) StageDelete(b *docstore.Batch, id string) {
	b.Delete(r.docs.path(id))
}

func (r *stockRepository) StageIncrement(b *docstore.Batch, id string, delta float64) {
	b.Increment(r.docs.path(id), quantityField, delta)
}

func (r *stockRepository) StageRequireAtLeast(b *docstore.Batch, id string, min float64) {
	b.RequireAtLeast(r.docs.path(id), quantityField, min)
}

func (r *stockRepository) StageSetQuantity(b *docstore.Batch, id string, quantity float64) {
	b.Merge(r.docs.path(id), map[string]interface{}{quantityField: quantity})
}

type menuRepository struct {
	docs documents[entity.MenuItem]
}

// NewMenuRepository creates a new menu repository
func NewMenuRepository(store docstore.Store) domainRepo.MenuRepository {
	return &menuRepository{docs: documents[entity.MenuItem]{store: store, collection: CollectionMenu}}
}

func (r *menuRepository) GetByKey(ctx context.Context, key string) (*entity.MenuItem, error) {
	return r.docs.get(ctx, key)
}

func (r *menuRepository) List(ctx context.Context) ([]entity.MenuItem, error) {
	return r.docs.list(ctx)
}

func (r *menuRepository) StageSave(b *docstore.Batch, item *entity.MenuItem) {
	b.Set(r.docs.path(item.Key), item)
}

func (r *menuRepository) StageDelete(b *docstore.Batch, key string) {
	b.Delete(r.docs.path(key))
}

func (r *menuRepository) Subscribe(fn func()) func() {
	return r.docs.store.Subscribe(CollectionMenu, func(docstore.Change) { fn() })
}
