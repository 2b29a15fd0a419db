package repository

import (
	"context"

	"github.com/sangkips/mesa-api/internal/domain/entity"
	"github.com/sangkips/mesa-api/pkg/docstore"
)

// StockRepository defines the interface for stock data operations.
// Quantity changes are only ever staged as increments; there is no
// read-then-write path for quantities.
type StockRepository interface {
	GetByID(ctx context.Context, id string) (*entity.StockItem, error)
	List(ctx context.Context) ([]entity.StockItem, error)
	StageSave(b *docstore.Batch, item *entity.StockItem)
	// StageUpdate merges descriptive fields; it must not be used for quantity.
	StageUpdate(b *docstore.Batch, id string, fields map[string]interface{})
	StageDelete(b *docstore.Batch, id string)
	// StageIncrement adds delta to the quantity server-side.
	StageIncrement(b *docstore.Batch, id string, delta float64)
	// StageRequireAtLeast makes the commit fail unless quantity >= min.
	StageRequireAtLeast(b *docstore.Batch, id string, min float64)
	StageSetQuantity(b *docstore.Batch, id string, quantity float64)
}

// MenuRepository defines the interface for menu data operations
type MenuRepository interface {
	GetByKey(ctx context.Context, key string) (*entity.MenuItem, error)
	List(ctx context.Context) ([]entity.MenuItem, error)
	StageSave(b *docstore.Batch, item *entity.MenuItem)
	StageDelete(b *docstore.Batch, key string)
	// Subscribe calls fn after every menu change until unsubscribe is called.
	Subscribe(fn func()) (unsubscribe func())
}
