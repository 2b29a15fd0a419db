package repository

import (
	"context"

	"github.com/sangkips/mesa-api/internal/domain/entity"
	"github.com/sangkips/mesa-api/pkg/docstore"
)

// OrderRepository defines the interface for order data operations
type OrderRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Order, error)
	List(ctx context.Context) ([]entity.Order, error)
	ListByTable(ctx context.Context, tableID string) ([]entity.Order, error)
	// ListByTables returns the orders of any of the tables, in creation order.
	ListByTables(ctx context.Context, tableIDs []string) ([]entity.Order, error)
	StageSave(b *docstore.Batch, order *entity.Order)
	StageDelete(b *docstore.Batch, id string)
	// StageRequireDelivered fails the commit unless the order exists with the given delivered flag.
	StageRequireDelivered(b *docstore.Batch, id string, delivered bool)
}
