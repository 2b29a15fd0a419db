package repository

import (
	"context"
	"sort"

	"github.com/sangkips/mesa-api/internal/domain/entity"
	domainRepo "github.com/sangkips/mesa-api/internal/domain/repository"
	"github.com/sangkips/mesa-api/pkg/docstore"
)

type orderRepository struct {
	docs documents[entity.Order]
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(store docstore.Store) domainRepo.OrderRepository {
	return &orderRepository{docs: documents[entity.Order]{store: store, collection: CollectionOrders}}
}

func (r *orderRepository) GetByID(ctx context.Context, id string) (*entity.Order, error) {
	return r.docs.get(ctx, id)
}

func (r *orderRepository) List(ctx context.Context) ([]entity.Order, error) {
	orders, err := r.docs.list(ctx)
	if err != nil {
		return nil, err
	}
	sortByCreation(orders)
	return orders, nil
}

func (r *orderRepository) ListByTable(ctx context.Context, tableID string) ([]entity.Order, error) {
	return r.ListByTables(ctx, []string{tableID})
}

func (r *orderRepository) ListByTables(ctx context.Context, tableIDs []string) ([]entity.Order, error) {
	all, err := r.docs.list(ctx)
	if err != nil {
		return nil, err
	}
	wanted := make(map[string]bool, len(tableIDs))
	for _, id := range tableIDs {
		wanted[id] = true
	}

	var orders []entity.Order
	for _, o := range all {
		if wanted[o.TableID] {
			orders = append(orders, o)
		}
	}
	sortByCreation(orders)
	return orders, nil
}

func (r *orderRepository) StageSave(b *docstore.Batch, order *entity.Order) {
	b.Set(r.docs.path(order.ID), order)
}

func (r *orderRepository) StageDelete(b *docstore.Batch, id string) {
	b.Delete(r.docs.path(id))
}

func (r *orderRepository) StageRequireDelivered(b *docstore.Batch, id string, delivered bool) {
	b.RequireEqual(r.docs.path(id), "delivered", delivered)
}

func sortByCreation(orders []entity.Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.Before(orders[j].CreatedAt)
	})
}
