package service

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/sangkips/mesa-api/internal/domain/entity"
	"github.com/sangkips/mesa-api/internal/domain/enum"
	"github.com/sangkips/mesa-api/internal/domain/event"
	"github.com/sangkips/mesa-api/internal/domain/repository"
	"github.com/sangkips/mesa-api/pkg/apperror"
	"github.com/sangkips/mesa-api/pkg/docstore"
	"github.com/sangkips/mesa-api/pkg/utils"
)

// OrderService handles order-related operations
type OrderService struct {
	store     docstore.Store
	orderRepo repository.OrderRepository
	tableRepo repository.TableRepository
	stock     *StockService
	menu      *MenuService
	events    event.Publisher
}

// NewOrderService creates a new order service
func NewOrderService(
	store docstore.Store,
	orderRepo repository.OrderRepository,
	tableRepo repository.TableRepository,
	stock *StockService,
	menu *MenuService,
	events event.Publisher,
) *OrderService {
	return &OrderService{
		store:     store,
		orderRepo: orderRepo,
		tableRepo: tableRepo,
		stock:     stock,
		menu:      menu,
		events:    events,
	}
}

// OrderItemInput represents an item in an order
type OrderItemInput struct {
	Name     string
	Quantity float64
	Note     string
}

// CreateOrderInput represents the create order input
type CreateOrderInput struct {
	TableID   string
	Items     []OrderItemInput
	CreatedBy string
}

// Create places an order for an open table. Items without a name or with a
// non-positive quantity are dropped; the call fails only when none remain.
func (s *OrderService) Create(ctx context.Context, input *CreateOrderInput) (*entity.Order, error) {
	var items []OrderItemInput
	for _, it := range input.Items {
		it.Name = strings.TrimSpace(it.Name)
		if it.Name == "" || it.Quantity <= 0 {
			continue
		}
		items = append(items, it)
	}
	if len(items) == 0 {
		return nil, apperror.NewInvalidInputError("Order for table %s has no valid items", input.TableID)
	}

	table, err := s.tableRepo.GetByID(ctx, input.TableID)
	if err != nil {
		return nil, storeErr("read table "+input.TableID, err)
	}
	if table == nil {
		return nil, apperror.NewNotFoundError("Table " + input.TableID)
	}
	if !table.IsOpen() {
		return nil, apperror.NewInvalidInputError("Table %q is closed", table.ClientName)
	}

	requests := make([]StockRequest, 0, len(items))
	for _, it := range items {
		requests = append(requests, StockRequest{Name: it.Name, Quantity: it.Quantity})
	}
	if err := s.stock.ValidateAvailability(ctx, requests); err != nil {
		return nil, err
	}

	lines := make([]entity.LineItem, 0, len(items))
	for _, it := range items {
		price, ok, err := s.menu.Price(ctx, it.Name)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, apperror.NewNotFoundError("Menu item \"" + it.Name + "\"")
		}
		lines = append(lines, entity.LineItem{
			ItemName:  it.Name,
			Quantity:  it.Quantity,
			UnitPrice: price,
			Note:      strings.TrimSpace(it.Note),
		})
	}

	order := &entity.Order{
		ID:        utils.NewID(),
		TableID:   table.ID,
		Items:     lines,
		Status:    enum.OrderStatusAwaiting,
		CreatedBy: input.CreatedBy,
		CreatedAt: time.Now(),
	}

	b := docstore.NewBatch()
	s.tableRepo.StageRequireStatus(b, table.ID, enum.TableStatusOpen)
	s.orderRepo.StageSave(b, order)
	if err := s.store.Commit(ctx, b); err != nil {
		if _, ok := precondition(err); ok {
			return nil, apperror.NewInvalidInputError("Table %q was closed before the order was saved", table.ClientName)
		}
		return nil, storeErr("create order for table "+table.ID, err)
	}

	publish(ctx, s.events, event.New(event.OrderCreated, order.ID, order))
	return order, nil
}

// SetDelivered marks the order delivered and debits its items from stock in
// the same commit. Delivering an already delivered order returns it unchanged.
func (s *OrderService) SetDelivered(ctx context.Context, id string) (*entity.Order, error) {
	order, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.Delivered {
		return order, nil
	}

	b := docstore.NewBatch()
	moves, err := s.stock.StageDebit(ctx, b, stockRequests(order))
	if err != nil {
		return nil, err
	}
	s.orderRepo.StageRequireDelivered(b, order.ID, false)
	order.MarkDelivered(time.Now())
	s.orderRepo.StageSave(b, order)

	if err := s.store.Commit(ctx, b); err != nil {
		if pre, ok := precondition(err); ok && docstore.ID(pre.Guard.Path) == order.ID {
			// Another device delivered or removed it first.
			return s.Get(ctx, id)
		}
		return nil, s.stock.translateCommitErr(err, moves, "deliver order "+order.ID)
	}

	s.stock.publishMoves(ctx, moves, "order "+order.ID+" delivered")
	publish(ctx, s.events, event.New(event.OrderDelivered, order.ID, order))
	return order, nil
}

// Remove deletes an order that was never delivered. Delivered orders must go
// through RevertAndRemove so their stock comes back.
func (s *OrderService) Remove(ctx context.Context, id string) error {
	order, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if order.Delivered {
		return apperror.NewInvalidInputError("Order %s was already delivered; revert it to return its items to stock", order.ID)
	}

	b := docstore.NewBatch()
	s.orderRepo.StageRequireDelivered(b, order.ID, false)
	s.orderRepo.StageDelete(b, order.ID)
	if err := s.store.Commit(ctx, b); err != nil {
		if _, ok := precondition(err); ok {
			return apperror.NewInvalidInputError("Order %s was delivered or removed meanwhile", order.ID)
		}
		return storeErr("remove order "+order.ID, err)
	}

	publish(ctx, s.events, event.New(event.OrderRemoved, order.ID, order))
	return nil
}

// RevertAndRemove credits a delivered order's items back to stock and
// deletes it. A missing or undelivered order is only logged.
func (s *OrderService) RevertAndRemove(ctx context.Context, id string) error {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return storeErr("read order "+id, err)
	}
	if order == nil {
		log.Printf("Warning: revert of order %s skipped: order not found", id)
		return nil
	}
	if !order.Delivered {
		log.Printf("Warning: revert of order %s skipped: order was not delivered", id)
		return nil
	}

	b := docstore.NewBatch()
	moves, err := s.stock.StageCredit(ctx, b, stockRequests(order))
	if err != nil {
		return err
	}
	s.orderRepo.StageRequireDelivered(b, order.ID, true)
	s.orderRepo.StageDelete(b, order.ID)

	if err := s.store.Commit(ctx, b); err != nil {
		if pre, ok := precondition(err); ok && docstore.ID(pre.Guard.Path) == order.ID {
			log.Printf("Warning: revert of order %s skipped: already reverted", id)
			return nil
		}
		return s.stock.translateCommitErr(err, moves, "revert order "+order.ID)
	}

	s.stock.publishMoves(ctx, moves, "order "+order.ID+" reverted")
	publish(ctx, s.events, event.New(event.OrderReverted, order.ID, order))
	return nil
}

// Get returns one order
func (s *OrderService) Get(ctx context.Context, id string) (*entity.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr("read order "+id, err)
	}
	if order == nil {
		return nil, apperror.NewNotFoundError("Order " + id)
	}
	return order, nil
}

// List returns every order, oldest first
func (s *OrderService) List(ctx context.Context) ([]entity.Order, error) {
	orders, err := s.orderRepo.List(ctx)
	if err != nil {
		return nil, storeErr("read orders", err)
	}
	return orders, nil
}

// ListByTable returns the orders of one table, oldest first
func (s *OrderService) ListByTable(ctx context.Context, tableID string) ([]entity.Order, error) {
	orders, err := s.orderRepo.ListByTable(ctx, tableID)
	if err != nil {
		return nil, storeErr("read orders of table "+tableID, err)
	}
	return orders, nil
}

func stockRequests(order *entity.Order) []StockRequest {
	reqs := make([]StockRequest, 0, len(order.Items))
	for _, it := range order.Items {
		reqs = append(reqs, StockRequest{Name: it.ItemName, Quantity: it.Quantity})
	}
	return reqs
}
