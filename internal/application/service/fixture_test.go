package service

import (
	"context"
	"testing"

	"github.com/sangkips/mesa-api/internal/domain/combo"
	"github.com/sangkips/mesa-api/internal/domain/entity"
	"github.com/sangkips/mesa-api/internal/domain/event"
	"github.com/sangkips/mesa-api/internal/infrastructure/repository"
	"github.com/sangkips/mesa-api/pkg/apperror"
	"github.com/sangkips/mesa-api/pkg/docstore"
)

type fixture struct {
	store   *docstore.MemoryStore
	stock   *StockService
	menu    *MenuService
	orders  *OrderService
	tables  *TableService
	history *HistoryService
	cash    *CashService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	combos, err := combo.NewRegistry([]combo.Definition{
		{Name: "Balde de Cerveja", Items: []combo.Component{{Name: "Cerveja", Quantity: 5}}},
	})
	if err != nil {
		t.Fatalf("combos: %v", err)
	}

	store := docstore.NewMemoryStore()
	stockRepo := repository.NewStockRepository(store)
	menuRepo := repository.NewMenuRepository(store)
	orderRepo := repository.NewOrderRepository(store)
	tableRepo := repository.NewTableRepository(store)
	historyRepo := repository.NewHistoryRepository(store)
	cashRepo := repository.NewCashRepository(store)

	f := &fixture{store: store}
	f.stock = NewStockService(store, stockRepo, menuRepo, combos, event.Discard, 5)
	f.menu = NewMenuService(store, menuRepo, event.Discard)
	t.Cleanup(f.menu.Close)
	f.orders = NewOrderService(store, orderRepo, tableRepo, f.stock, f.menu, event.Discard)
	f.tables = NewTableService(store, tableRepo, repository.NewMergedTableRepository(store), orderRepo, historyRepo, cashRepo, f.menu, event.Discard)
	f.history = NewHistoryService(historyRepo)
	f.cash = NewCashService(store, cashRepo, event.Discard)
	return f
}

func (f *fixture) addStock(t *testing.T, name string, qty, price float64) {
	t.Helper()
	if _, err := f.stock.AddToStockAndMenu(context.Background(), &AddStockInput{Name: name, Quantity: qty, UnitPrice: price}); err != nil {
		t.Fatalf("add %s: %v", name, err)
	}
}

func (f *fixture) quantity(t *testing.T, name string) float64 {
	t.Helper()
	item, err := f.stock.Get(context.Background(), name)
	if err != nil {
		t.Fatalf("get %s: %v", name, err)
	}
	return item.Quantity
}

func (f *fixture) openTable(t *testing.T, name string) *entity.Table {
	t.Helper()
	table, err := f.tables.Create(context.Background(), &CreateTableInput{ClientName: name})
	if err != nil {
		t.Fatalf("open table %s: %v", name, err)
	}
	return table
}

func (f *fixture) order(t *testing.T, tableID, item string, qty float64) *entity.Order {
	t.Helper()
	o, err := f.orders.Create(context.Background(), &CreateOrderInput{
		TableID: tableID,
		Items:   []OrderItemInput{{Name: item, Quantity: qty}},
	})
	if err != nil {
		t.Fatalf("order %v %s: %v", qty, item, err)
	}
	return o
}

func assertKind(t *testing.T, err error, kind apperror.Kind) {
	t.Helper()
	if !apperror.IsKind(err, kind) {
		t.Fatalf("expected %s error, got %v", kind, err)
	}
}

func amount(v float64) *float64 {
	return &v
}
