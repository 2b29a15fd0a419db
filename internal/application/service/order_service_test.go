package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/sangkips/mesa-api/internal/domain/entity"
	"github.com/sangkips/mesa-api/pkg/apperror"
)

func TestOrder_DeliverThenRevertRestoresStock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addStock(t, "Cerveja", 10, 12)
	ana := f.openTable(t, "Ana")

	o := f.order(t, ana.ID, "cerveja", 3)
	if q := f.quantity(t, "Cerveja"); q != 10 {
		t.Fatalf("creating an order moved stock: %v", q)
	}

	delivered, err := f.orders.SetDelivered(ctx, o.ID)
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if !delivered.Delivered {
		t.Error("order not marked delivered")
	}
	if q := f.quantity(t, "Cerveja"); q != 7 {
		t.Fatalf("after delivery stock = %v, want 7", q)
	}

	if err := f.orders.RevertAndRemove(ctx, o.ID); err != nil {
		t.Fatalf("revert: %v", err)
	}
	if q := f.quantity(t, "Cerveja"); q != 10 {
		t.Errorf("after revert stock = %v, want 10", q)
	}
	if _, err := f.orders.Get(ctx, o.ID); !apperror.IsKind(err, apperror.KindNotFound) {
		t.Errorf("order still present after revert: %v", err)
	}
}

func TestOrder_SetDeliveredIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addStock(t, "Gin", 5, 20)
	table := f.openTable(t, "Bruno")
	o := f.order(t, table.ID, "Gin", 2)

	for i := 0; i < 3; i++ {
		if _, err := f.orders.SetDelivered(ctx, o.ID); err != nil {
			t.Fatalf("delivery %d: %v", i+1, err)
		}
	}
	if q := f.quantity(t, "Gin"); q != 3 {
		t.Errorf("stock = %v after repeated deliveries, want 3", q)
	}
}

func TestOrder_ComboDebitsSubItemsOnly(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addStock(t, "Cerveja", 12, 12)
	f.addStock(t, "Balde de Cerveja", 4, 50)
	table := f.openTable(t, "Carla")

	if _, err := f.orders.Create(ctx, &CreateOrderInput{
		TableID: table.ID,
		Items:   []OrderItemInput{{Name: "balde de cerveja", Quantity: 3}},
	}); !apperror.IsKind(err, apperror.KindInsufficientStock) {
		t.Fatalf("expected InsufficientStock for 15 beers out of 12, got %v", err)
	}

	o := f.order(t, table.ID, "Balde de Cerveja", 2)
	if o.Items[0].UnitPrice != 50 {
		t.Errorf("price snapshot = %v, want 50", o.Items[0].UnitPrice)
	}
	if _, err := f.orders.SetDelivered(ctx, o.ID); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if q := f.quantity(t, "Cerveja"); q != 2 {
		t.Errorf("cerveja = %v, want 2", q)
	}
	if q := f.quantity(t, "Balde de Cerveja"); q != 4 {
		t.Errorf("combo row changed to %v", q)
	}
}

func TestOrder_FailedDeliveryLeavesNothingBehind(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addStock(t, "Cerveja", 10, 12)
	f.addStock(t, "Gin", 10, 20)
	table := f.openTable(t, "Davi")

	o, err := f.orders.Create(ctx, &CreateOrderInput{
		TableID: table.ID,
		Items:   []OrderItemInput{{Name: "Cerveja", Quantity: 2}, {Name: "Gin", Quantity: 4}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.stock.UpdateQuantity(ctx, "Gin", 3); err != nil {
		t.Fatalf("update quantity: %v", err)
	}

	_, err = f.orders.SetDelivered(ctx, o.ID)
	assertKind(t, err, apperror.KindInsufficientStock)

	if q := f.quantity(t, "Cerveja"); q != 10 {
		t.Errorf("cerveja debited by a failed delivery: %v", q)
	}
	got, _ := f.orders.Get(ctx, o.ID)
	if got.Delivered {
		t.Error("order marked delivered after a failed debit")
	}

	if _, err := f.stock.UpdateQuantity(ctx, "Gin", 10); err != nil {
		t.Fatalf("restock: %v", err)
	}
	boom := errors.New("connection reset")
	f.store.InjectFault(boom)
	_, err = f.orders.SetDelivered(ctx, o.ID)
	assertKind(t, err, apperror.KindTransientIO)
	if !errors.Is(err, boom) {
		t.Errorf("transient error lost its cause: %v", err)
	}
	f.store.ClearFault()

	if q := f.quantity(t, "Gin"); q != 10 {
		t.Errorf("gin moved by a failed commit: %v", q)
	}
}

func TestOrder_ConcurrentDeliveriesNeverOversell(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addStock(t, "Cerveja", 10, 12)
	table := f.openTable(t, "Lara")

	orders := make([]*entity.Order, 8)
	for i := range orders {
		orders[i] = f.order(t, table.ID, "Cerveja", 2)
	}

	errs := make([]error, len(orders))
	var wg sync.WaitGroup
	for i, o := range orders {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			_, errs[i] = f.orders.SetDelivered(ctx, id)
		}(i, o.ID)
	}
	wg.Wait()

	delivered := 0
	for _, err := range errs {
		if err == nil {
			delivered++
			continue
		}
		assertKind(t, err, apperror.KindInsufficientStock)
	}
	if delivered != 5 {
		t.Errorf("delivered %d orders of 2 from 10 beers, want 5", delivered)
	}
	if q := f.quantity(t, "Cerveja"); q != 0 {
		t.Errorf("stock = %v, want 0", q)
	}
}

func TestOrder_CreateFiltersInvalidItems(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addStock(t, "Cerveja", 10, 12)
	table := f.openTable(t, "Eva")

	o, err := f.orders.Create(ctx, &CreateOrderInput{
		TableID: table.ID,
		Items: []OrderItemInput{
			{Name: "Cerveja", Quantity: 1},
			{Name: "  ", Quantity: 2},
			{Name: "Cerveja", Quantity: 0},
			{Name: "Cerveja", Quantity: -1},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(o.Items) != 1 {
		t.Errorf("expected 1 valid item, got %d", len(o.Items))
	}

	_, err = f.orders.Create(ctx, &CreateOrderInput{
		TableID: table.ID,
		Items:   []OrderItemInput{{Name: "", Quantity: 1}},
	})
	assertKind(t, err, apperror.KindInvalidInput)

	_, err = f.orders.Create(ctx, &CreateOrderInput{
		TableID: table.ID,
		Items:   []OrderItemInput{{Name: "Mojito", Quantity: 1}},
	})
	assertKind(t, err, apperror.KindNotFound)

	_, err = f.orders.Create(ctx, &CreateOrderInput{
		TableID: "missing",
		Items:   []OrderItemInput{{Name: "Cerveja", Quantity: 1}},
	})
	assertKind(t, err, apperror.KindNotFound)
}

func TestOrder_RemoveRules(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addStock(t, "Cerveja", 10, 12)
	table := f.openTable(t, "Fábio")

	pending := f.order(t, table.ID, "Cerveja", 1)
	if err := f.orders.Remove(ctx, pending.ID); err != nil {
		t.Fatalf("remove pending: %v", err)
	}

	delivered := f.order(t, table.ID, "Cerveja", 2)
	if _, err := f.orders.SetDelivered(ctx, delivered.ID); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	assertKind(t, f.orders.Remove(ctx, delivered.ID), apperror.KindInvalidInput)

	if err := f.orders.RevertAndRemove(ctx, "missing"); err != nil {
		t.Errorf("revert of a missing order should be a no-op, got %v", err)
	}
	again := f.order(t, table.ID, "Cerveja", 1)
	if err := f.orders.RevertAndRemove(ctx, again.ID); err != nil {
		t.Errorf("revert of an undelivered order should be a no-op, got %v", err)
	}
	if _, err := f.orders.Get(ctx, again.ID); err != nil {
		t.Errorf("undelivered order removed by revert: %v", err)
	}
	if q := f.quantity(t, "Cerveja"); q != 8 {
		t.Errorf("stock = %v, want 8", q)
	}
}

func TestStock_ValidateAvailability(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addStock(t, "Cerveja", 10, 12)
	f.addStock(t, "Café", 2, 5)

	tests := []struct {
		name  string
		items []StockRequest
		kind  apperror.Kind
	}{
		{"exact quantity", []StockRequest{{Name: "cerveja", Quantity: 10}}, ""},
		{"one over", []StockRequest{{Name: "Cerveja", Quantity: 11}}, apperror.KindInsufficientStock},
		{"accent and case", []StockRequest{{Name: "CAFE", Quantity: 2}}, ""},
		{"summed across lines", []StockRequest{{Name: "café", Quantity: 1}, {Name: "Cafe", Quantity: 2}}, apperror.KindInsufficientStock},
		{"combo within stock", []StockRequest{{Name: "Balde de Cerveja", Quantity: 2}}, ""},
		{"combo over stock", []StockRequest{{Name: "Balde de Cerveja", Quantity: 1}, {Name: "Cerveja", Quantity: 6}}, apperror.KindInsufficientStock},
		{"unknown item", []StockRequest{{Name: "Vinho", Quantity: 1}}, apperror.KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.stock.ValidateAvailability(ctx, tt.items)
			if tt.kind == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			assertKind(t, err, tt.kind)
		})
	}
}

func TestStock_ValidateAvailabilityChecksComboRow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addStock(t, "Cerveja", 12, 12)
	f.addStock(t, "Balde de Cerveja", 1, 50)

	if err := f.stock.ValidateAvailability(ctx, []StockRequest{{Name: "Balde de Cerveja", Quantity: 1}}); err != nil {
		t.Fatalf("combo with stock on both rows: %v", err)
	}

	if _, err := f.stock.UpdateQuantity(ctx, "Balde de Cerveja", 0); err != nil {
		t.Fatalf("update quantity: %v", err)
	}
	err := f.stock.ValidateAvailability(ctx, []StockRequest{{Name: "balde de cerveja", Quantity: 1}})
	assertKind(t, err, apperror.KindInsufficientStock)

	table := f.openTable(t, "Iara")
	_, err = f.orders.Create(ctx, &CreateOrderInput{
		TableID: table.ID,
		Items:   []OrderItemInput{{Name: "Balde de Cerveja", Quantity: 1}},
	})
	assertKind(t, err, apperror.KindInsufficientStock)
	if q := f.quantity(t, "Cerveja"); q != 12 {
		t.Errorf("cerveja moved by a rejected order: %v", q)
	}
}

func TestStock_RemoveIfDepleted(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addStock(t, "Limão", 3, 1)

	removed, err := f.stock.RemoveIfDepleted(ctx, "limao")
	if err != nil || removed {
		t.Fatalf("removed = %v, err = %v; want kept", removed, err)
	}

	if _, err := f.stock.UpdateQuantity(ctx, "limao", 0); err != nil {
		t.Fatalf("update: %v", err)
	}
	removed, err = f.stock.RemoveIfDepleted(ctx, "limao")
	if err != nil || !removed {
		t.Fatalf("removed = %v, err = %v; want removed", removed, err)
	}
	if _, err := f.menu.Get(ctx, "Limão"); !apperror.IsKind(err, apperror.KindNotFound) {
		t.Errorf("menu entry survived removal: %v", err)
	}
}

func TestMenu_PriceCacheFollowsChanges(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addStock(t, "Cerveja", 10, 12)

	if p, ok, _ := f.menu.Price(ctx, "CERVEJA"); !ok || p != 12 {
		t.Fatalf("price = %v, %v; want 12", p, ok)
	}
	if _, err := f.menu.Upsert(ctx, &MenuItemInput{Name: "Cerveja", UnitPrice: 14}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if p, _, _ := f.menu.Price(ctx, "cerveja"); p != 14 {
		t.Errorf("price after update = %v, want 14", p)
	}

	var got int
	unsubscribe := f.menu.SubscribeMenu(func(items []entity.MenuItem) { got = len(items) })
	f.addStock(t, "Gin", 1, 20)
	unsubscribe()
	if got != 2 {
		t.Errorf("subscriber saw %d items, want 2", got)
	}
}
