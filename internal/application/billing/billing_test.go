package billing

import (
	"testing"

	"github.com/sangkips/mesa-api/internal/domain/entity"
)

func order(items ...entity.LineItem) entity.Order {
	return entity.Order{Items: items}
}

func item(name string, qty, price float64) entity.LineItem {
	return entity.LineItem{ItemName: name, Quantity: qty, UnitPrice: price}
}

func TestOrderTotal_UsesLivePriceWithSnapshotFallback(t *testing.T) {
	menu := map[string]float64{"cerveja": 12}
	prices := func(name string) (float64, bool) {
		p, ok := menu[name]
		return p, ok
	}

	o := order(item("cerveja", 2, 10), item("porcao", 1, 35.5))

	if got := OrderTotal(o, prices); got != 59.5 {
		t.Errorf("live total = %v, want 59.5", got)
	}
	if got := OrderTotal(o, SnapshotPrices); got != 55.5 {
		t.Errorf("snapshot total = %v, want 55.5", got)
	}
}

func TestTableTotals_AvoidFloatDrift(t *testing.T) {
	orders := []entity.Order{
		order(item("a", 3, 0.1)),
		order(item("b", 1, 0.2)),
	}
	if got := TableTotalBeforeDiscount(orders, nil); got != 0.5 {
		t.Errorf("total = %v, want 0.5", got)
	}
}

func TestMergedTableScenario(t *testing.T) {
	t1 := order(item("drink", 2, 10))
	t2 := order(item("drink", 3, 10))

	total := TableTotalBeforeDiscount([]entity.Order{t1, t2}, nil)
	if total != 50 {
		t.Fatalf("total = %v, want 50", total)
	}
	remaining := Remaining(AfterDiscount(total, 0), 10, 0)
	if remaining != 40 {
		t.Fatalf("remaining = %v, want 40", remaining)
	}
	per, err := PerSplit(remaining, 2)
	if err != nil || per != 20 {
		t.Errorf("per split = %v, %v; want 20", per, err)
	}
}

func TestDiscountAndPaymentScenario(t *testing.T) {
	after := AfterDiscount(100, 10)
	if after != 90 {
		t.Fatalf("after discount = %v, want 90", after)
	}

	remaining := Remaining(after, 0, 50)
	if remaining != 40 {
		t.Errorf("remaining = %v, want 40", remaining)
	}
	if IsSufficientPayment(50, after) {
		t.Error("50 should not cover 90")
	}
	if !IsPartialPayment(0, 50, after) {
		t.Error("50 of 90 should be partial")
	}
	if IsPartialPayment(0, 0, after) {
		t.Error("nothing paid is not partial")
	}

	if !IsSufficientPayment(90, after) {
		t.Error("90 should cover 90")
	}
	if got := Change(90, after); got != 0 {
		t.Errorf("change = %v, want 0", got)
	}
	if got := Change(100, after); got != 10 {
		t.Errorf("change = %v, want 10", got)
	}
}

func TestAfterDiscount_NeverNegative(t *testing.T) {
	if got := AfterDiscount(10, 25); got != 0 {
		t.Errorf("got %v, want 0", got)
	}
	if got := Remaining(10, 8, 5); got != 0 {
		t.Errorf("got %v, want 0", got)
	}
}

func TestPerSplit(t *testing.T) {
	tests := []struct {
		remaining float64
		n         int
		want      float64
		wantErr   bool
	}{
		{100, 3, 33.33, false},
		{10, 1, 10, false},
		{0, 4, 0, false},
		{10, 0, 0, true},
		{10, -2, 0, true},
	}
	for _, tt := range tests {
		got, err := PerSplit(tt.remaining, tt.n)
		if (err != nil) != tt.wantErr {
			t.Errorf("PerSplit(%v, %d) error = %v", tt.remaining, tt.n, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PerSplit(%v, %d) = %v, want %v", tt.remaining, tt.n, got, tt.want)
		}
	}
}

func TestLines_GroupsByNameAndPrice(t *testing.T) {
	orders := []entity.Order{
		order(item("Cerveja", 2, 10), item("Porção", 1, 30)),
		order(item("cerveja", 1, 10)),
	}
	lines := Lines(orders, nil)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %+v", len(lines), lines)
	}
	if lines[0].Name != "Cerveja" || lines[0].Quantity != 3 || lines[0].Total != 30 {
		t.Errorf("unexpected first line %+v", lines[0])
	}
}

func TestCalculate(t *testing.T) {
	in := Input{
		Orders:     []entity.Order{order(item("drink", 10, 10))},
		Discount:   10,
		PriorPaid:  20,
		Received:   80,
		SplitCount: 2,
	}
	s, err := Calculate(in)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if s.BeforeDiscount != 100 || s.AfterDiscount != 90 || s.Remaining != 70 {
		t.Errorf("unexpected totals %+v", s)
	}
	if s.PerSplit != 35 || s.Change != 10 || !s.Sufficient || !s.Partial {
		t.Errorf("unexpected payment view %+v", s)
	}

	in.Discount = 150
	if _, err := Calculate(in); err == nil {
		t.Error("expected error for discount above total")
	}
}
