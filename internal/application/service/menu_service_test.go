package service

import (
	"context"
	"sync"
	"testing"

	"github.com/sangkips/mesa-api/internal/domain/entity"
	"github.com/sangkips/mesa-api/internal/domain/event"
	"github.com/sangkips/mesa-api/internal/domain/repository"
	"github.com/sangkips/mesa-api/pkg/docstore"
	"github.com/sangkips/mesa-api/pkg/utils"
)

// repricingMenu changes the price of one item right after the first List
// has read the menu, the way another device can while a read is in flight.
type repricingMenu struct {
	repository.MenuRepository
	store docstore.Store
	name  string
	price float64
	once  sync.Once
}

func (r *repricingMenu) List(ctx context.Context) ([]entity.MenuItem, error) {
	items, err := r.MenuRepository.List(ctx)
	r.once.Do(func() {
		item, getErr := r.MenuRepository.GetByKey(ctx, utils.DocumentKey(r.name))
		if getErr != nil || item == nil {
			return
		}
		item.UnitPrice = r.price
		b := docstore.NewBatch()
		r.MenuRepository.StageSave(b, item)
		_ = r.store.Commit(ctx, b)
	})
	return items, err
}

func TestMenu_PriceCacheSkipsReadsRacingAChange(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addStock(t, "Cerveja", 10, 10)

	repo := &repricingMenu{MenuRepository: f.menu.menuRepo, store: f.store, name: "Cerveja", price: 15}
	menu := NewMenuService(f.store, repo, event.Discard)
	defer menu.Close()

	if _, _, err := menu.Price(ctx, "Cerveja"); err != nil {
		t.Fatalf("first price: %v", err)
	}
	item, err := f.menu.Get(ctx, "Cerveja")
	if err != nil || item.UnitPrice != 15 {
		t.Fatalf("stored menu item = %+v, %v; want price 15", item, err)
	}

	p, ok, err := menu.Price(ctx, "cerveja")
	if err != nil || !ok {
		t.Fatalf("second price: %v, %v", ok, err)
	}
	if p != 15 {
		t.Errorf("price = %v after a change during the first read, want 15", p)
	}
}
