package service

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/sangkips/mesa-api/internal/application/billing"
	"github.com/sangkips/mesa-api/internal/domain/entity"
	"github.com/sangkips/mesa-api/internal/domain/event"
	"github.com/sangkips/mesa-api/internal/domain/repository"
	"github.com/sangkips/mesa-api/pkg/apperror"
	"github.com/sangkips/mesa-api/pkg/docstore"
	"github.com/sangkips/mesa-api/pkg/utils"
)

// MenuService is the menu provider. Prices are cached by normalized name and
// the cache is dropped whenever the menu collection changes.
type MenuService struct {
	store    docstore.Store
	menuRepo repository.MenuRepository
	events   event.Publisher

	mu     sync.RWMutex
	prices map[string]float64

	// generation is bumped by every menu change
	generation uint64

	unsubscribe func()
}

// NewMenuService creates a new menu service
func NewMenuService(store docstore.Store, menuRepo repository.MenuRepository, events event.Publisher) *MenuService {
	s := &MenuService{store: store, menuRepo: menuRepo, events: events}
	s.unsubscribe = menuRepo.Subscribe(s.invalidate)
	return s
}

func (s *MenuService) invalidate() {
	s.mu.Lock()
	s.prices = nil
	s.generation++
	s.mu.Unlock()
}

// Close stops watching the menu.
func (s *MenuService) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}

// List returns the whole menu
func (s *MenuService) List(ctx context.Context) ([]entity.MenuItem, error) {
	items, err := s.menuRepo.List(ctx)
	if err != nil {
		return nil, storeErr("read menu", err)
	}
	return items, nil
}

// Get returns one menu entry by name or key
func (s *MenuService) Get(ctx context.Context, name string) (*entity.MenuItem, error) {
	item, err := s.menuRepo.GetByKey(ctx, utils.DocumentKey(name))
	if err != nil {
		return nil, storeErr("read menu item "+name, err)
	}
	if item == nil {
		return nil, apperror.NewNotFoundError("Menu item \"" + name + "\"")
	}
	return item, nil
}

// Price returns the live price of an item.
func (s *MenuService) Price(ctx context.Context, name string) (float64, bool, error) {
	prices, err := s.priceTable(ctx)
	if err != nil {
		return 0, false, err
	}
	p, ok := prices[utils.NormalizeName(name)]
	return p, ok, nil
}

// PriceLookup returns a billing lookup over the current menu.
func (s *MenuService) PriceLookup(ctx context.Context) (billing.PriceLookup, error) {
	prices, err := s.priceTable(ctx)
	if err != nil {
		return nil, err
	}
	return func(name string) (float64, bool) {
		p, ok := prices[utils.NormalizeName(name)]
		return p, ok
	}, nil
}

func (s *MenuService) priceTable(ctx context.Context) (map[string]float64, error) {
	s.mu.RLock()
	prices, generation := s.prices, s.generation
	s.mu.RUnlock()
	if prices != nil {
		return prices, nil
	}

	items, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	prices = make(map[string]float64, len(items))
	for _, it := range items {
		prices[utils.NormalizeName(it.Name)] = it.UnitPrice
	}

	// A change that landed while reading may not be in items.
	s.mu.Lock()
	if s.generation == generation {
		s.prices = prices
	}
	s.mu.Unlock()
	return prices, nil
}

// MenuItemInput represents a menu entry that is not tied to a stock row,
// such as a combo.
type MenuItemInput struct {
	Name        string
	UnitPrice   float64
	Category    string
	Description string
	ImageURL    string
}

// Upsert creates or replaces a menu entry
func (s *MenuService) Upsert(ctx context.Context, input *MenuItemInput) (*entity.MenuItem, error) {
	name := strings.TrimSpace(input.Name)
	key := utils.DocumentKey(name)
	if key == "" {
		return nil, apperror.NewInvalidInputError("Menu item name is required")
	}
	if input.UnitPrice < 0 {
		return nil, apperror.NewInvalidInputError("Price for %q must not be negative, got %.2f", name, input.UnitPrice)
	}

	item := &entity.MenuItem{
		Key:         key,
		Name:        name,
		UnitPrice:   input.UnitPrice,
		Category:    input.Category,
		Description: input.Description,
		ImageURL:    input.ImageURL,
		UpdatedAt:   time.Now(),
	}
	b := docstore.NewBatch()
	s.menuRepo.StageSave(b, item)
	if err := s.store.Commit(ctx, b); err != nil {
		return nil, storeErr("save menu item "+name, err)
	}
	s.invalidate()

	publish(ctx, s.events, event.New(event.MenuChanged, key, item))
	return item, nil
}

// Remove deletes a menu entry. Stock is untouched.
func (s *MenuService) Remove(ctx context.Context, name string) error {
	item, err := s.Get(ctx, name)
	if err != nil {
		return err
	}
	b := docstore.NewBatch()
	s.menuRepo.StageDelete(b, item.Key)
	if err := s.store.Commit(ctx, b); err != nil {
		return storeErr("remove menu item "+name, err)
	}
	s.invalidate()

	publish(ctx, s.events, event.New(event.MenuChanged, item.Key, nil))
	return nil
}

// SubscribeMenu calls cb with the full menu after every change until the
// returned function is called.
func (s *MenuService) SubscribeMenu(cb func([]entity.MenuItem)) (unsubscribe func()) {
	return s.menuRepo.Subscribe(func() {
		items, err := s.menuRepo.List(context.Background())
		if err != nil {
			log.Printf("Warning: failed to reload menu for subscriber: %v", err)
			return
		}
		cb(items)
	})
}
