package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/sangkips/mesa-api/internal/domain/combo"
	"github.com/sangkips/mesa-api/internal/domain/entity"
	"github.com/sangkips/mesa-api/internal/domain/event"
	"github.com/sangkips/mesa-api/internal/domain/repository"
	"github.com/sangkips/mesa-api/pkg/apperror"
	"github.com/sangkips/mesa-api/pkg/docstore"
	"github.com/sangkips/mesa-api/pkg/utils"
)

// StockService is the stock ledger. Quantities only move through staged
// increments guarded by preconditions, never through read-then-write.
type StockService struct {
	store     docstore.Store
	stockRepo repository.StockRepository
	menuRepo  repository.MenuRepository
	combos    *combo.Registry
	events    event.Publisher
	lowStock  float64
}

// NewStockService creates a new stock service. lowStock is the threshold used
// for items that do not define their own.
func NewStockService(
	store docstore.Store,
	stockRepo repository.StockRepository,
	menuRepo repository.MenuRepository,
	combos *combo.Registry,
	events event.Publisher,
	lowStock float64,
) *StockService {
	if combos == nil {
		combos = combo.Empty()
	}
	return &StockService{
		store:     store,
		stockRepo: stockRepo,
		menuRepo:  menuRepo,
		combos:    combos,
		events:    events,
		lowStock:  lowStock,
	}
}

// StockRequest is an item name and a quantity to check or move.
type StockRequest struct {
	Name     string
	Quantity float64
}

// requirement is the total quantity a request needs from one stock row.
type requirement struct {
	item     entity.StockItem
	quantity float64
}

// resolveMode selects how combos and missing rows are treated.
type resolveMode int

const (
	// A combo checks its sub-items and, when it has one, its own row.
	resolveValidate resolveMode = iota
	// A combo moves its sub-items only.
	resolveDebit
	// As resolveDebit, and rows deleted since the debit are skipped.
	resolveCredit
)

// resolve maps requested items onto stock rows. A combo resolves to its
// sub-items scaled by the requested quantity; only validation also looks at
// the combo's own row.
// Keys in the store are not guaranteed to be normalized, so every lookup
// scans the whole stock comparing normalized names.
func (s *StockService) resolve(ctx context.Context, items []StockRequest, mode resolveMode) ([]requirement, error) {
	stock, err := s.stockRepo.List(ctx)
	if err != nil {
		return nil, storeErr("read stock", err)
	}

	find := func(name string) *entity.StockItem {
		key := utils.NormalizeName(name)
		for i := range stock {
			if utils.NormalizeName(stock[i].Name) == key || utils.NormalizeName(stock[i].ID) == key {
				return &stock[i]
			}
		}
		return nil
	}

	var order []string
	byID := make(map[string]*requirement)
	add := func(name string, qty float64) error {
		row := find(name)
		if row == nil {
			if mode == resolveCredit {
				log.Printf("Warning: stock item %q no longer exists, skipping %v", name, qty)
				return nil
			}
			return apperror.NewNotFoundError("Stock item \"" + name + "\"")
		}
		req, ok := byID[row.ID]
		if !ok {
			req = &requirement{item: *row}
			byID[row.ID] = req
			order = append(order, row.ID)
		}
		req.quantity += qty
		return nil
	}

	for _, it := range items {
		if it.Quantity <= 0 {
			continue
		}
		if subs, ok := s.combos.SubItemsFor(it.Name); ok {
			if mode == resolveValidate && find(it.Name) != nil {
				if err := add(it.Name, it.Quantity); err != nil {
					return nil, err
				}
			}
			for _, sub := range subs {
				if err := add(sub.Name, sub.Quantity*it.Quantity); err != nil {
					return nil, err
				}
			}
			continue
		}
		if err := add(it.Name, it.Quantity); err != nil {
			return nil, err
		}
	}

	reqs := make([]requirement, 0, len(order))
	for _, id := range order {
		reqs = append(reqs, *byID[id])
	}
	return reqs, nil
}

// ValidateAvailability fails with InsufficientStock naming the first item
// whose requested quantity exceeds what is in stock, or NotFound when an item
// is neither in stock nor a combo. A combo that also has a stock row of its
// own must be available there too.
func (s *StockService) ValidateAvailability(ctx context.Context, items []StockRequest) error {
	reqs, err := s.resolve(ctx, items, resolveValidate)
	if err != nil {
		return err
	}
	return checkAvailable(reqs)
}

func checkAvailable(reqs []requirement) error {
	for _, r := range reqs {
		if r.quantity > r.item.Quantity {
			return apperror.NewInsufficientStockError(r.item.Name, r.item.Quantity, r.quantity)
		}
	}
	return nil
}

// StockMove is a committed change of one stock row.
type StockMove struct {
	ItemID string
	Name   string
	Delta  float64
}

// StageDebit validates availability and stages guarded decrements into b.
func (s *StockService) StageDebit(ctx context.Context, b *docstore.Batch, items []StockRequest) ([]StockMove, error) {
	reqs, err := s.resolve(ctx, items, resolveDebit)
	if err != nil {
		return nil, err
	}
	if err := checkAvailable(reqs); err != nil {
		return nil, err
	}

	moves := make([]StockMove, 0, len(reqs))
	for _, r := range reqs {
		s.stockRepo.StageRequireAtLeast(b, r.item.ID, r.quantity)
		s.stockRepo.StageIncrement(b, r.item.ID, -r.quantity)
		moves = append(moves, StockMove{ItemID: r.item.ID, Name: r.item.Name, Delta: -r.quantity})
	}
	return moves, nil
}

// StageCredit stages increments into b. Items removed from stock since the
// debit are skipped with a warning.
func (s *StockService) StageCredit(ctx context.Context, b *docstore.Batch, items []StockRequest) ([]StockMove, error) {
	reqs, err := s.resolve(ctx, items, resolveCredit)
	if err != nil {
		return nil, err
	}

	moves := make([]StockMove, 0, len(reqs))
	for _, r := range reqs {
		s.stockRepo.StageIncrement(b, r.item.ID, r.quantity)
		moves = append(moves, StockMove{ItemID: r.item.ID, Name: r.item.Name, Delta: r.quantity})
	}
	return moves, nil
}

// Debit removes the items from stock in one atomic commit.
func (s *StockService) Debit(ctx context.Context, items []StockRequest) error {
	b := docstore.NewBatch()
	moves, err := s.StageDebit(ctx, b, items)
	if err != nil {
		return err
	}
	if err := s.commitMoves(ctx, b, moves, "debit stock"); err != nil {
		return err
	}
	s.publishMoves(ctx, moves, "debit")
	return nil
}

// Credit puts the items back in one atomic commit.
func (s *StockService) Credit(ctx context.Context, items []StockRequest) error {
	b := docstore.NewBatch()
	moves, err := s.StageCredit(ctx, b, items)
	if err != nil {
		return err
	}
	if err := s.commitMoves(ctx, b, moves, "credit stock"); err != nil {
		return err
	}
	s.publishMoves(ctx, moves, "credit")
	return nil
}

// commitMoves commits b and translates a failed quantity guard into
// InsufficientStock for the item it protected.
func (s *StockService) commitMoves(ctx context.Context, b *docstore.Batch, moves []StockMove, step string) error {
	err := s.store.Commit(ctx, b)
	if err == nil {
		return nil
	}
	return s.translateCommitErr(err, moves, step)
}

func (s *StockService) translateCommitErr(err error, moves []StockMove, step string) error {
	if pre, ok := precondition(err); ok {
		id := docstore.ID(pre.Guard.Path)
		for _, m := range moves {
			if m.ItemID == id {
				return apperror.NewInsufficientStockError(m.Name, pre.Available(), -m.Delta)
			}
		}
		return err
	}
	if errors.Is(err, docstore.ErrNotFound) {
		return apperror.NewNotFoundError("Stock item")
	}
	return storeErr(step, err)
}

func (s *StockService) publishMoves(ctx context.Context, moves []StockMove, reason string) {
	for _, m := range moves {
		publish(ctx, s.events, event.New(event.StockChanged, m.ItemID, event.StockChange{
			ItemID: m.ItemID,
			Delta:  m.Delta,
			Reason: reason,
		}))
	}
}

// AddStockInput represents the input for adding an item to stock and menu
type AddStockInput struct {
	Name         string
	Quantity     float64
	Unit         string
	MinThreshold float64
	UnitPrice    float64
	Category     string
	Description  string
	ImageURL     string
}

// AddToStockAndMenu adds quantity to the item's stock row and upserts the
// matching menu entry in the same commit. A new item is created when missing.
func (s *StockService) AddToStockAndMenu(ctx context.Context, input *AddStockInput) (*entity.StockItem, error) {
	name := strings.TrimSpace(input.Name)
	id := utils.DocumentKey(name)
	if id == "" {
		return nil, apperror.NewInvalidInputError("Item name is required")
	}
	if input.Quantity < 0 {
		return nil, apperror.NewInvalidInputError("Quantity for %q must not be negative, got %v", name, input.Quantity)
	}
	if input.UnitPrice < 0 {
		return nil, apperror.NewInvalidInputError("Price for %q must not be negative, got %.2f", name, input.UnitPrice)
	}
	if input.MinThreshold < 0 {
		return nil, apperror.NewInvalidInputError("Minimum for %q must not be negative, got %v", name, input.MinThreshold)
	}

	existing, err := s.stockRepo.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr("read stock item "+name, err)
	}

	now := time.Now()
	item := &entity.StockItem{
		ID:           id,
		Name:         name,
		Quantity:     input.Quantity,
		Unit:         input.Unit,
		MinThreshold: input.MinThreshold,
		UnitPrice:    input.UnitPrice,
		Category:     input.Category,
		UpdatedAt:    now,
	}
	menuItem := &entity.MenuItem{
		Key:         id,
		Name:        name,
		UnitPrice:   input.UnitPrice,
		Category:    input.Category,
		Description: input.Description,
		ImageURL:    input.ImageURL,
		UpdatedAt:   now,
	}

	b := docstore.NewBatch()
	if existing == nil {
		s.stockRepo.StageSave(b, item)
	} else {
		s.stockRepo.StageUpdate(b, id, map[string]interface{}{
			"name":          name,
			"unit":          input.Unit,
			"min_threshold": input.MinThreshold,
			"unit_price":    input.UnitPrice,
			"category":      input.Category,
			"updated_at":    now,
		})
		if input.Quantity > 0 {
			s.stockRepo.StageIncrement(b, id, input.Quantity)
		}
		item.Quantity = existing.Quantity + input.Quantity
	}
	s.menuRepo.StageSave(b, menuItem)

	if err := s.store.Commit(ctx, b); err != nil {
		return nil, storeErr("add "+name+" to stock and menu", err)
	}

	publish(ctx, s.events,
		event.New(event.StockChanged, id, event.StockChange{ItemID: id, Delta: input.Quantity, Quantity: item.Quantity, Reason: "add"}),
		event.New(event.MenuChanged, id, menuItem),
	)
	return item, nil
}

// Restock adds a positive quantity to an existing item.
func (s *StockService) Restock(ctx context.Context, id string, quantity float64) (*entity.StockItem, error) {
	if quantity <= 0 {
		return nil, apperror.NewInvalidInputError("Restock quantity must be positive, got %v", quantity)
	}
	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	b := docstore.NewBatch()
	s.stockRepo.StageIncrement(b, item.ID, quantity)
	if err := s.store.Commit(ctx, b); err != nil {
		return nil, s.translateCommitErr(err, nil, "restock "+item.Name)
	}
	item.Quantity += quantity

	publish(ctx, s.events, event.New(event.StockChanged, item.ID, event.StockChange{ItemID: item.ID, Delta: quantity, Reason: "restock"}))
	return item, nil
}

// UpdateQuantity is the manual correction of a count. It never deletes the
// item; RemoveIfDepleted does that explicitly.
func (s *StockService) UpdateQuantity(ctx context.Context, id string, quantity float64) (*entity.StockItem, error) {
	if quantity < 0 {
		return nil, apperror.NewInvalidInputError("Quantity must not be negative, got %v", quantity)
	}
	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	b := docstore.NewBatch()
	s.stockRepo.StageSetQuantity(b, item.ID, quantity)
	if err := s.store.Commit(ctx, b); err != nil {
		return nil, storeErr("update quantity of "+item.Name, err)
	}
	item.Quantity = quantity

	publish(ctx, s.events, event.New(event.StockChanged, item.ID, event.StockChange{ItemID: item.ID, Quantity: quantity, Reason: "manual"}))
	return item, nil
}

// RemoveIfDepleted deletes the item and its menu entry when its quantity is
// zero or below. It reports whether anything was removed.
func (s *StockService) RemoveIfDepleted(ctx context.Context, id string) (bool, error) {
	item, err := s.Get(ctx, id)
	if err != nil {
		return false, err
	}
	if item.Quantity > 0 {
		return false, nil
	}
	if err := s.removeWithMenu(ctx, item); err != nil {
		return false, err
	}
	log.Printf("Stock item %q depleted and removed with its menu entry", item.Name)
	return true, nil
}

// RemoveFromStockAndMenu deletes the item and its menu entry together.
func (s *StockService) RemoveFromStockAndMenu(ctx context.Context, id string) error {
	item, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	return s.removeWithMenu(ctx, item)
}

func (s *StockService) removeWithMenu(ctx context.Context, item *entity.StockItem) error {
	b := docstore.NewBatch()
	s.stockRepo.StageDelete(b, item.ID)
	s.menuRepo.StageDelete(b, utils.DocumentKey(item.Name))
	if key := utils.DocumentKey(item.ID); key != utils.DocumentKey(item.Name) {
		s.menuRepo.StageDelete(b, key)
	}
	if err := s.store.Commit(ctx, b); err != nil {
		return storeErr("remove "+item.Name+" from stock and menu", err)
	}

	publish(ctx, s.events,
		event.New(event.StockChanged, item.ID, event.StockChange{ItemID: item.ID, Reason: "removed"}),
		event.New(event.MenuChanged, item.ID, nil),
	)
	return nil
}

// Get looks an item up by id, falling back to a normalized-name scan.
func (s *StockService) Get(ctx context.Context, id string) (*entity.StockItem, error) {
	item, err := s.stockRepo.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr("read stock item "+id, err)
	}
	if item != nil {
		return item, nil
	}

	all, err := s.stockRepo.List(ctx)
	if err != nil {
		return nil, storeErr("read stock", err)
	}
	key := utils.NormalizeName(id)
	for i := range all {
		if utils.NormalizeName(all[i].Name) == key || utils.NormalizeName(all[i].ID) == key {
			return &all[i], nil
		}
	}
	return nil, apperror.NewNotFoundError("Stock item \"" + id + "\"")
}

// List returns every stock row.
func (s *StockService) List(ctx context.Context) ([]entity.StockItem, error) {
	items, err := s.stockRepo.List(ctx)
	if err != nil {
		return nil, storeErr("read stock", err)
	}
	return items, nil
}

// LowStock returns the items at or below their threshold.
func (s *StockService) LowStock(ctx context.Context) ([]entity.StockItem, error) {
	items, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	low := make([]entity.StockItem, 0)
	for _, it := range items {
		threshold := it.MinThreshold
		if threshold == 0 {
			threshold = s.lowStock
		}
		if it.Quantity <= threshold {
			low = append(low, it)
		}
	}
	return low, nil
}

// Combos exposes the registry the ledger resolves against.
func (s *StockService) Combos() *combo.Registry {
	return s.combos
}
