package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sangkips/mesa-api/internal/application/billing"
	"github.com/sangkips/mesa-api/internal/domain/entity"
	"github.com/sangkips/mesa-api/internal/domain/enum"
	"github.com/sangkips/mesa-api/internal/domain/event"
	"github.com/sangkips/mesa-api/internal/domain/repository"
	"github.com/sangkips/mesa-api/pkg/apperror"
	"github.com/sangkips/mesa-api/pkg/docstore"
	"github.com/sangkips/mesa-api/pkg/utils"
)

// TableService handles table lifecycle: opening, merging, splitting and
// closing bills. Every operation that touches more than one document
// commits them together.
type TableService struct {
	store       docstore.Store
	tableRepo   repository.TableRepository
	mergedRepo  repository.MergedTableRepository
	orderRepo   repository.OrderRepository
	historyRepo repository.HistoryRepository
	cashRepo    repository.CashRepository
	menu        *MenuService
	events      event.Publisher
}

// NewTableService creates a new table service
func NewTableService(
	store docstore.Store,
	tableRepo repository.TableRepository,
	mergedRepo repository.MergedTableRepository,
	orderRepo repository.OrderRepository,
	historyRepo repository.HistoryRepository,
	cashRepo repository.CashRepository,
	menu *MenuService,
	events event.Publisher,
) *TableService {
	return &TableService{
		store:       store,
		tableRepo:   tableRepo,
		mergedRepo:  mergedRepo,
		orderRepo:   orderRepo,
		historyRepo: historyRepo,
		cashRepo:    cashRepo,
		menu:        menu,
		events:      events,
	}
}

// CreateTableInput represents the create table input
type CreateTableInput struct {
	ClientName string
	Phone      string
	Position   entity.Position
}

// Create opens a table for a client. Client names are unique among open
// tables; the name is claimed in the same commit that saves the table.
func (s *TableService) Create(ctx context.Context, input *CreateTableInput) (*entity.Table, error) {
	name := strings.TrimSpace(input.ClientName)
	if utils.NormalizeName(name) == "" {
		return nil, apperror.NewInvalidInputError("Client name is required")
	}

	tables, err := s.tableRepo.List(ctx)
	if err != nil {
		return nil, storeErr("read tables", err)
	}
	key := utils.NormalizeName(name)
	for _, t := range tables {
		if t.IsOpen() && utils.NormalizeName(t.ClientName) == key {
			return nil, apperror.NewDuplicateClientError(name)
		}
	}

	table := &entity.Table{
		ID:             utils.NewID(),
		ClientName:     name,
		Phone:          strings.TrimSpace(input.Phone),
		Position:       input.Position,
		Status:         enum.TableStatusOpen,
		PaymentHistory: []entity.Payment{},
		CreatedAt:      time.Now(),
	}
	b := docstore.NewBatch()
	s.tableRepo.StageClaimClient(b, name, table.ID)
	s.tableRepo.StageSave(b, table)
	if err := s.store.Commit(ctx, b); err != nil {
		if s.tableRepo.IsClientClaim(err) {
			return nil, apperror.NewDuplicateClientError(name)
		}
		return nil, storeErr("create table for "+name, err)
	}

	publish(ctx, s.events, event.New(event.TableCreated, table.ID, table))
	return table, nil
}

// Move shifts the table's position by dx, dy.
func (s *TableService) Move(ctx context.Context, id string, dx, dy float64) (*entity.Table, error) {
	table, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	table.Position.X += dx
	table.Position.Y += dy

	b := docstore.NewBatch()
	s.tableRepo.StageUpdate(b, table.ID, map[string]interface{}{"position": table.Position})
	if err := s.store.Commit(ctx, b); err != nil {
		return nil, storeErr("move table "+table.ClientName, err)
	}

	publish(ctx, s.events, event.New(event.TableMoved, table.ID, table.Position))
	return table, nil
}

// Merge joins the tables into the first one. Every order of every member is
// re-pointed at the survivor, remembering where it came from, and the members'
// state is kept in a merge record so Split can undo it.
func (s *TableService) Merge(ctx context.Context, ids []string) (*entity.Table, error) {
	ids = dedupe(ids)
	if len(ids) < 2 {
		return nil, apperror.NewInvalidInputError("Merging needs at least two distinct tables, got %d", len(ids))
	}

	tables := make([]*entity.Table, 0, len(ids))
	for _, id := range ids {
		t, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if !t.IsOpen() {
			return nil, apperror.NewInvalidMergeStateError("Table %q is closed and cannot be merged", t.ClientName)
		}
		tables = append(tables, t)
	}
	survivor := tables[0]

	prior, err := s.mergedRepo.GetBySurvivor(ctx, survivor.ID)
	if err != nil {
		return nil, storeErr("read merge record of "+survivor.ClientName, err)
	}
	orders, err := s.orderRepo.ListByTables(ctx, ids)
	if err != nil {
		return nil, storeErr("read orders of merged tables", err)
	}
	prices, err := s.menu.PriceLookup(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	record := &entity.MergedTableRecord{SurvivorID: survivor.ID, MergedAt: now}
	names := make([]string, 0, len(tables))
	paid := make([]float64, 0, len(tables))
	discounts := make([]float64, 0, len(tables))
	for i, t := range tables {
		snap := entity.MemberSnapshot{Table: *t}
		if i == 0 {
			snap.PriorRecord = prior
		}
		record.Members = append(record.Members, snap)
		names = append(names, t.ClientName)
		paid = append(paid, t.AmountPaid)
		discounts = append(discounts, t.Discount)
	}

	merged := *survivor
	merged.ClientName = strings.Join(names, entity.MergedNameSeparator)
	merged.AmountPaid = billing.Sum(paid...)
	merged.Discount = billing.Sum(discounts...)
	merged.PaymentHistory = []entity.Payment{}
	merged.IsMerged = true
	merged.MemberTableIDs = ids
	total := billing.TableTotalBeforeDiscount(orders, prices)
	merged.AmountRemaining = billing.Remaining(billing.AfterDiscount(total, merged.Discount), merged.AmountPaid, 0)

	b := docstore.NewBatch()
	for _, t := range tables {
		s.tableRepo.StageRequireStatus(b, t.ID, enum.TableStatusOpen)
		s.tableRepo.StageRequirePaid(b, t.ID, t.AmountPaid)
	}
	for i := range orders {
		orders[i].MoveTo(survivor.ID)
		s.orderRepo.StageSave(b, &orders[i])
	}
	for _, t := range tables[1:] {
		s.tableRepo.StageDelete(b, t.ID)
	}
	for _, t := range tables {
		s.tableRepo.StageReleaseClient(b, t.ClientName)
	}
	s.tableRepo.StageClaimClient(b, merged.ClientName, merged.ID)
	s.tableRepo.StageSave(b, &merged)
	s.mergedRepo.StageSave(b, record)

	if err := s.store.Commit(ctx, b); err != nil {
		if s.tableRepo.IsClientClaim(err) {
			return nil, apperror.NewDuplicateClientError(merged.ClientName)
		}
		if _, ok := precondition(err); ok {
			return nil, apperror.NewInvalidMergeStateError("A table of %q changed while merging; try again", merged.ClientName)
		}
		return nil, storeErr("merge tables "+merged.ClientName, err)
	}

	publish(ctx, s.events, event.New(event.TableMerged, merged.ID, record))
	return &merged, nil
}

// Split undoes the most recent merge of the table. It refuses when anything
// happened to the merged table that the member tables could not absorb.
func (s *TableService) Split(ctx context.Context, id string) ([]entity.Table, error) {
	table, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !table.IsMerged {
		return nil, apperror.NewInvalidMergeStateError("Table %q is not a merged table", table.ClientName)
	}
	if !table.IsOpen() {
		return nil, apperror.NewInvalidMergeStateError("Table %q is closed", table.ClientName)
	}
	if len(table.PaymentHistory) > 0 {
		return nil, apperror.NewInvalidMergeStateError("Table %q already has payments recorded", table.ClientName)
	}

	record, err := s.mergedRepo.GetBySurvivor(ctx, table.ID)
	if err != nil {
		return nil, storeErr("read merge record of "+table.ClientName, err)
	}
	if record == nil || len(record.Members) == 0 {
		return nil, apperror.NewInvalidMergeStateError("Table %q has no merge record to split", table.ClientName)
	}

	orders, err := s.orderRepo.ListByTable(ctx, table.ID)
	if err != nil {
		return nil, storeErr("read orders of "+table.ClientName, err)
	}
	members := make(map[string]bool, len(record.Members))
	for _, id := range record.MemberIDs() {
		members[id] = true
	}
	byTable := make(map[string][]entity.Order)
	for i := range orders {
		o := &orders[i]
		if !o.MoveBack() {
			return nil, apperror.NewInvalidMergeStateError("Order %s on %q was placed after the merge", o.ID, table.ClientName)
		}
		if !members[o.TableID] {
			return nil, apperror.NewInvalidMergeStateError("Order %s belongs to table %s, which is not part of %q", o.ID, o.TableID, table.ClientName)
		}
		byTable[o.TableID] = append(byTable[o.TableID], *o)
	}

	prices, err := s.menu.PriceLookup(ctx)
	if err != nil {
		return nil, err
	}

	b := docstore.NewBatch()
	s.tableRepo.StageRequireStatus(b, table.ID, enum.TableStatusOpen)
	s.tableRepo.StageRequirePaid(b, table.ID, table.AmountPaid)
	for i := range orders {
		s.orderRepo.StageSave(b, &orders[i])
	}

	s.tableRepo.StageReleaseClient(b, table.ClientName)
	restored := make([]entity.Table, 0, len(record.Members))
	for _, m := range record.Members {
		t := m.Table
		total := billing.TableTotalBeforeDiscount(byTable[t.ID], prices)
		t.AmountRemaining = billing.Remaining(billing.AfterDiscount(total, t.Discount), t.AmountPaid, 0)
		if t.PaymentHistory == nil {
			t.PaymentHistory = []entity.Payment{}
		}
		s.tableRepo.StageClaimClient(b, t.ClientName, t.ID)
		s.tableRepo.StageSave(b, &t)
		restored = append(restored, t)
	}

	if prior := record.Members[0].PriorRecord; prior != nil {
		s.mergedRepo.StageSave(b, prior)
	} else {
		s.mergedRepo.StageDelete(b, table.ID)
	}

	if err := s.store.Commit(ctx, b); err != nil {
		if s.tableRepo.IsClientClaim(err) {
			return nil, apperror.NewInvalidMergeStateError("A member of %q has a new open table under the same name", table.ClientName)
		}
		if _, ok := precondition(err); ok {
			return nil, apperror.NewInvalidMergeStateError("Table %q changed while splitting; try again", table.ClientName)
		}
		return nil, storeErr("split table "+table.ClientName, err)
	}

	publish(ctx, s.events, event.New(event.TableSplit, table.ID, restored))
	return restored, nil
}

// PaymentInput carries a payment against a table. A nil Discount keeps the
// discount already on the table.
type PaymentInput struct {
	AmountPaid     float64
	AmountReceived float64
	Discount       *float64
	Method         enum.PaymentMethod
	StaffID        string
}

func (in *PaymentInput) validate() error {
	if in.AmountPaid < 0 {
		return apperror.NewInvalidInputError("Amount paid must not be negative, got %.2f", in.AmountPaid)
	}
	if in.AmountReceived < 0 {
		return apperror.NewInvalidInputError("Amount received must not be negative, got %.2f", in.AmountReceived)
	}
	if in.Discount != nil && *in.Discount < 0 {
		return apperror.NewInvalidInputError("Discount must not be negative, got %.2f", *in.Discount)
	}
	if in.Method == "" {
		in.Method = enum.PaymentMethodCash
	}
	if !in.Method.IsValid() {
		return apperror.NewInvalidInputError("Unknown payment method %q", in.Method)
	}
	return nil
}

// bill is the state of a table's bill just before a payment.
type bill struct {
	table    *entity.Table
	orders   []entity.Order
	prices   billing.PriceLookup
	before   float64
	discount float64
	after    float64
}

func (s *TableService) openBill(ctx context.Context, id string, discount *float64) (*bill, error) {
	table, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !table.IsOpen() {
		return nil, apperror.NewInvalidInputError("Table %q is already closed", table.ClientName)
	}
	orders, err := s.orderRepo.ListByTable(ctx, table.ID)
	if err != nil {
		return nil, storeErr("read orders of "+table.ClientName, err)
	}
	prices, err := s.menu.PriceLookup(ctx)
	if err != nil {
		return nil, err
	}

	bl := &bill{table: table, orders: orders, prices: prices, discount: table.Discount}
	bl.before = billing.TableTotalBeforeDiscount(orders, prices)
	if discount != nil {
		bl.discount = *discount
	}
	if bl.discount > bl.before {
		return nil, apperror.NewInvalidInputError("Discount %.2f exceeds the %.2f total of table %q", bl.discount, bl.before, table.ClientName)
	}
	bl.after = billing.AfterDiscount(bl.before, bl.discount)
	return bl, nil
}

// CloseFull settles the rest of the bill, archives it and closes the table.
// An AmountPaid of zero means "whatever is due". AmountReceived must cover
// what is due.
func (s *TableService) CloseFull(ctx context.Context, id string, input *PaymentInput) (*entity.HistoryEntry, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	bl, err := s.openBill(ctx, id, input.Discount)
	if err != nil {
		return nil, err
	}
	table := bl.table

	due := billing.Remaining(bl.after, table.AmountPaid, 0)
	paid := input.AmountPaid
	if paid == 0 {
		paid = due
	}
	if !billing.IsSufficientPayment(paid, due) {
		return nil, apperror.NewInvalidInputError("Payment of %.2f does not cover the %.2f due on table %q", paid, due, table.ClientName)
	}
	received := input.AmountReceived
	if !billing.IsSufficientPayment(received, due) {
		return nil, apperror.NewInvalidInputError("Received %.2f is less than the %.2f due on table %q", received, due, table.ClientName)
	}

	now := time.Now()
	history := append([]entity.Payment{}, table.PaymentHistory...)
	if due > 0 {
		history = append(history, entity.Payment{Amount: due, Method: input.Method, Timestamp: now})
	}

	lines := billing.Lines(bl.orders, bl.prices)
	items := make([]entity.HistoryItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, entity.HistoryItem{Name: l.Name, Quantity: l.Quantity, UnitPrice: l.UnitPrice, Total: l.Total})
	}
	entry := &entity.HistoryEntry{
		ID:             utils.NewID(),
		ReceiptNo:      utils.GenerateReceiptNo(now),
		TableID:        table.ID,
		ClientName:     table.ClientName,
		Items:          items,
		Subtotal:       bl.before,
		Discount:       bl.discount,
		Total:          bl.after,
		AmountReceived: received,
		Change:         billing.Change(received, due),
		PaymentMethod:  input.Method,
		PaymentHistory: history,
		ClosedBy:       input.StaffID,
		ClosedAt:       now,
	}

	closed := *table
	closed.Status = enum.TableStatusClosed
	closed.AmountPaid = billing.Sum(table.AmountPaid, due)
	closed.AmountRemaining = 0
	closed.Discount = bl.discount
	closed.PaymentHistory = history
	closed.ClosedAt = &now

	b := docstore.NewBatch()
	s.tableRepo.StageRequireStatus(b, table.ID, enum.TableStatusOpen)
	s.tableRepo.StageRequirePaid(b, table.ID, table.AmountPaid)
	s.historyRepo.StageSave(b, entry)
	for _, o := range bl.orders {
		s.orderRepo.StageDelete(b, o.ID)
	}
	s.tableRepo.StageSave(b, &closed)
	s.tableRepo.StageReleaseClient(b, table.ClientName)
	if due > 0 {
		s.cashRepo.StageSave(b, &entity.CashMovement{
			ID:          utils.NewID(),
			Direction:   enum.CashIn,
			Amount:      due,
			Method:      input.Method,
			Description: fmt.Sprintf("Bill %s of %s", entry.ReceiptNo, table.ClientName),
			TableID:     table.ID,
			HistoryID:   entry.ID,
			StaffID:     input.StaffID,
			CreatedAt:   now,
		})
	}

	if err := s.store.Commit(ctx, b); err != nil {
		if _, ok := precondition(err); ok {
			return nil, apperror.NewInvalidInputError("Table %q was paid or closed by someone else; reload the bill", table.ClientName)
		}
		return nil, storeErr("close table "+table.ClientName, err)
	}

	publish(ctx, s.events, event.New(event.BillClosed, table.ID, entry))
	return entry, nil
}

// PartialPaymentResult is the table after a partial payment and the change owed.
type PartialPaymentResult struct {
	Table  *entity.Table `json:"table"`
	Change float64       `json:"change"`
}

// ClosePartial records a payment that leaves the table open.
func (s *TableService) ClosePartial(ctx context.Context, id string, input *PaymentInput) (*PartialPaymentResult, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	if input.AmountPaid <= 0 {
		return nil, apperror.NewInvalidInputError("Partial payment must be positive, got %.2f", input.AmountPaid)
	}
	if input.AmountReceived > 0 && !billing.IsSufficientPayment(input.AmountReceived, input.AmountPaid) {
		return nil, apperror.NewInvalidInputError("Received %.2f is less than the %.2f being paid", input.AmountReceived, input.AmountPaid)
	}
	bl, err := s.openBill(ctx, id, input.Discount)
	if err != nil {
		return nil, err
	}
	table := bl.table

	now := time.Now()
	updated := *table
	updated.AmountPaid = billing.Sum(table.AmountPaid, input.AmountPaid)
	updated.AmountRemaining = billing.Remaining(bl.after, updated.AmountPaid, 0)
	updated.Discount = bl.discount
	updated.PaymentHistory = append(append([]entity.Payment{}, table.PaymentHistory...), entity.Payment{
		Amount:    input.AmountPaid,
		Method:    input.Method,
		Timestamp: now,
	})

	b := docstore.NewBatch()
	s.tableRepo.StageRequireStatus(b, table.ID, enum.TableStatusOpen)
	s.tableRepo.StageRequirePaid(b, table.ID, table.AmountPaid)
	s.tableRepo.StageSave(b, &updated)
	s.cashRepo.StageSave(b, &entity.CashMovement{
		ID:          utils.NewID(),
		Direction:   enum.CashIn,
		Amount:      input.AmountPaid,
		Method:      input.Method,
		Description: "Partial payment of " + table.ClientName,
		TableID:     table.ID,
		StaffID:     input.StaffID,
		CreatedAt:   now,
	})

	if err := s.store.Commit(ctx, b); err != nil {
		if _, ok := precondition(err); ok {
			return nil, apperror.NewInvalidInputError("Table %q was paid or closed by someone else; reload the bill", table.ClientName)
		}
		return nil, storeErr("record partial payment of "+table.ClientName, err)
	}

	publish(ctx, s.events, event.New(event.TablePartialPayment, table.ID, updated.PaymentHistory[len(updated.PaymentHistory)-1]))
	return &PartialPaymentResult{
		Table:  &updated,
		Change: billing.Change(input.AmountReceived, input.AmountPaid),
	}, nil
}

// Remove deletes a table with its orders and every merge record reachable
// from it. An open table must have no orders; a closed one no undelivered ones.
func (s *TableService) Remove(ctx context.Context, id string) error {
	table, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	orders, err := s.orderRepo.ListByTable(ctx, table.ID)
	if err != nil {
		return storeErr("read orders of "+table.ClientName, err)
	}
	if table.IsOpen() && len(orders) > 0 {
		return apperror.NewInvalidInputError("Table %q is open with %d orders", table.ClientName, len(orders))
	}
	for _, o := range orders {
		if !o.Delivered {
			return apperror.NewInvalidInputError("Table %q still has undelivered order %s", table.ClientName, o.ID)
		}
	}

	records, err := s.mergedRepo.List(ctx)
	if err != nil {
		return storeErr("read merge records", err)
	}

	b := docstore.NewBatch()
	s.tableRepo.StageRequireStatus(b, table.ID, table.Status)
	for _, o := range orders {
		s.orderRepo.StageDelete(b, o.ID)
	}
	s.tableRepo.StageDelete(b, table.ID)
	if table.IsOpen() {
		s.tableRepo.StageReleaseClient(b, table.ClientName)
	}
	for _, survivorID := range reachableRecords(table.ID, records) {
		s.mergedRepo.StageDelete(b, survivorID)
	}

	if err := s.store.Commit(ctx, b); err != nil {
		if _, ok := precondition(err); ok {
			return apperror.NewInvalidInputError("Table %q changed while removing; try again", table.ClientName)
		}
		return storeErr("remove table "+table.ClientName, err)
	}

	publish(ctx, s.events, event.New(event.TableRemoved, table.ID, nil))
	return nil
}

// reachableRecords walks merge records from start along survivor to member
// edges, including members of displaced earlier records, and returns the
// survivor ids of every record found.
func reachableRecords(start string, records []entity.MergedTableRecord) []string {
	bySurvivor := make(map[string]*entity.MergedTableRecord, len(records))
	for i := range records {
		bySurvivor[records[i].SurvivorID] = &records[i]
	}

	var found []string
	visited := map[string]bool{start: true}
	queue := []string{start}
	push := func(id string) {
		if !visited[id] {
			visited[id] = true
			queue = append(queue, id)
		}
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		rec, ok := bySurvivor[id]
		if !ok {
			continue
		}
		found = append(found, id)

		pending := []*entity.MergedTableRecord{rec}
		for len(pending) > 0 {
			r := pending[0]
			pending = pending[1:]
			for _, m := range r.Members {
				push(m.Table.ID)
				if m.PriorRecord != nil {
					pending = append(pending, m.PriorRecord)
				}
			}
		}
	}
	return found
}

// Get returns one table
func (s *TableService) Get(ctx context.Context, id string) (*entity.Table, error) {
	table, err := s.tableRepo.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr("read table "+id, err)
	}
	if table == nil {
		return nil, apperror.NewNotFoundError("Table " + id)
	}
	return table, nil
}

// List returns every table, oldest first
func (s *TableService) List(ctx context.Context) ([]entity.Table, error) {
	tables, err := s.tableRepo.List(ctx)
	if err != nil {
		return nil, storeErr("read tables", err)
	}
	return tables, nil
}

// Summary is the live bill of a table for splitCount people paying with received.
func (s *TableService) Summary(ctx context.Context, id string, splitCount int, received float64) (*billing.Summary, error) {
	if splitCount < 1 {
		return nil, apperror.NewInvalidInputError("Split count must be at least 1, got %d", splitCount)
	}
	table, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	orders, err := s.orderRepo.ListByTable(ctx, table.ID)
	if err != nil {
		return nil, storeErr("read orders of "+table.ClientName, err)
	}
	prices, err := s.menu.PriceLookup(ctx)
	if err != nil {
		return nil, err
	}

	summary, err := billing.Calculate(billing.Input{
		Orders:     orders,
		Prices:     prices,
		Discount:   table.Discount,
		PriorPaid:  table.AmountPaid,
		Received:   received,
		SplitCount: splitCount,
	})
	if err != nil {
		return nil, apperror.NewInvalidInputError("Bill of table %q: %v", table.ClientName, err)
	}
	return summary, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
