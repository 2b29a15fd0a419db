package service

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/sangkips/mesa-api/internal/domain/entity"
	"github.com/sangkips/mesa-api/internal/domain/enum"
	"github.com/sangkips/mesa-api/pkg/apperror"
)

func TestTable_CreateRejectsDuplicateOpenClient(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.openTable(t, "Ana Lúcia")

	_, err := f.tables.Create(ctx, &CreateTableInput{ClientName: "  ana   LUCIA "})
	assertKind(t, err, apperror.KindDuplicateClient)

	_, err = f.tables.Create(ctx, &CreateTableInput{ClientName: "   "})
	assertKind(t, err, apperror.KindInvalidInput)
}

func TestTable_ConcurrentCreateClaimsClientOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	const devices = 8
	errs := make([]error, devices)
	var wg sync.WaitGroup
	for i := 0; i < devices; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.tables.Create(ctx, &CreateTableInput{ClientName: "Ana"})
		}(i)
	}
	wg.Wait()

	created := 0
	for _, err := range errs {
		if err == nil {
			created++
			continue
		}
		assertKind(t, err, apperror.KindDuplicateClient)
	}
	if created != 1 {
		t.Fatalf("%d devices opened a table for Ana, want 1", created)
	}
	if tables, _ := f.tables.List(ctx); len(tables) != 1 {
		t.Errorf("expected 1 table, got %d", len(tables))
	}
}

func TestTable_ClientNameFollowsTableLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.openTable(t, "A")
	b := f.openTable(t, "B")

	merged, err := f.tables.Merge(ctx, []string{a.ID, b.ID})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	_, err = f.tables.Create(ctx, &CreateTableInput{ClientName: "a & b"})
	assertKind(t, err, apperror.KindDuplicateClient)

	newcomer := f.openTable(t, "B")
	_, err = f.tables.Split(ctx, merged.ID)
	assertKind(t, err, apperror.KindInvalidMergeState)
	if got, _ := f.tables.Get(ctx, merged.ID); got == nil || !got.IsMerged {
		t.Fatalf("rejected split changed the merged table: %+v", got)
	}

	if err := f.tables.Remove(ctx, newcomer.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	restored, err := f.tables.Split(ctx, merged.ID)
	if err != nil || len(restored) != 2 {
		t.Fatalf("split: %v, %d tables", err, len(restored))
	}
	_, err = f.tables.Create(ctx, &CreateTableInput{ClientName: "B"})
	assertKind(t, err, apperror.KindDuplicateClient)

	if _, err := f.tables.CloseFull(ctx, a.ID, &PaymentInput{}); err != nil {
		t.Fatalf("close: %v", err)
	}
	f.openTable(t, "A")
}

func TestTable_MergeCombinesTotalsAndPayments(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addStock(t, "Drink", 100, 10)
	t1 := f.openTable(t, "T1")
	t2 := f.openTable(t, "T2")
	f.order(t, t1.ID, "Drink", 2)
	f.order(t, t2.ID, "Drink", 3)

	if _, err := f.tables.ClosePartial(ctx, t2.ID, &PaymentInput{AmountPaid: 10}); err != nil {
		t.Fatalf("partial payment: %v", err)
	}

	merged, err := f.tables.Merge(ctx, []string{t1.ID, t2.ID, t1.ID})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if merged.ID != t1.ID || !merged.IsMerged || merged.ClientName != "T1 & T2" {
		t.Errorf("unexpected merged table %+v", merged)
	}
	if merged.AmountPaid != 10 || merged.AmountRemaining != 40 {
		t.Errorf("paid = %v, remaining = %v; want 10, 40", merged.AmountPaid, merged.AmountRemaining)
	}
	if _, err := f.tables.Get(ctx, t2.ID); !apperror.IsKind(err, apperror.KindNotFound) {
		t.Errorf("member table still present: %v", err)
	}

	summary, err := f.tables.Summary(ctx, merged.ID, 2, 0)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.BeforeDiscount != 50 || summary.Remaining != 40 || summary.PerSplit != 20 {
		t.Errorf("unexpected summary %+v", summary)
	}
	_, err = f.tables.Summary(ctx, merged.ID, 0, 0)
	assertKind(t, err, apperror.KindInvalidInput)
}

func TestTable_MergeRules(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.openTable(t, "A")
	b := f.openTable(t, "B")

	_, err := f.tables.Merge(ctx, []string{a.ID, a.ID})
	assertKind(t, err, apperror.KindInvalidInput)

	_, err = f.tables.Merge(ctx, []string{a.ID, "missing"})
	assertKind(t, err, apperror.KindNotFound)

	if _, err := f.tables.CloseFull(ctx, b.ID, &PaymentInput{}); err != nil {
		t.Fatalf("close empty table: %v", err)
	}
	_, err = f.tables.Merge(ctx, []string{a.ID, b.ID})
	assertKind(t, err, apperror.KindInvalidMergeState)
}

func TestTable_MergeThenSplitRestoresTables(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addStock(t, "Drink", 100, 10)

	ana, _ := f.tables.Create(ctx, &CreateTableInput{ClientName: "Ana", Position: entity.Position{X: 1, Y: 2}})
	bia, _ := f.tables.Create(ctx, &CreateTableInput{ClientName: "Bia", Position: entity.Position{X: 7, Y: 3}})
	oa := f.order(t, ana.ID, "Drink", 2)
	ob := f.order(t, bia.ID, "Drink", 1)

	if _, err := f.tables.Merge(ctx, []string{ana.ID, bia.ID}); err != nil {
		t.Fatalf("merge: %v", err)
	}
	restored, err := f.tables.Split(ctx, ana.ID)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if len(restored) != 2 {
		t.Fatalf("expected 2 tables, got %d", len(restored))
	}

	for _, want := range []*entity.Table{ana, bia} {
		got, err := f.tables.Get(ctx, want.ID)
		if err != nil {
			t.Fatalf("get %s: %v", want.ClientName, err)
		}
		if got.ClientName != want.ClientName || got.Position != want.Position || got.IsMerged {
			t.Errorf("restored %+v, want %+v", got, want)
		}
	}

	orderIDs := func(tableID string) []string {
		orders, err := f.orders.ListByTable(ctx, tableID)
		if err != nil {
			t.Fatalf("list orders: %v", err)
		}
		var ids []string
		for _, o := range orders {
			if len(o.MergeTrail) != 0 {
				t.Errorf("order %s kept merge trail %v", o.ID, o.MergeTrail)
			}
			ids = append(ids, o.ID)
		}
		return ids
	}
	if ids := orderIDs(ana.ID); len(ids) != 1 || ids[0] != oa.ID {
		t.Errorf("Ana orders = %v", ids)
	}
	if ids := orderIDs(bia.ID); len(ids) != 1 || ids[0] != ob.ID {
		t.Errorf("Bia orders = %v", ids)
	}

	rec, err := f.tables.mergedRepo.GetBySurvivor(ctx, ana.ID)
	if err != nil || rec != nil {
		t.Errorf("merge record left behind: %+v, %v", rec, err)
	}
}

func TestTable_NestedMergeSplitsOneLevelAtATime(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addStock(t, "Drink", 100, 10)
	a := f.openTable(t, "A")
	b := f.openTable(t, "B")
	c := f.openTable(t, "C")
	f.order(t, b.ID, "Drink", 1)

	if _, err := f.tables.Merge(ctx, []string{a.ID, b.ID}); err != nil {
		t.Fatalf("first merge: %v", err)
	}
	merged, err := f.tables.Merge(ctx, []string{a.ID, c.ID})
	if err != nil {
		t.Fatalf("second merge: %v", err)
	}
	if merged.ClientName != "A & B & C" {
		t.Errorf("name = %q", merged.ClientName)
	}

	first, err := f.tables.Split(ctx, a.ID)
	if err != nil {
		t.Fatalf("first split: %v", err)
	}
	if first[0].ClientName != "A & B" || !first[0].IsMerged || first[1].ClientName != "C" {
		t.Errorf("first split restored %q and %q", first[0].ClientName, first[1].ClientName)
	}

	second, err := f.tables.Split(ctx, a.ID)
	if err != nil {
		t.Fatalf("second split: %v", err)
	}
	if second[0].ClientName != "A" || second[1].ClientName != "B" {
		t.Errorf("second split restored %q and %q", second[0].ClientName, second[1].ClientName)
	}
	if second[1].AmountRemaining != 10 {
		t.Errorf("B remaining = %v, want 10", second[1].AmountRemaining)
	}
	orders, _ := f.orders.ListByTable(ctx, b.ID)
	if len(orders) != 1 {
		t.Errorf("B should have its order back, got %d", len(orders))
	}
}

func TestTable_SplitRefusals(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addStock(t, "Drink", 100, 10)

	plain := f.openTable(t, "Solo")
	_, err := f.tables.Split(ctx, plain.ID)
	assertKind(t, err, apperror.KindInvalidMergeState)

	a := f.openTable(t, "A")
	b := f.openTable(t, "B")
	f.order(t, a.ID, "Drink", 1)
	if _, err := f.tables.Merge(ctx, []string{a.ID, b.ID}); err != nil {
		t.Fatalf("merge: %v", err)
	}
	late := f.order(t, a.ID, "Drink", 1)
	_, err = f.tables.Split(ctx, a.ID)
	assertKind(t, err, apperror.KindInvalidMergeState)

	if err := f.orders.Remove(ctx, late.ID); err != nil {
		t.Fatalf("remove late order: %v", err)
	}
	if _, err := f.tables.ClosePartial(ctx, a.ID, &PaymentInput{AmountPaid: 5}); err != nil {
		t.Fatalf("partial payment: %v", err)
	}
	_, err = f.tables.Split(ctx, a.ID)
	assertKind(t, err, apperror.KindInvalidMergeState)
}

func TestTable_PartialThenFullClose(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addStock(t, "Drink", 100, 10)
	table := f.openTable(t, "Gabi")
	f.order(t, table.ID, "Drink", 10)

	res, err := f.tables.ClosePartial(ctx, table.ID, &PaymentInput{
		AmountPaid:     50,
		AmountReceived: 60,
		Discount:       amount(10),
		Method:         enum.PaymentMethodPix,
	})
	if err != nil {
		t.Fatalf("partial: %v", err)
	}
	if res.Table.AmountRemaining != 40 || res.Change != 10 || !res.Table.IsOpen() {
		t.Errorf("after partial: remaining %v, change %v, status %v", res.Table.AmountRemaining, res.Change, res.Table.Status)
	}

	_, err = f.tables.CloseFull(ctx, table.ID, &PaymentInput{AmountReceived: 30})
	assertKind(t, err, apperror.KindInvalidInput)

	entry, err := f.tables.CloseFull(ctx, table.ID, &PaymentInput{AmountReceived: 50})
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if entry.Total != 90 || entry.Subtotal != 100 || entry.Discount != 10 || entry.Change != 10 {
		t.Errorf("unexpected history entry %+v", entry)
	}
	var paid float64
	for _, p := range entry.PaymentHistory {
		paid += p.Amount
	}
	if paid != 90 || len(entry.PaymentHistory) != 2 {
		t.Errorf("payment history %+v", entry.PaymentHistory)
	}

	closed, _ := f.tables.Get(ctx, table.ID)
	if closed.IsOpen() || closed.AmountRemaining != 0 {
		t.Errorf("table after close: %+v", closed)
	}
	if orders, _ := f.orders.ListByTable(ctx, table.ID); len(orders) != 0 {
		t.Errorf("orders left after close: %d", len(orders))
	}

	_, err = f.tables.CloseFull(ctx, table.ID, &PaymentInput{})
	assertKind(t, err, apperror.KindInvalidInput)

	bal, err := f.cash.Balance(ctx, closed.CreatedAt.AddDate(0, 0, -1), closed.ClosedAt.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if bal.In != 90 || bal.Balance != 90 {
		t.Errorf("cash balance %+v, want 90 in", bal)
	}

	page, err := f.history.List(ctx, HistoryFilter{}, nil)
	if err != nil || len(page.Items) != 1 {
		t.Fatalf("history list: %v, %+v", err, page)
	}
}

func TestTable_CloseFullRequiresReceivedAmount(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addStock(t, "Drink", 100, 10)
	table := f.openTable(t, "Júlia")
	f.order(t, table.ID, "Drink", 3)

	_, err := f.tables.CloseFull(ctx, table.ID, &PaymentInput{})
	assertKind(t, err, apperror.KindInvalidInput)
	_, err = f.tables.CloseFull(ctx, table.ID, &PaymentInput{AmountPaid: 30})
	assertKind(t, err, apperror.KindInvalidInput)

	got, _ := f.tables.Get(ctx, table.ID)
	if !got.IsOpen() || got.AmountPaid != 0 {
		t.Fatalf("rejected close changed the table: %+v", got)
	}
	if page, _ := f.history.List(ctx, HistoryFilter{}, nil); len(page.Items) != 0 {
		t.Fatalf("rejected close archived a bill: %+v", page.Items)
	}

	entry, err := f.tables.CloseFull(ctx, table.ID, &PaymentInput{AmountReceived: 30})
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if entry.Total != 30 || entry.AmountReceived != 30 || entry.Change != 0 {
		t.Errorf("unexpected history entry %+v", entry)
	}
}

func TestTable_PaymentValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addStock(t, "Drink", 100, 10)
	table := f.openTable(t, "Hugo")
	f.order(t, table.ID, "Drink", 2)

	tests := []struct {
		name  string
		input PaymentInput
	}{
		{"zero partial", PaymentInput{}},
		{"negative partial", PaymentInput{AmountPaid: -5}},
		{"discount above total", PaymentInput{AmountPaid: 5, Discount: amount(30)}},
		{"negative discount", PaymentInput{AmountPaid: 5, Discount: amount(-1)}},
		{"received below paid", PaymentInput{AmountPaid: 10, AmountReceived: 5}},
		{"unknown method", PaymentInput{AmountPaid: 5, Method: "barter"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := tt.input
			_, err := f.tables.ClosePartial(ctx, table.ID, &in)
			assertKind(t, err, apperror.KindInvalidInput)
		})
	}

	got, _ := f.tables.Get(ctx, table.ID)
	if got.AmountPaid != 0 || len(got.PaymentHistory) != 0 {
		t.Errorf("rejected payments changed the table: %+v", got)
	}
}

func TestTable_RemoveRules(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addStock(t, "Drink", 100, 10)
	a := f.openTable(t, "A")
	b := f.openTable(t, "B")
	f.order(t, a.ID, "Drink", 1)

	assertKind(t, f.tables.Remove(ctx, a.ID), apperror.KindInvalidInput)

	if _, err := f.tables.Merge(ctx, []string{a.ID, b.ID}); err != nil {
		t.Fatalf("merge: %v", err)
	}
	if _, err := f.tables.CloseFull(ctx, a.ID, &PaymentInput{AmountReceived: 10}); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := f.tables.Remove(ctx, a.ID); err != nil {
		t.Fatalf("remove closed table: %v", err)
	}
	if _, err := f.tables.Get(ctx, a.ID); !apperror.IsKind(err, apperror.KindNotFound) {
		t.Errorf("table still present: %v", err)
	}
	records, _ := f.tables.mergedRepo.List(ctx)
	if len(records) != 0 {
		t.Errorf("merge records left: %+v", records)
	}
}

func TestReachableRecords_FollowsChainsAndStopsOnCycles(t *testing.T) {
	member := func(id string, prior *entity.MergedTableRecord) entity.MemberSnapshot {
		return entity.MemberSnapshot{Table: entity.Table{ID: id}, PriorRecord: prior}
	}
	records := []entity.MergedTableRecord{
		{SurvivorID: "a", Members: []entity.MemberSnapshot{
			member("a", &entity.MergedTableRecord{SurvivorID: "a", Members: []entity.MemberSnapshot{member("a", nil), member("d", nil)}}),
			member("b", nil),
		}},
		{SurvivorID: "b", Members: []entity.MemberSnapshot{member("b", nil), member("c", nil)}},
		{SurvivorID: "c", Members: []entity.MemberSnapshot{member("c", nil), member("a", nil)}},
		{SurvivorID: "d", Members: []entity.MemberSnapshot{member("d", nil), member("e", nil)}},
		{SurvivorID: "x", Members: []entity.MemberSnapshot{member("x", nil), member("y", nil)}},
	}

	got := reachableRecords("a", records)
	sort.Strings(got)
	want := []string{"a", "b", "c", "d"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
