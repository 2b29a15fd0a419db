package docstore

import (
	"context"
	"errors"
	"sync"
	"testing"
)

type stockDoc struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
}

func TestMemoryStore_SetGetList(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if err := Set(ctx, s, "estoque/gin", stockDoc{Name: "Gin", Quantity: 3}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := Set(ctx, s, "estoque/vodka", stockDoc{Name: "Vodka", Quantity: 1}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := Set(ctx, s, "mesas/1", map[string]interface{}{"client_name": "Ana"}); err != nil {
		t.Fatalf("set: %v", err)
	}

	var got stockDoc
	if err := GetInto(ctx, s, "estoque/gin", &got); err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Gin" || got.Quantity != 3 {
		t.Errorf("got %+v", got)
	}

	docs, err := s.List(ctx, "estoque")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(docs) != 2 || docs[0].ID() != "gin" || docs[1].ID() != "vodka" {
		t.Errorf("unexpected listing: %+v", docs)
	}

	if _, err := s.Get(ctx, "estoque/rum"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStore_CommitIsAtomic(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_ = Set(ctx, s, "estoque/gin", stockDoc{Name: "Gin", Quantity: 3})

	b := NewBatch().
		Set("pedidos/1", map[string]interface{}{"table_id": "1"}).
		Increment("estoque/gin", "quantity", -1).
		Increment("estoque/missing", "quantity", -1)

	if err := s.Commit(ctx, b); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.Get(ctx, "pedidos/1"); !errors.Is(err, ErrNotFound) {
		t.Error("order written by a failed commit")
	}
	var gin stockDoc
	_ = GetInto(ctx, s, "estoque/gin", &gin)
	if gin.Quantity != 3 {
		t.Errorf("quantity changed by a failed commit: %v", gin.Quantity)
	}
}

func TestMemoryStore_Preconditions(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_ = Set(ctx, s, "estoque/gin", stockDoc{Name: "Gin", Quantity: 2})

	b := NewBatch().
		RequireAtLeast("estoque/gin", "quantity", 3).
		Increment("estoque/gin", "quantity", -3)

	err := s.Commit(ctx, b)
	var pre *PreconditionError
	if !errors.As(err, &pre) {
		t.Fatalf("expected PreconditionError, got %v", err)
	}
	if pre.Available() != 2 || pre.Guard.Min != 3 {
		t.Errorf("unexpected precondition detail: %+v", pre)
	}
}

func TestMemoryStore_RequireEqual(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_ = Set(ctx, s, "pedidos/1", map[string]interface{}{"delivered": false, "status": "awaiting"})

	deliver := func() error {
		return s.Commit(ctx, NewBatch().
			RequireEqual("pedidos/1", "delivered", false).
			Merge("pedidos/1", map[string]interface{}{"delivered": true, "status": "delivered"}))
	}
	if err := deliver(); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	var pre *PreconditionError
	if err := deliver(); !errors.As(err, &pre) {
		t.Fatalf("expected PreconditionError on second delivery, got %v", err)
	}

	err := s.Commit(ctx, NewBatch().RequireEqual("pedidos/2", "delivered", false).Delete("pedidos/2"))
	if !errors.As(err, &pre) {
		t.Errorf("expected missing document to fail the guard, got %v", err)
	}
}

func TestMemoryStore_ConcurrentDebitsNeverOversell(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_ = Set(ctx, s, "estoque/gin", stockDoc{Name: "Gin", Quantity: 10})

	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b := NewBatch().
				RequireAtLeast("estoque/gin", "quantity", 1).
				Increment("estoque/gin", "quantity", -1)
			if s.Commit(ctx, b) == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	var gin stockDoc
	_ = GetInto(ctx, s, "estoque/gin", &gin)
	if ok != 10 || gin.Quantity != 0 {
		t.Errorf("successful debits = %d, remaining = %v", ok, gin.Quantity)
	}
}

func TestMemoryStore_RequireMissing(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	claim := func() error {
		return s.Commit(ctx, NewBatch().
			RequireMissing("mesasAbertas/ana").
			Set("mesasAbertas/ana", map[string]interface{}{"table_id": "1"}))
	}
	if err := claim(); err != nil {
		t.Fatalf("first claim: %v", err)
	}
	var pre *PreconditionError
	if err := claim(); !errors.As(err, &pre) || pre.Guard.Kind != GuardMissing {
		t.Fatalf("expected a missing-document precondition, got %v", err)
	}

	_ = s.Commit(ctx, NewBatch().Delete("mesasAbertas/ana"))
	if err := claim(); err != nil {
		t.Errorf("claim after release: %v", err)
	}
}

func TestMemoryStore_SubscribersSeeCommitOrder(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_ = Set(ctx, s, "estoque/gin", stockDoc{Name: "Gin"})

	var seen []float64
	unsubscribe := s.Subscribe("estoque", func(c Change) {
		n, _ := Number(c.Data["quantity"])
		seen = append(seen, n)
	})
	defer unsubscribe()

	const commits = 50
	var wg sync.WaitGroup
	for i := 0; i < commits; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Commit(ctx, NewBatch().Increment("estoque/gin", "quantity", 1))
		}()
	}
	wg.Wait()

	if len(seen) != commits {
		t.Fatalf("saw %d changes, want %d", len(seen), commits)
	}
	for i, n := range seen {
		if n != float64(i+1) {
			t.Fatalf("change %d carried quantity %v, want %d", i, n, i+1)
		}
	}
}

func TestMemoryStore_MergeAndUpdateAll(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_ = Set(ctx, s, "mesas/1", map[string]interface{}{"client_name": "Ana", "status": "open"})

	if err := Update(ctx, s, "mesas/1", map[string]interface{}{"status": "closed"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	doc, _ := s.Get(ctx, "mesas/1")
	if doc.Data["client_name"] != "Ana" || doc.Data["status"] != "closed" {
		t.Errorf("merge lost fields: %v", doc.Data)
	}

	err := UpdateAll(ctx, s, map[string]interface{}{
		"mesas/1": nil,
		"mesas/2": map[string]interface{}{"client_name": "Bia"},
	})
	if err != nil {
		t.Fatalf("update all: %v", err)
	}
	if _, err := s.Get(ctx, "mesas/1"); !errors.Is(err, ErrNotFound) {
		t.Error("nil value did not delete")
	}
	if _, err := s.Get(ctx, "mesas/2"); err != nil {
		t.Errorf("mesas/2 missing: %v", err)
	}
}

func TestMemoryStore_Subscribe(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	var got []Change
	unsubscribe := s.Subscribe("cardapio", func(c Change) { got = append(got, c) })

	_ = Set(ctx, s, "cardapio/gin", map[string]interface{}{"unit_price": 12.5})
	_ = Set(ctx, s, "estoque/gin", map[string]interface{}{"quantity": 1})
	_ = s.Commit(ctx, NewBatch().Delete("cardapio/gin"))

	if len(got) != 2 {
		t.Fatalf("expected 2 changes, got %d", len(got))
	}
	if got[0].Kind != ChangeSet || got[1].Kind != ChangeRemoved {
		t.Errorf("unexpected kinds: %v, %v", got[0].Kind, got[1].Kind)
	}

	unsubscribe()
	unsubscribe()
	_ = Set(ctx, s, "cardapio/rum", map[string]interface{}{"unit_price": 10})
	if len(got) != 2 {
		t.Error("callback fired after unsubscribe")
	}
	if n := s.Subscribers("cardapio"); n != 0 {
		t.Errorf("expected no subscribers, got %d", n)
	}
}

func TestMemoryStore_InjectFault(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	boom := errors.New("network down")

	s.InjectFault(boom)
	if err := Set(ctx, s, "mesas/1", map[string]interface{}{}); !errors.Is(err, boom) {
		t.Errorf("expected injected fault, got %v", err)
	}
	s.ClearFault()
	if err := Set(ctx, s, "mesas/1", map[string]interface{}{}); err != nil {
		t.Errorf("unexpected error after clearing fault: %v", err)
	}
}

func TestBatch_RejectsInvalidPaths(t *testing.T) {
	tests := []string{"", "mesas", "mesas//1", "/mesas/1"}
	for _, path := range tests {
		t.Run(path, func(t *testing.T) {
			b := NewBatch().Delete(path)
			if b.Err() == nil {
				t.Errorf("expected error for %q", path)
			}
		})
	}
}
