package combo

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRegistry_SubItemsForNormalizesNames(t *testing.T) {
	r, err := NewRegistry([]Definition{
		{Name: "Combo Gin Tônica", Items: []Component{{Name: "Gin", Quantity: 1}, {Name: "Água Tônica", Quantity: 1}}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name string
		want bool
	}{
		{"Combo Gin Tônica", true},
		{"  combo   gin tonica ", true},
		{"COMBO GIN TÔNICA", true},
		{"Gin", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, ok := r.SubItemsFor(tt.name)
			if ok != tt.want {
				t.Fatalf("SubItemsFor(%q) ok = %v, want %v", tt.name, ok, tt.want)
			}
			if ok && len(items) != 2 {
				t.Errorf("expected 2 items, got %d", len(items))
			}
		})
	}
}

func TestRegistry_SubItemsForReturnsCopy(t *testing.T) {
	r, _ := NewRegistry([]Definition{{Name: "Balde", Items: []Component{{Name: "Cerveja", Quantity: 5}}}})

	items, _ := r.SubItemsFor("balde")
	items[0].Quantity = 100

	again, _ := r.SubItemsFor("balde")
	if again[0].Quantity != 5 {
		t.Errorf("registry mutated through returned slice: %v", again[0].Quantity)
	}
}

func TestNewRegistry_Rejects(t *testing.T) {
	tests := map[string][]Definition{
		"empty name":    {{Name: " ", Items: []Component{{Name: "Gin", Quantity: 1}}}},
		"no items":      {{Name: "Combo"}},
		"zero quantity": {{Name: "Combo", Items: []Component{{Name: "Gin", Quantity: 0}}}},
		"duplicate": {
			{Name: "Combo", Items: []Component{{Name: "Gin", Quantity: 1}}},
			{Name: "combo", Items: []Component{{Name: "Rum", Quantity: 1}}},
		},
	}
	for name, defs := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := NewRegistry(defs); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "combos.yaml")
	content := `combos:
  - name: Balde de Cerveja
    items:
      - {name: Cerveja, quantity: 5}
  - name: Combo Whisky
    items:
      - {name: Whisky, quantity: 1}
      - {name: Energético, quantity: 4}
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	r, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if r.Len() != 2 {
		t.Fatalf("expected 2 combos, got %d", r.Len())
	}
	items, ok := r.SubItemsFor("balde de cerveja")
	if !ok || items[0].Name != "Cerveja" || items[0].Quantity != 5 {
		t.Errorf("unexpected items: %+v", items)
	}
	if names := r.Names(); names[0] != "Balde de Cerveja" || names[1] != "Combo Whisky" {
		t.Errorf("unexpected names: %v", names)
	}
}
