// Package combo maps composite menu items to the stock they consume.
package combo

import (
	"fmt"
	"os"
	"sort"

	"github.com/sangkips/mesa-api/pkg/utils"
	"gopkg.in/yaml.v3"
)

// Component is one stock item consumed by each unit of a combo.
type Component struct {
	Name     string  `yaml:"name" json:"name"`
	Quantity float64 `yaml:"quantity" json:"quantity"`
}

// Definition is a combo as written in the combos file.
type Definition struct {
	Name  string      `yaml:"name"`
	Items []Component `yaml:"items"`
}

type file struct {
	Combos []Definition `yaml:"combos"`
}

// Registry is read-only after construction and safe for concurrent use.
type Registry struct {
	combos map[string][]Component
	names  map[string]string
}

// NewRegistry builds a registry from definitions. Combo names are normalized;
// a combo without items or with a non-positive quantity is rejected.
func NewRegistry(defs []Definition) (*Registry, error) {
	r := &Registry{
		combos: make(map[string][]Component, len(defs)),
		names:  make(map[string]string, len(defs)),
	}
	for _, def := range defs {
		key := utils.NormalizeName(def.Name)
		if key == "" {
			return nil, fmt.Errorf("combo with empty name")
		}
		if _, dup := r.combos[key]; dup {
			return nil, fmt.Errorf("combo %q defined twice", def.Name)
		}
		if len(def.Items) == 0 {
			return nil, fmt.Errorf("combo %q has no items", def.Name)
		}
		items := make([]Component, 0, len(def.Items))
		for _, it := range def.Items {
			if utils.NormalizeName(it.Name) == "" || it.Quantity <= 0 {
				return nil, fmt.Errorf("combo %q: invalid item %q x %v", def.Name, it.Name, it.Quantity)
			}
			items = append(items, it)
		}
		r.combos[key] = items
		r.names[key] = def.Name
	}
	return r, nil
}

// Empty returns a registry with no combos.
func Empty() *Registry {
	r, _ := NewRegistry(nil)
	return r
}

// LoadFile reads a YAML file of the form
//
//	combos:
//	  - name: Balde de Cerveja
//	    items:
//	      - {name: Cerveja, quantity: 5}
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return NewRegistry(f.Combos)
}

// SubItemsFor returns the components consumed by one unit of the named combo.
func (r *Registry) SubItemsFor(name string) ([]Component, bool) {
	items, ok := r.combos[utils.NormalizeName(name)]
	if !ok {
		return nil, false
	}
	out := make([]Component, len(items))
	copy(out, items)
	return out, true
}

// IsCombo reports whether name is a combo.
func (r *Registry) IsCombo(name string) bool {
	_, ok := r.combos[utils.NormalizeName(name)]
	return ok
}

// Names lists the combos by display name.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.names))
	for _, n := range r.names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Len is the number of combos.
func (r *Registry) Len() int {
	return len(r.combos)
}
