package docstore

import (
	"fmt"
	"sort"
)

// OpKind is the kind of a staged write.
type OpKind int

const (
	OpSet OpKind = iota
	OpMerge
	OpDelete
	OpIncrement
)

func (k OpKind) String() string {
	return [...]string{"set", "merge", "delete", "increment"}[k]
}

// Op is one staged write.
type Op struct {
	Kind  OpKind
	Path  string
	Data  map[string]interface{}
	Field string
	Delta float64
}

// GuardKind selects how a guard compares.
type GuardKind int

const (
	GuardAtLeast GuardKind = iota
	GuardEqual
	GuardMissing
)

// Guard is a precondition checked inside the commit.
type Guard struct {
	Kind  GuardKind
	Path  string
	Field string
	Min   float64
	Value interface{}
}

func (g Guard) holds(data map[string]interface{}, exists bool) (interface{}, bool) {
	if g.Kind == GuardMissing {
		return data, !exists
	}
	if !exists {
		return nil, false
	}
	got := data[g.Field]
	switch g.Kind {
	case GuardEqual:
		return got, equalValues(got, g.Value)
	default:
		n, ok := Number(got)
		return got, ok && n >= g.Min
	}
}

func equalValues(a, b interface{}) bool {
	if x, ok := Number(a); ok && a != nil {
		if y, ok := Number(b); ok && b != nil {
			return x == y
		}
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

// Batch collects writes that must land together. Ops apply in the order
// they were staged; guards are evaluated against the state before any op.
type Batch struct {
	ops    []Op
	guards []Guard
	err    error
}

// NewBatch creates an empty batch.
func NewBatch() *Batch {
	return &Batch{}
}

// Set replaces the document at path with v.
func (b *Batch) Set(path string, v interface{}) *Batch {
	if !b.check(path) {
		return b
	}
	data, err := Encode(v)
	if err != nil {
		b.err = fmt.Errorf("docstore: encode %s: %w", path, err)
		return b
	}
	b.ops = append(b.ops, Op{Kind: OpSet, Path: path, Data: data})
	return b
}

// Merge writes fields into the document at path, creating it if missing.
func (b *Batch) Merge(path string, fields map[string]interface{}) *Batch {
	if !b.check(path) {
		return b
	}
	data, err := Encode(fields)
	if err != nil {
		b.err = fmt.Errorf("docstore: encode %s: %w", path, err)
		return b
	}
	b.ops = append(b.ops, Op{Kind: OpMerge, Path: path, Data: data})
	return b
}

// Delete removes the document at path. Deleting a missing document is not an error.
func (b *Batch) Delete(path string) *Batch {
	if !b.check(path) {
		return b
	}
	b.ops = append(b.ops, Op{Kind: OpDelete, Path: path})
	return b
}

// Increment adds delta to a numeric field server-side. The document must exist.
func (b *Batch) Increment(path, field string, delta float64) *Batch {
	if !b.check(path) {
		return b
	}
	b.ops = append(b.ops, Op{Kind: OpIncrement, Path: path, Field: field, Delta: delta})
	return b
}

// RequireAtLeast fails the whole commit unless path.field >= min.
func (b *Batch) RequireAtLeast(path, field string, min float64) *Batch {
	if !b.check(path) {
		return b
	}
	b.guards = append(b.guards, Guard{Kind: GuardAtLeast, Path: path, Field: field, Min: min})
	return b
}

// RequireEqual fails the whole commit unless the document exists and
// path.field equals value. It is the compare half of a compare-and-swap.
func (b *Batch) RequireEqual(path, field string, value interface{}) *Batch {
	if !b.check(path) {
		return b
	}
	b.guards = append(b.guards, Guard{Kind: GuardEqual, Path: path, Field: field, Value: value})
	return b
}

// RequireMissing fails the whole commit if a document exists at path.
func (b *Batch) RequireMissing(path string) *Batch {
	if !b.check(path) {
		return b
	}
	b.guards = append(b.guards, Guard{Kind: GuardMissing, Path: path})
	return b
}

// AbsentPaths returns the sorted paths guarded by RequireMissing.
func (b *Batch) AbsentPaths() []string {
	var out []string
	for _, g := range b.guards {
		if g.Kind == GuardMissing {
			out = append(out, g.Path)
		}
	}
	sort.Strings(out)
	return out
}

// Append stages every op and guard of other into b.
func (b *Batch) Append(other *Batch) *Batch {
	if other == nil {
		return b
	}
	if other.err != nil && b.err == nil {
		b.err = other.err
	}
	b.ops = append(b.ops, other.ops...)
	b.guards = append(b.guards, other.guards...)
	return b
}

// Ops returns the staged writes.
func (b *Batch) Ops() []Op {
	return b.ops
}

// Guards returns the staged preconditions.
func (b *Batch) Guards() []Guard {
	return b.guards
}

// Len returns the number of staged writes.
func (b *Batch) Len() int {
	return len(b.ops)
}

// Err returns the first staging error, if any. Drivers refuse to commit a batch with an error.
func (b *Batch) Err() error {
	return b.err
}

func (b *Batch) check(path string) bool {
	if b.err != nil {
		return false
	}
	if err := ValidatePath(path); err != nil {
		b.err = err
		return false
	}
	return true
}

// Apply evaluates the guards and ops of b against the documents returned by
// read and returns the resulting state of every touched path (nil means
// deleted). read is never asked to modify anything, so drivers can call Apply
// inside their own transaction and persist the result.
func Apply(b *Batch, read func(path string) (map[string]interface{}, bool)) (map[string]map[string]interface{}, error) {
	for _, g := range b.Guards() {
		data, exists := read(g.Path)
		if got, ok := g.holds(data, exists); !ok {
			return nil, &PreconditionError{Guard: g, Got: got}
		}
	}

	staged := make(map[string]map[string]interface{})
	current := func(path string) (map[string]interface{}, bool) {
		if data, ok := staged[path]; ok {
			return data, data != nil
		}
		data, ok := read(path)
		if !ok {
			return nil, false
		}
		return cloneMap(data), true
	}

	for _, op := range b.Ops() {
		switch op.Kind {
		case OpSet:
			staged[op.Path] = cloneMap(op.Data)
		case OpMerge:
			data, ok := current(op.Path)
			if !ok {
				data = make(map[string]interface{})
			}
			for k, v := range op.Data {
				data[k] = v
			}
			staged[op.Path] = data
		case OpDelete:
			staged[op.Path] = nil
		case OpIncrement:
			data, ok := current(op.Path)
			if !ok {
				return nil, fmt.Errorf("increment %s: %w", op.Path, ErrNotFound)
			}
			n, _ := Number(data[op.Field])
			data[op.Field] = n + op.Delta
			staged[op.Path] = data
		}
	}
	return staged, nil
}

// Paths returns every distinct path the batch reads or writes, sorted.
func (b *Batch) Paths() []string {
	seen := make(map[string]bool)
	var out []string
	for _, g := range b.guards {
		if !seen[g.Path] {
			seen[g.Path] = true
			out = append(out, g.Path)
		}
	}
	for _, op := range b.ops {
		if !seen[op.Path] {
			seen[op.Path] = true
			out = append(out, op.Path)
		}
	}
	sort.Strings(out)
	return out
}
