// Package docstore is the path-addressed document store every device shares.
//
// Documents live at slash-separated paths such as "mesas/42" and hold a flat
// JSON object. Writes are grouped in a Batch and applied atomically by
// Store.Commit: either every set, merge, delete and increment lands, or none
// does. Numeric preconditions (RequireAtLeast) are checked inside the same
// commit, which is what makes stock debits safe across devices.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("docstore: document not found")

// PreconditionError reports a guard that did not hold.
type PreconditionError struct {
	Guard Guard
	Got   interface{}
}

func (e *PreconditionError) Error() string {
	if e.Guard.Kind == GuardMissing {
		return fmt.Sprintf("docstore: %s already exists", e.Guard.Path)
	}
	if e.Guard.Kind == GuardEqual {
		return fmt.Sprintf("docstore: %s.%s is %v, want %v", e.Guard.Path, e.Guard.Field, e.Got, e.Guard.Value)
	}
	return fmt.Sprintf("docstore: %s.%s is %v, need at least %v", e.Guard.Path, e.Guard.Field, e.Got, e.Guard.Min)
}

// Available returns the numeric value the guard saw, zero when missing.
func (e *PreconditionError) Available() float64 {
	n, _ := Number(e.Got)
	return n
}

// Store is implemented by the memory, Postgres and Firestore drivers.
type Store interface {
	// Get returns the document at path or ErrNotFound.
	Get(ctx context.Context, path string) (*Document, error)
	// List returns every document directly under collection.
	List(ctx context.Context, collection string) ([]Document, error)
	// Commit applies the batch atomically.
	Commit(ctx context.Context, b *Batch) error
	// Subscribe calls fn for every change under collection until unsubscribe is called.
	Subscribe(collection string, fn func(Change)) (unsubscribe func())
	// Ping checks connectivity.
	Ping(ctx context.Context) error
	Close() error
}

// Document is a stored JSON object and its path.
type Document struct {
	Path string
	Data map[string]interface{}
}

// ID returns the last path segment.
func (d Document) ID() string {
	return ID(d.Path)
}

// DataTo decodes the document into dest, which must be a pointer.
func (d Document) DataTo(dest interface{}) error {
	raw, err := json.Marshal(d.Data)
	if err != nil {
		return fmt.Errorf("docstore: encode %s: %w", d.Path, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("docstore: decode %s: %w", d.Path, err)
	}
	return nil
}

// ChangeKind says what happened to a document.
type ChangeKind string

const (
	ChangeSet     ChangeKind = "set"
	ChangeRemoved ChangeKind = "removed"
)

// Change is delivered to subscribers after a commit.
type Change struct {
	Kind ChangeKind
	Path string
	Data map[string]interface{}
}

// Join builds a path from segments.
func Join(segments ...string) string {
	return strings.Join(segments, "/")
}

// ID returns the last segment of path.
func ID(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}

// CollectionOf returns everything before the last segment of path.
func CollectionOf(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[:i]
	}
	return ""
}

// ValidatePath rejects empty paths and empty segments.
func ValidatePath(path string) error {
	if path == "" {
		return fmt.Errorf("docstore: empty path")
	}
	for _, seg := range strings.Split(path, "/") {
		if seg == "" {
			return fmt.Errorf("docstore: invalid path %q", path)
		}
	}
	if CollectionOf(path) == "" {
		return fmt.Errorf("docstore: path %q has no collection", path)
	}
	return nil
}

// Number converts a decoded JSON or driver value to float64.
func Number(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case nil:
		return 0, true
	default:
		return 0, false
	}
}

// Encode turns a struct into the flat map a document holds.
func Encode(v interface{}) (map[string]interface{}, error) {
	if m, ok := v.(map[string]interface{}); ok {
		return cloneMap(m), nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("docstore: value must encode to a JSON object: %w", err)
	}
	return m, nil
}

// GetInto reads the document at path into dest.
func GetInto(ctx context.Context, s Store, path string, dest interface{}) error {
	doc, err := s.Get(ctx, path)
	if err != nil {
		return err
	}
	return doc.DataTo(dest)
}

// Set replaces the document at path.
func Set(ctx context.Context, s Store, path string, v interface{}) error {
	return s.Commit(ctx, NewBatch().Set(path, v))
}

// Update merges fields into the document at path, creating it if missing.
func Update(ctx context.Context, s Store, path string, fields map[string]interface{}) error {
	return s.Commit(ctx, NewBatch().Merge(path, fields))
}

// UpdateAll writes several paths atomically; a nil value deletes the path.
func UpdateAll(ctx context.Context, s Store, writes map[string]interface{}) error {
	b := NewBatch()
	for path, v := range writes {
		if v == nil {
			b.Delete(path)
			continue
		}
		b.Set(path, v)
	}
	return s.Commit(ctx, b)
}

func cloneMap(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	raw, err := json.Marshal(m)
	if err != nil {
		out := make(map[string]interface{}, len(m))
		for k, v := range m {
			out[k] = v
		}
		return out
	}
	var out map[string]interface{}
	_ = json.Unmarshal(raw, &out)
	return out
}
