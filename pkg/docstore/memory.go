package docstore

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryStore is an in-process Store. It backs tests and single-device setups.
type MemoryStore struct {
	mu    sync.Mutex
	docs  map[string]map[string]interface{}
	fault error

	*Notifier
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs:     make(map[string]map[string]interface{}),
		Notifier: NewNotifier(),
	}
}

// InjectFault makes every read and commit fail with err until ClearFault is called.
func (s *MemoryStore) InjectFault(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fault = err
}

// ClearFault removes an injected fault.
func (s *MemoryStore) ClearFault() {
	s.InjectFault(nil)
}

func (s *MemoryStore) Get(ctx context.Context, path string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fault != nil {
		return nil, s.fault
	}
	data, ok := s.docs[path]
	if !ok {
		return nil, ErrNotFound
	}
	return &Document{Path: path, Data: cloneMap(data)}, nil
}

func (s *MemoryStore) List(ctx context.Context, collection string) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fault != nil {
		return nil, s.fault
	}
	prefix := strings.TrimSuffix(collection, "/") + "/"
	var out []Document
	for path, data := range s.docs {
		if !strings.HasPrefix(path, prefix) || strings.Contains(path[len(prefix):], "/") {
			continue
		}
		out = append(out, Document{Path: path, Data: cloneMap(data)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func (s *MemoryStore) Commit(ctx context.Context, b *Batch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := b.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	if s.fault != nil {
		s.mu.Unlock()
		return s.fault
	}

	staged, err := Apply(b, func(path string) (map[string]interface{}, bool) {
		data, ok := s.docs[path]
		return data, ok
	})
	if err != nil {
		s.mu.Unlock()
		return err
	}

	for path, data := range staged {
		if data == nil {
			delete(s.docs, path)
			continue
		}
		s.docs[path] = data
	}
	changes := Changes(b, staged)
	ticket := s.Ticket()
	s.mu.Unlock()

	s.PublishInTurn(ticket, changes)
	return nil
}

// Subscribe delivers changes for collection. The current documents are not replayed.
func (s *MemoryStore) Subscribe(collection string, fn func(Change)) func() {
	return s.Notifier.Subscribe(collection, fn)
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fault
}

func (s *MemoryStore) Close() error {
	return nil
}
