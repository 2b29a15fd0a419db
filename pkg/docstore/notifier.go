package docstore

import (
	"sync"
)

// Notifier fans out committed changes to in-process subscribers.
// Drivers without a native change feed embed it.
type Notifier struct {
	mu     sync.RWMutex
	nextID int
	subs   map[string]map[int]func(Change)

	turn           sync.Mutex
	turnDone       *sync.Cond
	issued, served uint64
}

// NewNotifier creates an empty notifier.
func NewNotifier() *Notifier {
	n := &Notifier{subs: make(map[string]map[int]func(Change))}
	n.turnDone = sync.NewCond(&n.turn)
	return n
}

// Ticket reserves the next place in publication order. Drivers take it while
// still holding whatever serializes their commits, then hand it to
// PublishInTurn.
func (n *Notifier) Ticket() uint64 {
	n.turn.Lock()
	defer n.turn.Unlock()
	t := n.issued
	n.issued++
	return t
}

// PublishInTurn waits until every earlier ticket was published and then
// publishes changes, so subscribers see commits in commit order. A ticket
// whose commit failed must still be handed in with no changes. Subscribers
// must not commit from their callback.
func (n *Notifier) PublishInTurn(ticket uint64, changes []Change) {
	n.turn.Lock()
	for n.served != ticket {
		n.turnDone.Wait()
	}
	n.turn.Unlock()

	n.Publish(changes)

	n.turn.Lock()
	n.served++
	n.turnDone.Broadcast()
	n.turn.Unlock()
}

// Subscribe registers fn for changes directly under collection.
func (n *Notifier) Subscribe(collection string, fn func(Change)) func() {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.nextID++
	id := n.nextID
	if n.subs[collection] == nil {
		n.subs[collection] = make(map[int]func(Change))
	}
	n.subs[collection][id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			delete(n.subs[collection], id)
			if len(n.subs[collection]) == 0 {
				delete(n.subs, collection)
			}
		})
	}
}

// Publish delivers changes to subscribers. It must be called without driver locks held.
func (n *Notifier) Publish(changes []Change) {
	for _, ch := range changes {
		collection := CollectionOf(ch.Path)

		n.mu.RLock()
		fns := make([]func(Change), 0, len(n.subs[collection]))
		for _, fn := range n.subs[collection] {
			fns = append(fns, fn)
		}
		n.mu.RUnlock()

		for _, fn := range fns {
			fn(ch)
		}
	}
}

// Subscribers returns the number of live subscriptions under collection.
func (n *Notifier) Subscribers(collection string) int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.subs[collection])
}

// Changes derives subscriber notifications from an applied batch and the
// resulting documents (nil for deleted paths).
func Changes(b *Batch, after map[string]map[string]interface{}) []Change {
	seen := make(map[string]bool)
	var out []Change
	for _, op := range b.Ops() {
		if seen[op.Path] {
			continue
		}
		seen[op.Path] = true
		data, ok := after[op.Path]
		if !ok || data == nil {
			out = append(out, Change{Kind: ChangeRemoved, Path: op.Path})
			continue
		}
		out = append(out, Change{Kind: ChangeSet, Path: op.Path, Data: cloneMap(data)})
	}
	return out
}
