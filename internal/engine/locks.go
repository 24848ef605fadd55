package engine

import "sync"

// itemLocks serializes reconciliation per item ID. Concurrent
// reconciliations for the same item would race their ledger commits;
// different items are free to run in parallel.
type itemLocks struct {
	mu   sync.Mutex
	held map[string]*itemLock
}

type itemLock struct {
	mu   sync.Mutex
	refs int
}

func newItemLocks() *itemLocks {
	return &itemLocks{held: make(map[string]*itemLock)}
}

// lock acquires the lock for id and returns its release func. Entries
// are refcounted so the map does not grow with every item ever seen.
func (l *itemLocks) lock(id string) (unlock func()) {
	l.mu.Lock()
	e := l.held[id]
	if e == nil {
		e = &itemLock{}
		l.held[id] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.held, id)
		}
		l.mu.Unlock()
	}
}
