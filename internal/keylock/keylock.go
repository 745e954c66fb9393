// Package keylock provides mutual exclusion scoped to a string key.
package keylock

import "sync"

type entry struct {
	mu   sync.Mutex
	refs int
}

// Locks hands out one mutex per key. Entries are dropped once nobody holds or
// waits on them, so the map only grows with concurrent keys.
type Locks struct {
	mu      sync.Mutex
	entries map[string]*entry
}

func New() *Locks {
	return &Locks{entries: make(map[string]*entry)}
}

// Lock blocks until key is free and returns the func that releases it.
func (l *Locks) Lock(key string) (unlock func()) {
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &entry{}
		l.entries[key] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()

	return func() {
		e.mu.Unlock()

		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.entries, key)
		}
		l.mu.Unlock()
	}
}

func (l *Locks) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.entries)
}
