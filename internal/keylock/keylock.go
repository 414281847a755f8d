package keylock

import (
	"sort"
	"sync"
)

// Locker hands out one mutex per key. The zero value is ready to use.
type Locker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (l *Locker) get(key string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.locks == nil {
		l.locks = make(map[string]*sync.Mutex)
	}
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	return m
}

// Lock acquires the mutex for key and returns the function that releases it.
func (l *Locker) Lock(key string) (unlock func()) {
	m := l.get(key)
	m.Lock()
	return m.Unlock
}

// LockAll acquires the mutexes for every key in sorted order, so two callers
// locking overlapping sets cannot deadlock.
func (l *Locker) LockAll(keys []string) (unlock func()) {
	sorted := make([]string, len(keys))
	copy(sorted, keys)
	sort.Strings(sorted)

	held := make([]*sync.Mutex, 0, len(sorted))
	for i, k := range sorted {
		if i > 0 && sorted[i-1] == k {
			continue
		}
		m := l.get(k)
		m.Lock()
		held = append(held, m)
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}
