// Package lock provides an in-process mutex keyed by an arbitrary string,
// used to serialize mutating operations per document without a single
// global lock. Generalized from the teacher's persisted per-resource lock
// bookkeeping (byte-range/lease locks surviving restarts) down to the
// narrower in-process critical-section need of the document store: two
// operations on different keys must proceed independently, and readers
// of one key must observe a consistent snapshot of that key's state.
package lock

import "sync"

type refcountedMutex struct {
	mu  sync.Mutex
	ref int
}

// KeyedMutex hands out a critical section per key. Unlike a plain
// map[string]*sync.Mutex, it garbage-collects mutexes with no waiters so
// the map does not grow unboundedly with the number of distinct keys ever
// seen.
type KeyedMutex struct {
	mapMu sync.Mutex
	locks map[string]*refcountedMutex
}

// NewKeyedMutex returns an empty KeyedMutex.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*refcountedMutex)}
}

// Lock acquires the critical section for key and returns a function that
// releases it. Callers must call the returned function exactly once,
// typically via defer.
func (k *KeyedMutex) Lock(key string) func() {
	k.mapMu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refcountedMutex{}
		k.locks[key] = m
	}
	m.ref++
	k.mapMu.Unlock()

	m.mu.Lock()

	return func() {
		m.mu.Unlock()

		k.mapMu.Lock()
		m.ref--
		if m.ref == 0 {
			delete(k.locks, key)
		}
		k.mapMu.Unlock()
	}
}
