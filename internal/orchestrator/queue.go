package orchestrator

import (
	"context"
	"sync"
)

// KeyedQueue serializes work per key. Each key gets a one-slot semaphore
// created on first use and evicted once nobody holds or waits for it, so
// idle conversations cost nothing. Different keys never block each other.
type KeyedQueue struct {
	mu      sync.Mutex
	entries map[string]*queueEntry
}

type queueEntry struct {
	slot chan struct{}
	refs int
}

// NewKeyedQueue creates an empty queue.
func NewKeyedQueue() *KeyedQueue {
	return &KeyedQueue{entries: make(map[string]*queueEntry)}
}

// Acquire blocks until key's slot is free or ctx ends. The returned release
// must be called exactly once; extra calls are ignored.
func (q *KeyedQueue) Acquire(ctx context.Context, key string) (func(), error) {
	q.mu.Lock()
	e, ok := q.entries[key]
	if !ok {
		e = &queueEntry{slot: make(chan struct{}, 1)}
		q.entries[key] = e
	}
	e.refs++
	q.mu.Unlock()

	select {
	case e.slot <- struct{}{}:
	case <-ctx.Done():
		q.leave(key, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.slot
			q.leave(key, e)
		})
	}, nil
}

func (q *KeyedQueue) leave(key string, e *queueEntry) {
	q.mu.Lock()
	defer q.mu.Unlock()
	e.refs--
	if e.refs == 0 && q.entries[key] == e {
		delete(q.entries, key)
	}
}

// Len returns the number of keys currently held or waited on.
func (q *KeyedQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}
