// Package cache provides a bounded, time-expiring in-memory store used in
// front of storage reads. Capacity eviction is FIFO by insertion order and
// age expiry is checked lazily on lookup; there is no background sweeper.
package cache

import (
	"container/list"
	"sync"
	"time"
)

// entry is one cached value with its insertion timestamp.
type entry[V any] struct {
	key        string
	value      V
	insertedAt time.Time
}

// Expiring is a bounded key/value store with FIFO capacity eviction and a
// fixed time-to-live. A lookup never populates the store: callers own the
// read-through pattern (Get, on miss fetch and Put).
//
// All mutating operations, including the lazy eviction inside Get, are
// serialized under one mutex so the store is safe for concurrent call sites.
type Expiring[V any] struct {
	maxLen int
	maxAge time.Duration
	clone  func(V) V

	mu    sync.Mutex
	items map[string]*list.Element
	order *list.List // front = oldest insertion

	now func() time.Time // overridable in tests
}

// New creates a cache holding at most maxLen entries, each valid for maxAge
// after insertion. clone isolates stored values from callers on both Put and
// Get; nil means values are shared as-is (only safe for value types).
func New[V any](maxLen int, maxAge time.Duration, clone func(V) V) *Expiring[V] {
	if maxLen <= 0 {
		maxLen = 1
	}
	return &Expiring[V]{
		maxLen: maxLen,
		maxAge: maxAge,
		clone:  clone,
		items:  make(map[string]*list.Element),
		order:  list.New(),
		now:    time.Now,
	}
}

// Get returns the value stored under key. An entry past its age limit is
// removed and reported as absent, identical in effect to a true miss.
func (c *Expiring[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	el, ok := c.items[key]
	if !ok {
		return zero, false
	}
	e := el.Value.(*entry[V])
	if c.now().Sub(e.insertedAt) > c.maxAge {
		c.remove(el)
		return zero, false
	}
	if c.clone != nil {
		return c.clone(e.value), true
	}
	return e.value, true
}

// Put stores a value under key, evicting the earliest-inserted entry once the
// store would exceed its capacity. Re-putting an existing key counts as a
// fresh insertion: value, timestamp and queue position all reset.
func (c *Expiring[V]) Put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		c.remove(el)
	}
	if c.clone != nil {
		value = c.clone(value)
	}
	el := c.order.PushBack(&entry[V]{key: key, value: value, insertedAt: c.now()})
	c.items[key] = el

	if c.order.Len() > c.maxLen {
		if oldest := c.order.Front(); oldest != nil {
			c.remove(oldest)
		}
	}
}

// Delete removes a key if present.
func (c *Expiring[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		c.remove(el)
	}
}

// Len returns the number of entries currently held, expired or not.
func (c *Expiring[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// remove unlinks an element. Caller must hold the lock.
func (c *Expiring[V]) remove(el *list.Element) {
	e := el.Value.(*entry[V])
	c.order.Remove(el)
	delete(c.items, e.key)
}
