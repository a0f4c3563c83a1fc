package cache

import (
	"fmt"
	"testing"
	"time"
)

// fakeClock lets tests advance time without sleeping.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestCache(maxLen int, maxAge time.Duration) (*Expiring[string], *fakeClock) {
	clock := &fakeClock{now: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := New[string](maxLen, maxAge, nil)
	c.now = clock.Now
	return c, clock
}

func TestCapacityEvictsFirstInserted(t *testing.T) {
	const maxLen = 3
	c, _ := newTestCache(maxLen, time.Hour)

	for i := 0; i < maxLen+1; i++ {
		c.Put(fmt.Sprintf("key-%d", i), fmt.Sprintf("value-%d", i))
	}

	if c.Len() != maxLen {
		t.Fatalf("got %d entries, want %d", c.Len(), maxLen)
	}
	if _, ok := c.Get("key-0"); ok {
		t.Error("first-inserted key should have been evicted")
	}
	for i := 1; i <= maxLen; i++ {
		if _, ok := c.Get(fmt.Sprintf("key-%d", i)); !ok {
			t.Errorf("key-%d should still be present", i)
		}
	}
}

func TestEvictionOrderIsInsertionNotAccess(t *testing.T) {
	c, _ := newTestCache(2, time.Hour)
	c.Put("a", "1")
	c.Put("b", "2")

	// Touching the oldest entry must not protect it: FIFO, not LRU.
	if _, ok := c.Get("a"); !ok {
		t.Fatal("a should be present")
	}
	c.Put("c", "3")

	if _, ok := c.Get("a"); ok {
		t.Error("a was inserted earliest and should have been evicted")
	}
	if _, ok := c.Get("b"); !ok {
		t.Error("b should survive")
	}
}

func TestAgeExpiryIsLazyAndRemoves(t *testing.T) {
	c, clock := newTestCache(10, time.Minute)
	c.Put("k", "v")

	clock.Advance(30 * time.Second)
	if _, ok := c.Get("k"); !ok {
		t.Fatal("entry should still be fresh")
	}

	clock.Advance(31 * time.Second)
	if _, ok := c.Get("k"); ok {
		t.Fatal("entry past max age should be absent")
	}
	// The lazy check removed the entry from internal storage.
	if c.Len() != 0 {
		t.Errorf("expired entry not removed, len = %d", c.Len())
	}
}

func TestRePutResetsInsertion(t *testing.T) {
	c, clock := newTestCache(2, time.Minute)
	c.Put("a", "1")
	c.Put("b", "2")

	clock.Advance(45 * time.Second)
	c.Put("a", "1b") // fresh insertion: new timestamp, back of the queue

	clock.Advance(30 * time.Second)
	if v, ok := c.Get("a"); !ok || v != "1b" {
		t.Errorf("re-put entry should be fresh, got (%q, %v)", v, ok)
	}
	if _, ok := c.Get("b"); ok {
		t.Error("b is past its age and should be absent")
	}

	// a is now the newest insertion; adding another key must not evict it.
	c.Put("c", "3")
	if _, ok := c.Get("a"); !ok {
		t.Error("a should survive after re-put moved it to the back")
	}
}

func TestCloneIsolatesStoredValues(t *testing.T) {
	type table struct{ rows []int }
	c := New(4, time.Hour, func(t *table) *table {
		cp := &table{rows: append([]int(nil), t.rows...)}
		return cp
	})

	orig := &table{rows: []int{1, 2, 3}}
	c.Put("k", orig)
	orig.rows[0] = 99 // caller mutation after Put must not reach the cache

	got, ok := c.Get("k")
	if !ok {
		t.Fatal("expected hit")
	}
	if got.rows[0] != 1 {
		t.Errorf("cache stored a shared reference: got %d, want 1", got.rows[0])
	}

	got.rows[1] = 42 // mutating the returned value must not reach the cache
	again, _ := c.Get("k")
	if again.rows[1] != 2 {
		t.Errorf("cache returned a shared reference: got %d, want 2", again.rows[1])
	}
}

func TestGetNeverPopulates(t *testing.T) {
	c, _ := newTestCache(4, time.Hour)
	if _, ok := c.Get("absent"); ok {
		t.Fatal("unexpected hit")
	}
	if c.Len() != 0 {
		t.Errorf("a miss must not create state, len = %d", c.Len())
	}
}
