package cache

import (
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time { return f.t }

func TestLRUEvictsOldest(t *testing.T) {
	c := NewLRUCache[int](2, time.Hour)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a")
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("a = %d, %v", v, ok)
	}
	if c.Size() != 2 {
		t.Errorf("size = %d", c.Size())
	}
}

func TestLRUExpiry(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
	c := NewLRUCache[string](10, time.Minute).WithClock(clock.now)
	c.Set("tok1", "alice")
	c.Set("tok2", "bob")

	clock.t = clock.t.Add(30 * time.Second)
	c.Set("tok2", "bob") // refreshes ttl
	if _, ok := c.Get("tok1"); !ok {
		t.Fatal("tok1 expired early")
	}

	clock.t = clock.t.Add(45 * time.Second)
	if _, ok := c.Get("tok1"); ok {
		t.Error("tok1 should be expired")
	}
	if n := c.CleanExpired(); n != 0 {
		t.Errorf("CleanExpired = %d, want 0", n)
	}

	clock.t = clock.t.Add(time.Minute)
	m := NewManager(nil)
	m.Register(c)
	if n := m.Sweep(); n != 1 {
		t.Errorf("Sweep = %d, want 1", n)
	}
	if c.Size() != 0 {
		t.Errorf("size = %d", c.Size())
	}
}

func TestDeleteFunc(t *testing.T) {
	c := NewLRUCache[int64](0, time.Hour)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 1)

	if n := c.DeleteFunc(func(v int64) bool { return v == 1 }); n != 2 {
		t.Fatalf("removed %d, want 2", n)
	}
	if _, ok := c.Get("b"); !ok {
		t.Error("b removed")
	}
}

func TestManagerStopIdempotent(t *testing.T) {
	m := NewManager(nil)
	m.StartCleanup(time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	m.Stop()
	m.Stop()
}
