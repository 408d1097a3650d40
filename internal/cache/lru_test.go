package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

// TestLRUCacheEviction tests size-based eviction
func TestLRUCacheEviction(t *testing.T) {
	c := NewLRUCache[string](3, time.Hour)

	c.Set("key1", "value1")
	c.Set("key2", "value2")
	c.Set("key3", "value3")
	c.Get("key1")           // key1 becomes most recent
	c.Set("key4", "value4") // evicts key2

	if _, found := c.Get("key2"); found {
		t.Error("key2 should have been evicted")
	}
	for _, k := range []string{"key1", "key3", "key4"} {
		if _, found := c.Get(k); !found {
			t.Errorf("%s should still exist", k)
		}
	}
	if c.Size() != 3 {
		t.Errorf("Size() = %d, want 3", c.Size())
	}
}

func TestLRUCacheTTLExpiration(t *testing.T) {
	clock := newClock()
	c := NewLRUCache[string](100, time.Minute, WithClock(clock.Now))

	c.Set("key1", "value1")
	if _, found := c.Get("key1"); !found {
		t.Fatal("key1 should exist immediately")
	}

	clock.Advance(time.Minute + time.Second)
	if _, found := c.Get("key1"); found {
		t.Error("key1 should have expired")
	}
	if c.Size() != 0 {
		t.Errorf("expired entry should be dropped on read, size %d", c.Size())
	}
}

func TestLRUCacheSlidingExpiry(t *testing.T) {
	clock := newClock()
	c := NewLRUCache[int](10, time.Minute, WithClock(clock.Now), WithSlidingExpiry())

	c.Set("k", 1)
	for i := 0; i < 5; i++ {
		clock.Advance(40 * time.Second)
		if _, found := c.Get("k"); !found {
			t.Fatalf("read %d: entry should be kept alive by reads", i)
		}
	}
	clock.Advance(2 * time.Minute)
	if _, found := c.Get("k"); found {
		t.Error("entry should expire once reads stop")
	}
}

func TestLRUCacheCleanExpired(t *testing.T) {
	clock := newClock()
	c := NewLRUCache[string](100, time.Minute, WithClock(clock.Now))

	c.Set("key1", "value1")
	c.Set("key2", "value2")
	clock.Advance(30 * time.Second)
	c.Set("key3", "value3")
	clock.Advance(45 * time.Second)

	if removed := c.CleanExpired(); removed != 2 {
		t.Errorf("Expected 2 items cleaned, got %d", removed)
	}
	if _, found := c.Get("key3"); !found {
		t.Error("key3 should survive cleanup")
	}
}

func TestManagerSweep(t *testing.T) {
	clock := newClock()
	a := NewLRUCache[string](10, time.Minute, WithClock(clock.Now))
	b := NewLRUCache[int](10, time.Minute, WithClock(clock.Now))
	a.Set("x", "1")
	b.Set("y", 2)
	clock.Advance(2 * time.Minute)

	m := NewManager(nil)
	m.Register(a)
	m.Register(b)
	if n := m.Sweep(); n != 2 {
		t.Errorf("Sweep() = %d, want 2", n)
	}

	m.StartCleanup(time.Hour)
	m.Stop()
	m.Stop() // second stop is a no-op
}

func TestLRUCacheConcurrentAccess(t *testing.T) {
	c := NewLRUCache[int](50, time.Hour)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("k%d", (g*200+i)%80)
				c.Set(key, i)
				c.Get(key)
			}
		}(g)
	}
	wg.Wait()
	if c.Size() > 50 {
		t.Errorf("cache grew past its bound: %d", c.Size())
	}
}

func BenchmarkLRUCache(b *testing.B) {
	c := NewLRUCache[string](1000, time.Hour)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if i%10 == 0 {
			c.Set("bench-key", "value")
		} else {
			c.Get("bench-key")
		}
	}
}
