package cache

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestCache(ttl time.Duration, maxSize int) (*TTLCache[string, int], *clock) {
	clk := &clock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := New[string, int](ttl, maxSize)
	c.now = clk.now
	return c, clk
}

func TestGetSetExpiry(t *testing.T) {
	c, clk := newTestCache(time.Minute, 0)

	if _, ok := c.Get("rom.8"); ok {
		t.Fatal("Get() on empty cache returned ok")
	}
	c.Set("rom.8", 2)
	clk.advance(30 * time.Second)
	c.Set("john.3", 1)

	if v, ok := c.Get("rom.8"); !ok || v != 2 {
		t.Errorf("Get(rom.8) = %d, %v", v, ok)
	}

	clk.advance(30 * time.Second)
	if _, ok := c.Get("rom.8"); ok {
		t.Error("rom.8 should expire exactly one TTL after Set")
	}
	if v, ok := c.Get("john.3"); !ok || v != 1 {
		t.Errorf("john.3 expired with the older entry: %d, %v", v, ok)
	}

	if n := c.Expire(); n != 1 {
		t.Errorf("Expire() = %d, want 1", n)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d after Expire", c.Len())
	}
}

func TestSetRefreshesEntry(t *testing.T) {
	c, clk := newTestCache(time.Minute, 0)
	c.Set("k", 1)
	clk.advance(50 * time.Second)
	c.Set("k", 2)
	clk.advance(50 * time.Second)
	if v, ok := c.Get("k"); !ok || v != 2 {
		t.Errorf("Get() = %d, %v; Set should restart the TTL", v, ok)
	}
}

func TestPurge(t *testing.T) {
	c, _ := newTestCache(time.Hour, 0)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Purge()
	if c.Len() != 0 {
		t.Errorf("Len() = %d after Purge", c.Len())
	}
	if _, ok := c.Get("a"); ok {
		t.Error("Get() found a purged entry")
	}
}

func TestMaxSize(t *testing.T) {
	c, clk := newTestCache(time.Minute, 2)
	c.Set("a", 1)
	clk.advance(2 * time.Minute)
	c.Set("b", 2)
	c.Set("c", 3) // full: expired "a" makes room
	if c.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", c.Len())
	}
	if _, ok := c.Get("b"); !ok {
		t.Error("live entry b dropped while an expired one was available")
	}

	c.Set("b", 20) // overwrite never evicts
	if c.Len() != 2 {
		t.Errorf("Len() = %d after overwrite", c.Len())
	}

	c.Set("d", 4) // full of live entries: start over
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want only the new entry", c.Len())
	}
	if v, ok := c.Get("d"); !ok || v != 4 {
		t.Errorf("Get(d) = %d, %v", v, ok)
	}
}

func TestGetOrLoad(t *testing.T) {
	c, clk := newTestCache(time.Minute, 0)
	calls := 0
	load := func() (int, error) {
		calls++
		return calls * 10, nil
	}

	for i := 0; i < 3; i++ {
		v, err := c.GetOrLoad("k", load)
		if err != nil || v != 10 {
			t.Fatalf("GetOrLoad() = %d, %v", v, err)
		}
	}
	if calls != 1 {
		t.Errorf("load called %d times, want 1", calls)
	}

	clk.advance(time.Minute)
	if v, _ := c.GetOrLoad("k", load); v != 20 {
		t.Errorf("GetOrLoad() after expiry = %d, want reload", v)
	}

	boom := errors.New("boom")
	if _, err := c.GetOrLoad("bad", func() (int, error) { return 0, boom }); !errors.Is(err, boom) {
		t.Errorf("error = %v", err)
	}
	if _, ok := c.Get("bad"); ok {
		t.Error("failed load was cached")
	}
}

func TestConcurrentAccess(t *testing.T) {
	c := New[string, int](time.Minute, 50)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("k%d", (g*200+i)%80)
				c.Set(key, i)
				c.Get(key)
				if i%50 == 0 {
					c.Expire()
				}
			}
		}(g)
	}
	wg.Wait()
	if c.Len() > 50 {
		t.Errorf("Len() = %d exceeds maxSize", c.Len())
	}
}
