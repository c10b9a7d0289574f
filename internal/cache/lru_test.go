package cache

import (
	"context"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time          { return f.t }
func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func newClock() *fakeClock { return &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)} }

func TestLRUCache_SetGet(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)
	c.Set("a", 1)

	got, ok := c.Get("a")
	if !ok || got != 1 {
		t.Fatalf("Get(a) = %d, %v; want 1, true", got, ok)
	}
	if _, ok := c.Get("missing"); ok {
		t.Fatal("Get(missing) reported a hit")
	}
}

func TestLRUCache_EvictsLeastRecentlyUsed(t *testing.T) {
	type evicted struct {
		key    string
		reason EvictReason
	}
	var gone []evicted
	c := NewLRUCache[int](2, time.Minute, WithEvictHook(func(k string, _ int, r EvictReason) {
		gone = append(gone, evicted{k, r})
	}))

	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a")
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("a was recently used and should survive")
	}
	if len(gone) != 1 || gone[0].key != "b" || gone[0].reason != EvictCapacity {
		t.Errorf("evictions = %+v; want b/capacity", gone)
	}
}

func TestLRUCache_Expiry(t *testing.T) {
	clock := newClock()
	c := NewLRUCache[string](10, time.Minute, WithClock[string](clock.now))
	c.Set("k", "v")

	clock.advance(59 * time.Second)
	if _, ok := c.Get("k"); !ok {
		t.Fatal("item expired early")
	}
	clock.advance(2 * time.Second)
	if _, ok := c.Get("k"); ok {
		t.Fatal("item should have expired")
	}
	if c.Size() != 0 {
		t.Errorf("Size() = %d after expiry; want 0", c.Size())
	}
}

func TestLRUCache_SlidingExpiry(t *testing.T) {
	clock := newClock()
	c := NewLRUCache[string](10, time.Minute, WithClock[string](clock.now), WithSliding[string]())
	c.Set("k", "v")

	for i := 0; i < 3; i++ {
		clock.advance(45 * time.Second)
		if _, ok := c.Get("k"); !ok {
			t.Fatalf("read %d: sliding item expired", i)
		}
	}
}

func TestLRUCache_GetOrCreate(t *testing.T) {
	c := NewLRUCache[*int](10, time.Minute)
	calls := 0
	create := func() *int { calls++; v := calls; return &v }

	first, created := c.GetOrCreate("s", create)
	if !created {
		t.Fatal("first call should create")
	}
	second, created := c.GetOrCreate("s", create)
	if created || second != first {
		t.Fatal("second call should return the cached value")
	}
	if calls != 1 {
		t.Errorf("create called %d times; want 1", calls)
	}
}

func TestLRUCache_Take(t *testing.T) {
	c := NewLRUCache[[]byte](10, time.Minute)
	c.Set("token", []byte("png"))

	data, ok := c.Take("token")
	if !ok || string(data) != "png" {
		t.Fatalf("Take = %q, %v", data, ok)
	}
	if _, ok := c.Take("token"); ok {
		t.Error("a taken item must be gone")
	}
}

func TestLRUCache_CleanExpired(t *testing.T) {
	clock := newClock()
	var reasons []EvictReason
	c := NewLRUCache[int](10, time.Minute,
		WithClock[int](clock.now),
		WithEvictHook(func(_ string, _ int, r EvictReason) { reasons = append(reasons, r) }))
	c.Set("old1", 1)
	c.Set("old2", 2)
	clock.advance(30 * time.Second)
	c.Set("fresh", 3)
	clock.advance(45 * time.Second)

	if n := c.CleanExpired(); n != 2 {
		t.Errorf("CleanExpired() = %d; want 2", n)
	}
	if c.Size() != 1 {
		t.Errorf("Size() = %d; want 1", c.Size())
	}
	for _, r := range reasons {
		if r != EvictExpired {
			t.Errorf("reason = %v; want expired", r)
		}
	}
}

func TestManager_CleanAll(t *testing.T) {
	clock := newClock()
	sessions := NewLRUCache[int](10, time.Second, WithClock[int](clock.now))
	downloads := NewLRUCache[int](10, time.Hour, WithClock[int](clock.now))
	sessions.Set("s", 1)
	downloads.Set("d", 1)
	clock.advance(2 * time.Second)

	m := NewManager(nil)
	m.Register("sessions", sessions)
	m.Register("downloads", downloads)

	removed := m.CleanAll(context.Background())
	if removed["sessions"] != 1 || removed["downloads"] != 0 {
		t.Errorf("removed = %v", removed)
	}
}

func TestManager_StopIsIdempotent(t *testing.T) {
	m := NewManager(nil)
	m.Stop()
	m.Stop()

	started := NewManager(nil)
	started.StartCleanup(time.Millisecond)
	started.Stop()
	started.Stop()
}
