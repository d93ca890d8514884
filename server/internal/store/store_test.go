package store

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

func entry(client string) Entry {
	return Entry{Client: client, Format: "json", Events: 1, Payload: `[{"Type":"inventory"}]`}
}

func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

func TestPutAndGet(t *testing.T) {
	st := New(5 * time.Minute)
	st.Put(entry("agent/1.0"))

	e, ok := st.Get("agent/1.0")
	if !ok {
		t.Fatal("Get: expected entry, got none")
	}
	if e.Format != "json" || e.Events != 1 {
		t.Errorf("entry: got %+v", e)
	}
	if e.UpdatedAt.IsZero() {
		t.Error("UpdatedAt not stamped")
	}
}

func TestGet_Missing(t *testing.T) {
	st := New(5 * time.Minute)
	if _, ok := st.Get("unknown"); ok {
		t.Fatal("Get on empty store: expected false, got true")
	}
}

func TestPut_Overwrites(t *testing.T) {
	st := New(5 * time.Minute)
	st.Put(Entry{Client: "c", Format: "json", Events: 1})
	st.Put(Entry{Client: "c", Format: "xml", Events: 3})

	e, _ := st.Get("c")
	if e.Format != "xml" || e.Events != 3 {
		t.Errorf("after overwrite: got %+v", e)
	}
	if st.Count() != 1 {
		t.Errorf("Count: got %d, want 1", st.Count())
	}
}

func TestList_ExcludesStaleAndSorts(t *testing.T) {
	base := time.Now()
	st := New(5 * time.Minute)

	st.now = fixedClock(base.Add(-10 * time.Minute))
	st.Put(entry("old"))

	st.now = fixedClock(base)
	st.Put(entry("zeta"))
	st.Put(entry("alpha"))

	entries := st.List()
	if len(entries) != 2 {
		t.Fatalf("List: got %d entries, want 2", len(entries))
	}
	if entries[0].Client != "alpha" || entries[1].Client != "zeta" {
		t.Errorf("List order: got %q, %q", entries[0].Client, entries[1].Client)
	}
}

func TestCount_IncludesStale(t *testing.T) {
	base := time.Now()
	st := New(5 * time.Minute)

	st.now = fixedClock(base.Add(-10 * time.Minute))
	st.Put(entry("old"))
	st.now = fixedClock(base)
	st.Put(entry("new"))

	if n := st.Count(); n != 2 {
		t.Errorf("Count: got %d, want 2", n)
	}
}

func TestEvict(t *testing.T) {
	base := time.Now()
	st := New(5 * time.Minute)

	st.now = fixedClock(base.Add(-10 * time.Minute))
	st.Put(entry("old1"))
	st.Put(entry("old2"))
	st.now = fixedClock(base)
	st.Put(entry("live"))

	if removed := st.Evict(base); removed != 2 {
		t.Errorf("Evict: removed %d, want 2", removed)
	}
	if removed := st.Evict(base); removed != 0 {
		t.Errorf("second Evict: removed %d, want 0", removed)
	}
	if _, ok := st.Get("live"); !ok {
		t.Error("live entry evicted")
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	st := New(time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		st.Run(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestConcurrentMixedOps(t *testing.T) {
	st := New(5 * time.Minute)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			st.Put(entry(fmt.Sprintf("c-%d", n%5)))
		}(i)
		go func() {
			defer wg.Done()
			st.List()
		}()
	}
	wg.Wait()
	if st.Count() != 5 {
		t.Errorf("Count: got %d, want 5", st.Count())
	}
}
