package store

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// Entry is the latest payload received from one client.
type Entry struct {
	// Client identifies the sender (its User-Agent).
	Client string `json:"client"`

	// Format is the detected wire format: json | xml.
	Format string `json:"format"`

	// Events is the number of events in the payload.
	Events int `json:"events"`

	// Parsed is false when the payload could not be decoded to count events.
	Parsed bool `json:"parsed"`

	// Payload is the raw payload with the data= prefix removed.
	Payload string `json:"payload"`

	// UpdatedAt is when the payload was received.
	UpdatedAt time.Time `json:"updated_at"`
}

// Store is a thread-safe in-memory payload store, keyed by client.
// A background goroutine (Run) periodically evicts entries that have not
// been updated within the configured TTL.
type Store struct {
	mu   sync.RWMutex
	data map[string]*Entry
	ttl  time.Duration
	now  func() time.Time // injectable for deterministic tests
}

// New creates a Store with the given TTL.
func New(ttl time.Duration) *Store {
	return &Store{
		data: make(map[string]*Entry),
		ttl:  ttl,
		now:  time.Now,
	}
}

// Put stores or replaces the entry for e.Client and stamps UpdatedAt.
func (s *Store) Put(e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.UpdatedAt = s.now()
	s.data[e.Client] = &e
}

// Get returns a copy of the entry for client and whether one was found.
// The entry may be stale if TTL has elapsed.
func (s *Store) Get(client string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.data[client]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// List returns copies of all entries updated within the TTL, ordered by
// client. Stale entries that have not yet been evicted are excluded.
func (s *Store) List() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cutoff := s.now().Add(-s.ttl)
	out := make([]Entry, 0, len(s.data))
	for _, e := range s.data {
		if e.UpdatedAt.After(cutoff) {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Client < out[j].Client })
	return out
}

// Count returns the total number of entries currently held, including stale ones.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Evict removes entries whose UpdatedAt is older than now minus TTL.
// It returns the number of entries removed.
func (s *Store) Evict(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := now.Add(-s.ttl)
	removed := 0
	for id, e := range s.data {
		if !e.UpdatedAt.After(cutoff) {
			delete(s.data, id)
			removed++
		}
	}
	return removed
}

// Run starts the background TTL eviction loop. It ticks at half the TTL
// (minimum 1 second). Run blocks until ctx is cancelled.
func (s *Store) Run(ctx context.Context) {
	interval := s.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if n := s.Evict(now); n > 0 {
				slog.Debug("store: evicted stale payloads", "count", n)
			}
		}
	}
}
