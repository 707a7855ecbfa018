package geocoding

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/pinkertons/activity-ledger/internal/logger"
)

// fakeSearcher answers from a fixed table and records every outbound call.
type fakeSearcher struct {
	mu      sync.Mutex
	results map[string][]Candidate
	err     error
	calls   []string
	at      []time.Time
}

func (f *fakeSearcher) Search(ctx context.Context, query string, limit int) ([]Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, query)
	f.at = append(f.at, time.Now())
	if f.err != nil {
		return nil, f.err
	}
	return f.results[query], nil
}

func newTestCache(t *testing.T, s Searcher, interval time.Duration, size int) *Cache {
	t.Helper()
	c, err := NewCache(s, NewThrottle(interval), size, logger.Nop())
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	return c
}

func TestCacheMemoizesHits(t *testing.T) {
	s := &fakeSearcher{results: map[string][]Candidate{
		"El Paso, TX": {{Lat: 31.75, Lon: -106.48, Region: "Texas"}},
	}}
	c := newTestCache(t, s, 0, 10)
	ctx := context.Background()

	first := c.Lookup(ctx, "El Paso, TX", []string{"TX"})
	second := c.Lookup(ctx, "El Paso, TX", []string{"TX"})

	if first == nil || second == nil {
		t.Fatalf("Lookup returned nil: %v %v", first, second)
	}
	if *first != *second {
		t.Errorf("memoized value differs: %v vs %v", first, second)
	}
	if len(s.calls) != 1 {
		t.Errorf("outbound calls = %d, want 1", len(s.calls))
	}

	// Different region set is a different key.
	c.Lookup(ctx, "El Paso, TX", nil)
	if len(s.calls) != 2 {
		t.Errorf("outbound calls = %d, want 2 after new region set", len(s.calls))
	}
}

func TestCacheMemoizesFailures(t *testing.T) {
	s := &fakeSearcher{err: errors.New("connection refused")}
	c := newTestCache(t, s, 0, 10)
	ctx := context.Background()

	if got := c.Lookup(ctx, "Nowhere", nil); got != nil {
		t.Fatalf("Lookup = %v, want nil on error", got)
	}
	if got := c.Lookup(ctx, "Nowhere", nil); got != nil {
		t.Fatalf("Lookup = %v, want nil on memoized error", got)
	}
	if len(s.calls) != 1 {
		t.Errorf("outbound calls = %d, want 1 (failure memoized)", len(s.calls))
	}

	c.Reset()
	if c.Len() != 0 {
		t.Errorf("Len after Reset = %d", c.Len())
	}
	c.Lookup(ctx, "Nowhere", nil)
	if len(s.calls) != 2 {
		t.Errorf("outbound calls = %d, want 2 after Reset", len(s.calls))
	}
}

func TestCacheRegionFiltering(t *testing.T) {
	s := &fakeSearcher{results: map[string][]Candidate{
		"Springfield": {
			{Lat: 39.78, Lon: -89.65, Region: "Illinois"},
			{Lat: 32.10, Lon: -106.20, Region: "new mexico"},
		},
	}}
	c := newTestCache(t, s, 0, 10)
	ctx := context.Background()

	got := c.Lookup(ctx, "Springfield", []string{"TX", "AZ", "NM"})
	if got == nil || got.Lat != 32.10 || got.Lon != -106.20 {
		t.Fatalf("Lookup with regions = %v, want the New Mexico candidate", got)
	}

	got = c.Lookup(ctx, "Springfield", nil)
	if got == nil || got.Lat != 39.78 {
		t.Fatalf("Lookup without regions = %v, want the top candidate", got)
	}

	if got := c.Lookup(ctx, "Springfield", []string{"CA"}); got != nil {
		t.Fatalf("Lookup with no allowed match = %v, want nil", got)
	}
}

func TestCacheRejectsOutOfRangeTopCandidate(t *testing.T) {
	s := &fakeSearcher{results: map[string][]Candidate{
		"Broken": {{Lat: 123, Lon: 0, Region: "Texas"}},
	}}
	c := newTestCache(t, s, 0, 10)
	if got := c.Lookup(context.Background(), "Broken", nil); got != nil {
		t.Fatalf("Lookup = %v, want nil", got)
	}
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	s := &fakeSearcher{results: map[string][]Candidate{}}
	c := newTestCache(t, s, 0, 2)
	ctx := context.Background()

	c.Lookup(ctx, "a", nil)
	c.Lookup(ctx, "b", nil)
	c.Lookup(ctx, "a", nil) // refresh a
	c.Lookup(ctx, "c", nil) // evicts b
	if c.Len() != 2 {
		t.Fatalf("Len = %d, want 2", c.Len())
	}

	c.Lookup(ctx, "a", nil)
	if len(s.calls) != 3 {
		t.Fatalf("outbound calls = %d, want 3 (a still cached)", len(s.calls))
	}
	c.Lookup(ctx, "b", nil)
	if len(s.calls) != 4 {
		t.Fatalf("outbound calls = %d, want 4 (b was evicted)", len(s.calls))
	}
}

func TestCacheRateLimitsMisses(t *testing.T) {
	const interval = 150 * time.Millisecond
	s := &fakeSearcher{results: map[string][]Candidate{}}
	c := newTestCache(t, s, interval, 10)
	ctx := context.Background()

	c.Lookup(ctx, "first", nil)
	c.Lookup(ctx, "second", nil)
	c.Lookup(ctx, "first", nil) // hit, no call and no wait

	if len(s.at) != 2 {
		t.Fatalf("outbound calls = %d, want 2", len(s.at))
	}
	if gap := s.at[1].Sub(s.at[0]); gap < interval {
		t.Errorf("calls %v apart, want at least %v", gap, interval)
	}
}
