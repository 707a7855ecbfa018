package geocoding

import (
	"context"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/pinkertons/activity-ledger/internal/logger"
	"github.com/pinkertons/activity-ledger/internal/normalize"
)

// DefaultCacheSize bounds the memo table.
const DefaultCacheSize = 1000

type cacheKey struct {
	query   string
	regions string
}

func (k cacheKey) String() string {
	return k.query + "\x00" + k.regions
}

// Cache memoizes lookups by (query, allowed regions) and sends misses through
// a shared Throttle. Failed and empty lookups are memoized as nil so they are
// not retried until Reset.
type Cache struct {
	searcher Searcher
	throttle *Throttle
	memo     *lru.Cache[cacheKey, *normalize.Coordinates]
	inflight singleflight.Group
	log      *logger.Logger
}

// NewCache builds a cache holding at most size entries, evicting the least
// recently used.
func NewCache(searcher Searcher, throttle *Throttle, size int, log *logger.Logger) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	memo, err := lru.New[cacheKey, *normalize.Coordinates](size)
	if err != nil {
		return nil, fmt.Errorf("creating geocode cache: %w", err)
	}
	return &Cache{
		searcher: searcher,
		throttle: throttle,
		memo:     memo,
		log:      log.With("component", "GeocodeCache"),
	}, nil
}

// Lookup resolves query to coordinates. With allowed regions it returns the
// first candidate located in one of them; without, the top candidate. Errors
// are logged and reported as nil.
func (c *Cache) Lookup(ctx context.Context, query string, regions []string) *normalize.Coordinates {
	regions = CanonicalRegions(regions)
	key := cacheKey{query: query, regions: strings.Join(regions, ",")}

	if v, ok := c.memo.Get(key); ok {
		return v
	}

	v, _, _ := c.inflight.Do(key.String(), func() (interface{}, error) {
		if v, ok := c.memo.Get(key); ok {
			return v, nil
		}
		coords, err := c.fetch(ctx, query, regions)
		if err != nil && ctx.Err() != nil {
			// Cancelled before an answer; leave it unmemoized.
			return coords, nil
		}
		c.memo.Add(key, coords)
		return coords, nil
	})
	return v.(*normalize.Coordinates)
}

// Reset drops every memoized entry.
func (c *Cache) Reset() {
	c.memo.Purge()
	c.log.Info("Geocoding cache cleared")
}

// Len reports the number of memoized entries.
func (c *Cache) Len() int {
	return c.memo.Len()
}

func (c *Cache) fetch(ctx context.Context, query string, regions []string) (*normalize.Coordinates, error) {
	var candidates []Candidate
	err := c.throttle.Do(ctx, func() error {
		c.log.Debug("Geocoding query", "query", query)
		var err error
		candidates, err = c.searcher.Search(ctx, query, CandidateLimit)
		return err
	})
	if err != nil {
		c.log.Error("Geocoding request failed", "query", query, "error", err)
		return nil, err
	}
	return c.pick(query, candidates, regions), nil
}

func (c *Cache) pick(query string, candidates []Candidate, regions []string) *normalize.Coordinates {
	if len(candidates) == 0 {
		c.log.Debug("No results found", "query", query)
		return nil
	}

	if len(regions) > 0 {
		for _, cand := range candidates {
			if !regionAllowed(cand.Region, regions) {
				continue
			}
			if !normalize.ValidCoordinates(cand.Lat, cand.Lon) {
				continue
			}
			c.log.Info("Geocoded", "query", query, "lat", cand.Lat, "lon", cand.Lon, "region", cand.Region)
			return &normalize.Coordinates{Lat: cand.Lat, Lon: cand.Lon}
		}
		c.log.Warn("No results in allowed regions", "query", query, "regions", regions)
		return nil
	}

	top := candidates[0]
	if !normalize.ValidCoordinates(top.Lat, top.Lon) {
		c.log.Warn("Invalid coordinates", "query", query, "lat", top.Lat, "lon", top.Lon)
		return nil
	}
	c.log.Info("Geocoded", "query", query, "lat", top.Lat, "lon", top.Lon)
	return &normalize.Coordinates{Lat: top.Lat, Lon: top.Lon}
}
