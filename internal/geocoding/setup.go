package geocoding

import (
	"fmt"
	"strings"
	"time"

	"github.com/pinkertons/activity-ledger/internal/logger"
)

// Options configures a Nominatim-backed geocoder. Zero values take the defaults.
type Options struct {
	// Provider is "nominatim" (default) or "google".
	Provider    string
	APIKey      string
	BaseURL     string
	UserAgent   string
	Country     string
	Timeout     time.Duration
	MinInterval time.Duration
	CacheSize   int
}

// New wires client, throttle and cache into a hierarchical geocoder. The
// returned Cache is the one the geocoder reads through.
func New(opts Options, log *logger.Logger) (*Geocoder, *Cache, error) {
	interval := opts.MinInterval
	if interval <= 0 {
		interval = DefaultMinInterval
	}
	searcher, err := newSearcher(opts)
	if err != nil {
		return nil, nil, err
	}
	cache, err := NewCache(searcher, NewThrottle(interval), opts.CacheSize, log)
	if err != nil {
		return nil, nil, err
	}
	return NewGeocoder(cache, log), cache, nil
}

func newSearcher(opts Options) (Searcher, error) {
	switch strings.ToLower(opts.Provider) {
	case "", "nominatim":
		return NewClient(opts.BaseURL, opts.UserAgent, opts.Country, opts.Timeout), nil
	case "google":
		base := opts.BaseURL
		if base == DefaultBaseURL {
			base = ""
		}
		return NewGoogleClient(base, opts.APIKey, opts.Country, opts.Timeout)
	default:
		return nil, fmt.Errorf("unknown geocoding provider %q", opts.Provider)
	}
}
