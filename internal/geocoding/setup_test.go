package geocoding

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pinkertons/activity-ledger/internal/logger"
)

func TestNewWiresCacheAndFallback(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("q") != "El Paso, TX" {
			_, _ = w.Write([]byte(`[]`))
			return
		}
		_, _ = w.Write([]byte(`[{"lat": "31.7587", "lon": "-106.4869", "address": {"state": "Texas"}}]`))
	}))
	defer srv.Close()

	g, cache, err := New(Options{BaseURL: srv.URL, MinInterval: time.Millisecond, CacheSize: 10}, logger.Nop())
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		c := g.Resolve(ctx, "El Paso, TX", "", "Gem Saloon", []string{"TX"})
		if c == nil || c.Lat != 31.7587 {
			t.Fatalf("Resolve #%d = %+v", i, c)
		}
	}
	// name+locality miss, then locality hit; the second Resolve is all cache.
	if n := calls.Load(); n != 2 {
		t.Errorf("server calls = %d, want 2", n)
	}
	if cache.Len() != 2 {
		t.Errorf("cache entries = %d, want 2", cache.Len())
	}
}
