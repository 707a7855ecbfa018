package resolver

import (
	"context"
	"testing"

	"github.com/pinkertons/activity-ledger/internal/logger"
	"github.com/pinkertons/activity-ledger/internal/normalize"
	"github.com/pinkertons/activity-ledger/internal/store"
	"github.com/pinkertons/activity-ledger/internal/store/storetest"
)

type stubGeocoder struct {
	result *normalize.Coordinates
	calls  [][3]string
}

func (g *stubGeocoder) Resolve(_ context.Context, locality, street, place string, _ []string) *normalize.Coordinates {
	g.calls = append(g.calls, [3]string{locality, street, place})
	return g.result
}

func str(s string) *string { return &s }
func num(n int) *int       { return &n }

func openTx(t *testing.T) *store.Tx {
	t.Helper()
	tx, err := storetest.Open(t).Begin(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = tx.Rollback() })
	return tx
}

func TestResolveLocationIdentity(t *testing.T) {
	tx := openTx(t)
	r := New(nil, nil, logger.Nop())
	ctx := context.Background()

	key := store.LocationKey{Locality: str("El Paso, TX"), LocationName: str("Gem Saloon")}
	first, err := r.ResolveLocation(ctx, tx, LocationInput{Key: key}, false)
	if err != nil {
		t.Fatal(err)
	}
	second, err := r.ResolveLocation(ctx, tx, LocationInput{Key: key}, false)
	if err != nil {
		t.Fatal(err)
	}
	if !first.Created || second.Created || first.ID != second.ID {
		t.Errorf("same key resolved to %+v then %+v", first, second)
	}

	withStreet := key
	withStreet.StreetAddress = str("123 Utah St")
	third, err := r.ResolveLocation(ctx, tx, LocationInput{Key: withStreet}, false)
	if err != nil {
		t.Fatal(err)
	}
	if !third.Created || third.ID == first.ID {
		t.Errorf("street address should make a distinct location: %+v", third)
	}
}

func TestResolveLocationCoordinatesAreMonotonic(t *testing.T) {
	tx := openTx(t)
	r := New(nil, nil, logger.Nop())
	ctx := context.Background()
	key := store.LocationKey{LocationName: str("Depot")}

	if _, err := r.ResolveLocation(ctx, tx, LocationInput{Key: key}, false); err != nil {
		t.Fatal(err)
	}
	res, err := r.ResolveLocation(ctx, tx, LocationInput{Key: key, Coordinates: &normalize.Coordinates{Lat: 31.7, Lon: -106.4}}, false)
	if err != nil || !res.CoordinatesApplied {
		t.Fatalf("fill = %+v, %v", res, err)
	}
	res, err = r.ResolveLocation(ctx, tx, LocationInput{Key: key, Coordinates: &normalize.Coordinates{Lat: 40, Lon: -100}}, false)
	if err != nil || res.CoordinatesApplied {
		t.Fatalf("second fill = %+v, %v; want no change", res, err)
	}

	loc, _ := tx.FindLocation(ctx, key)
	if *loc.Latitude != 31.7 || *loc.Longitude != -106.4 {
		t.Errorf("stored = %v,%v; want 31.7,-106.4", *loc.Latitude, *loc.Longitude)
	}
}

func TestResolveLocationVisitsOverwrite(t *testing.T) {
	tx := openTx(t)
	r := New(nil, nil, logger.Nop())
	ctx := context.Background()
	key := store.LocationKey{LocationName: str("Depot")}

	for _, v := range []int{3, 9} {
		if _, err := r.ResolveLocation(ctx, tx, LocationInput{Key: key, Visits: num(v)}, false); err != nil {
			t.Fatal(err)
		}
	}
	// No visits supplied leaves the stored count alone.
	if _, err := r.ResolveLocation(ctx, tx, LocationInput{Key: key}, false); err != nil {
		t.Fatal(err)
	}

	loc, _ := tx.FindLocation(ctx, key)
	if loc.Visits == nil || *loc.Visits != 9 {
		t.Errorf("visits = %v, want 9", loc.Visits)
	}
}

func TestResolveLocationGeocoding(t *testing.T) {
	ctx := context.Background()

	t.Run("new location geocoded before insert", func(t *testing.T) {
		tx := openTx(t)
		g := &stubGeocoder{result: &normalize.Coordinates{Lat: 31.76, Lon: -106.49}}
		r := New(g, []string{"TX"}, logger.Nop())

		key := store.LocationKey{Locality: str("El Paso"), LocationName: str("Gem Saloon")}
		res, err := r.ResolveLocation(ctx, tx, LocationInput{Key: key, StreetHint: "123 Utah St"}, true)
		if err != nil || !res.Created || !res.Geocoded {
			t.Fatalf("res = %+v, %v", res, err)
		}
		if len(g.calls) != 1 || g.calls[0] != [3]string{"El Paso", "123 Utah St", "Gem Saloon"} {
			t.Errorf("geocoder calls = %v", g.calls)
		}
		loc, _ := tx.FindLocation(ctx, key)
		if !loc.HasCoordinates() || *loc.Latitude != 31.76 {
			t.Errorf("stored location = %+v", loc)
		}
		if loc.StreetAddress != nil {
			t.Error("street hint must not become part of the key")
		}
	})

	t.Run("existing location with coordinates is not geocoded", func(t *testing.T) {
		tx := openTx(t)
		g := &stubGeocoder{result: &normalize.Coordinates{Lat: 1, Lon: 1}}
		r := New(g, nil, logger.Nop())
		key := store.LocationKey{LocationName: str("Depot")}

		if _, err := r.ResolveLocation(ctx, tx, LocationInput{Key: key, Coordinates: &normalize.Coordinates{Lat: 2, Lon: 2}}, true); err != nil {
			t.Fatal(err)
		}
		res, err := r.ResolveLocation(ctx, tx, LocationInput{Key: key}, true)
		if err != nil || res.Geocoded {
			t.Fatalf("res = %+v, %v", res, err)
		}
		if len(g.calls) != 0 {
			t.Errorf("geocoder called %d times, want 0", len(g.calls))
		}
	})

	t.Run("existing location without coordinates is geocoded", func(t *testing.T) {
		tx := openTx(t)
		g := &stubGeocoder{}
		r := New(g, nil, logger.Nop())
		key := store.LocationKey{Locality: str("Ysleta")}

		if _, err := r.ResolveLocation(ctx, tx, LocationInput{Key: key}, true); err != nil {
			t.Fatal(err)
		}
		g.result = &normalize.Coordinates{Lat: 31.69, Lon: -106.32}
		res, err := r.ResolveLocation(ctx, tx, LocationInput{Key: key}, true)
		if err != nil || res.Created || !res.Geocoded {
			t.Fatalf("res = %+v, %v", res, err)
		}
	})

	t.Run("disabled", func(t *testing.T) {
		tx := openTx(t)
		g := &stubGeocoder{result: &normalize.Coordinates{Lat: 1, Lon: 1}}
		r := New(g, nil, logger.Nop())
		if _, err := r.ResolveLocation(ctx, tx, LocationInput{Key: store.LocationKey{Locality: str("Ysleta")}}, false); err != nil {
			t.Fatal(err)
		}
		if len(g.calls) != 0 {
			t.Errorf("geocoder called with geocoding disabled")
		}
	})
}

func TestResolvePeople(t *testing.T) {
	tx := openTx(t)
	r := New(nil, nil, logger.Nop())
	ctx := context.Background()

	a, err := r.ResolvePerson(ctx, tx, "John  Smith")
	if err != nil || a == nil {
		t.Fatalf("ResolvePerson = %v, %v", a, err)
	}
	b, _ := r.ResolvePerson(ctx, tx, "John Smith")
	if b == nil || *a != *b {
		t.Errorf("same name resolved to %v and %v", a, b)
	}

	skipped, err := r.ResolveOperative(ctx, tx, "Siringo")
	if err != nil || skipped != nil {
		t.Errorf("single token = %v, %v; want nil, nil", skipped, err)
	}
	op, err := r.ResolveOperative(ctx, tx, "Charles A. Siringo")
	if err != nil || op == nil {
		t.Fatalf("ResolveOperative = %v, %v", op, err)
	}
	id, err := tx.FindOrInsertOperative(ctx, "Charles A.", "Siringo")
	if err != nil || id != *op {
		t.Errorf("operative stored under a different name split: %d vs %d, %v", id, *op, err)
	}
}
