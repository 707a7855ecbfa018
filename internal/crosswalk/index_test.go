package crosswalk

import (
	"errors"
	"strings"
	"testing"

	"github.com/pinkertons/activity-ledger/internal/tabular"
)

func TestBuildKeyPrecedence(t *testing.T) {
	idx := Build([]Row{
		{LocationName: "Gem Saloon", Locality: "El Paso, TX", Latitude: "31.75", Longitude: "-106.48", Visits: "3"},
		{LocationName: "Gem Saloon", Locality: "Juarez", Latitude: "31.69", Longitude: "-106.42", Visits: "1"},
		{LocationName: "Gem Saloon", Locality: "El Paso, TX", Latitude: "31.76", Longitude: "-106.49", Visits: "7"},
		{LocationName: "", Locality: "El Paso, TX", Visits: "99"},
	})

	// Specific key: last row wins.
	e, ok := idx.Lookup("Gem Saloon", "El Paso, TX")
	if !ok || e.Visits == nil || *e.Visits != 7 || e.Coordinates.Lat != 31.76 {
		t.Fatalf("specific lookup = %+v, %v", e, ok)
	}

	// Fallback key: first row wins, not the later Juarez one.
	e, ok = idx.Lookup("Gem Saloon", "Ysleta")
	if !ok || e.Visits == nil || *e.Visits != 3 {
		t.Fatalf("fallback lookup = %+v, %v", e, ok)
	}

	e, ok = idx.Lookup("Gem Saloon", "Juarez")
	if !ok || *e.Visits != 1 {
		t.Fatalf("Juarez lookup = %+v, %v", e, ok)
	}

	if _, ok := idx.Lookup("", "El Paso, TX"); ok {
		t.Error("blank place name should never match")
	}
	if _, ok := idx.Lookup("Unknown Place", ""); ok {
		t.Error("unknown place should not match")
	}
	if idx.Len() != 3 {
		t.Errorf("Len = %d, want 3", idx.Len())
	}
}

func TestBuildBlankLocalityKeepsFallback(t *testing.T) {
	idx := Build([]Row{
		{LocationName: "Gem Saloon", Locality: "El Paso, TX", Visits: "3"},
		{LocationName: "Gem Saloon", Locality: "", Visits: "9"},
	})

	e, ok := idx.Lookup("Gem Saloon", "Ysleta")
	if !ok || e.Visits == nil || *e.Visits != 3 {
		t.Fatalf("fallback lookup = %+v, %v; want visits 3 from the first row", e, ok)
	}
	e, ok = idx.Lookup("Gem Saloon", "  ")
	if !ok || e.Visits == nil || *e.Visits != 9 {
		t.Fatalf("blank locality lookup = %+v, %v; want visits 9", e, ok)
	}
	if idx.Len() != 3 {
		t.Errorf("Len = %d, want 3", idx.Len())
	}
}

func TestBuildTolerantValues(t *testing.T) {
	idx := Build([]Row{
		{LocationName: "Depot", Latitude: "north", Longitude: "-106.4", Visits: "many"},
		{LocationName: "Mill", Latitude: "95.0", Longitude: "-106.4", Visits: "1,204"},
	})

	e, _ := idx.Lookup("Depot", "")
	if e.Coordinates != nil || e.Visits != nil {
		t.Errorf("Depot entry = %+v, want unknown coordinates and visits", e)
	}
	e, _ = idx.Lookup("Mill", "")
	if e.Coordinates != nil {
		t.Errorf("out-of-range coordinates kept: %+v", e.Coordinates)
	}
	if e.Visits == nil || *e.Visits != 1204 {
		t.Errorf("visits = %v, want 1204", e.Visits)
	}
}

func TestReadDetectsVisitsColumn(t *testing.T) {
	in := "\ufeffLocation Name,Locality,Street Address,Latitude,Longitude,Total Visits (1905)\n" +
		"Gem Saloon,\"El Paso, TX\",123 Utah St,31.75,-106.48,4\n" +
		"Plaza Hotel,Juarez,,,,\n"

	rows, err := Read(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0].LocationName != "Gem Saloon" || rows[0].Locality != "El Paso, TX" || rows[0].Visits != "4" {
		t.Errorf("row 0 = %+v", rows[0])
	}
	if rows[1].Visits != "" {
		t.Errorf("row 1 visits = %q, want empty", rows[1].Visits)
	}

	idx := Build(rows)
	e, ok := idx.Lookup("Gem Saloon", "El Paso, TX")
	if !ok || e.StreetAddress != "123 Utah St" || *e.Visits != 4 {
		t.Errorf("entry = %+v", e)
	}
}

func TestReadRequiresLocationName(t *testing.T) {
	_, err := Read(strings.NewReader("Place,Locality\nGem,El Paso\n"))
	if !errors.Is(err, tabular.ErrMissingColumns) {
		t.Fatalf("Read err = %v, want ErrMissingColumns", err)
	}
}
