// Package crosswalk indexes the auxiliary location table that supplies
// coordinates and visit counts by place name and locality.
package crosswalk

import (
	"strconv"
	"strings"

	"github.com/pinkertons/activity-ledger/internal/normalize"
)

// Row is one crosswalk record after header mapping.
type Row struct {
	LocationName  string `csv:"Location Name"`
	Locality      string `csv:"Locality"`
	StreetAddress string `csv:"Street Address"`
	Latitude      string `csv:"Latitude"`
	Longitude     string `csv:"Longitude"`
	Visits        string `csv:"-"`
}

// Entry is the enrichment data for one place.
type Entry struct {
	Coordinates   *normalize.Coordinates
	Visits        *int
	StreetAddress string
}

type key struct {
	name        string
	locality    string
	hasLocality bool
}

// specificKey is distinct from the name-only fallback even for a blank
// locality.
func specificKey(name, locality string) key {
	return key{name: name, locality: locality, hasLocality: true}
}

// Index is built once before an import and only read afterwards.
type Index struct {
	entries map[key]Entry
}

// Build indexes rows. The (name, locality) key keeps the last row seen; the
// name-only fallback keeps the first, so a later row for another locality
// never displaces it.
func Build(rows []Row) *Index {
	idx := &Index{entries: make(map[key]Entry)}
	for _, r := range rows {
		name := strings.TrimSpace(r.LocationName)
		if name == "" {
			continue
		}
		e := Entry{
			Coordinates:   parseCoordinates(r.Latitude, r.Longitude),
			Visits:        parseVisits(r.Visits),
			StreetAddress: strings.TrimSpace(r.StreetAddress),
		}

		idx.entries[specificKey(name, strings.TrimSpace(r.Locality))] = e

		fallback := key{name: name}
		if _, ok := idx.entries[fallback]; !ok {
			idx.entries[fallback] = e
		}
	}
	return idx
}

// Lookup finds the entry for (placeName, locality), falling back to the
// name-only entry.
func (idx *Index) Lookup(placeName, locality string) (Entry, bool) {
	if idx == nil {
		return Entry{}, false
	}
	name := strings.TrimSpace(placeName)
	if name == "" {
		return Entry{}, false
	}
	if e, ok := idx.entries[specificKey(name, strings.TrimSpace(locality))]; ok {
		return e, true
	}
	e, ok := idx.entries[key{name: name}]
	return e, ok
}

// Len is the number of distinct keys, fallbacks included.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.entries)
}

func parseCoordinates(lat, lon string) *normalize.Coordinates {
	la, err := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	if err != nil {
		return nil
	}
	lo, err := strconv.ParseFloat(strings.TrimSpace(lon), 64)
	if err != nil {
		return nil
	}
	if !normalize.ValidCoordinates(la, lo) {
		return nil
	}
	return &normalize.Coordinates{Lat: la, Lon: lo}
}

func parseVisits(s string) *int {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return &n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == float64(int(f)) {
		n := int(f)
		return &n
	}
	return nil
}
