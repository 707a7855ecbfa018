package geocoding

import (
	"context"
	"strings"

	"github.com/pinkertons/activity-ledger/internal/logger"
	"github.com/pinkertons/activity-ledger/internal/normalize"
)

// Lookuper answers a single geocoding query. *Cache implements it.
type Lookuper interface {
	Lookup(ctx context.Context, query string, regions []string) *normalize.Coordinates
}

// Geocoder resolves a location from its parts, trying the most specific
// query first.
type Geocoder struct {
	lookup Lookuper
	log    *logger.Logger
}

func NewGeocoder(lookup Lookuper, log *logger.Logger) *Geocoder {
	return &Geocoder{lookup: lookup, log: log.With("component", "Geocoder")}
}

type strategy struct {
	name  string
	query string
}

// Resolve tries, in order and stopping at the first hit:
//  1. street address + locality
//  2. place name + locality
//  3. locality
//  4. street address
//
// Blank parts are treated as absent.
func (g *Geocoder) Resolve(ctx context.Context, locality, streetAddress, placeName string, regions []string) *normalize.Coordinates {
	locality = strings.TrimSpace(locality)
	streetAddress = strings.TrimSpace(streetAddress)
	placeName = strings.TrimSpace(placeName)

	var plan []strategy
	if streetAddress != "" && locality != "" {
		plan = append(plan, strategy{"full address", streetAddress + ", " + locality})
	}
	if placeName != "" && locality != "" {
		plan = append(plan, strategy{"location name", placeName + ", " + locality})
	}
	if locality != "" {
		plan = append(plan, strategy{"locality", locality})
	}
	if streetAddress != "" {
		plan = append(plan, strategy{"street address only", streetAddress})
	}

	for _, s := range plan {
		if coords := g.lookup.Lookup(ctx, s.query, regions); coords != nil {
			g.log.Info("Geocoded location", "strategy", s.name, "query", s.query)
			return coords
		}
	}

	g.log.Warn("Could not geocode location",
		"locality", locality, "street", streetAddress, "name", placeName)
	return nil
}
