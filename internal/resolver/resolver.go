// Package resolver finds or creates locations, people and operatives by their
// natural keys, enriching existing locations without destroying stored data.
package resolver

import (
	"context"

	"github.com/pinkertons/activity-ledger/internal/logger"
	"github.com/pinkertons/activity-ledger/internal/normalize"
	"github.com/pinkertons/activity-ledger/internal/store"
)

// LocationStore is the slice of a store transaction the resolver writes through.
type LocationStore interface {
	FindLocation(ctx context.Context, k store.LocationKey) (*store.Location, error)
	UpdateLocationCoordinatesIfEmpty(ctx context.Context, id int64, c normalize.Coordinates) (int64, error)
	UpdateLocationVisits(ctx context.Context, id int64, visits int) error
	InsertLocation(ctx context.Context, l *store.Location) (int64, error)
}

type PeopleStore interface {
	FindOrInsertPerson(ctx context.Context, first, last string) (int64, error)
	FindOrInsertOperative(ctx context.Context, first, last string) (int64, error)
}

// Geocoder turns location parts into coordinates, or nil.
type Geocoder interface {
	Resolve(ctx context.Context, locality, streetAddress, placeName string, regions []string) *normalize.Coordinates
}

type Resolver struct {
	geocoder Geocoder
	regions  []string
	log      *logger.Logger
}

// New builds a resolver. geocoder may be nil, in which case locations are never
// geocoded.
func New(geocoder Geocoder, regions []string, log *logger.Logger) *Resolver {
	return &Resolver{
		geocoder: geocoder,
		regions:  regions,
		log:      log.With("component", "Resolver"),
	}
}

// LocationInput is everything one row knows about a location.
type LocationInput struct {
	Key          store.LocationKey
	LocationType *string
	Notes        *string
	Coordinates  *normalize.Coordinates
	Visits       *int
	// StreetHint is used for geocoding when the key has no street address.
	StreetHint string
}

type LocationResult struct {
	ID                 int64
	Created            bool
	CoordinatesApplied bool
	VisitsApplied      bool
	Geocoded           bool
}

// ResolveLocation returns the location matching in.Key, creating it if needed.
// Stored coordinates are only ever filled, never replaced; a supplied visit
// count always overwrites. Store errors are returned as-is.
func (r *Resolver) ResolveLocation(ctx context.Context, tx LocationStore, in LocationInput, geocodeIfMissing bool) (LocationResult, error) {
	existing, err := tx.FindLocation(ctx, in.Key)
	if err != nil {
		return LocationResult{}, err
	}
	if existing == nil {
		return r.createLocation(ctx, tx, in, geocodeIfMissing)
	}

	res := LocationResult{ID: existing.ID}
	hasCoordinates := existing.HasCoordinates()

	if in.Coordinates != nil && !hasCoordinates {
		n, err := tx.UpdateLocationCoordinatesIfEmpty(ctx, existing.ID, *in.Coordinates)
		if err != nil {
			return res, err
		}
		if n > 0 {
			res.CoordinatesApplied = true
			hasCoordinates = true
			r.log.Info("added coordinates", "location_id", existing.ID, "lat", in.Coordinates.Lat, "lon", in.Coordinates.Lon)
		}
	}

	if in.Visits != nil {
		if err := tx.UpdateLocationVisits(ctx, existing.ID, *in.Visits); err != nil {
			return res, err
		}
		res.VisitsApplied = true
	}

	if !hasCoordinates && geocodeIfMissing {
		if c := r.geocode(ctx, in); c != nil {
			n, err := tx.UpdateLocationCoordinatesIfEmpty(ctx, existing.ID, *c)
			if err != nil {
				return res, err
			}
			res.Geocoded = n > 0
		}
	}

	r.log.Debug("location found", "location_id", existing.ID, "key", in.Key.String())
	return res, nil
}

func (r *Resolver) createLocation(ctx context.Context, tx LocationStore, in LocationInput, geocodeIfMissing bool) (LocationResult, error) {
	res := LocationResult{Created: true}

	coords := in.Coordinates
	if coords != nil {
		res.CoordinatesApplied = true
	} else if geocodeIfMissing {
		coords = r.geocode(ctx, in)
		res.Geocoded = coords != nil
	}

	loc := &store.Location{
		Locality:      in.Key.Locality,
		StreetAddress: in.Key.StreetAddress,
		LocationName:  in.Key.LocationName,
		LocationType:  in.LocationType,
		LocationNotes: in.Notes,
		Visits:        in.Visits,
	}
	if coords != nil {
		loc.Latitude, loc.Longitude = &coords.Lat, &coords.Lon
	}
	res.VisitsApplied = in.Visits != nil

	id, err := tx.InsertLocation(ctx, loc)
	if err != nil {
		return LocationResult{}, err
	}
	res.ID = id
	r.log.Info("new location created", "location_id", id, "key", in.Key.String(), "has_coordinates", coords != nil)
	return res, nil
}

func (r *Resolver) geocode(ctx context.Context, in LocationInput) *normalize.Coordinates {
	if r.geocoder == nil {
		return nil
	}
	street := deref(in.Key.StreetAddress)
	if street == "" {
		street = in.StreetHint
	}
	return r.geocoder.Resolve(ctx, deref(in.Key.Locality), street, deref(in.Key.LocationName), r.regions)
}

// ResolvePerson returns the person's ID, or nil when fullName is not at least
// two tokens.
func (r *Resolver) ResolvePerson(ctx context.Context, tx PeopleStore, fullName string) (*int64, error) {
	return r.resolveName(ctx, "person", fullName, tx.FindOrInsertPerson)
}

func (r *Resolver) ResolveOperative(ctx context.Context, tx PeopleStore, fullName string) (*int64, error) {
	return r.resolveName(ctx, "operative", fullName, tx.FindOrInsertOperative)
}

func (r *Resolver) resolveName(ctx context.Context, kind, fullName string, findOrInsert func(context.Context, string, string) (int64, error)) (*int64, error) {
	first, last, ok := store.SplitFullName(fullName)
	if !ok {
		r.log.Debug("skipping malformed name", "kind", kind, "name", fullName)
		return nil, nil
	}
	id, err := findOrInsert(ctx, first, last)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
