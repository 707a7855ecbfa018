package activityimport

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
	"gorm.io/datatypes"

	"github.com/pinkertons/activity-ledger/internal/crosswalk"
	"github.com/pinkertons/activity-ledger/internal/logger"
	"github.com/pinkertons/activity-ledger/internal/normalize"
	"github.com/pinkertons/activity-ledger/internal/resolver"
	"github.com/pinkertons/activity-ledger/internal/store"
)

const DefaultBatchSize = 100

// Importer runs ledger rows into the store one at a time. Each row works
// inside its own savepoint, and the enclosing transaction is committed every
// batchSize processed rows.
type Importer struct {
	store     *store.Store
	resolver  *resolver.Resolver
	crosswalk *crosswalk.Index
	geocode   bool
	batchSize int
	log       *logger.Logger
	progress  rate.Sometimes
}

// NewImporter wires an importer. cw may be nil when no crosswalk was loaded.
func NewImporter(s *store.Store, res *resolver.Resolver, cw *crosswalk.Index, cfg Config, log *logger.Logger) *Importer {
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = DefaultBatchSize
	}
	return &Importer{
		store:     s,
		resolver:  res,
		crosswalk: cw,
		geocode:   cfg.Geocode,
		batchSize: batch,
		log:       log,
		progress:  rate.Sometimes{First: 1, Interval: 10 * time.Second},
	}
}

// Import processes rows in order. Row failures are counted and rolled back
// individually; the returned error is non-nil only when the store connection
// is lost or the context is cancelled, in which case uncommitted work is
// rolled back.
func (im *Importer) Import(ctx context.Context, rows []ActivityRow) (Stats, error) {
	var stats Stats

	tx, err := im.store.Begin(ctx)
	if err != nil {
		return stats, err
	}
	abort := func(err error) (Stats, error) {
		if rbErr := tx.Rollback(); rbErr != nil {
			im.log.Error("rollback failed", "error", rbErr)
		}
		return stats, err
	}

	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return abort(err)
		}
		n := i + 2 // header is line 1

		id, ok, err := parseActivityID(row.ID)
		if err != nil {
			stats.Errors++
			im.log.Error("invalid activity id", "row", n, "error", err)
			continue
		}
		if !ok {
			stats.RowsSkipped++
			im.log.Debug("skipping row with empty id", "row", n)
			continue
		}
		stats.RowsProcessed++

		sp := savepointName(n)
		if err := tx.Savepoint(sp); err != nil {
			return abort(fmt.Errorf("savepoint row %d: %w", n, err))
		}

		rs, err := im.processRow(ctx, tx, n, id, row)
		stats.Warnings += rs.Warnings
		if err != nil {
			if store.IsConnectionError(err) || ctx.Err() != nil {
				return abort(fmt.Errorf("row %d: %w", n, err))
			}
			stats.Errors++
			im.log.Error("row failed", "row", n, "activity_id", id, "error", err)
			if rbErr := tx.RollbackTo(sp); rbErr != nil {
				return abort(fmt.Errorf("rollback row %d: %w", n, rbErr))
			}
		} else {
			rs.Warnings = 0
			stats.add(rs)
		}
		if err := tx.Release(sp); err != nil {
			return abort(fmt.Errorf("release row %d: %w", n, err))
		}

		if stats.RowsProcessed%im.batchSize == 0 {
			if err := tx.Commit(); err != nil {
				return stats, fmt.Errorf("commit after row %d: %w", n, err)
			}
			im.progress.Do(func() {
				im.log.Info("progress", stats.KeyValues()...)
			})
			if tx, err = im.store.Begin(ctx); err != nil {
				return stats, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return stats, fmt.Errorf("final commit: %w", err)
	}
	return stats, nil
}

// processRow inserts the activity, then resolves and links its location,
// operatives and people. A duplicate id still goes through location and link
// work; the link inserts are idempotent so the existing activity gains any
// missing links.
func (im *Importer) processRow(ctx context.Context, tx *store.Tx, n int, id int64, row ActivityRow) (Stats, error) {
	var rs Stats
	log := im.log.With("row", n, "activity_id", id)
	warn := func(field string, err error) {
		rs.Warnings++
		log.Warn("unparseable field", "field", field, "error", err)
	}

	act := buildActivity(id, row, warn)
	if act.Mode == nil {
		log.Warn("missing mode")
	}

	inserted, err := tx.InsertActivityIfAbsent(ctx, act)
	if err != nil {
		return rs, err
	}
	if inserted > 0 {
		rs.ActivitiesInserted++
	} else {
		rs.Duplicates++
		log.Warn("skipped duplicate id")
	}

	if row.HasLocation() {
		if err := im.resolveLocation(ctx, tx, id, row, warn, &rs); err != nil {
			return rs, fmt.Errorf("location: %w", err)
		}
	}

	for _, name := range normalize.SplitNames(row.Operative) {
		opID, err := im.resolver.ResolveOperative(ctx, tx, name)
		if err != nil {
			return rs, fmt.Errorf("operative %q: %w", name, err)
		}
		if opID == nil {
			continue
		}
		linked, err := tx.InsertActivityOperativeLinkIfAbsent(ctx, id, *opID)
		if err != nil {
			return rs, err
		}
		rs.OperativesLinked += int(linked)
	}

	for _, name := range normalize.SplitNames(row.Subject) {
		personID, err := im.resolver.ResolvePerson(ctx, tx, name)
		if err != nil {
			return rs, fmt.Errorf("person %q: %w", name, err)
		}
		if personID == nil {
			continue
		}
		linked, err := tx.InsertActivityPersonLinkIfAbsent(ctx, id, *personID)
		if err != nil {
			return rs, err
		}
		rs.PeopleLinked += int(linked)
	}

	return rs, nil
}

func (im *Importer) resolveLocation(ctx context.Context, tx *store.Tx, id int64, row ActivityRow, warn func(string, error), rs *Stats) error {
	in := resolver.LocationInput{
		Key: store.LocationKey{
			Locality:      normalize.Optional(row.Locality),
			StreetAddress: normalize.Optional(row.StreetAddress),
			LocationName:  normalize.Optional(row.LocationName),
		},
		LocationType: normalize.Optional(row.LocationType),
		Notes:        normalize.Optional(row.LocationNotes),
	}

	coords, err := normalize.ParseCoordinates(row.LocationNotes)
	if err != nil {
		warn("Location Notes", err)
	}
	in.Coordinates = coords

	fromCrosswalk := false
	if e, ok := im.crosswalk.Lookup(row.LocationName, row.Locality); ok {
		if in.Coordinates == nil && e.Coordinates != nil {
			in.Coordinates = e.Coordinates
			fromCrosswalk = true
		}
		in.Visits = e.Visits
		if in.Key.StreetAddress == nil {
			in.StreetHint = e.StreetAddress
		}
	}

	res, err := im.resolver.ResolveLocation(ctx, tx, in, im.geocode)
	if err != nil {
		return err
	}
	if res.Created {
		rs.LocationsCreated++
	}
	if res.Geocoded {
		rs.LocationsGeocoded++
	}
	if (fromCrosswalk && res.CoordinatesApplied) || res.VisitsApplied {
		rs.LocationsEnriched++
	}

	linked, err := tx.InsertActivityLocationLinkIfAbsent(ctx, id, res.ID)
	if err != nil {
		return err
	}
	rs.LinksCreated += int(linked)
	return nil
}

func buildActivity(id int64, row ActivityRow, warn func(string, error)) *store.Activity {
	act := &store.Activity{
		ID:              id,
		Source:          normalize.Optional(row.Source),
		Operative:       normalize.Optional(row.Operative),
		Roping:          normalize.ParseTriState(row.Roping),
		Mode:            normalize.Optional(row.Mode),
		ActivityNotes:   normalize.Optional(row.ActivityNotes),
		Subject:         normalize.Optional(row.Subject),
		Information:     normalize.Optional(row.Information),
		InformationType: normalize.Optional(row.InformationType),
		Edited:          normalize.ParseTriState(row.Edited),
		EditType:        normalize.Optional(row.EditType),
	}

	if d, err := normalize.ParseDate(row.Date); err != nil {
		warn("Date", err)
	} else if d != nil {
		date := datatypes.Date(*d)
		act.Date = &date
	}

	if t, err := normalize.ParseTimeOfDay(row.Time); err != nil {
		warn("Time", err)
	} else if t != nil {
		tod := datatypes.NewTime(t.Hour, t.Minute, 0, 0)
		act.Time = &tod
	}

	if d, err := normalize.ParseDuration(row.Duration); err != nil {
		warn("Duration", err)
	} else if d != nil {
		minutes := d.TotalMinutes()
		act.DurationMinutes = &minutes
	}

	return act
}
