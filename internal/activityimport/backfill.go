package activityimport

import (
	"context"
	"fmt"

	"github.com/pinkertons/activity-ledger/internal/logger"
	"github.com/pinkertons/activity-ledger/internal/resolver"
	"github.com/pinkertons/activity-ledger/internal/store"
)

type BackfillResult struct {
	Checked  int `json:"checked"`
	Geocoded int `json:"geocoded"`
	Failed   int `json:"failed"`
	// Unchanged counts locations whose partial coordinate pair blocked the write.
	Unchanged int `json:"unchanged"`
}

// Backfill geocodes every stored location still missing coordinates. Each
// result is committed on its own with fill-if-empty semantics, so an
// interrupted backfill keeps what it found.
func Backfill(ctx context.Context, s *store.Store, geocoder resolver.Geocoder, regions []string, log *logger.Logger) (BackfillResult, error) {
	var res BackfillResult

	locations, err := s.LocationsMissingCoordinates(ctx)
	if err != nil {
		return res, err
	}
	log.Info("backfilling coordinates", "locations", len(locations))

	for _, loc := range locations {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Checked++

		c := geocoder.Resolve(ctx, deref(loc.Locality), deref(loc.StreetAddress), deref(loc.LocationName), regions)
		if c == nil {
			res.Failed++
			log.Warn("no coordinates found", "location_id", loc.ID, "key", loc.Key().String())
			continue
		}

		tx, err := s.Begin(ctx)
		if err != nil {
			return res, err
		}
		n, err := tx.UpdateLocationCoordinatesIfEmpty(ctx, loc.ID, *c)
		if err != nil {
			_ = tx.Rollback()
			return res, err
		}
		if err := tx.Commit(); err != nil {
			return res, fmt.Errorf("commit location %d: %w", loc.ID, err)
		}
		if n == 0 {
			res.Unchanged++
			log.Warn("location has a partial coordinate pair, left as is", "location_id", loc.ID, "key", loc.Key().String())
			continue
		}
		res.Geocoded++
	}

	log.Info("backfill complete", "checked", res.Checked, "geocoded", res.Geocoded, "failed", res.Failed, "unchanged", res.Unchanged)
	return res, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
