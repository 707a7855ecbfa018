package activityimport

import (
	"context"
	"fmt"
	"time"

	"github.com/pinkertons/activity-ledger/internal/crosswalk"
	"github.com/pinkertons/activity-ledger/internal/logger"
	"github.com/pinkertons/activity-ledger/internal/resolver"
	"github.com/pinkertons/activity-ledger/internal/store"
)

// Run performs one full import: read the ledger export, build the crosswalk
// if one was given, process every row, and report the totals. geocoder is
// only consulted when cfg.Geocode is set and may be nil otherwise.
func Run(ctx context.Context, cfg Config, s *store.Store, geocoder resolver.Geocoder, log *logger.Logger) (Summary, error) {
	start := time.Now()
	summary := Summary{RunID: NewRunID()}
	log = log.With("run_id", summary.RunID)

	rows, err := LoadActivities(cfg.CSVPath)
	if err != nil {
		return summary, fmt.Errorf("reading %s: %w", cfg.CSVPath, err)
	}
	log.Info("starting import", "csv", cfg.CSVPath, "rows", len(rows), "geocode", cfg.Geocode)

	var cw *crosswalk.Index
	if cfg.CrosswalkPath != "" {
		cw, err = crosswalk.Load(cfg.CrosswalkPath)
		if err != nil {
			return summary, fmt.Errorf("reading crosswalk %s: %w", cfg.CrosswalkPath, err)
		}
		log.Info("crosswalk loaded", "path", cfg.CrosswalkPath, "keys", cw.Len())
	}

	if !cfg.Geocode {
		geocoder = nil
	}
	res := resolver.New(geocoder, cfg.Regions, log)
	im := NewImporter(s, res, cw, cfg, log)

	summary.Stats, err = im.Import(ctx, rows)
	summary.Elapsed = time.Since(start)
	if err != nil {
		log.Error("import aborted", append(summary.Stats.KeyValues(), "error", err)...)
		return summary, err
	}

	summary.TotalLocations, err = s.CountLocations(ctx)
	if err != nil {
		return summary, err
	}

	log.Info("import complete", append(summary.Stats.KeyValues(),
		"total_locations", summary.TotalLocations,
		"elapsed", summary.Elapsed,
	)...)
	return summary, nil
}
