package activityimport

import "time"

// Config is one import run as requested from the command line.
type Config struct {
	CSVPath       string
	CrosswalkPath string
	BatchSize     int
	Geocode       bool
	Regions       []string
}

// Stats are the run's counters. RowsSkipped counts rows with no ID; duplicate
// IDs are counted separately in Duplicates.
type Stats struct {
	RowsProcessed      int `json:"rows_processed"`
	ActivitiesInserted int `json:"activities_inserted"`
	LocationsCreated   int `json:"locations_created"`
	LocationsGeocoded  int `json:"locations_geocoded"`
	LocationsEnriched  int `json:"locations_enriched"`
	LinksCreated       int `json:"links_created"`
	OperativesLinked   int `json:"operatives_linked"`
	PeopleLinked       int `json:"people_linked"`
	RowsSkipped        int `json:"rows_skipped"`
	Duplicates         int `json:"duplicates"`
	Errors             int `json:"errors"`
	Warnings           int `json:"warnings"`
}

func (s *Stats) add(o Stats) {
	s.RowsProcessed += o.RowsProcessed
	s.ActivitiesInserted += o.ActivitiesInserted
	s.LocationsCreated += o.LocationsCreated
	s.LocationsGeocoded += o.LocationsGeocoded
	s.LocationsEnriched += o.LocationsEnriched
	s.LinksCreated += o.LinksCreated
	s.OperativesLinked += o.OperativesLinked
	s.PeopleLinked += o.PeopleLinked
	s.RowsSkipped += o.RowsSkipped
	s.Duplicates += o.Duplicates
	s.Errors += o.Errors
	s.Warnings += o.Warnings
}

// KeyValues flattens the counters for structured logging.
func (s Stats) KeyValues() []any {
	return []any{
		"rows_processed", s.RowsProcessed,
		"activities_inserted", s.ActivitiesInserted,
		"locations_created", s.LocationsCreated,
		"locations_geocoded", s.LocationsGeocoded,
		"locations_enriched", s.LocationsEnriched,
		"links_created", s.LinksCreated,
		"operatives_linked", s.OperativesLinked,
		"people_linked", s.PeopleLinked,
		"rows_skipped", s.RowsSkipped,
		"duplicates", s.Duplicates,
		"errors", s.Errors,
		"warnings", s.Warnings,
	}
}

// Summary is what a finished run reports.
type Summary struct {
	RunID          string        `json:"run_id"`
	Stats          Stats         `json:"stats"`
	TotalLocations int64         `json:"total_locations"`
	Elapsed        time.Duration `json:"elapsed"`
}
