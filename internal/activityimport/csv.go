package activityimport

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/pinkertons/activity-ledger/internal/tabular"
)

// ActivityRow is one line of the activity ledger export, cells as written.
type ActivityRow struct {
	ID              string `csv:"ID"`
	Source          string `csv:"Source"`
	Operative       string `csv:"Operative"`
	Date            string `csv:"Date"`
	Time            string `csv:"Time"`
	Duration        string `csv:"Duration"`
	Roping          string `csv:"Roping"`
	Mode            string `csv:"Mode"`
	ActivityNotes   string `csv:"Activity Notes"`
	Subject         string `csv:"Subject"`
	Information     string `csv:"Information"`
	InformationType string `csv:"Information Type"`
	Edited          string `csv:"Edited"`
	EditType        string `csv:"Edit Type"`
	Locality        string `csv:"Locality"`
	StreetAddress   string `csv:"Street Address"`
	LocationName    string `csv:"Location Name"`
	LocationType    string `csv:"Location Type"`
	LocationNotes   string `csv:"Location Notes"`
}

// Columns lists every header the ledger export must carry.
var Columns = []string{
	"ID", "Source", "Operative", "Date", "Time", "Duration", "Roping", "Mode",
	"Activity Notes", "Subject", "Information", "Information Type", "Edited", "Edit Type",
	"Locality", "Street Address", "Location Name", "Location Type", "Location Notes",
}

// HasLocation reports whether any part of the location key is filled in.
func (r ActivityRow) HasLocation() bool {
	return r.Locality != "" || r.StreetAddress != "" || r.LocationName != ""
}

// ReadActivities decodes the whole export. A missing column fails the read
// before any row is decoded.
func ReadActivities(r io.Reader) ([]ActivityRow, error) {
	dec, _, err := tabular.NewDecoder(r, Columns...)
	if err != nil {
		return nil, err
	}

	var out []ActivityRow
	for {
		var row ActivityRow
		err := dec.Decode(&row)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", len(out)+2, err)
		}
		out = append(out, row)
	}
	return out, nil
}

func LoadActivities(path string) ([]ActivityRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadActivities(f)
}
