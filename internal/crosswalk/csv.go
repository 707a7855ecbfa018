package crosswalk

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/pinkertons/activity-ledger/internal/tabular"
)

// Read decodes crosswalk rows. Only "Location Name" is required; the visit
// count comes from the first column whose name contains "visits".
func Read(r io.Reader) ([]Row, error) {
	dec, header, err := tabular.NewDecoder(r, "Location Name")
	if err != nil {
		return nil, err
	}
	visitsCol := tabular.ColumnContaining(header, "visits")

	var rows []Row
	for {
		var row Row
		if err := dec.Decode(&row); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("row %d: %w", len(rows)+2, err)
		}
		row.Visits = tabular.Cell(dec.Record(), visitsCol)
		rows = append(rows, row)
	}
	return rows, nil
}

// Load reads and indexes the crosswalk file at path.
func Load(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("crosswalk %s: %w", path, err)
	}
	return Build(rows), nil
}
