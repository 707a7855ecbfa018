package activityimport

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// NewRunID tags every log line of one import run.
func NewRunID() string {
	return uuid.NewString()
}

// parseActivityID returns ok=false for a blank cell and an error for anything
// that is not a base-10 integer.
func parseActivityID(cell string) (id int64, ok bool, err error) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return 0, false, nil
	}
	id, err = strconv.ParseInt(cell, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("invalid ID %q: %w", cell, err)
	}
	return id, true, nil
}

func savepointName(row int) string {
	return "row_" + strconv.Itoa(row)
}
