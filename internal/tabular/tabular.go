// Package tabular opens header-mapped CSV exports for typed decoding.
package tabular

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jszwec/csvutil"
)

// ErrMissingColumns is returned when a required header is absent.
var ErrMissingColumns = errors.New("missing required columns")

// NewDecoder reads the header row, strips a UTF-8 BOM and surrounding
// whitespace from each cell, checks that every required column exists, and
// returns a csvutil decoder positioned on the first data row.
func NewDecoder(r io.Reader, required ...string) (*csvutil.Decoder, []string, error) {
	cr := csv.NewReader(bufio.NewReader(r))
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil, errors.New("csv is empty")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("reading header: %w", err)
	}

	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	for i, h := range header {
		header[i] = strings.TrimSpace(h)
	}

	if missing := MissingColumns(header, required...); len(missing) > 0 {
		return nil, nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	dec, err := csvutil.NewDecoder(cr, header...)
	if err != nil {
		return nil, nil, fmt.Errorf("creating decoder: %w", err)
	}
	return dec, header, nil
}

// MissingColumns lists the required names not present in header.
func MissingColumns(header []string, required ...string) []string {
	have := make(map[string]bool, len(header))
	for _, h := range header {
		have[h] = true
	}
	var missing []string
	for _, name := range required {
		if !have[name] {
			missing = append(missing, name)
		}
	}
	return missing
}

// ColumnContaining returns the index of the first header containing token,
// case-insensitively, or -1.
func ColumnContaining(header []string, token string) int {
	token = strings.ToLower(token)
	for i, h := range header {
		if strings.Contains(strings.ToLower(h), token) {
			return i
		}
	}
	return -1
}

// Cell returns record[i], or "" when the record is short or i is negative.
func Cell(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return record[i]
}
