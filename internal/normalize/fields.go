// Package normalize turns raw ledger cells into typed values.
//
// Every parser is total: unusable input yields a nil value. A non-nil error
// is a warning about the cell, never a reason to drop the row.
package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Duration is an hours+minutes span as written in the ledger ("5h45m").
type Duration struct {
	Hours   int
	Minutes int
}

// TotalMinutes returns the span in minutes.
func (d Duration) TotalMinutes() int {
	return d.Hours*60 + d.Minutes
}

func (d Duration) String() string {
	return fmt.Sprintf("%dh%02dm", d.Hours, d.Minutes)
}

// TimeOfDay is a wall-clock time with minute precision.
type TimeOfDay struct {
	Hour   int
	Minute int
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Coordinates is a WGS84 latitude/longitude pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether the pair lies inside the WGS84 ranges.
func (c Coordinates) Valid() bool {
	return ValidCoordinates(c.Lat, c.Lon)
}

// ValidCoordinates reports whether lat is in [-90, 90] and lon in [-180, 180].
func ValidCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

var (
	hoursRe       = regexp.MustCompile(`(\d+)h`)
	minutesRe     = regexp.MustCompile(`(\d+)m`)
	coordinatesRe = regexp.MustCompile(`(-?\d+\.\d+)\s*,\s*(-?\d+\.\d+)`)
	namesSplitRe  = regexp.MustCompile(`[,&]`)
	bracketsRe    = regexp.MustCompile(`[\[\]]`)
)

// Words used in the Time column when the detective didn't note the clock.
var vagueTimes = map[string]struct{}{
	"morning":   {},
	"afternoon": {},
	"evening":   {},
}

// ParseDuration reads spans like "5h45m", "10h" or "[10h total]".
func ParseDuration(s string) (*Duration, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}

	cleaned := bracketsRe.ReplaceAllString(s, "")
	cleaned = strings.TrimSpace(strings.ReplaceAll(cleaned, "total", ""))

	var d Duration
	if m := hoursRe.FindStringSubmatch(cleaned); m != nil {
		d.Hours, _ = strconv.Atoi(m[1])
	}
	if m := minutesRe.FindStringSubmatch(cleaned); m != nil {
		d.Minutes, _ = strconv.Atoi(m[1])
	}

	if d.Hours == 0 && d.Minutes == 0 {
		return nil, fmt.Errorf("could not parse duration %q", s)
	}
	return &d, nil
}

// ParseTimeOfDay reads "H:MM" or "HH:MM". "Morning", "Afternoon" and
// "Evening" are accepted as unknown without a warning.
func ParseTimeOfDay(s string) (*TimeOfDay, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if _, ok := vagueTimes[strings.ToLower(s)]; ok {
		return nil, nil
	}

	parts := strings.Split(s, ":")
	if len(parts) != 2 || len(parts[0]) < 1 || len(parts[0]) > 2 || len(parts[1]) != 2 {
		return nil, fmt.Errorf("could not parse time %q: want H:MM or HH:MM", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return nil, fmt.Errorf("could not parse time %q: %w", s, err)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return nil, fmt.Errorf("could not parse time %q: %w", s, err)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return nil, fmt.Errorf("invalid time value %q (hour > 23 or minute > 59)", s)
	}
	return &TimeOfDay{Hour: hour, Minute: minute}, nil
}

// ParseDate accepts YYYY-MM-DD only.
func ParseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, fmt.Errorf("could not parse date %q: %w", s, err)
	}
	return &t, nil
}

// ParseCoordinates finds the first "lat, lon" decimal pair embedded in free
// text such as location notes.
func ParseCoordinates(s string) (*Coordinates, error) {
	m := coordinatesRe.FindStringSubmatch(s)
	if m == nil {
		return nil, nil
	}
	lat, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil, fmt.Errorf("could not parse latitude %q: %w", m[1], err)
	}
	lon, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return nil, fmt.Errorf("could not parse longitude %q: %w", m[2], err)
	}
	if !ValidCoordinates(lat, lon) {
		return nil, fmt.Errorf("coordinates out of valid range: (%v, %v)", lat, lon)
	}
	return &Coordinates{Lat: lat, Lon: lon}, nil
}

// ParseTriState maps Yes/No to true/false; everything else (Query, blank) is unknown.
func ParseTriState(s string) *bool {
	var v bool
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes":
		v = true
	case "no":
		v = false
	default:
		return nil
	}
	return &v
}

// SplitNames splits a cell listing several people ("A. Smith & B. Jones, C. Doe").
func SplitNames(s string) []string {
	var out []string
	for _, p := range namesSplitRe.Split(s, -1) {
		if name := strings.TrimSpace(p); name != "" {
			out = append(out, name)
		}
	}
	return out
}

// Optional returns nil for an empty cell. The value is kept verbatim otherwise;
// identity keys compare cells exactly.
func Optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
