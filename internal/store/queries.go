package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CountLocations returns the number of stored locations.
func (s *Store) CountLocations(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&Location{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count locations: %w", err)
	}
	return n, nil
}

// LocationsMissingCoordinates lists locations with no stored pair, oldest first.
func (s *Store) LocationsMissingCoordinates(ctx context.Context) ([]Location, error) {
	var out []Location
	err := s.db.WithContext(ctx).
		Where("latitude IS NULL OR longitude IS NULL").
		Order("id").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list locations missing coordinates: %w", err)
	}
	return out, nil
}

type ActivityFilter struct {
	Operative string // case-insensitive substring
	Mode      string
	From      *time.Time
	To        *time.Time
	Limit     int
}

// ListActivities returns activities matching f, ordered by date then id, with
// their links preloaded.
func (s *Store) ListActivities(ctx context.Context, f ActivityFilter) ([]Activity, error) {
	q := s.db.WithContext(ctx).
		Preload("Locations").
		Preload("Operatives").
		Preload("People")

	if f.Operative != "" {
		q = q.Where("LOWER(operative) LIKE ?", "%"+strings.ToLower(f.Operative)+"%")
	}
	if f.Mode != "" {
		q = q.Where("mode = ?", f.Mode)
	}
	if f.From != nil {
		q = q.Where("date >= ?", datatypes.Date(*f.From))
	}
	if f.To != nil {
		q = q.Where("date <= ?", datatypes.Date(*f.To))
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var out []Activity
	if err := q.Order("date").Order("id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	return out, nil
}

// LocationCount is a location with the number of activities linked to it.
type LocationCount struct {
	Location      `gorm:"embedded"`
	ActivityCount int64 `json:"activity_count"`
}

// LocationFrequency lists every location with its activity count, busiest first.
func (s *Store) LocationFrequency(ctx context.Context) ([]LocationCount, error) {
	locations, err := s.tableName(&Location{})
	if err != nil {
		return nil, err
	}
	links, err := s.tableName(&ActivityLocation{})
	if err != nil {
		return nil, err
	}

	var out []LocationCount
	err = s.db.WithContext(ctx).
		Model(&Location{}).
		Select(locations + ".*, COUNT(" + links + ".activity_id) AS activity_count").
		Joins("LEFT JOIN " + links + " ON " + links + ".location_id = " + locations + ".id").
		Group(locations + ".id").
		Order("activity_count DESC, " + locations + ".id").
		Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("location frequency: %w", err)
	}
	return out, nil
}

// tableName resolves model's table through the configured naming strategy,
// so schema prefixes are honored.
func (s *Store) tableName(model any) (string, error) {
	stmt := &gorm.Statement{DB: s.db}
	if err := stmt.Parse(model); err != nil {
		return "", fmt.Errorf("parse model %T: %w", model, err)
	}
	return stmt.Schema.Table, nil
}
