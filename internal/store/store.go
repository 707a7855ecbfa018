package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pinkertons/activity-ledger/internal/logger"
	"github.com/pinkertons/activity-ledger/internal/normalize"
)

// Store is the relational home of activities, locations and people.
type Store struct {
	db  *gorm.DB
	log *logger.Logger
}

func New(db *gorm.DB, log *logger.Logger) *Store {
	return &Store{db: db, log: log.With("component", "Store")}
}

// DB exposes the underlying handle.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Migrate creates or updates every table and join table.
func (s *Store) Migrate() error {
	joins := []struct {
		model any
		field string
		join  any
	}{
		{&Activity{}, "Locations", &ActivityLocation{}},
		{&Activity{}, "Operatives", &ActivityOperative{}},
		{&Activity{}, "People", &ActivityPerson{}},
	}
	for _, j := range joins {
		if err := s.db.SetupJoinTable(j.model, j.field, j.join); err != nil {
			return fmt.Errorf("setup join table %s: %w", j.field, err)
		}
	}

	if err := s.db.AutoMigrate(
		&Activity{},
		&Location{},
		&Person{},
		&Operative{},
		&ActivityLocation{},
		&ActivityOperative{},
		&ActivityPerson{},
	); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}

// Begin opens a batch transaction.
func (s *Store) Begin(ctx context.Context) (*Tx, error) {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("begin tx: %w", tx.Error)
	}
	return &Tx{db: tx}, nil
}

// Tx is one open transaction. Rows inside it are isolated with savepoints so
// a failing row can be undone without losing the rest of the batch.
type Tx struct {
	db *gorm.DB
}

func (t *Tx) Commit() error {
	return t.db.Commit().Error
}

func (t *Tx) Rollback() error {
	return t.db.Rollback().Error
}

func (t *Tx) Savepoint(name string) error {
	return t.db.SavePoint(name).Error
}

func (t *Tx) RollbackTo(name string) error {
	return t.db.RollbackTo(name).Error
}

func (t *Tx) Release(name string) error {
	return t.db.Exec("RELEASE SAVEPOINT " + name).Error
}

// InsertActivityIfAbsent inserts a and reports 0 rows when the ID already exists.
func (t *Tx) InsertActivityIfAbsent(ctx context.Context, a *Activity) (int64, error) {
	res := t.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(a)
	if res.Error != nil {
		return 0, fmt.Errorf("insert activity %d: %w", a.ID, res.Error)
	}
	return res.RowsAffected, nil
}

// FindLocation returns the location whose key equals k, or nil.
func (t *Tx) FindLocation(ctx context.Context, k LocationKey) (*Location, error) {
	q := t.db.WithContext(ctx).Model(&Location{})
	q = whereOptional(q, "locality", k.Locality)
	q = whereOptional(q, "street_address", k.StreetAddress)
	q = whereOptional(q, "location_name", k.LocationName)

	var candidates []Location
	if err := q.Order("id").Find(&candidates).Error; err != nil {
		return nil, fmt.Errorf("find location %s: %w", k, err)
	}
	for i := range candidates {
		if k.Equal(candidates[i].Key()) {
			return &candidates[i], nil
		}
	}
	return nil, nil
}

func whereOptional(q *gorm.DB, column string, v *string) *gorm.DB {
	if v == nil {
		return q.Where(column + " IS NULL")
	}
	return q.Where(column+" = ?", *v)
}

// UpdateLocationCoordinatesIfEmpty writes c only when the stored pair is empty.
func (t *Tx) UpdateLocationCoordinatesIfEmpty(ctx context.Context, id int64, c normalize.Coordinates) (int64, error) {
	res := t.db.WithContext(ctx).Model(&Location{}).
		Where("id = ? AND latitude IS NULL AND longitude IS NULL", id).
		Updates(map[string]any{"latitude": c.Lat, "longitude": c.Lon})
	if res.Error != nil {
		return 0, fmt.Errorf("update coordinates of location %d: %w", id, res.Error)
	}
	return res.RowsAffected, nil
}

// UpdateLocationVisits overwrites the visit count.
func (t *Tx) UpdateLocationVisits(ctx context.Context, id int64, visits int) error {
	err := t.db.WithContext(ctx).Model(&Location{}).
		Where("id = ?", id).
		Update("visits", visits).Error
	if err != nil {
		return fmt.Errorf("update visits of location %d: %w", id, err)
	}
	return nil
}

// InsertLocation creates l and returns its new ID.
func (t *Tx) InsertLocation(ctx context.Context, l *Location) (int64, error) {
	if err := t.db.WithContext(ctx).Create(l).Error; err != nil {
		return 0, fmt.Errorf("insert location %s: %w", l.Key(), err)
	}
	return l.ID, nil
}

// InsertActivityLocationLinkIfAbsent links an activity to a location; 0 rows
// means the link already existed.
func (t *Tx) InsertActivityLocationLinkIfAbsent(ctx context.Context, activityID, locationID int64) (int64, error) {
	return t.link(ctx, &ActivityLocation{ActivityID: activityID, LocationID: locationID})
}

func (t *Tx) InsertActivityOperativeLinkIfAbsent(ctx context.Context, activityID, operativeID int64) (int64, error) {
	return t.link(ctx, &ActivityOperative{ActivityID: activityID, OperativeID: operativeID})
}

func (t *Tx) InsertActivityPersonLinkIfAbsent(ctx context.Context, activityID, personID int64) (int64, error) {
	return t.link(ctx, &ActivityPerson{ActivityID: activityID, PersonID: personID})
}

func (t *Tx) link(ctx context.Context, row any) (int64, error) {
	res := t.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(row)
	if res.Error != nil {
		return 0, fmt.Errorf("insert link %+v: %w", row, res.Error)
	}
	return res.RowsAffected, nil
}

// FindOrInsertPerson returns the ID of the person with exactly this name,
// creating the row on first sight.
func (t *Tx) FindOrInsertPerson(ctx context.Context, first, last string) (int64, error) {
	p := Person{}
	err := t.db.WithContext(ctx).
		Where(Person{FirstName: first, LastName: last}).
		FirstOrCreate(&p).Error
	if err != nil {
		return 0, fmt.Errorf("find or insert person %s %s: %w", first, last, err)
	}
	return p.ID, nil
}

// FindOrInsertOperative is FindOrInsertPerson for detectives.
func (t *Tx) FindOrInsertOperative(ctx context.Context, first, last string) (int64, error) {
	o := Operative{}
	err := t.db.WithContext(ctx).
		Where(Operative{FirstName: first, LastName: last}).
		FirstOrCreate(&o).Error
	if err != nil {
		return 0, fmt.Errorf("find or insert operative %s %s: %w", first, last, err)
	}
	return o.ID, nil
}
