package store

import (
	"time"

	"gorm.io/datatypes"
)

// Activity is one surveillance-log entry. ID comes from the ledger and is
// never generated here.
type Activity struct {
	ID              int64           `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Source          *string         `json:"source"`
	Operative       *string         `json:"operative"`
	Date            *datatypes.Date `json:"date"`
	Time            *datatypes.Time `json:"time"`
	DurationMinutes *int            `json:"duration_minutes"`
	Roping          *bool           `json:"roping"`
	Mode            *string         `json:"mode"`
	ActivityNotes   *string         `json:"activity_notes"`
	Subject         *string         `json:"subject"`
	Information     *string         `json:"information"`
	InformationType *string         `json:"information_type"`
	Edited          *bool           `json:"edited"`
	EditType        *string         `json:"edit_type"`
	CreatedAt       time.Time       `json:"-"`

	Locations  []Location  `gorm:"many2many:activity_locations" json:"locations"`
	Operatives []Operative `gorm:"many2many:activity_operatives" json:"operatives"`
	People     []Person    `gorm:"many2many:activity_people" json:"people"`
}

// Location is identified by (locality, street address, location name), any
// of which may be absent.
type Location struct {
	ID            int64     `gorm:"primaryKey" json:"id"`
	Locality      *string   `gorm:"index:idx_location_key,priority:1" json:"locality"`
	StreetAddress *string   `gorm:"index:idx_location_key,priority:2" json:"street_address"`
	LocationName  *string   `gorm:"index:idx_location_key,priority:3" json:"location_name"`
	LocationType  *string   `json:"location_type"`
	LocationNotes *string   `json:"location_notes"`
	Latitude      *float64  `json:"latitude"`
	Longitude     *float64  `json:"longitude"`
	Visits        *int      `json:"visits"`
	CreatedAt     time.Time `json:"-"`
	UpdatedAt     time.Time `json:"-"`
}

// Key returns the location's identity.
func (l Location) Key() LocationKey {
	return LocationKey{Locality: l.Locality, StreetAddress: l.StreetAddress, LocationName: l.LocationName}
}

// HasCoordinates reports whether both coordinates are stored.
func (l Location) HasCoordinates() bool {
	return l.Latitude != nil && l.Longitude != nil
}

type Person struct {
	ID        int64  `gorm:"primaryKey" json:"id"`
	FirstName string `gorm:"not null;uniqueIndex:idx_person_name,priority:1" json:"first_name"`
	LastName  string `gorm:"not null;uniqueIndex:idx_person_name,priority:2" json:"last_name"`
}

type Operative struct {
	ID        int64  `gorm:"primaryKey" json:"id"`
	FirstName string `gorm:"not null;uniqueIndex:idx_operative_name,priority:1" json:"first_name"`
	LastName  string `gorm:"not null;uniqueIndex:idx_operative_name,priority:2" json:"last_name"`
}

type ActivityLocation struct {
	ActivityID int64 `gorm:"primaryKey;autoIncrement:false"`
	LocationID int64 `gorm:"primaryKey;autoIncrement:false"`
}

type ActivityOperative struct {
	ActivityID  int64 `gorm:"primaryKey;autoIncrement:false"`
	OperativeID int64 `gorm:"primaryKey;autoIncrement:false"`
}

type ActivityPerson struct {
	ActivityID int64 `gorm:"primaryKey;autoIncrement:false"`
	PersonID   int64 `gorm:"primaryKey;autoIncrement:false"`
}
