package model

import "time"

// DateFormat is the wire and storage format for calendar dates. Calendar
// fields (acquired, watered, logged, taken) carry no time-of-day component
// and round-trip as ISO-8601 date strings.
const DateFormat = "2006-01-02"

// ValidDate reports whether s is a well-formed ISO-8601 calendar date.
func ValidDate(s string) bool {
	_, err := time.Parse(DateFormat, s)
	return err == nil
}

// Plant is a tracked plant. Every read and mutation is scoped by
// (id, owner_id); a plant owned by another user is indistinguishable from
// a nonexistent one.
type Plant struct {
	ID                    string    `json:"id" db:"id"`
	OwnerID               string    `json:"-" db:"owner_id"`
	Name                  string    `json:"name" db:"name"`
	Species               string    `json:"species,omitempty" db:"species"`
	Location              string    `json:"location,omitempty" db:"location"`
	AcquiredOn            *string   `json:"acquiredDate,omitempty" db:"acquired_on"`
	WateringFrequencyDays int       `json:"wateringFrequencyDays" db:"watering_frequency_days"`
	LastWatered           *string   `json:"lastWatered,omitempty" db:"last_watered"`
	Notes                 string    `json:"notes,omitempty" db:"notes"`
	CreatedAt             time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt             time.Time `json:"updatedAt" db:"updated_at"`
}

// PlantUpdate is a partial update: only non-nil fields are applied. An
// update with zero set fields is a no-op that returns the current record.
type PlantUpdate struct {
	Name                  *string
	Species               *string
	Location              *string
	AcquiredOn            *string
	WateringFrequencyDays *int
	Notes                 *string
}

// IsEmpty reports whether no fields are set.
func (u PlantUpdate) IsEmpty() bool {
	return u.Name == nil && u.Species == nil && u.Location == nil &&
		u.AcquiredOn == nil && u.WateringFrequencyDays == nil && u.Notes == nil
}

// PlantFilter narrows ListPlants by exact match. Zero values mean "any".
type PlantFilter struct {
	Location string
	Species  string
}

// WateringEvent records one watering of a plant. Append-only; removed only
// by cascade when the plant is deleted.
type WateringEvent struct {
	ID        string    `json:"id" db:"id"`
	OwnerID   string    `json:"-" db:"owner_id"`
	PlantID   string    `json:"plantId" db:"plant_id"`
	WateredOn string    `json:"wateredDate" db:"watered_on"`
	Notes     string    `json:"notes,omitempty" db:"notes"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Measurement kinds for growth logs.
const (
	MeasurementHeight    = "height"
	MeasurementWidth     = "width"
	MeasurementLeafCount = "leafCount"
	MeasurementOther     = "other"
)

// Measurement units for growth logs.
const (
	UnitCentimeters = "cm"
	UnitInches      = "inches"
	UnitCount       = "count"
	UnitOther       = "other"
)

// ValidMeasurementKind reports whether kind is one of the enumerated
// measurement kinds.
func ValidMeasurementKind(kind string) bool {
	switch kind {
	case MeasurementHeight, MeasurementWidth, MeasurementLeafCount, MeasurementOther:
		return true
	}
	return false
}

// ValidMeasurementUnit reports whether unit is one of the enumerated
// measurement units.
func ValidMeasurementUnit(unit string) bool {
	switch unit {
	case UnitCentimeters, UnitInches, UnitCount, UnitOther:
		return true
	}
	return false
}

// GrowthLog is one growth measurement for a plant. Append-only.
type GrowthLog struct {
	ID        string    `json:"id" db:"id"`
	OwnerID   string    `json:"-" db:"owner_id"`
	PlantID   string    `json:"plantId" db:"plant_id"`
	LoggedOn  string    `json:"logDate" db:"logged_on"`
	Kind      string    `json:"measurementKind" db:"measurement_kind"`
	Unit      string    `json:"measurementUnit" db:"measurement_unit"`
	Value     float64   `json:"value" db:"value"`
	Notes     string    `json:"notes,omitempty" db:"notes"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// PlantImage is a filename reference to a photo of a plant. No binary data
// is stored. Append-only.
type PlantImage struct {
	ID        string    `json:"id" db:"id"`
	OwnerID   string    `json:"-" db:"owner_id"`
	PlantID   string    `json:"plantId" db:"plant_id"`
	Filename  string    `json:"filename" db:"filename"`
	Caption   string    `json:"caption,omitempty" db:"caption"`
	TakenOn   string    `json:"takenAt" db:"taken_on"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
