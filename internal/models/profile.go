package models

import "time"

// Profile is a saved set of birth data. Only the inputs are kept;
// charts are always recomputed from them.
type Profile struct {
	ID          int64     `json:"id"`           // Database Primary Key (0 if not saved)
	Name        string    `json:"name"`         // User-friendly name
	BirthDate   string    `json:"birth_date"`   // YYYY-MM-DD, local to TimeZone
	BirthTime   string    `json:"birth_time"`   // HH:MM:SS, local to TimeZone
	TimeZone    string    `json:"time_zone"`    // IANA id or fixed offset (e.g. "+05:30")
	Place       string    `json:"place"`        // Free-text birthplace as entered
	Latitude    float64   `json:"latitude"`     // North positive
	Longitude   float64   `json:"longitude"`    // East positive
	HouseSystem string    `json:"house_system"` // e.g. "placidus"
	CreatedAt   time.Time `json:"created_at"`
}

// BirthMoment resolves the profile's stored fields into a validated BirthMoment
func (p Profile) BirthMoment() (BirthMoment, error) {
	civil, err := ParseCivil(p.BirthDate, p.BirthTime)
	if err != nil {
		return BirthMoment{}, err
	}
	loc, err := ParseZone(p.TimeZone)
	if err != nil {
		return BirthMoment{}, err
	}
	return NewBirthMoment(civil, loc, p.Latitude, p.Longitude)
}
