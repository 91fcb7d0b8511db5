package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// CivilTime is a calendar date and wall-clock time without a zone
type CivilTime struct {
	Year   int
	Month  int
	Day    int
	Hour   int
	Minute int
	Second float64
}

// DaysInMonth returns the length of a month in the proleptic Gregorian calendar
func DaysInMonth(year, month int) int {
	switch month {
	case 2:
		if isLeapYear(year) {
			return 29
		}
		return 28
	case 4, 6, 9, 11:
		return 30
	default:
		return 31
	}
}

func isLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// Validate rejects out-of-range calendar fields. Nothing is clamped.
func (c CivilTime) Validate() error {
	if c.Month < 1 || c.Month > 12 {
		return fmt.Errorf("month %d out of range: %w", c.Month, ErrInvalidDate)
	}
	if c.Day < 1 || c.Day > DaysInMonth(c.Year, c.Month) {
		return fmt.Errorf("day %d out of range for %04d-%02d: %w", c.Day, c.Year, c.Month, ErrInvalidDate)
	}
	if c.Hour < 0 || c.Hour > 23 {
		return fmt.Errorf("hour %d out of range: %w", c.Hour, ErrInvalidDate)
	}
	if c.Minute < 0 || c.Minute > 59 {
		return fmt.Errorf("minute %d out of range: %w", c.Minute, ErrInvalidDate)
	}
	if math.IsNaN(c.Second) || c.Second < 0 || c.Second >= 60 {
		return fmt.Errorf("second %v out of range: %w", c.Second, ErrInvalidDate)
	}
	return nil
}

// In returns the instant this civil time names in loc
func (c CivilTime) In(loc *time.Location) time.Time {
	sec := math.Floor(c.Second)
	nsec := math.Round((c.Second - sec) * 1e9)
	return time.Date(c.Year, time.Month(c.Month), c.Day, c.Hour, c.Minute, int(sec), int(nsec), loc)
}

// String formats as YYYY-MM-DD HH:MM:SS
func (c CivilTime) String() string {
	return fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d", c.Year, c.Month, c.Day, c.Hour, c.Minute, int(c.Second))
}

// CivilFromTime extracts the civil fields of t in its own location
func CivilFromTime(t time.Time) CivilTime {
	return CivilTime{
		Year:   t.Year(),
		Month:  int(t.Month()),
		Day:    t.Day(),
		Hour:   t.Hour(),
		Minute: t.Minute(),
		Second: float64(t.Second()) + float64(t.Nanosecond())/1e9,
	}
}

// ParseCivil parses a "YYYY-MM-DD" date and an "HH:MM" or "HH:MM:SS" clock
func ParseCivil(date, clock string) (CivilTime, error) {
	var c CivilTime

	dateParts := strings.Split(strings.TrimSpace(date), "-")
	// Allow a leading minus for BCE years
	if strings.HasPrefix(strings.TrimSpace(date), "-") && len(dateParts) == 4 {
		dateParts = []string{"-" + dateParts[1], dateParts[2], dateParts[3]}
	}
	if len(dateParts) != 3 {
		return c, fmt.Errorf("date %q: expected YYYY-MM-DD: %w", date, ErrInvalidDate)
	}
	fields := []*int{&c.Year, &c.Month, &c.Day}
	for i, p := range dateParts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return c, fmt.Errorf("date %q: %w", date, ErrInvalidDate)
		}
		*fields[i] = v
	}

	clock = strings.TrimSpace(clock)
	if clock != "" {
		clockParts := strings.Split(clock, ":")
		if len(clockParts) < 2 || len(clockParts) > 3 {
			return c, fmt.Errorf("time %q: expected HH:MM or HH:MM:SS: %w", clock, ErrInvalidDate)
		}
		h, err := strconv.Atoi(clockParts[0])
		if err != nil {
			return c, fmt.Errorf("time %q: %w", clock, ErrInvalidDate)
		}
		m, err := strconv.Atoi(clockParts[1])
		if err != nil {
			return c, fmt.Errorf("time %q: %w", clock, ErrInvalidDate)
		}
		c.Hour, c.Minute = h, m
		if len(clockParts) == 3 {
			s, err := strconv.ParseFloat(clockParts[2], 64)
			if err != nil {
				return c, fmt.Errorf("time %q: %w", clock, ErrInvalidDate)
			}
			c.Second = s
		}
	}

	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

// ParseZone resolves a time-zone identifier or a fixed UTC offset.
// Accepted forms: IANA names ("Europe/Paris"), "UTC", "Z", "+05:30",
// "-0800", "UTC+2", "GMT-03:30".
func ParseZone(s string) (*time.Location, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty time zone: %w", ErrInvalidDate)
	}

	upper := strings.ToUpper(s)
	switch upper {
	case "UTC", "Z", "GMT":
		return time.UTC, nil
	}

	offset := s
	for _, prefix := range []string{"UTC", "GMT"} {
		if strings.HasPrefix(upper, prefix) {
			offset = s[len(prefix):]
			break
		}
	}
	if strings.HasPrefix(offset, "+") || strings.HasPrefix(offset, "-") {
		secs, err := parseOffset(offset)
		if err != nil {
			return nil, fmt.Errorf("time zone %q: %w", s, err)
		}
		return time.FixedZone(formatOffset(secs), secs), nil
	}

	loc, err := time.LoadLocation(s)
	if err != nil {
		return nil, fmt.Errorf("loading time zone %q: %v: %w", s, err, ErrInvalidDate)
	}
	return loc, nil
}

func parseOffset(s string) (int, error) {
	sign := 1
	if s[0] == '-' {
		sign = -1
	}
	body := s[1:]

	var hours, minutes int
	var err error
	switch {
	case strings.Contains(body, ":"):
		parts := strings.SplitN(body, ":", 2)
		if hours, err = strconv.Atoi(parts[0]); err != nil {
			return 0, ErrInvalidDate
		}
		if minutes, err = strconv.Atoi(parts[1]); err != nil {
			return 0, ErrInvalidDate
		}
	case len(body) == 4:
		if hours, err = strconv.Atoi(body[:2]); err != nil {
			return 0, ErrInvalidDate
		}
		if minutes, err = strconv.Atoi(body[2:]); err != nil {
			return 0, ErrInvalidDate
		}
	case len(body) == 1 || len(body) == 2:
		if hours, err = strconv.Atoi(body); err != nil {
			return 0, ErrInvalidDate
		}
	default:
		return 0, ErrInvalidDate
	}

	if hours > 14 || minutes > 59 || hours < 0 || minutes < 0 {
		return 0, ErrInvalidDate
	}
	return sign * (hours*3600 + minutes*60), nil
}

func formatOffset(secs int) string {
	sign := '+'
	if secs < 0 {
		sign = '-'
		secs = -secs
	}
	return fmt.Sprintf("UTC%c%02d:%02d", sign, secs/3600, (secs%3600)/60)
}

// BirthMoment is the resolved input of a chart: a UTC instant and a place.
// Longitude is East positive. A BirthMoment never changes after construction.
type BirthMoment struct {
	local     CivilTime
	location  *time.Location
	utc       time.Time
	latitude  float64
	longitude float64
}

// NewBirthMoment validates the civil time and coordinates and resolves the UTC instant.
// A nil location means the civil time is already UTC. Times skipped by a
// daylight-saving transition are rejected; repeated times resolve to one of
// their two instants.
func NewBirthMoment(local CivilTime, loc *time.Location, latitude, longitude float64) (BirthMoment, error) {
	if err := local.Validate(); err != nil {
		return BirthMoment{}, err
	}
	if err := ValidateLatitude(latitude); err != nil {
		return BirthMoment{}, err
	}
	lon, err := NormalizeLongitude(longitude)
	if err != nil {
		return BirthMoment{}, err
	}
	if loc == nil {
		loc = time.UTC
	}

	// a wall-clock time skipped by a forward transition normalizes to a
	// different civil time
	t := local.In(loc)
	if CivilFromTime(t) != CivilFromTime(local.In(time.UTC)) {
		return BirthMoment{}, fmt.Errorf("%s does not exist in %s: %w", local, loc, ErrInvalidDate)
	}

	return BirthMoment{
		local:     local,
		location:  loc,
		utc:       t.UTC(),
		latitude:  latitude,
		longitude: lon,
	}, nil
}

// ValidateLatitude rejects latitudes outside [-90, 90]
func ValidateLatitude(lat float64) error {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return fmt.Errorf("latitude %v outside [-90, 90]: %w", lat, ErrInvalidCoordinate)
	}
	return nil
}

// NormalizeLongitude folds a longitude in [-180, 360] into [-180, 180], East positive
func NormalizeLongitude(lon float64) (float64, error) {
	if math.IsNaN(lon) || lon < -180 || lon > 360 {
		return 0, fmt.Errorf("longitude %v outside [-180, 360]: %w", lon, ErrInvalidCoordinate)
	}
	if lon > 180 {
		lon -= 360
	}
	return lon, nil
}

func (b BirthMoment) Local() CivilTime         { return b.local }
func (b BirthMoment) Location() *time.Location { return b.location }
func (b BirthMoment) UTC() time.Time           { return b.utc }
func (b BirthMoment) Latitude() float64        { return b.latitude }
func (b BirthMoment) Longitude() float64       { return b.longitude }

// String renders the moment for logs and headers
func (b BirthMoment) String() string {
	return fmt.Sprintf("%s %s (%.4f, %.4f)", b.local, b.location, b.latitude, b.longitude)
}
