// Package julian converts civil UTC date/times to Julian Days
package julian

import (
	"math"
	"time"

	"github.com/ngmaloney/natal-terminal/internal/models"
)

// Day is a Julian Day: days since noon UTC on 1 January 4713 BC (proleptic Julian calendar)
type Day float64

const (
	// J2000 is 2000-01-01 12:00 UTC
	J2000 Day = 2451545.0

	daysPerCentury = 36525.0
)

// FromCivil converts a UTC civil date/time to a Julian Day.
// The day boundary is at 12:00 UTC, so noon has a zero fractional part.
func FromCivil(c models.CivilTime) (Day, error) {
	if err := c.Validate(); err != nil {
		return 0, err
	}

	jdn := dayNumber(c.Year, c.Month, c.Day)
	frac := (float64(c.Hour)-12)/24 + float64(c.Minute)/1440 + c.Second/86400

	return Day(float64(jdn) + frac), nil
}

// FromTime converts an instant to a Julian Day, reading its UTC civil fields
func FromTime(t time.Time) Day {
	c := models.CivilFromTime(t.UTC())
	jdn := dayNumber(c.Year, c.Month, c.Day)
	frac := (float64(c.Hour)-12)/24 + float64(c.Minute)/1440 + c.Second/86400
	return Day(float64(jdn) + frac)
}

// dayNumber is the Fliegel-Van Flandern Julian Day Number of a Gregorian date
func dayNumber(year, month, day int) int {
	a := (14 - month) / 12
	y := year + 4800 - a
	m := month + 12*a - 3
	return day + (153*m+2)/5 + 365*y + floorDiv(y, 4) - floorDiv(y, 100) + floorDiv(y, 400) - 32045
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// Time converts a Julian Day back to a UTC instant
func (d Day) Time() time.Time {
	shifted := float64(d) + 0.5
	jdn := int(math.Floor(shifted))
	frac := shifted - float64(jdn)

	year, month, day := civilDate(jdn)
	nanos := int64(math.Round(frac * 86400 * 1e9))
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC).Add(time.Duration(nanos))
}

// civilDate is the inverse of dayNumber
func civilDate(jdn int) (year, month, day int) {
	a := jdn + 32044
	b := floorDiv(4*a+3, 146097)
	c := a - floorDiv(146097*b, 4)
	d := floorDiv(4*c+3, 1461)
	e := c - floorDiv(1461*d, 4)
	m := floorDiv(5*e+2, 153)

	day = e - floorDiv(153*m+2, 5) + 1
	month = m + 3 - 12*floorDiv(m, 10)
	year = 100*b + d - 4800 + floorDiv(m, 10)
	return
}

// DaysSinceJ2000 returns d - 2451545.0
func (d Day) DaysSinceJ2000() float64 {
	return float64(d - J2000)
}

// Centuries returns Julian centuries since J2000.0
func (d Day) Centuries() float64 {
	return d.DaysSinceJ2000() / daysPerCentury
}
