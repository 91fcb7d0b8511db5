package houses

import (
	"math"

	"github.com/ngmaloney/natal-terminal/internal/julian"
	"github.com/ngmaloney/natal-terminal/internal/zodiac"
)

// Frame is the local sky at the birth moment that every division rule works from
type Frame struct {
	JD        julian.Day
	Latitude  float64 // geographic, north positive
	Longitude float64 // geographic, east positive
	RAMC      float64 // right ascension of the meridian (local sidereal time in degrees)
	Obliquity float64 // of the ecliptic
	Angles    Angles
}

// NewFrame computes sidereal time, obliquity and the chart angles for a place and moment
func NewFrame(jd julian.Day, latitude, longitude float64) Frame {
	ramc := zodiac.Normalize(SiderealTime(jd) + longitude)
	eps := Obliquity(jd)
	return Frame{
		JD:        jd,
		Latitude:  latitude,
		Longitude: longitude,
		RAMC:      ramc,
		Obliquity: eps,
		Angles:    NewAngles(ascendant(ramc, latitude, eps), midheaven(ramc, eps)),
	}
}

// SiderealTime is Greenwich mean sidereal time in degrees
func SiderealTime(jd julian.Day) float64 {
	d := jd.DaysSinceJ2000()
	t := jd.Centuries()
	return zodiac.Normalize(280.46061837 + 360.98564736629*d + 0.000387933*t*t - t*t*t/38710000)
}

// Obliquity is the mean obliquity of the ecliptic in degrees
func Obliquity(jd julian.Day) float64 {
	t := jd.Centuries()
	return 23.43929111 - 0.013004167*t - 1.6389e-7*t*t + 5.0361e-7*t*t*t
}

func midheaven(ramc, eps float64) float64 {
	return zodiac.Normalize(atan2d(sind(ramc), cosd(ramc)*cosd(eps)))
}

// ascendant is the ecliptic degree rising in the east for a given RAMC
func ascendant(ramc, lat, eps float64) float64 {
	return zodiac.Normalize(atan2d(cosd(ramc), -(sind(ramc)*cosd(eps) + tand(lat)*sind(eps))))
}

// eclipticFromRA converts a right ascension on the ecliptic to longitude
func eclipticFromRA(ra, eps float64) float64 {
	return zodiac.Normalize(atan2d(sind(ra), cosd(ra)*cosd(eps)))
}

// declination of an ecliptic point with zero latitude
func declination(lon, eps float64) float64 {
	return asind(sind(eps) * sind(lon))
}

// ascensionalDifference returns false when the point never rises or sets at lat
func ascensionalDifference(lat, dec float64) (float64, bool) {
	x := tand(lat) * tand(dec)
	if math.IsNaN(x) || x < -1 || x > 1 {
		return 0, false
	}
	return asind(x), true
}

func sind(deg float64) float64    { return math.Sin(deg * math.Pi / 180) }
func cosd(deg float64) float64    { return math.Cos(deg * math.Pi / 180) }
func tand(deg float64) float64    { return math.Tan(deg * math.Pi / 180) }
func asind(x float64) float64     { return math.Asin(x) * 180 / math.Pi }
func atan2d(y, x float64) float64 { return math.Atan2(y, x) * 180 / math.Pi }
