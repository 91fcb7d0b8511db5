// Package zodiac maps ecliptic longitudes onto the twelve tropical signs
package zodiac

import (
	"fmt"
	"math"
	"strings"
)

// Sign is a zodiac sign index, 0 = Aries .. 11 = Pisces
type Sign int

const (
	Aries Sign = iota
	Taurus
	Gemini
	Cancer
	Leo
	Virgo
	Libra
	Scorpio
	Sagittarius
	Capricorn
	Aquarius
	Pisces
)

var signNames = [12]string{
	"Aries", "Taurus", "Gemini", "Cancer", "Leo", "Virgo",
	"Libra", "Scorpio", "Sagittarius", "Capricorn", "Aquarius", "Pisces",
}

// Element is the classical element of a sign
type Element string

const (
	Fire  Element = "fire"
	Earth Element = "earth"
	Air   Element = "air"
	Water Element = "water"
)

// Modality is the quality of a sign
type Modality string

const (
	Cardinal Modality = "cardinal"
	Fixed    Modality = "fixed"
	Mutable  Modality = "mutable"
)

func (s Sign) String() string {
	if s < 0 || s > 11 {
		return fmt.Sprintf("Sign(%d)", int(s))
	}
	return signNames[s]
}

// Abbrev returns the three-letter abbreviation, e.g. "Sag"
func (s Sign) Abbrev() string {
	return s.String()[:3]
}

// Element returns fire/earth/air/water in the Aries..Pisces cycle
func (s Sign) Element() Element {
	return [4]Element{Fire, Earth, Air, Water}[int(s)%4]
}

// Modality returns cardinal/fixed/mutable in the Aries..Pisces cycle
func (s Sign) Modality() Modality {
	return [3]Modality{Cardinal, Fixed, Mutable}[int(s)%3]
}

// Start is the ecliptic longitude of 0° of the sign
func (s Sign) Start() float64 {
	return float64(s) * 30
}

// ParseSign accepts a full sign name or its abbreviation, case-insensitive
func ParseSign(name string) (Sign, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range signNames {
		if strings.ToLower(n) == name || strings.ToLower(n[:3]) == name {
			return Sign(i), nil
		}
	}
	return 0, fmt.Errorf("unknown sign %q", name)
}

// Normalize folds any angle into [0, 360)
func Normalize(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	// -1e-15 + 360 rounds to 360
	if deg >= 360 {
		deg = 0
	}
	return deg
}

// Resolve splits a longitude into its sign and the degrees within that sign.
// For every longitude L in [0,360): sign*30 + degrees == L.
func Resolve(longitude float64) (Sign, float64) {
	lon := Normalize(longitude)
	sign := int(math.Floor(lon / 30))
	deg := lon - float64(sign)*30
	// lon/30 can round across a sign boundary
	if deg < 0 {
		sign--
		deg = lon - float64(sign)*30
	} else if deg >= 30 {
		sign++
		deg = lon - float64(sign)*30
	}
	return Sign(sign % 12), deg
}

// Separation is the shorter arc between two longitudes, in [0, 180]
func Separation(a, b float64) float64 {
	d := math.Abs(Normalize(a) - Normalize(b))
	if d > 180 {
		d = 360 - d
	}
	return d
}

// FormatDMS renders degrees as 12°34'56"
func FormatDMS(deg float64) string {
	sign := ""
	if deg < 0 {
		sign = "-"
		deg = -deg
	}
	totalSeconds := int(math.Round(deg * 3600))
	d := totalSeconds / 3600
	m := (totalSeconds % 3600) / 60
	s := totalSeconds % 60
	return fmt.Sprintf("%s%d°%02d'%02d\"", sign, d, m, s)
}

// FormatPosition renders a longitude as "15°20' Leo"
func FormatPosition(longitude float64) string {
	sign, deg := Resolve(longitude)
	totalMinutes := int(math.Floor(deg * 60))
	return fmt.Sprintf("%2d°%02d' %s", totalMinutes/60, totalMinutes%60, sign)
}
