// Package houses divides the sky of a birth place into twelve houses and finds the chart angles
package houses

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ngmaloney/natal-terminal/internal/julian"
	"github.com/ngmaloney/natal-terminal/internal/models"
	"github.com/ngmaloney/natal-terminal/internal/zodiac"
)

// System names a house division rule
type System int

const (
	Placidus System = iota
	Koch
	Porphyry
	Equal
	WholeSign
)

var systemNames = map[System]string{
	Placidus:  "placidus",
	Koch:      "koch",
	Porphyry:  "porphyry",
	Equal:     "equal",
	WholeSign: "whole-sign",
}

func (s System) String() string {
	if name, ok := systemNames[s]; ok {
		return name
	}
	return fmt.Sprintf("System(%d)", int(s))
}

// Quadrant reports whether the system depends on diurnal semi-arcs
func (s System) Quadrant() bool {
	return s == Placidus || s == Koch
}

// Systems returns every supported system
func Systems() []System {
	return []System{Placidus, Koch, Porphyry, Equal, WholeSign}
}

// ParseSystem accepts a system name, case-insensitive
func ParseSystem(s string) (System, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "placidus", "p":
		return Placidus, nil
	case "koch", "k":
		return Koch, nil
	case "porphyry", "o":
		return Porphyry, nil
	case "equal", "e":
		return Equal, nil
	case "whole-sign", "whole_sign", "wholesign", "whole", "w":
		return WholeSign, nil
	}
	return 0, fmt.Errorf("unknown house system %q", s)
}

// PolarPolicy decides what happens when a quadrant system is undefined at a latitude
type PolarPolicy int

const (
	// PolarFallback computes Equal houses and flags the result
	PolarFallback PolarPolicy = iota
	// PolarStrict returns ErrHouseSystemUndefined
	PolarStrict
)

func (p PolarPolicy) String() string {
	if p == PolarStrict {
		return "strict"
	}
	return "fallback"
}

// ParsePolarPolicy accepts "fallback" or "strict"
func ParsePolarPolicy(s string) (PolarPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "fallback":
		return PolarFallback, nil
	case "strict":
		return PolarStrict, nil
	}
	return 0, fmt.Errorf("unknown polar policy %q", s)
}

// PolarLimit is the latitude beyond which quadrant systems are not computed
const PolarLimit = 66.0

// Cusp is the starting longitude of a house
type Cusp struct {
	House     int     `json:"house"`
	Longitude float64 `json:"longitude"`
}

// Angles are the four chart angles
type Angles struct {
	Ascendant  float64 `json:"ascendant"`
	Midheaven  float64 `json:"midheaven"`
	Descendant float64 `json:"descendant"`
	ImumCoeli  float64 `json:"imum_coeli"`
}

// NewAngles derives the Descendant and IC from the Ascendant and Midheaven
func NewAngles(asc, mc float64) Angles {
	asc = zodiac.Normalize(asc)
	mc = zodiac.Normalize(mc)
	return Angles{
		Ascendant:  asc,
		Midheaven:  mc,
		Descendant: zodiac.Normalize(asc + 180),
		ImumCoeli:  zodiac.Normalize(mc + 180),
	}
}

// Result is a computed house division
type Result struct {
	Cusps     [12]Cusp
	Angles    Angles
	System    System // system actually used
	Requested System
	Fallback  bool // quadrant system was undefined and Equal was used instead
}

// Options tunes Compute
type Options struct {
	Policy PolarPolicy
	// Divider replaces the built-in rule for the requested system when set
	Divider Divider
}

// Compute divides the sky at jd for a place. Longitude is east positive.
func Compute(jd julian.Day, latitude, longitude float64, system System, opts Options) (Result, error) {
	if err := models.ValidateLatitude(latitude); err != nil {
		return Result{}, err
	}
	lon, err := models.NormalizeLongitude(longitude)
	if err != nil {
		return Result{}, err
	}

	div := opts.Divider
	if div == nil {
		div, err = dividerFor(system)
		if err != nil {
			return Result{}, err
		}
	}

	frame := NewFrame(jd, latitude, lon)
	res := Result{Angles: frame.Angles, System: system, Requested: system}

	longitudes, err := div.Cusps(frame)
	if errors.Is(err, models.ErrHouseSystemUndefined) && opts.Policy == PolarFallback {
		longitudes, err = equalCusps(frame)
		res.System = Equal
		res.Fallback = true
	}
	if err != nil {
		return Result{}, fmt.Errorf("computing %s houses at latitude %.4f: %w", system, latitude, err)
	}

	for i, l := range longitudes {
		res.Cusps[i] = Cusp{House: i + 1, Longitude: zodiac.Normalize(l)}
	}
	return res, nil
}

// HouseOf returns the house h whose span [cusp_h, cusp_h+1) contains lon,
// wrapping from house 12 back to house 1
func HouseOf(lon float64, cusps [12]Cusp) int {
	lon = zodiac.Normalize(lon)
	for i := 0; i < 12; i++ {
		start := cusps[i].Longitude
		span := zodiac.Normalize(cusps[(i+1)%12].Longitude - start)
		if zodiac.Normalize(lon-start) < span {
			return i + 1
		}
	}
	// degenerate cusps (all equal); everything is in house 1
	return 1
}
