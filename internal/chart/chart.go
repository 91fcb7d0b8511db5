// Package chart assembles positions, houses and aspects into a natal chart
package chart

import (
	"sort"

	"github.com/ngmaloney/natal-terminal/internal/aspects"
	"github.com/ngmaloney/natal-terminal/internal/ephemeris"
	"github.com/ngmaloney/natal-terminal/internal/houses"
	"github.com/ngmaloney/natal-terminal/internal/julian"
	"github.com/ngmaloney/natal-terminal/internal/models"
	"github.com/ngmaloney/natal-terminal/internal/zodiac"
)

// Placement is a body's position and the house it falls in
type Placement struct {
	ephemeris.Position
	House int
}

// Chart is an immutable natal chart. Slice accessors return copies.
type Chart struct {
	birth      models.BirthMoment
	jd         julian.Day
	placements []Placement
	cusps      [12]houses.Cusp
	angles     houses.Angles
	aspects    []aspects.Aspect
	system     houses.System
	requested  houses.System
	fallback   bool

	sunSign    zodiac.Sign
	moonSign   zodiac.Sign
	risingSign zodiac.Sign
}

// Assemble builds a chart from already computed parts. Positions are put
// in canonical body order; it does no I/O.
func Assemble(birth models.BirthMoment, jd julian.Day, positions []ephemeris.Position, hr houses.Result, cfg aspects.Config) Chart {
	ordered := make([]ephemeris.Position, len(positions))
	copy(ordered, positions)
	sortPositions(ordered)

	ch := Chart{
		birth:      birth,
		jd:         jd,
		placements: make([]Placement, 0, len(ordered)),
		cusps:      hr.Cusps,
		angles:     hr.Angles,
		aspects:    aspects.Find(ordered, cfg),
		system:     hr.System,
		requested:  hr.Requested,
		fallback:   hr.Fallback,
	}

	for _, p := range ordered {
		p.Longitude = zodiac.Normalize(p.Longitude)
		ch.placements = append(ch.placements, Placement{Position: p, House: houses.HouseOf(p.Longitude, hr.Cusps)})
		switch p.Body {
		case ephemeris.Sun:
			ch.sunSign = p.Sign()
		case ephemeris.Moon:
			ch.moonSign = p.Sign()
		}
	}
	ch.risingSign, _ = zodiac.Resolve(hr.Angles.Ascendant)

	return ch
}

func sortPositions(ps []ephemeris.Position) {
	sort.SliceStable(ps, func(i, j int) bool { return ps[i].Body < ps[j].Body })
}

func (c Chart) Birth() models.BirthMoment { return c.birth }
func (c Chart) JulianDay() julian.Day     { return c.jd }
func (c Chart) Angles() houses.Angles     { return c.angles }
func (c Chart) Cusps() [12]houses.Cusp    { return c.cusps }

// System is the house system actually used, Equal after a polar fallback
func (c Chart) System() houses.System { return c.system }

// Requested is the house system the caller asked for
func (c Chart) Requested() houses.System { return c.requested }

// Fallback reports whether Equal houses replaced an undefined quadrant system
func (c Chart) Fallback() bool { return c.fallback }

func (c Chart) SunSign() zodiac.Sign    { return c.sunSign }
func (c Chart) MoonSign() zodiac.Sign   { return c.moonSign }
func (c Chart) RisingSign() zodiac.Sign { return c.risingSign }

// Placements returns the bodies in canonical order
func (c Chart) Placements() []Placement {
	out := make([]Placement, len(c.placements))
	copy(out, c.placements)
	return out
}

// Placement returns the placement of one body
func (c Chart) Placement(b ephemeris.Body) (Placement, bool) {
	for _, p := range c.placements {
		if p.Body == b {
			return p, true
		}
	}
	return Placement{}, false
}

// Aspects returns the aspects sorted by orb
func (c Chart) Aspects() []aspects.Aspect {
	out := make([]aspects.Aspect, len(c.aspects))
	copy(out, c.aspects)
	return out
}
