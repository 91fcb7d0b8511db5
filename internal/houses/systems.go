package houses

import (
	"fmt"
	"math"

	"github.com/ngmaloney/natal-terminal/internal/models"
	"github.com/ngmaloney/natal-terminal/internal/zodiac"
)

// Divider turns a frame into twelve cusp longitudes, house 1 first.
// Rules that cannot be computed for the frame return ErrHouseSystemUndefined.
type Divider interface {
	Cusps(f Frame) ([12]float64, error)
}

// DividerFunc adapts a function to Divider
type DividerFunc func(f Frame) ([12]float64, error)

// Cusps implements Divider
func (fn DividerFunc) Cusps(f Frame) ([12]float64, error) { return fn(f) }

func dividerFor(s System) (Divider, error) {
	switch s {
	case Placidus:
		return DividerFunc(placidusCusps), nil
	case Koch:
		return DividerFunc(kochCusps), nil
	case Porphyry:
		return DividerFunc(porphyryCusps), nil
	case Equal:
		return DividerFunc(equalCusps), nil
	case WholeSign:
		return DividerFunc(wholeSignCusps), nil
	}
	return nil, fmt.Errorf("unsupported house system %s", s)
}

const (
	placidusTolerance = 1e-9
	placidusMaxIter   = 100
)

// quadrantCusps fills the angles and mirrors houses 11, 12, 2, 3 onto 5, 6, 8, 9
func quadrantCusps(f Frame, c11, c12, c2, c3 float64) [12]float64 {
	var c [12]float64
	c[0] = f.Angles.Ascendant
	c[1] = c2
	c[2] = c3
	c[3] = f.Angles.ImumCoeli
	c[9] = f.Angles.Midheaven
	c[10] = c11
	c[11] = c12
	for _, i := range []int{1, 2, 10, 11} {
		c[(i+6)%12] = zodiac.Normalize(c[i] + 180)
	}
	c[6] = f.Angles.Descendant
	return c
}

func checkPolar(f Frame, s System) error {
	if math.Abs(f.Latitude) > PolarLimit {
		return fmt.Errorf("%s beyond %.0f° latitude: %w", s, PolarLimit, models.ErrHouseSystemUndefined)
	}
	return nil
}

// placidusCusps trisects the time each cusp degree takes to travel from the
// horizon to the meridian, iterating because that time depends on the degree
func placidusCusps(f Frame) ([12]float64, error) {
	if err := checkPolar(f, Placidus); err != nil {
		return [12]float64{}, err
	}

	type target struct {
		start    float64 // initial RA offset from RAMC
		fraction float64
		below    bool // below the horizon, measured on the nocturnal arc from the IC
	}
	targets := []target{
		{30, 1.0 / 3, false}, // 11
		{60, 2.0 / 3, false}, // 12
		{120, 2.0 / 3, true}, // 2
		{150, 1.0 / 3, true}, // 3
	}

	var cusps [4]float64
	for i, tg := range targets {
		ra := f.RAMC + tg.start
		converged := false
		for iter := 0; iter < placidusMaxIter; iter++ {
			dec := declination(eclipticFromRA(ra, f.Obliquity), f.Obliquity)
			ad, ok := ascensionalDifference(f.Latitude, dec)
			if !ok {
				return [12]float64{}, fmt.Errorf("placidus cusp never crosses the horizon: %w", models.ErrHouseSystemUndefined)
			}

			var next float64
			if tg.below {
				next = f.RAMC + 180 - tg.fraction*(90-ad)
			} else {
				next = f.RAMC + tg.fraction*(90+ad)
			}

			delta := math.Abs(zodiac.Normalize(next-ra+180) - 180)
			ra = next
			if delta < placidusTolerance {
				converged = true
				break
			}
		}
		if !converged {
			return [12]float64{}, fmt.Errorf("placidus iteration did not converge: %w", models.ErrHouseSystemUndefined)
		}
		cusps[i] = eclipticFromRA(ra, f.Obliquity)
	}

	return quadrantCusps(f, cusps[0], cusps[1], cusps[2], cusps[3]), nil
}

// kochCusps takes the ascendants at the times the MC degree has covered
// thirds of its diurnal semi-arc since rising
func kochCusps(f Frame) ([12]float64, error) {
	if err := checkPolar(f, Koch); err != nil {
		return [12]float64{}, err
	}

	dec := declination(f.Angles.Midheaven, f.Obliquity)
	ad, ok := ascensionalDifference(f.Latitude, dec)
	if !ok {
		return [12]float64{}, fmt.Errorf("koch midheaven never rises: %w", models.ErrHouseSystemUndefined)
	}

	rising := f.RAMC - ad - 90
	step := (90 + ad) / 3
	at := func(k float64) float64 {
		return ascendant(rising+k*step, f.Latitude, f.Obliquity)
	}

	return quadrantCusps(f, at(1), at(2), at(4), at(5)), nil
}

// porphyryCusps trisects each quadrant between the angles in longitude
func porphyryCusps(f Frame) ([12]float64, error) {
	a := f.Angles
	upper := zodiac.Normalize(a.Ascendant - a.Midheaven)
	lower := zodiac.Normalize(a.ImumCoeli - a.Ascendant)

	return quadrantCusps(f,
		a.Midheaven+upper/3,
		a.Midheaven+2*upper/3,
		a.Ascendant+lower/3,
		a.Ascendant+2*lower/3,
	), nil
}

func equalCusps(f Frame) ([12]float64, error) {
	var c [12]float64
	for i := range c {
		c[i] = zodiac.Normalize(f.Angles.Ascendant + 30*float64(i))
	}
	return c, nil
}

func wholeSignCusps(f Frame) ([12]float64, error) {
	sign, _ := zodiac.Resolve(f.Angles.Ascendant)
	var c [12]float64
	for i := range c {
		c[i] = zodiac.Normalize(30 * float64(int(sign)+i))
	}
	return c, nil
}
