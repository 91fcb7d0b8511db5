package ephemeris

import (
	"context"
	"fmt"
	"math"

	"github.com/ngmaloney/natal-terminal/internal/julian"
	"github.com/ngmaloney/natal-terminal/internal/models"
	"github.com/ngmaloney/natal-terminal/internal/zodiac"
)

// Analytic computes positions from mean orbital elements with the principal
// periodic perturbations of the Moon, Jupiter, Saturn and Uranus. Accuracy is
// on the order of an arcminute for 1800-2200, which is well inside any aspect orb.
type Analytic struct {
	// speedStep is the half-width in days of the central difference used for speed
	speedStep float64
}

// NewAnalytic creates an analytic provider
func NewAnalytic() *Analytic {
	return &Analytic{speedStep: 0.5}
}

// Position implements Provider
func (a *Analytic) Position(ctx context.Context, jd julian.Day, body Body) (Position, error) {
	if err := ctx.Err(); err != nil {
		return Position{}, fmt.Errorf("analytic %s: %v: %w", body, err, models.ErrEphemerisUnavailable)
	}
	if body < Sun || body > NorthNode {
		return Position{}, fmt.Errorf("analytic: unsupported body %s: %w", body, models.ErrEphemerisUnavailable)
	}

	lon := Longitude(jd, body)
	before := Longitude(jd-julian.Day(a.speedStep), body)
	after := Longitude(jd+julian.Day(a.speedStep), body)

	speed := wrap180(after-before) / (2 * a.speedStep)
	if !finite(lon) || !finite(speed) {
		return Position{}, fmt.Errorf("analytic %s: no finite position at jd %v: %w", body, float64(jd), models.ErrEphemerisUnavailable)
	}

	return Position{
		Body:      body,
		Longitude: lon,
		Speed:     speed,
	}, nil
}

// Longitude returns the geocentric tropical ecliptic longitude of body at jd
func Longitude(jd julian.Day, body Body) float64 {
	// Elements are expressed in days from 2000 Jan 0.0 UT
	d := float64(jd) - 2451543.5

	switch body {
	case Sun:
		lon, _ := sunPosition(d)
		return lon
	case Moon:
		return moonLongitude(d)
	case NorthNode:
		return meanNode(jd.Centuries())
	case Pluto:
		lon, lat, r := plutoHeliocentric(d)
		return geocentric(d, lon, lat, r)
	default:
		lon, lat, r := heliocentric(elementsOf(body, d))
		lon += planetPerturbation(body, d)
		return geocentric(d, lon, lat, r)
	}
}

type elements struct {
	node         float64 // longitude of the ascending node
	inclination  float64
	perihelion   float64 // argument of perihelion
	semiMajor    float64
	eccentricity float64
	meanAnomaly  float64
}

func elementsOf(body Body, d float64) elements {
	switch body {
	case Sun:
		return elements{0, 0, 282.9404 + 4.70935e-5*d, 1.0, 0.016709 - 1.151e-9*d, 356.0470 + 0.9856002585*d}
	case Moon:
		return elements{125.1228 - 0.0529538083*d, 5.1454, 318.0634 + 0.1643573223*d, 60.2666, 0.054900, 115.3654 + 13.0649929509*d}
	case Mercury:
		return elements{48.3313 + 3.24587e-5*d, 7.0047 + 5.00e-8*d, 29.1241 + 1.01444e-5*d, 0.387098, 0.205635 + 5.59e-10*d, 168.6562 + 4.0923344368*d}
	case Venus:
		return elements{76.6799 + 2.46590e-5*d, 3.3946 + 2.75e-8*d, 54.8910 + 1.38374e-5*d, 0.723330, 0.006773 - 1.302e-9*d, 48.0052 + 1.6021302244*d}
	case Mars:
		return elements{49.5574 + 2.11081e-5*d, 1.8497 - 1.78e-8*d, 286.5016 + 2.92961e-5*d, 1.523688, 0.093405 + 2.516e-9*d, 18.6021 + 0.5240207766*d}
	case Jupiter:
		return elements{100.4542 + 2.76854e-5*d, 1.3030 - 1.557e-7*d, 273.8777 + 1.64505e-5*d, 5.20256, 0.048498 + 4.469e-9*d, 19.8950 + 0.0830853001*d}
	case Saturn:
		return elements{113.6634 + 2.38980e-5*d, 2.4886 - 1.081e-7*d, 339.3939 + 2.97661e-5*d, 9.55475, 0.055546 - 9.499e-9*d, 316.9670 + 0.0334442282*d}
	case Uranus:
		return elements{74.0005 + 1.3978e-5*d, 0.7733 + 1.9e-8*d, 96.6612 + 3.0565e-5*d, 19.18171 - 1.55e-8*d, 0.047318 + 7.45e-9*d, 142.5905 + 0.011725806*d}
	case Neptune:
		return elements{131.7806 + 3.0173e-5*d, 1.7700 - 2.55e-7*d, 272.8461 - 6.027e-6*d, 30.05826 + 3.313e-8*d, 0.008606 + 2.15e-9*d, 260.2471 + 0.005995147*d}
	}
	panic(fmt.Sprintf("no orbital elements for %s", body))
}

// eccentricAnomaly solves Kepler's equation by Newton iteration, in degrees
func eccentricAnomaly(meanAnomaly, e float64) float64 {
	m := zodiac.Normalize(meanAnomaly)
	ecc := e * 180 / math.Pi
	E := m + ecc*sind(m)*(1+e*cosd(m))
	for i := 0; i < 30; i++ {
		delta := (E - ecc*sind(E) - m) / (1 - e*cosd(E))
		E -= delta
		if math.Abs(delta) < 1e-9 {
			break
		}
	}
	return E
}

// orbitPlane returns true anomaly and distance in the orbital plane
func orbitPlane(el elements) (v, r float64) {
	E := eccentricAnomaly(el.meanAnomaly, el.eccentricity)
	xv := el.semiMajor * (cosd(E) - el.eccentricity)
	yv := el.semiMajor * math.Sqrt(1-el.eccentricity*el.eccentricity) * sind(E)
	return atan2d(yv, xv), math.Hypot(xv, yv)
}

// heliocentric returns ecliptic longitude, latitude and distance
func heliocentric(el elements) (lon, lat, r float64) {
	v, r := orbitPlane(el)
	u := v + el.perihelion
	n, i := el.node, el.inclination

	x := r * (cosd(n)*cosd(u) - sind(n)*sind(u)*cosd(i))
	y := r * (sind(n)*cosd(u) + cosd(n)*sind(u)*cosd(i))
	z := r * sind(u) * sind(i)

	return atan2d(y, x), atan2d(z, math.Hypot(x, y)), r
}

func sunPosition(d float64) (lon, r float64) {
	el := elementsOf(Sun, d)
	v, r := orbitPlane(el)
	return zodiac.Normalize(v + el.perihelion), r
}

// geocentric shifts a heliocentric position to the Earth's center
func geocentric(d, lon, lat, r float64) float64 {
	sunLon, sunR := sunPosition(d)
	x := r*cosd(lon)*cosd(lat) + sunR*cosd(sunLon)
	y := r*sind(lon)*cosd(lat) + sunR*sind(sunLon)
	return zodiac.Normalize(atan2d(y, x))
}

func moonLongitude(d float64) float64 {
	moon := elementsOf(Moon, d)
	sun := elementsOf(Sun, d)
	lon, _, _ := heliocentric(moon)

	ms := zodiac.Normalize(sun.meanAnomaly)
	mm := zodiac.Normalize(moon.meanAnomaly)
	ls := ms + sun.perihelion
	lm := mm + moon.perihelion + moon.node
	D := lm - ls
	F := lm - moon.node

	lon += -1.274*sind(mm-2*D) +
		0.658*sind(2*D) -
		0.186*sind(ms) -
		0.059*sind(2*mm-2*D) -
		0.057*sind(mm-2*D+ms) +
		0.053*sind(mm+2*D) +
		0.046*sind(2*D-ms) +
		0.041*sind(mm-ms) -
		0.035*sind(D) -
		0.031*sind(mm+ms) -
		0.015*sind(2*F-2*D) +
		0.011*sind(mm-4*D)

	return zodiac.Normalize(lon)
}

// planetPerturbation is the longitude correction from the great inequality
// of Jupiter and Saturn and the Saturn/Jupiter terms acting on Uranus
func planetPerturbation(body Body, d float64) float64 {
	mj := elementsOf(Jupiter, d).meanAnomaly
	ms := elementsOf(Saturn, d).meanAnomaly
	mu := elementsOf(Uranus, d).meanAnomaly

	switch body {
	case Jupiter:
		return -0.332*sind(2*mj-5*ms-67.6) -
			0.056*sind(2*mj-2*ms+21) +
			0.042*sind(3*mj-5*ms+21) -
			0.036*sind(mj-2*ms) +
			0.022*cosd(mj-ms) +
			0.023*sind(2*mj-3*ms+52) -
			0.016*sind(mj-5*ms-69)
	case Saturn:
		return 0.812*sind(2*mj-5*ms-67.6) -
			0.229*cosd(2*mj-4*ms-2) +
			0.119*sind(mj-2*ms-3) +
			0.046*sind(2*mj-6*ms-69) +
			0.014*sind(mj-3*ms+32)
	case Uranus:
		return 0.040*sind(ms-2*mu+6) +
			0.035*sind(ms-3*mu+33) -
			0.015*sind(mj-mu+20)
	}
	return 0
}

// plutoHeliocentric uses a periodic series fitted to J2000 coordinates,
// then precesses the longitude to the equinox of date
func plutoHeliocentric(d float64) (lon, lat, r float64) {
	s := 50.03 + 0.033459652*d
	p := 238.95 + 0.003968789*d

	lon = 238.9508 + 0.00400703*d -
		19.799*sind(p) + 19.848*cosd(p) +
		0.897*sind(2*p) - 4.956*cosd(2*p) +
		0.610*sind(3*p) + 1.211*cosd(3*p) -
		0.341*sind(4*p) - 0.190*cosd(4*p) +
		0.128*sind(5*p) - 0.034*cosd(5*p) -
		0.038*sind(6*p) + 0.031*cosd(6*p) +
		0.020*sind(s-p) - 0.010*cosd(s-p)

	lat = -3.9082 -
		5.453*sind(p) - 14.975*cosd(p) +
		3.527*sind(2*p) + 1.673*cosd(2*p) -
		1.051*sind(3*p) + 0.328*cosd(3*p) +
		0.179*sind(4*p) - 0.292*cosd(4*p) +
		0.019*sind(5*p) + 0.100*cosd(5*p) -
		0.031*sind(6*p) - 0.026*cosd(6*p) +
		0.011*cosd(s-p)

	r = 40.72 +
		6.68*sind(p) + 6.90*cosd(p) -
		1.18*sind(2*p) - 0.03*cosd(2*p) +
		0.15*sind(3*p) - 0.14*cosd(3*p)

	lon += 3.82394e-5 * d
	return lon, lat, r
}

// meanNode is the mean longitude of the Moon's ascending node
func meanNode(t float64) float64 {
	return zodiac.Normalize(125.04452 - 1934.136261*t + 0.0020708*t*t + t*t*t/450000)
}

func finite(x float64) bool { return !math.IsNaN(x) && !math.IsInf(x, 0) }

func sind(deg float64) float64    { return math.Sin(deg * math.Pi / 180) }
func cosd(deg float64) float64    { return math.Cos(deg * math.Pi / 180) }
func atan2d(y, x float64) float64 { return math.Atan2(y, x) * 180 / math.Pi }

// wrap180 folds an angle difference into [-180, 180)
func wrap180(deg float64) float64 {
	return zodiac.Normalize(deg+180) - 180
}
