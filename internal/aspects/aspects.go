// Package aspects finds the angular relationships between chart bodies
package aspects

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ngmaloney/natal-terminal/internal/ephemeris"
	"github.com/ngmaloney/natal-terminal/internal/zodiac"
)

// Type is an aspect kind, ordered by ideal angle
type Type int

const (
	Conjunction Type = iota
	Semisextile
	Sextile
	Square
	Trine
	Quincunx
	Opposition
)

var typeInfo = []struct {
	name  string
	angle float64
}{
	{"conjunction", 0},
	{"semisextile", 30},
	{"sextile", 60},
	{"square", 90},
	{"trine", 120},
	{"quincunx", 150},
	{"opposition", 180},
}

// Types returns every aspect type in ideal-angle order
func Types() []Type {
	out := make([]Type, len(typeInfo))
	for i := range out {
		out[i] = Type(i)
	}
	return out
}

func (t Type) String() string {
	if t < 0 || int(t) >= len(typeInfo) {
		return fmt.Sprintf("Type(%d)", int(t))
	}
	return typeInfo[t].name
}

// Angle is the ideal separation in degrees
func (t Type) Angle() float64 {
	return typeInfo[t].angle
}

// ParseType accepts an aspect name, case-insensitive
func ParseType(s string) (Type, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, t := range Types() {
		if t.String() == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown aspect type %q", s)
}

// Strength grades how exact an aspect is
type Strength string

const (
	Strong Strength = "strong"
	Medium Strength = "medium"
	Weak   Strength = "weak"
)

// Aspect is a relationship between two bodies. A precedes B in canonical body order.
type Aspect struct {
	A          ephemeris.Body
	B          ephemeris.Body
	Type       Type
	Separation float64 // actual shorter arc between the bodies
	Orb        float64 // |Separation - Type.Angle()|
	Strength   Strength
}

// Angle is the ideal angle of the aspect type
func (a Aspect) Angle() float64 {
	return a.Type.Angle()
}

func (a Aspect) String() string {
	return fmt.Sprintf("%s %s %s (orb %s, %s)", a.A, a.Type, a.B, zodiac.FormatDMS(a.Orb), a.Strength)
}

// Config holds the maximum orb per aspect type and the strength thresholds
type Config struct {
	Orbs      map[Type]float64
	TightOrb  float64
	MediumOrb float64
	// WideOrb caps every per-type orb
	WideOrb float64
}

// DefaultConfig returns the standard orb table
func DefaultConfig() Config {
	return Config{
		Orbs: map[Type]float64{
			Conjunction: 8,
			Opposition:  8,
			Trine:       8,
			Square:      8,
			Sextile:     6,
			Quincunx:    3,
			Semisextile: 3,
		},
		TightOrb:  1,
		MediumOrb: 3,
		WideOrb:   8,
	}
}

// Validate rejects negative or non-finite orbs and inverted strength thresholds
func (c Config) Validate() error {
	for t, orb := range c.Orbs {
		if math.IsNaN(orb) || math.IsInf(orb, 0) || orb < 0 {
			return fmt.Errorf("orb for %s must be a non-negative number, got %v", t, orb)
		}
	}
	for name, v := range map[string]float64{"tight": c.TightOrb, "medium": c.MediumOrb, "wide": c.WideOrb} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("%s orb must be a non-negative number, got %v", name, v)
		}
	}
	if c.TightOrb > c.MediumOrb || c.MediumOrb > c.WideOrb {
		return fmt.Errorf("orb thresholds must satisfy tight <= medium <= wide, got %v/%v/%v", c.TightOrb, c.MediumOrb, c.WideOrb)
	}
	return nil
}

func (c Config) strength(orb float64) Strength {
	switch {
	case orb <= c.TightOrb:
		return Strong
	case orb <= c.MediumOrb:
		return Medium
	}
	return Weak
}

// Find returns every aspect between distinct bodies in positions. Each pair
// yields at most one aspect, the type with the smallest residual, ties going
// to the smaller ideal angle. Results are sorted by orb and then by pair.
func Find(positions []ephemeris.Position, cfg Config) []Aspect {
	ordered := make([]ephemeris.Position, len(positions))
	copy(ordered, positions)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Body < ordered[j].Body })

	var out []Aspect
	for i := 0; i < len(ordered); i++ {
		for j := i + 1; j < len(ordered); j++ {
			a, b := ordered[i], ordered[j]
			if a.Body == b.Body {
				continue
			}
			if asp, ok := Between(a, b, cfg); ok {
				out = append(out, asp)
			}
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Orb != out[j].Orb {
			return out[i].Orb < out[j].Orb
		}
		if out[i].A != out[j].A {
			return out[i].A < out[j].A
		}
		return out[i].B < out[j].B
	})
	return out
}

// Between finds the closest aspect between two positions, if any is within orb
func Between(a, b ephemeris.Position, cfg Config) (Aspect, bool) {
	if b.Body < a.Body {
		a, b = b, a
	}
	sep := zodiac.Separation(a.Longitude, b.Longitude)

	best := Aspect{}
	found := false
	for _, t := range Types() {
		limit := math.Min(cfg.Orbs[t], cfg.WideOrb)
		if limit <= 0 {
			continue
		}
		residual := math.Abs(sep - t.Angle())
		if residual > limit {
			continue
		}
		// strict comparison keeps the smaller ideal angle on ties
		if !found || residual < best.Orb {
			best = Aspect{A: a.Body, B: b.Body, Type: t, Separation: sep, Orb: residual}
			found = true
		}
	}
	if !found {
		return Aspect{}, false
	}
	best.Strength = cfg.strength(best.Orb)
	return best, true
}
