// Package ephemeris supplies geocentric ecliptic longitudes of chart bodies
package ephemeris

import (
	"context"
	"fmt"
	"strings"

	"github.com/ngmaloney/natal-terminal/internal/julian"
	"github.com/ngmaloney/natal-terminal/internal/zodiac"
)

// Body identifies a chart body. The order of the constants is the canonical
// output order and has no other meaning.
type Body int

const (
	Sun Body = iota
	Moon
	Mercury
	Venus
	Mars
	Jupiter
	Saturn
	Uranus
	Neptune
	Pluto
	NorthNode
)

var bodyNames = []string{
	"Sun", "Moon", "Mercury", "Venus", "Mars", "Jupiter",
	"Saturn", "Uranus", "Neptune", "Pluto", "North Node",
}

// Bodies returns every body in canonical order
func Bodies() []Body {
	out := make([]Body, len(bodyNames))
	for i := range out {
		out[i] = Body(i)
	}
	return out
}

func (b Body) String() string {
	if b < 0 || int(b) >= len(bodyNames) {
		return fmt.Sprintf("Body(%d)", int(b))
	}
	return bodyNames[b]
}

// Key is the lowercase identifier used in URLs and database rows, e.g. "north_node"
func (b Body) Key() string {
	return strings.ReplaceAll(strings.ToLower(b.String()), " ", "_")
}

// ParseBody accepts a body name or key, case-insensitive
func ParseBody(s string) (Body, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "_")
	for _, b := range Bodies() {
		if b.Key() == s {
			return b, nil
		}
	}
	switch s {
	case "node", "mean_node", "true_node", "rahu":
		return NorthNode, nil
	}
	return 0, fmt.Errorf("unknown body %q", s)
}

// Position is a body's geocentric ecliptic longitude and daily motion
type Position struct {
	Body      Body    `json:"body"`
	Longitude float64 `json:"longitude"` // degrees, [0, 360)
	Speed     float64 `json:"speed"`     // degrees per day, negative when retrograde
}

// Sign returns the zodiac sign containing the position
func (p Position) Sign() zodiac.Sign {
	s, _ := zodiac.Resolve(p.Longitude)
	return s
}

// DegreesInSign returns the offset from the start of the sign, [0, 30)
func (p Position) DegreesInSign() float64 {
	_, d := zodiac.Resolve(p.Longitude)
	return d
}

// Retrograde reports apparent backward motion
func (p Position) Retrograde() bool {
	return p.Speed < 0
}

// Provider returns the position of a body at a Julian Day.
// Implementations must return longitudes normalized to [0, 360) and must be
// safe for concurrent use.
type Provider interface {
	Position(ctx context.Context, jd julian.Day, body Body) (Position, error)
}
