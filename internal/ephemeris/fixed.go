package ephemeris

import (
	"context"
	"fmt"

	"github.com/ngmaloney/natal-terminal/internal/julian"
	"github.com/ngmaloney/natal-terminal/internal/models"
	"github.com/ngmaloney/natal-terminal/internal/zodiac"
)

// Fixed returns the same positions regardless of the Julian Day.
// Bodies missing from the map are unavailable.
type Fixed map[Body]Position

// NewFixed builds a Fixed provider from body longitudes with zero speed
func NewFixed(longitudes map[Body]float64) Fixed {
	f := make(Fixed, len(longitudes))
	for b, lon := range longitudes {
		f[b] = Position{Body: b, Longitude: zodiac.Normalize(lon)}
	}
	return f
}

// Position implements Provider
func (f Fixed) Position(ctx context.Context, _ julian.Day, body Body) (Position, error) {
	if err := ctx.Err(); err != nil {
		return Position{}, fmt.Errorf("fixed %s: %v: %w", body, err, models.ErrEphemerisUnavailable)
	}
	p, ok := f[body]
	if !ok {
		return Position{}, fmt.Errorf("fixed: no position for %s: %w", body, models.ErrEphemerisUnavailable)
	}
	p.Body = body
	p.Longitude = zodiac.Normalize(p.Longitude)
	return p, nil
}
