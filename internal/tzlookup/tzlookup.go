// Package tzlookup resolves coordinates to IANA time-zone ids using
// timezone-boundary-builder polygons stored in SQLite
package tzlookup

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/ngmaloney/natal-terminal/internal/models"
)

// tableName holds one row per zone polygon with its bounding box
const tableName = "tz_boundaries"

// NearbyKM is how far outside every polygon a point may fall (coastal
// geocodes often land just offshore) and still take the closest zone
const NearbyKM = 25.0

// ErrNotProvisioned is returned when the boundary table has not been built
var ErrNotProvisioned = errors.New("time-zone boundaries not provisioned")

// Match is the result of a lookup
type Match struct {
	TZID string `json:"tzid"`
	// Nearest is set when the point fell outside every polygon and the
	// closest zone within NearbyKM was taken
	Nearest bool `json:"nearest,omitempty"`
	// Nautical is set when no polygon was near and the zone is the
	// fixed Etc/GMT offset for the longitude
	Nautical bool `json:"nautical,omitempty"`
}

// Resolver answers lookups against the boundary table
type Resolver struct {
	db *sql.DB
}

// NewResolver wraps an open database holding the boundary table
func NewResolver(db *sql.DB) *Resolver {
	return &Resolver{db: db}
}

// ring is a closed polygon ring as [lon, lat] pairs
type ring [][2]float64

// Lookup returns the time zone containing lat/lon
func (r *Resolver) Lookup(ctx context.Context, lat, lon float64) (Match, error) {
	if err := models.ValidateLatitude(lat); err != nil {
		return Match{}, err
	}
	lon, err := models.NormalizeLongitude(lon)
	if err != nil {
		return Match{}, err
	}

	var count int
	err = r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", tableName).Scan(&count)
	if err != nil {
		return Match{}, fmt.Errorf("checking for %s table: %w", tableName, err)
	}
	if count == 0 {
		return Match{}, ErrNotProvisioned
	}

	// Search a margin around the point so the nearest-zone fallback sees
	// polygons whose boxes stop just short of it
	margin := NearbyKM / 111.0 / math.Max(math.Cos(lat*math.Pi/180), 0.1)
	rows, err := r.db.QueryContext(ctx, `
		SELECT tzid, geometry,
		       bbox_min_lat <= ? AND bbox_max_lat >= ? AND bbox_min_lon <= ? AND bbox_max_lon >= ?
		FROM tz_boundaries
		WHERE bbox_min_lat <= ? AND bbox_max_lat >= ?
		  AND bbox_min_lon <= ? AND bbox_max_lon >= ?
	`, lat, lat, lon, lon,
		lat+margin, lat-margin, lon+margin, lon-margin)
	if err != nil {
		return Match{}, fmt.Errorf("querying boundaries: %w", err)
	}
	defer rows.Close()

	nearestID := ""
	nearestKM := math.Inf(1)
	for rows.Next() {
		var tzid, geometry string
		var inBox bool
		if err := rows.Scan(&tzid, &geometry, &inBox); err != nil {
			return Match{}, fmt.Errorf("scanning boundary: %w", err)
		}

		var rings []ring
		if err := json.Unmarshal([]byte(geometry), &rings); err != nil {
			return Match{}, fmt.Errorf("decoding geometry for %s: %w", tzid, err)
		}

		if inBox && contains(rings, lat, lon) {
			return Match{TZID: tzid}, nil
		}
		if d := distanceKM(rings, lat, lon); d < nearestKM {
			nearestKM = d
			nearestID = tzid
		}
	}
	if err := rows.Err(); err != nil {
		return Match{}, fmt.Errorf("reading boundaries: %w", err)
	}

	if nearestID != "" && nearestKM <= NearbyKM {
		return Match{TZID: nearestID, Nearest: true}, nil
	}
	return Match{TZID: nauticalZone(lon), Nautical: true}, nil
}

// Location resolves lat/lon straight to a loaded *time.Location
func (r *Resolver) Location(ctx context.Context, lat, lon float64) (*time.Location, error) {
	m, err := r.Lookup(ctx, lat, lon)
	if err != nil {
		return nil, err
	}
	loc, err := time.LoadLocation(m.TZID)
	if err != nil {
		return nil, fmt.Errorf("loading zone %s: %w", m.TZID, err)
	}
	return loc, nil
}

// contains applies the even-odd rule across every ring, so holes and
// multi-part zones need no special handling
func contains(rings []ring, lat, lon float64) bool {
	inside := false
	for _, rg := range rings {
		n := len(rg)
		for i, j := 0, n-1; i < n; j, i = i, i+1 {
			xi, yi := rg[i][0], rg[i][1]
			xj, yj := rg[j][0], rg[j][1]
			if (yi > lat) != (yj > lat) && lon < (xj-xi)*(lat-yi)/(yj-yi)+xi {
				inside = !inside
			}
		}
	}
	return inside
}

// distanceKM is the distance to the closest polygon vertex
func distanceKM(rings []ring, lat, lon float64) float64 {
	best := math.Inf(1)
	for _, rg := range rings {
		for _, p := range rg {
			if d := HaversineDistance(lat, lon, p[1], p[0]); d < best {
				best = d
			}
		}
	}
	return best
}

// HaversineDistance calculates distance in kilometres between two lat/lon points
func HaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusKM = 6371.0

	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	deltaLat := (lat2 - lat1) * math.Pi / 180
	deltaLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKM * c
}

// nauticalZone maps a longitude to its Etc/GMT zone. The Etc sign is
// inverted: 30°E is UTC+2, which is Etc/GMT-2.
func nauticalZone(lon float64) string {
	offset := int(math.Round(lon / 15))
	switch {
	case offset > 0:
		return fmt.Sprintf("Etc/GMT-%d", offset)
	case offset < 0:
		return fmt.Sprintf("Etc/GMT+%d", -offset)
	default:
		return "Etc/GMT"
	}
}
