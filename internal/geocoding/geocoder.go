// Package geocoding resolves birthplaces to coordinates
package geocoding

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// ErrNotFound is returned when no source knows the place
var ErrNotFound = errors.New("location not found")

var zipcodePattern = regexp.MustCompile(`^\d{5}(-\d{4})?$`)

// Location represents a geocoded birthplace
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Name      string  `json:"name"`
}

// Geocoder converts place names to coordinates. US zipcodes and "City, ST"
// pairs are answered from the local zipcode table when it has been
// provisioned; everything else, and every local miss, goes to Nominatim.
type Geocoder struct {
	db        *sql.DB
	nominatim *NominatimClient
	logger    *zap.Logger
}

// NewGeocoder creates a geocoder. db and nominatim may each be nil,
// disabling that source.
func NewGeocoder(db *sql.DB, nominatim *NominatimClient, logger *zap.Logger) *Geocoder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Geocoder{db: db, nominatim: nominatim, logger: logger}
}

// Geocode converts a query (zipcode, "City, ST", or any free-form place) to coordinates
func (g *Geocoder) Geocode(ctx context.Context, query string) (*Location, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}

	remoteQuery := query
	switch {
	case isZipcode(query):
		loc, err := g.local(ctx, func(db *sql.DB) (*Location, error) {
			return lookupZipcodeInDB(ctx, db, query[:5])
		})
		if loc != nil || !errors.Is(err, ErrNotFound) {
			return loc, err
		}
		remoteQuery = query + ", USA"
	default:
		if city, state, ok := splitCityState(query); ok {
			loc, err := g.local(ctx, func(db *sql.DB) (*Location, error) {
				return lookupCityStateInDB(ctx, db, city, state)
			})
			if loc != nil || !errors.Is(err, ErrNotFound) {
				return loc, err
			}
		}
	}

	if g.nominatim == nil {
		return nil, fmt.Errorf("no result for %q: %w", query, ErrNotFound)
	}
	g.logger.Debug("geocoding remotely", zap.String("query", remoteQuery))
	return g.nominatim.Search(ctx, remoteQuery)
}

// local runs lookup against the zipcode table, reporting ErrNotFound when
// there is no table to ask
func (g *Geocoder) local(ctx context.Context, lookup func(*sql.DB) (*Location, error)) (*Location, error) {
	if g.db == nil {
		return nil, ErrNotFound
	}
	var count int
	err := g.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", tableName).Scan(&count)
	if err != nil {
		return nil, fmt.Errorf("checking for %s table: %w", tableName, err)
	}
	if count == 0 {
		return nil, ErrNotFound
	}

	loc, err := lookup(g.db)
	if errors.Is(err, ErrNotFound) {
		g.logger.Debug("local geocoding miss", zap.Error(err))
	}
	return loc, err
}

// isZipcode checks if a string looks like a US zipcode
func isZipcode(s string) bool {
	return zipcodePattern.MatchString(s)
}

// splitCityState accepts "City, ST" with a two-letter state code
func splitCityState(query string) (city, state string, ok bool) {
	parts := strings.Split(query, ",")
	if len(parts) != 2 {
		return "", "", false
	}
	city = strings.TrimSpace(parts[0])
	state = strings.ToUpper(strings.TrimSpace(parts[1]))
	if city == "" || len(state) != 2 {
		return "", "", false
	}
	return city, state, true
}
