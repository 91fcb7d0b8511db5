package ephemeris

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	"github.com/ngmaloney/natal-terminal/internal/database"
	"github.com/ngmaloney/natal-terminal/internal/julian"
	"github.com/ngmaloney/natal-terminal/internal/models"
	"github.com/ngmaloney/natal-terminal/internal/zodiac"
)

// tableName holds one row per body per day at 0h UT
const tableName = "ephemeris"

// GetDB is a function variable to allow mocking in tests
var GetDB = database.Open

// Table reads a precomputed daily ephemeris and interpolates between rows
type Table struct {
	db *sql.DB
}

// NewTable wraps an already-open database containing the ephemeris table
func NewTable(db *sql.DB) *Table {
	return &Table{db: db}
}

// OpenTable opens the shared database at dbPath. It does not provision.
func OpenTable(dbPath string) (*Table, error) {
	needs, err := NeedsProvisioning(dbPath)
	if err != nil {
		return nil, err
	}
	if needs {
		return nil, fmt.Errorf("ephemeris table not provisioned at %s: %w", dbPath, models.ErrEphemerisUnavailable)
	}

	db, err := GetDB(dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return NewTable(db), nil
}

type tableRow struct {
	jd        float64
	longitude float64
	speed     float64
}

// Position implements Provider
func (t *Table) Position(ctx context.Context, jd julian.Day, body Body) (Position, error) {
	// Rows sit on x.5 (0h UT)
	t0 := math.Floor(float64(jd)-0.5) + 0.5
	t1 := t0 + 1

	rows, err := t.db.QueryContext(ctx,
		"SELECT jd, longitude, speed FROM ephemeris WHERE body = ? AND jd IN (?, ?) ORDER BY jd",
		body.Key(), t0, t1)
	if err != nil {
		return Position{}, fmt.Errorf("querying ephemeris table for %s: %v: %w", body, err, models.ErrEphemerisUnavailable)
	}
	defer rows.Close()

	var found []tableRow
	for rows.Next() {
		var r tableRow
		if err := rows.Scan(&r.jd, &r.longitude, &r.speed); err != nil {
			return Position{}, fmt.Errorf("scanning ephemeris row: %v: %w", err, models.ErrEphemerisUnavailable)
		}
		found = append(found, r)
	}
	if err := rows.Err(); err != nil {
		return Position{}, fmt.Errorf("reading ephemeris rows: %v: %w", err, models.ErrEphemerisUnavailable)
	}

	frac := float64(jd) - t0
	switch {
	case len(found) == 2:
		lon, speed := hermite(found[0], found[1], frac)
		return Position{Body: body, Longitude: lon, Speed: speed}, nil
	case len(found) == 1 && frac == 0 && found[0].jd == t0:
		return Position{Body: body, Longitude: zodiac.Normalize(found[0].longitude), Speed: found[0].speed}, nil
	}
	return Position{}, fmt.Errorf("no ephemeris rows for %s at JD %.5f: %w", body, float64(jd), models.ErrEphemerisUnavailable)
}

// Range returns the first and last Julian Day covered by the table
func (t *Table) Range(ctx context.Context) (julian.Day, julian.Day, error) {
	var first, last sql.NullFloat64
	err := t.db.QueryRowContext(ctx, "SELECT MIN(jd), MAX(jd) FROM ephemeris").Scan(&first, &last)
	if err != nil {
		return 0, 0, fmt.Errorf("querying ephemeris range: %w", err)
	}
	if !first.Valid || !last.Valid {
		return 0, 0, fmt.Errorf("ephemeris table is empty: %w", models.ErrEphemerisUnavailable)
	}
	return julian.Day(first.Float64), julian.Day(last.Float64), nil
}

// hermite interpolates a cubic through both rows using their speeds as
// derivatives. The step between rows is one day.
func hermite(a, b tableRow, s float64) (lon, speed float64) {
	p0 := a.longitude
	p1 := a.longitude + wrap180(b.longitude-a.longitude)
	m0, m1 := a.speed, b.speed

	s2 := s * s
	s3 := s2 * s

	h00 := 2*s3 - 3*s2 + 1
	h10 := s3 - 2*s2 + s
	h01 := -2*s3 + 3*s2
	h11 := s3 - s2

	lon = h00*p0 + h10*m0 + h01*p1 + h11*m1

	d00 := 6*s2 - 6*s
	d10 := 3*s2 - 4*s + 1
	d01 := -6*s2 + 6*s
	d11 := 3*s2 - 2*s

	speed = d00*p0 + d10*m0 + d01*p1 + d11*m1
	return zodiac.Normalize(lon), speed
}
