package tzlookup

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"testing"
	_ "time/tzdata"

	_ "modernc.org/sqlite"

	"github.com/ngmaloney/natal-terminal/internal/models"
)

func memoryDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func square(minLon, minLat, maxLon, maxLat float64) ring {
	return ring{{minLon, minLat}, {maxLon, minLat}, {maxLon, maxLat}, {minLon, maxLat}, {minLon, minLat}}
}

// boundaryDB holds two adjacent squares, the eastern one with a hole that
// is filled by a third zone
func boundaryDB(t *testing.T) *sql.DB {
	t.Helper()
	db := memoryDB(t)
	ctx := context.Background()
	if err := createTable(ctx, db); err != nil {
		t.Fatal(err)
	}

	zones := []struct {
		tzid  string
		rings []ring
	}{
		{"Europe/Lisbon", []ring{square(-10, 40, 0, 50)}},
		{"Europe/Paris", []ring{square(0, 40, 10, 50), square(4, 44, 6, 46)}},
		{"Europe/Monaco", []ring{square(4, 44, 6, 46)}},
	}
	for _, z := range zones {
		if err := insertBoundary(ctx, db, z.tzid, z.rings); err != nil {
			t.Fatalf("insertBoundary(%s) error = %v", z.tzid, err)
		}
	}
	return db
}

func TestLookup(t *testing.T) {
	r := NewResolver(boundaryDB(t))

	tests := []struct {
		name     string
		lat, lon float64
		want     Match
	}{
		{"west square", 45, -5, Match{TZID: "Europe/Lisbon"}},
		{"east square", 45, 2, Match{TZID: "Europe/Paris"}},
		{"inside hole", 45, 5, Match{TZID: "Europe/Monaco"}},
		{"just offshore", 50.1, -10.1, Match{TZID: "Europe/Lisbon", Nearest: true}},
		{"open ocean east", 0, 100, Match{TZID: "Etc/GMT-7", Nautical: true}},
		{"open ocean west", 0, -100, Match{TZID: "Etc/GMT+7", Nautical: true}},
		{"gulf of guinea", 0, 3, Match{TZID: "Etc/GMT", Nautical: true}},
		{"longitude above 180 folds", 45, 358, Match{TZID: "Europe/Lisbon"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Lookup(context.Background(), tt.lat, tt.lon)
			if err != nil {
				t.Fatalf("Lookup(%v, %v) error = %v", tt.lat, tt.lon, err)
			}
			if got != tt.want {
				t.Errorf("Lookup(%v, %v) = %+v, want %+v", tt.lat, tt.lon, got, tt.want)
			}
		})
	}
}

func TestLookup_InvalidCoordinates(t *testing.T) {
	r := NewResolver(boundaryDB(t))
	for _, c := range [][2]float64{{91, 0}, {-91, 0}, {0, 400}, {math.NaN(), 0}} {
		if _, err := r.Lookup(context.Background(), c[0], c[1]); !errors.Is(err, models.ErrInvalidCoordinate) {
			t.Errorf("Lookup(%v, %v) error = %v, want ErrInvalidCoordinate", c[0], c[1], err)
		}
	}
}

func TestLookup_NotProvisioned(t *testing.T) {
	r := NewResolver(memoryDB(t))
	if _, err := r.Lookup(context.Background(), 45, 2); !errors.Is(err, ErrNotProvisioned) {
		t.Errorf("Lookup() error = %v, want ErrNotProvisioned", err)
	}
}

func TestLocation(t *testing.T) {
	r := NewResolver(boundaryDB(t))

	loc, err := r.Location(context.Background(), 45, 2)
	if err != nil {
		t.Fatalf("Location() error = %v", err)
	}
	if loc.String() != "Europe/Paris" {
		t.Errorf("Location() = %s, want Europe/Paris", loc)
	}

	loc, err = r.Location(context.Background(), -20, -150)
	if err != nil {
		t.Fatalf("Location() error = %v", err)
	}
	if loc.String() != "Etc/GMT+10" {
		t.Errorf("Location() = %s, want Etc/GMT+10", loc)
	}
}

func TestContains(t *testing.T) {
	donut := []ring{square(0, 0, 10, 10), square(3, 3, 7, 7)}
	tests := []struct {
		lat, lon float64
		want     bool
	}{
		{1, 1, true},
		{5, 5, false},
		{8, 5, true},
		{11, 5, false},
		{5, -1, false},
	}
	for _, tt := range tests {
		if got := contains(donut, tt.lat, tt.lon); got != tt.want {
			t.Errorf("contains(%v, %v) = %v, want %v", tt.lat, tt.lon, got, tt.want)
		}
	}
}

func TestHaversineDistance(t *testing.T) {
	// London to Paris
	d := HaversineDistance(51.5074, -0.1278, 48.8566, 2.3522)
	if math.Abs(d-343.5) > 2 {
		t.Errorf("HaversineDistance() = %.1f km, want about 343.5", d)
	}
	if d := HaversineDistance(10, 10, 10, 10); d != 0 {
		t.Errorf("HaversineDistance(same point) = %v, want 0", d)
	}
}

func TestNauticalZone(t *testing.T) {
	tests := map[float64]string{
		0:    "Etc/GMT",
		7.4:  "Etc/GMT",
		7.6:  "Etc/GMT-1",
		-7.6: "Etc/GMT+1",
		180:  "Etc/GMT-12",
		-180: "Etc/GMT+12",
	}
	for lon, want := range tests {
		if got := nauticalZone(lon); got != want {
			t.Errorf("nauticalZone(%v) = %q, want %q", lon, got, want)
		}
	}
}
