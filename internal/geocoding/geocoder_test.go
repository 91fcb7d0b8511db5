package geocoding

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	_ "modernc.org/sqlite"
)

const sampleCSV = `code,type,city,state,location_type,lat,lon,decommissioned
02139,STANDARD,Cambridge,MA,PRIMARY,42.3647,-71.1042,false
02138,STANDARD,Cambridge,MA,PRIMARY,42.3770,-71.1256,false
10001,STANDARD,New York,NY,PRIMARY,40.7506,-73.9972,false
99999,STANDARD,Nowhere,ZZ,PRIMARY,not-a-number,0,false
short,row
`

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

func zipcodeDB(t *testing.T) *sql.DB {
	t.Helper()
	db := memoryDB(t)
	count, err := buildZipcodeTable(context.Background(), db, strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("buildZipcodeTable() error = %v", err)
	}
	if count != 3 {
		t.Fatalf("buildZipcodeTable() count = %d, want 3", count)
	}
	return db
}

// nominatimServer answers every search with one fixed result and records queries
func nominatimServer(t *testing.T, body string, queries *[]string) *NominatimClient {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != userAgent {
			t.Errorf("User-Agent = %q, want %q", r.Header.Get("User-Agent"), userAgent)
		}
		if queries != nil {
			*queries = append(*queries, r.URL.Query().Get("q"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	c := NewNominatimClient(server.URL, 0)
	c.minInterval = 0
	return c
}

func TestIsZipcode(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"12345", true},
		{"12345-6789", true},
		{"02139", true},
		{"1234", false},
		{"123456", false},
		{"abcde", false},
		{"12a45", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := isZipcode(tt.input); got != tt.expected {
				t.Errorf("isZipcode(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSplitCityState(t *testing.T) {
	tests := []struct {
		input      string
		city, st   string
		expectedOK bool
	}{
		{"Cambridge, MA", "Cambridge", "MA", true},
		{" new york ,ny ", "new york", "NY", true},
		{"Paris, France", "", "", false},
		{"Tokyo", "", "", false},
		{", MA", "", "", false},
		{"Springfield, IL, USA", "", "", false},
	}

	for _, tt := range tests {
		city, st, ok := splitCityState(tt.input)
		if ok != tt.expectedOK || city != tt.city || st != tt.st {
			t.Errorf("splitCityState(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tt.input, city, st, ok, tt.city, tt.st, tt.expectedOK)
		}
	}
}

func TestGeocode_Local(t *testing.T) {
	g := NewGeocoder(zipcodeDB(t), nil, nil)
	ctx := context.Background()

	tests := []struct {
		query string
		name  string
		lat   float64
	}{
		{"02139", "Cambridge, MA 02139", 42.3647},
		{"02139-4307", "Cambridge, MA 02139", 42.3647},
		{"cambridge, ma", "Cambridge, MA", 42.3770},
		{"New York, NY", "New York, NY", 40.7506},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			loc, err := g.Geocode(ctx, tt.query)
			if err != nil {
				t.Fatalf("Geocode(%q) error = %v", tt.query, err)
			}
			if loc.Name != tt.name {
				t.Errorf("Geocode(%q).Name = %q, want %q", tt.query, loc.Name, tt.name)
			}
			if loc.Latitude != tt.lat {
				t.Errorf("Geocode(%q).Latitude = %v, want %v", tt.query, loc.Latitude, tt.lat)
			}
		})
	}
}

func TestGeocode_LocalMissWithoutRemote(t *testing.T) {
	g := NewGeocoder(zipcodeDB(t), nil, nil)

	for _, q := range []string{"99999", "Springfield, IL", "Kyoto, Japan"} {
		_, err := g.Geocode(context.Background(), q)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("Geocode(%q) error = %v, want ErrNotFound", q, err)
		}
	}
}

func TestGeocode_RemoteFallback(t *testing.T) {
	var queries []string
	remote := nominatimServer(t, `[{"lat":"35.0116","lon":"135.7681","display_name":"Kyoto, Japan"}]`, &queries)

	// No zipcode table yet: every query is remote
	g := NewGeocoder(memoryDB(t), remote, nil)
	ctx := context.Background()

	loc, err := g.Geocode(ctx, "Kyoto, Japan")
	if err != nil {
		t.Fatalf("Geocode() error = %v", err)
	}
	if loc.Name != "Kyoto, Japan" || loc.Latitude != 35.0116 || loc.Longitude != 135.7681 {
		t.Errorf("Geocode() = %+v", loc)
	}

	if _, err := g.Geocode(ctx, "02139"); err != nil {
		t.Fatalf("Geocode(zip) error = %v", err)
	}
	if _, err := g.Geocode(ctx, "Cambridge, MA"); err != nil {
		t.Fatalf("Geocode(city) error = %v", err)
	}

	want := []string{"Kyoto, Japan", "02139, USA", "Cambridge, MA"}
	if len(queries) != len(want) {
		t.Fatalf("remote queries = %v, want %v", queries, want)
	}
	for i := range want {
		if queries[i] != want[i] {
			t.Errorf("remote query %d = %q, want %q", i, queries[i], want[i])
		}
	}
}

func TestGeocode_LocalHitSkipsRemote(t *testing.T) {
	var queries []string
	remote := nominatimServer(t, `[]`, &queries)
	g := NewGeocoder(zipcodeDB(t), remote, nil)

	if _, err := g.Geocode(context.Background(), "10001"); err != nil {
		t.Fatalf("Geocode() error = %v", err)
	}
	if len(queries) != 0 {
		t.Errorf("remote was queried: %v", queries)
	}
}

func TestGeocode_EmptyQuery(t *testing.T) {
	g := NewGeocoder(nil, nil, nil)
	if _, err := g.Geocode(context.Background(), "   "); err == nil {
		t.Error("Geocode(\"\") expected error, got nil")
	}
}
